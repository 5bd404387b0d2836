package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	testmux "github.com/testmux/testmux"
	"github.com/testmux/testmux/exitcodes"
	"github.com/testmux/testmux/flags"
)

var (
	Version   = "v0.3.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "testmux"
	app.Usage = "Multi-assembly test orchestrator"
	app.Description = "testmux runs test assemblies serially or in parallel, aggregates their results, and reports aggregate status through its exit code"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			switch {
			case testmux.IsTestFailureError(err):
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			default:
				// Configuration errors and fatal execution errors share the
				// fatal exit code; the message keeps them distinguishable.
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.FatalError))
			}
		}
	}

	// Telemetry export is opt-in through the standard OTLP environment.
	if os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(app.Name),
			otelconfig.WithServiceVersion(app.Version),
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to set up telemetry: %v\n", err)
		} else {
			defer shutdown()
		}
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already ran; this is unreachable for handled errors.
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.FatalError)
	}
}

func run(ctx *cli.Context) error {
	level := log.LevelInfo
	if ctx.Bool(flags.Diagnostics.Name) {
		level = log.LevelDebug
	}
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, level, false))
	log.SetDefault(logger)

	cfg, err := testmux.NewConfig(ctx, logger)
	if err != nil {
		return err
	}

	svc, err := testmux.New(cfg)
	if err != nil {
		return testmux.NewFatalError(err)
	}

	// First signal requests cooperative cancellation: in-flight assemblies
	// run to completion, nothing new starts. A second signal kills the
	// process outright.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		svc.Cancel()
		<-sigs
		logger.Crit("Forced shutdown")
	}()

	return svc.Run(ctx.Context)
}
