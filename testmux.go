// Package testmux wires the orchestrator core to its collaborators: the
// gotest engine, trait filters, the environment-selected progress reporter,
// and the report writers.
package testmux

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"

	"github.com/testmux/testmux/engine/gotest"
	"github.com/testmux/testmux/exitcodes"
	"github.com/testmux/testmux/reporter"
	"github.com/testmux/testmux/reporting"
	"github.com/testmux/testmux/runner"
	"github.com/testmux/testmux/traits"
)

// Service is one configured run of the orchestrator.
type Service struct {
	cfg  *Config
	log  log.Logger
	orch *runner.Orchestrator
}

// New builds the service from a validated config.
func New(cfg *Config) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	logger := cfg.Log
	if logger == nil {
		logger = log.New()
	}

	filters := traits.Compile(cfg.IncludeTraits, cfg.ExcludeTraits, func(msg string) {
		logger.Warn("Trait filter warning", "message", msg)
	})

	eng := gotest.New(cfg.GoBinary, logger)
	orch, err := runner.New(eng, filters, reporter.ForEnvironment(logger), logger)
	if err != nil {
		return nil, fmt.Errorf("creating orchestrator: %w", err)
	}

	return &Service{cfg: cfg, log: logger, orch: orch}, nil
}

// Cancel requests cooperative cancellation: no new assemblies start, in-flight
// assemblies run to completion.
func (s *Service) Cancel() {
	s.orch.Cancel()
}

// Run executes the configured assemblies, prints the summary table, writes the
// requested reports, and maps the merged outcome onto a typed error the CLI
// turns into the process exit code.
func (s *Service) Run(ctx context.Context) error {
	opts := runner.Options{
		ParallelizeAssemblies:  s.cfg.ParallelizeAssemblies,
		MaxParallelThreads:     s.cfg.MaxParallelThreads,
		ParallelizeCollections: s.cfg.ParallelizeCollections,
		DiagnosticMessages:     s.cfg.Diagnostics,
		SerializeTestCases:     s.cfg.Serialize,
		BuildResultTree:        s.cfg.WantsResultTree(),
		WorkDir:                s.cfg.WorkDir,
	}

	result, err := s.orch.Run(ctx, s.cfg.Targets, opts)
	if err != nil {
		return NewFatalError(err)
	}

	result.Summaries.Report(os.Stdout)

	// Report generation failures are fatal but kept distinct from test
	// outcomes: the summary above still reflects what the tests did.
	if err := s.writeReports(result); err != nil {
		s.log.Error("Report generation failed", "error", err)
		return NewFatalError(fmt.Errorf("report generation: %w", err))
	}

	switch result.ExitCode {
	case exitcodes.FatalError:
		return NewFatalError(errors.New("one or more assemblies failed to execute"))
	case exitcodes.TestFailure:
		total := result.Summaries.GrandTotal()
		return NewTestFailureError(fmt.Sprintf("%d of %d tests failed", total.Failed+total.Errored, total.Total))
	default:
		return nil
	}
}

func (s *Service) writeReports(result *runner.RunResult) error {
	if result.Tree == nil {
		return nil
	}
	if s.cfg.XMLPath != "" {
		if err := reporting.WriteNativeXML(result.Tree, s.cfg.XMLPath); err != nil {
			return err
		}
		s.log.Info("Wrote native XML report", "path", s.cfg.XMLPath)
	}
	if s.cfg.XMLV1Path != "" {
		if err := reporting.WriteLegacyXML(result.Tree, s.cfg.XMLV1Path); err != nil {
			return err
		}
		s.log.Info("Wrote legacy XML report", "path", s.cfg.XMLV1Path)
	}
	if s.cfg.HTMLPath != "" {
		if err := reporting.WriteHTML(result.Tree, s.cfg.HTMLPath); err != nil {
			return err
		}
		s.log.Info("Wrote HTML report", "path", s.cfg.HTMLPath)
	}
	return nil
}
