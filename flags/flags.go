package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TESTMUX"

func prefixEnvVars(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	Assemblies = &cli.StringSliceFlag{
		Name:    "assembly",
		Aliases: []string{"a"},
		EnvVars: prefixEnvVars("ASSEMBLIES"),
		Usage:   "Assembly to run, as 'path' or 'path=configpath'. Repeatable.",
	}
	Parallel = &cli.BoolFlag{
		Name:    "parallel",
		EnvVars: prefixEnvVars("PARALLEL"),
		Usage:   "Run assemblies in parallel. When unset, inferred from the assemblies' own configuration.",
	}
	ParallelizeCollections = &cli.BoolFlag{
		Name:    "parallelize-collections",
		EnvVars: prefixEnvVars("PARALLELIZE_COLLECTIONS"),
		Usage:   "Override per-assembly test collection parallelization.",
	}
	MaxThreads = &cli.StringFlag{
		Name:    "max-threads",
		Value:   "default",
		EnvVars: prefixEnvVars("MAX_THREADS"),
		Usage:   "Maximum engine threads per assembly: 'default', 'unlimited', or a non-negative integer.",
	}
	IncludeTraits = &cli.StringFlag{
		Name:    "include-traits",
		EnvVars: prefixEnvVars("INCLUDE_TRAITS"),
		Usage:   "Only run tests carrying one of these traits ('name=value;name=value').",
	}
	ExcludeTraits = &cli.StringFlag{
		Name:    "exclude-traits",
		EnvVars: prefixEnvVars("EXCLUDE_TRAITS"),
		Usage:   "Never run tests carrying any of these traits ('name=value;name=value').",
	}
	Diagnostics = &cli.BoolFlag{
		Name:    "diagnostics",
		EnvVars: prefixEnvVars("DIAGNOSTICS"),
		Usage:   "Enable verbose engine logging for every assembly.",
	}
	Serialize = &cli.BoolFlag{
		Name:    "serialize",
		EnvVars: prefixEnvVars("SERIALIZE"),
		Usage:   "Round-trip test cases through the engine serializer before running (diagnostic).",
	}
	XMLOutput = &cli.StringFlag{
		Name:    "xml",
		EnvVars: prefixEnvVars("XML"),
		Usage:   "Write the native XML report to this path.",
	}
	XMLV1Output = &cli.StringFlag{
		Name:    "xml-v1",
		EnvVars: prefixEnvVars("XML_V1"),
		Usage:   "Write the legacy XML report to this path.",
	}
	HTMLOutput = &cli.StringFlag{
		Name:    "html",
		EnvVars: prefixEnvVars("HTML"),
		Usage:   "Write the HTML report to this path.",
	}
	WorkDir = &cli.StringFlag{
		Name:    "workdir",
		EnvVars: prefixEnvVars("WORKDIR"),
		Usage:   "Working directory for the whole run; restored after all assemblies settle.",
	}
	GoBinary = &cli.StringFlag{
		Name:    "go-binary",
		Value:   "go",
		EnvVars: prefixEnvVars("GO_BINARY"),
		Usage:   "Path to the Go binary used to run test assemblies.",
	}
)

var requiredFlags = []cli.Flag{
	Assemblies,
}

var optionalFlags = []cli.Flag{
	Parallel,
	ParallelizeCollections,
	MaxThreads,
	IncludeTraits,
	ExcludeTraits,
	Diagnostics,
	Serialize,
	XMLOutput,
	XMLV1Output,
	HTMLOutput,
	WorkDir,
	GoBinary,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
