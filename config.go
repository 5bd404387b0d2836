package testmux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/testmux/testmux/flags"
	"github.com/testmux/testmux/runner"
	"github.com/testmux/testmux/types"
)

// defaultConfigName is the assembly config file picked up automatically when
// no explicit config path was given.
const defaultConfigName = "testmux.yaml"

// Config holds the resolved application configuration for one run.
type Config struct {
	Targets []types.AssemblyTarget

	ParallelizeAssemblies  *bool // nil = infer from assembly configs
	ParallelizeCollections *bool // nil = per-assembly default
	MaxParallelThreads     runner.Parallelism

	IncludeTraits string
	ExcludeTraits string

	Diagnostics bool
	Serialize   bool

	XMLPath   string
	XMLV1Path string
	HTMLPath  string

	WorkDir  string
	GoBinary string

	Log log.Logger
}

// NewConfig builds the run configuration from the CLI context. Every
// validation failure is a ConfigError: the run never starts.
func NewConfig(ctx *cli.Context, logger log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, NewConfigError(err)
	}

	targets, err := resolveTargets(ctx.StringSlice(flags.Assemblies.Name))
	if err != nil {
		return nil, NewConfigError(err)
	}

	maxThreads, err := runner.ParseParallelism(ctx.String(flags.MaxThreads.Name))
	if err != nil {
		return nil, NewConfigError(err)
	}

	cfg := &Config{
		Targets:            targets,
		MaxParallelThreads: maxThreads,
		IncludeTraits:      ctx.String(flags.IncludeTraits.Name),
		ExcludeTraits:      ctx.String(flags.ExcludeTraits.Name),
		Diagnostics:        ctx.Bool(flags.Diagnostics.Name),
		Serialize:          ctx.Bool(flags.Serialize.Name),
		XMLPath:            ctx.String(flags.XMLOutput.Name),
		XMLV1Path:          ctx.String(flags.XMLV1Output.Name),
		HTMLPath:           ctx.String(flags.HTMLOutput.Name),
		WorkDir:            ctx.String(flags.WorkDir.Name),
		GoBinary:           ctx.String(flags.GoBinary.Name),
		Log:                logger,
	}

	// urfave exposes no tri-state bool, so "explicitly set" is tracked via
	// IsSet and unset flags stay nil for downstream inference.
	if ctx.IsSet(flags.Parallel.Name) {
		v := ctx.Bool(flags.Parallel.Name)
		cfg.ParallelizeAssemblies = &v
	}
	if ctx.IsSet(flags.ParallelizeCollections.Name) {
		v := ctx.Bool(flags.ParallelizeCollections.Name)
		cfg.ParallelizeCollections = &v
	}

	if cfg.WorkDir != "" {
		if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
			return nil, NewConfigError(fmt.Errorf("working directory %s is not usable", cfg.WorkDir))
		}
	}

	return cfg, nil
}

// WantsResultTree reports whether any output format was requested. The result
// tree is never constructed otherwise.
func (c *Config) WantsResultTree() bool {
	return c.XMLPath != "" || c.XMLV1Path != "" || c.HTMLPath != ""
}

// resolveTargets parses 'path' or 'path=configpath' entries, loads each
// assembly's config, and rejects display-name collisions up front.
func resolveTargets(entries []string) ([]types.AssemblyTarget, error) {
	if len(entries) == 0 {
		return nil, errors.New("at least one assembly is required")
	}

	targets := make([]types.AssemblyTarget, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		path, configPath, _ := strings.Cut(entry, "=")
		path = strings.TrimSpace(path)
		configPath = strings.TrimSpace(configPath)
		if path == "" {
			return nil, fmt.Errorf("empty assembly path in %q", entry)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("assembly %s: %w", path, err)
		}

		target, err := resolveTarget(path, configPath)
		if err != nil {
			return nil, err
		}

		name := target.DisplayName()
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("assembly display name %q is ambiguous between %s and %s", name, prev, path)
		}
		seen[name] = path
		targets = append(targets, target)
	}
	return targets, nil
}

func resolveTarget(path, configPath string) (types.AssemblyTarget, error) {
	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(path, defaultConfigName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if explicit {
			return types.AssemblyTarget{}, fmt.Errorf("assembly config %s: %w", configPath, err)
		}
		// No config alongside the assembly; defaults apply.
		return types.AssemblyTarget{Path: path}, nil
	}

	cfg, err := types.ParseAssemblyConfig(data)
	if err != nil {
		return types.AssemblyTarget{}, fmt.Errorf("assembly config %s: %w", configPath, err)
	}
	return types.AssemblyTarget{Path: path, ConfigPath: configPath, Config: cfg}, nil
}
