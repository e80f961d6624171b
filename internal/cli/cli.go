// Package cli wires configuration, logging, form definitions and sinks into
// the formcollect commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formcollect/internal/config"
	"github.com/goliatone/go-formcollect/pkg/logger"
	"github.com/goliatone/go-formcollect/pkg/prompt"
	"github.com/goliatone/go-formcollect/pkg/sink"
)

const rootLong = `Collect and validate signup form submissions.

The serve command hosts the form over HTTP, prompt asks for it in the
terminal and check validates a payload captured elsewhere. Every command
reads an optional configuration file plus FORMCOLLECT_* environment
overrides.`

// DefaultConfigFile is read from the working directory when --config is not
// given and the file exists.
const DefaultConfigFile = "formcollect.yml"

// Deps holds optional dependencies that can be overridden.
// If fields are nil, production defaults are used.
type Deps struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Logger replaces the logger built from configuration.
	Logger logger.Logger
	// Driver replaces the terminal prompt driver.
	Driver prompt.PromptDriver
	// Sink replaces the configured sinks.
	Sink sink.Sink
}

func (d *Deps) applyDefaults() {
	if d.In == nil {
		d.In = os.Stdin
	}
	if d.Out == nil {
		d.Out = os.Stdout
	}
	if d.Err == nil {
		d.Err = os.Stderr
	}
}

type app struct {
	deps       Deps
	configPath string
	logLevel   string

	cfg  *config.Config
	lggr logger.Logger
}

// NewCommand builds the formcollect root command with all subcommands.
func NewCommand(deps Deps) *cobra.Command {
	deps.applyDefaults()
	a := &app{deps: deps}

	cmd := &cobra.Command{
		Use:           "formcollect",
		Short:         "Signup form collector",
		Long:          rootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.lggr != nil {
				_ = a.lggr.Sync()
			}
		},
	}
	cmd.SetIn(deps.In)
	cmd.SetOut(deps.Out)
	cmd.SetErr(deps.Err)

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a configuration file (yaml, json or toml); "+DefaultConfigFile+" is read when present")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newPromptCmd(a))
	cmd.AddCommand(newCheckCmd(a))

	return cmd
}

func (a *app) load() error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load(DefaultConfigFile)
	}
	if err != nil {
		return err
	}
	if level := strings.TrimSpace(a.logLevel); level != "" {
		cfg.Log.Level = level
	}
	a.cfg = cfg

	if a.deps.Logger != nil {
		a.lggr = a.deps.Logger
		return nil
	}
	lvl, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	lggr, err := logger.Config{Level: lvl, Development: cfg.Log.Development}.New()
	if err != nil {
		return fmt.Errorf("cli: logger: %w", err)
	}
	a.lggr = lggr
	return nil
}
