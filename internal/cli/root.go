// Package cli implements the tablectl command-line interface: inspecting
// schema files, applying record streams to an in-memory store and encoding
// entity ids.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	tables "github.com/primodiumxyz/reactive-tables-sub000"
)

const (
	exitSuccess   = 0
	exitUserError = 1
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	cfg      Config
	logLevel string
	logger   *slog.Logger
}

// NewRootCmd creates the top-level "tablectl" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "tablectl",
		Short: "Inspect and exercise reactive component tables",
		Long:  "tablectl loads a YAML table schema, applies JSON Lines record streams\nto an in-memory store and prints the resulting rows, queries and updates.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.cfg.Schema, "schema", "s", "", "schema file (env TABLECTL_SCHEMA)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (env TABLECTL_LOG_LEVEL)")
	root.PersistentFlags().BoolVarP(&a.cfg.Verbose, "verbose", "v", false, "log every store operation (env TABLECTL_VERBOSE)")
	root.PersistentFlags().BoolVar(&a.cfg.NoColor, "no-color", false, "disable colored logs (env TABLECTL_NO_COLOR)")

	root.AddCommand(newDescribeCmd(a))
	root.AddCommand(newApplyCmd(a))
	root.AddCommand(newWatchCmd(a))
	root.AddCommand(newKeyCmd(a))
	root.AddCommand(newRecordsSchemaCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitUserError)
	}
	os.Exit(exitSuccess)
}

func (a *app) init(cmd *cobra.Command) error {
	var envCfg Config
	if err := ParseEnv(&envCfg); err != nil {
		return err
	}
	fl := cmd.Flags()
	if !fl.Changed("schema") {
		a.cfg.Schema = envCfg.Schema
	}
	if !fl.Changed("verbose") {
		a.cfg.Verbose = envCfg.Verbose
	}
	if !fl.Changed("no-color") {
		a.cfg.NoColor = envCfg.NoColor
	}
	a.cfg.LogLevel = envCfg.LogLevel
	if a.logLevel != "" {
		if err := a.cfg.LogLevel.UnmarshalText([]byte(a.logLevel)); err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
	}
	a.logger = newLogger(cmd.ErrOrStderr(), &a.cfg)
	return nil
}

func (a *app) loadSchema() (*tables.Schema, error) {
	if a.cfg.Schema == "" {
		return nil, fmt.Errorf("no schema file given (use --schema or TABLECTL_SCHEMA)")
	}
	data, err := os.ReadFile(a.cfg.Schema)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	scm, err := tables.ParseSchemaYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Schema, err)
	}
	return scm, nil
}

func (a *app) newStore(scm *tables.Schema) *tables.Store {
	return tables.New(scm, tables.Options{
		Logger:  a.logger,
		Verbose: a.cfg.Verbose,
	})
}

func (a *app) tableNamed(scm *tables.Schema, name string) (*tables.Table, error) {
	tbl := scm.TableNamed(name)
	if tbl == nil {
		return nil, fmt.Errorf("%w %q in %s", tables.ErrUnknownTable, name, a.cfg.Schema)
	}
	return tbl, nil
}
