package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/formsense/pkg/appctx"
	"github.com/vulntor/formsense/pkg/config"
	"github.com/vulntor/formsense/pkg/logging"
	"github.com/vulntor/formsense/pkg/matching"
	"github.com/vulntor/formsense/pkg/paths"
)

const cliExecutable = "formsense"

// NewCommand constructs the top-level formsense CLI command, wiring global
// flags, configuration loading and logging.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
		logCloser      io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "formsense classifies HTML form fields for autofill",
		Long: `formsense infers the semantic type of HTML input fields (email, password,
username, credit card and identity fields) from a rule-driven matching engine.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" {
				configFile = paths.ConfigFile()
			}
			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			cfg := mgr.Get()

			closer, err := logging.Configure(logging.Options{
				Level:  logging.VerbosityLevel(verbosityCount, cfg.Log.Level),
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
			logCloser = closer
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			log.Debug().Str("config", configFile).Msg("configuration loaded")

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	// main prints the error together with its suggestions
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default $XDG_CONFIG_HOME/formsense/config.yaml)")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("rules", "", "Matching rules file (JSON or YAML); default is the built-in rules")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "match", Title: "Matching Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(NewClassifyCommand())
	cmd.AddCommand(NewExplainCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewRulesCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// loadedConfig returns the configuration PersistentPreRunE stored on the
// command context, or the defaults when the command runs without it.
func loadedConfig(cmd *cobra.Command) config.Config {
	if mgr, ok := appctx.Config(cmd.Context()); ok {
		return mgr.Get()
	}
	return config.DefaultConfig()
}

// loadProvider returns the provider stored on the context, or loads the
// rules at path and stores the provider for later lookups.
func loadProvider(cmd *cobra.Command, path string, cfg config.Config) (*matching.Provider, error) {
	if p, ok := appctx.Provider(cmd.Context()); ok {
		return p, nil
	}
	p, err := matching.NewProvider(path,
		matching.WithLogger(log.Logger),
		matching.WithTextCutoff(cfg.Matching.TextCutoff),
	)
	if err != nil {
		return nil, err
	}
	cmd.SetContext(appctx.WithProvider(cmd.Context(), p))
	return p, nil
}
