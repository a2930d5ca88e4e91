package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vulntor/formsense/cmd/formsense/internal/bind"
	"github.com/vulntor/formsense/cmd/formsense/internal/format"
)

// NewRulesCommand groups the rule file helpers.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Short:   "Check or print matching rules",
		GroupID: "core",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newRulesCheckCommand())
	cmd.AddCommand(newRulesDumpCommand())

	return cmd
}

func newRulesCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Parse, validate and compile a rules file",
		Long: `Parse the rules file, validate its structure and compile every vendor
regex. Without --rules the built-in rules are checked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadedConfig(cmd)
			opts, err := bind.BindRulesOptions(cmd, cfg)
			if err != nil {
				return err
			}
			provider, err := loadProvider(cmd, opts.Rules, cfg)
			if err != nil {
				return err
			}

			store := provider.Engine().Store()
			rules := store.Config()
			source := opts.Rules
			if source == "" {
				source = "built-in rules"
			}
			out := newFormatter(cmd, format.ModeTable)
			return out.PrintSummary(fmt.Sprintf("✓ %s: %d fields, %d lists, %d css selectors, %d ddg matchers, %d vendor regexes",
				source,
				len(rules.Matchers.Fields),
				len(store.ListNames()),
				len(rules.Strategies.CSSSelectors.Selectors),
				len(rules.Strategies.DDGMatchers.Matchers),
				len(store.VendorRegexes().Names()),
			))
		},
	}
}

func newRulesDumpCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the effective matching rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := loadedConfig(cmd)
			opts, err := bind.BindRulesOptions(cmd, cfg)
			if err != nil {
				return err
			}
			provider, err := loadProvider(cmd, opts.Rules, cfg)
			if err != nil {
				return err
			}
			rules := provider.Engine().Store().Config()

			if opts.Format == "yaml" {
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				if err := enc.Encode(rules); err != nil {
					return err
				}
				return enc.Close()
			}
			data, err := json.MarshalIndent(rules, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	cmd.Flags().String("format", "json", "Dump format: json | yaml")

	return cmd
}
