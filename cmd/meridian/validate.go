package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sundial-hq/meridian/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file (including environment overrides) and
report validation errors without starting the gateway.

Examples:
  # Validate the default config file
  meridian validate

  # Validate a specific file
  meridian validate --config /etc/meridian/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return err
		}

		providers := 0
		for _, ep := range cfg.Endpoints {
			providers += len(ep.Providers)
		}

		fmt.Printf("✓ Configuration valid: %s\n", cfgFile)
		fmt.Printf("  endpoints: %d, providers: %d\n", len(cfg.Endpoints), providers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
