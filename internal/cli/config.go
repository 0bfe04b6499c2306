package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/releasegate/releasegate/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage releasegate configuration",
	Long: `Manage releasegate configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. Explicit request fields
2. Environment variables (RELEASEGATE_*, OPENAI_API_KEY)
3. Config file (~/.releasegate/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current default configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		defaults := struct {
			LLM        model.LLMConfig        `yaml:"llm"`
			Validation model.ValidationConfig `yaml:"validation"`
		}{
			LLM:        model.DefaultLLMConfig(),
			Validation: model.DefaultValidationConfig(),
		}

		yamlData, err := yaml.Marshal(defaults)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Println(string(yamlData))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}
