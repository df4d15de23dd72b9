package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/arin/chatbot-llm/internal/config"
	"github.com/arin/chatbot-llm/internal/exitcode"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage chatbot-llm configuration",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key <api-key>",
	Short: "Set your OpenAI API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetAPIKey(args[0]); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		fmt.Println("API key saved successfully.")
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model <model-name>",
	Short: "Set the model (default: " + config.DefaultModel + ")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetModel(args[0]); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}
		fmt.Printf("Model set to %s.\n", args[0])
		return nil
	},
}

var setAgentsFileCmd = &cobra.Command{
	Use:   "set-agents-file <path>",
	Short: "Set the YAML or TOML file with custom agents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		if err := config.SetAgentsFile(path); err != nil {
			return fmt.Errorf("failed to save agents file: %w", err)
		}
		fmt.Printf("Agents file set to %s.\n", path)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return exitcode.ConfigError(err)
		}
		agents := cfg.AgentsFile
		if agents == "" {
			agents = "(builtin only)"
		}
		fmt.Printf("Model:       %s\n", cfg.Model)
		fmt.Printf("Base URL:    %s\n", cfg.BaseURL)
		fmt.Printf("API Key:     %s\n", cfg.MaskedKey())
		fmt.Printf("Timeout:     %s\n", cfg.RequestTimeout())
		fmt.Printf("Max Tokens:  %d\n", cfg.MaxTokens)
		fmt.Printf("Temperature: %g\n", cfg.Temperature)
		fmt.Printf("Stream:      %t\n", cfg.Stream)
		fmt.Printf("Agents File: %s\n", agents)
		fmt.Printf("Config Dir:  %s\n", config.Dir())
		return nil
	},
}

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.Path())
	},
}

func init() {
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(setAgentsFileCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(pathCmd)
}
