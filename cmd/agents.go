package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/arin/chatbot-llm/internal/config"
	"github.com/arin/chatbot-llm/internal/exitcode"
	"github.com/arin/chatbot-llm/internal/persona"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var listAgentsCmd = &cobra.Command{
	Use:     "list-agents",
	Aliases: []string{"agents"},
	Short:   "List available agents",
	Long: `List every agent that can be passed to --agent, the default first.
Agents from --agents-file (or agents_file in the config) are shown after
the builtin ones and replace builtins with the same name.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return exitcode.ConfigError(fmt.Errorf("configuration error: %w", err))
		}
		reg, err := loadAgents(cfg)
		if err != nil {
			return exitcode.ConfigError(err)
		}

		cyan := color.New(color.FgCyan, color.Bold)
		fmt.Fprintln(os.Stdout)
		cyan.Fprintln(os.Stdout, "  Available agents:")
		printAgents(os.Stdout, reg.List())
		fmt.Fprintln(os.Stdout)
		return nil
	},
}

func printAgents(w io.Writer, agents []persona.Persona) {
	green := color.New(color.FgGreen)
	dim := color.New(color.FgHiBlack)

	for _, p := range agents {
		green.Fprintf(w, "    %s", p.Name)
		if len(p.Aliases) > 0 {
			dim.Fprintf(w, " (aliases: %s)", strings.Join(p.Aliases, ", "))
		}
		fmt.Fprintln(w)
		if p.Description != "" {
			dim.Fprintf(w, "      %s\n", p.Description)
		}
	}
}
