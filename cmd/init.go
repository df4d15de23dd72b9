package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arin/chatbot-llm/internal/config"
	"github.com/arin/chatbot-llm/internal/persona"
	"github.com/spf13/cobra"
)

var initForce bool

const starterAgents = `# Custom agents for chatbot-llm.
# Entries here are added to the builtin agents; an entry named like a
# builtin replaces it. Aliases must not collide with another agent.

translator:
  description: Translates text between languages
  aliases: [translate, tr]
  prompt: >-
    You are a translator. Detect the language of the user's message and
    translate it to English, or to the language the user asks for. Reply
    with the translation only.

tutor:
  description: Explains concepts step by step
  aliases: [teach]
  prompt: >-
    You are a patient tutor. Explain concepts step by step, check
    understanding with a short question at the end, and avoid jargon
    unless the user uses it first.
`

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter agents file",
	Long: `Write a starter agents file and point the config at it.

The default location is ~/.chatbot-llm/agents.yaml. Edit it to add your own
agents, then run 'chatbot-llm list-agents' to check them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(config.Dir(), "agents.yaml")
		if len(args) > 0 {
			abs, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			path = abs
		}

		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		// Refuse to write a file the loader would reject.
		if _, err := persona.ParseYAML([]byte(starterAgents)); err != nil {
			return fmt.Errorf("starter agents: %w", err)
		}

		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(starterAgents), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		if err := config.SetAgentsFile(path); err != nil {
			return fmt.Errorf("failed to save agents file: %w", err)
		}

		fmt.Printf("Wrote %s.\n", path)
		fmt.Println("Run 'chatbot-llm list-agents' to see your agents.")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
}
