package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	agentsFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "chatbot-llm",
	Short: "Chat with an LLM from your terminal",
	Long: `chatbot-llm is an interactive chat client for OpenAI-compatible endpoints.
Replies are streamed to the terminal as they are generated.

Examples:
  chatbot-llm                    start chatting with the default agent
  chatbot-llm chat -a coder      chat with the coder agent
  chatbot-llm list-agents        show available agents

Type 'quit' or 'exit' to end a session.`,
	RunE:                       runChat,
	SilenceUsage:               true,
	SilenceErrors:              true,
	TraverseChildren:           true,
	SuggestionsMinimumDistance: 1,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(os.Stderr, debug))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&agentsFile, "agents-file", "", "Path to a YAML or TOML agents file (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log requests and stream diagnostics to stderr")
	addChatFlags(rootCmd)

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(listAgentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point called from main.
func Execute() error {
	return rootCmd.Execute()
}

func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
