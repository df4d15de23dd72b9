package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/arin/chatbot-llm/internal/ai"
	"github.com/arin/chatbot-llm/internal/chat"
	"github.com/arin/chatbot-llm/internal/config"
	"github.com/arin/chatbot-llm/internal/exitcode"
	"github.com/arin/chatbot-llm/internal/persona"
	"github.com/arin/chatbot-llm/internal/stats"
	"github.com/arin/chatbot-llm/internal/ui"
	"github.com/fatih/color"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

var (
	agentName   string
	noStream    bool
	maxTokens   int
	temperature float64
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Start a conversational session with an agent. Replies stream to the
terminal as they arrive, and context carries over between messages.

Press Ctrl-C during a reply to stop it. Type 'quit' or 'exit' to end the session.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	addChatFlags(chatCmd)
}

func addChatFlags(c *cobra.Command) {
	c.Flags().StringVarP(&agentName, "agent", "a", persona.DefaultName, "Agent to chat with (name or alias)")
	c.Flags().BoolVar(&noStream, "no-stream", false, "Wait for the whole reply instead of streaming it")
	c.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens per reply (default from config)")
	c.Flags().Float64Var(&temperature, "temperature", 0, "Sampling temperature between 0 and 2 (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return exitcode.ConfigError(fmt.Errorf("configuration error: %w", err))
	}
	applyChatFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return exitcode.ConfigError(err)
	}

	log := slog.Default()
	transport, err := ai.NewHTTPTransport(cfg)
	if err != nil {
		return exitcode.ConfigError(err)
	}
	transport.WithLogger(log)

	registry, err := loadAgents(cfg)
	if err != nil {
		return exitcode.ConfigError(err)
	}
	agent := resolveAgent(registry, agentName)

	session := chat.NewSession(transport, agent, chat.Options{
		Model:       transport.Model(),
		MaxTokens:   cfg.MaxTokens,
		Temperature: ai.Temperature(cfg.Temperature),
		NoStream:    noStream || !cfg.Stream,
		Logger:      log,
	})
	log.Debug("chat session started",
		"session", session.ID(),
		"agent", agent.Name,
		"model", transport.Model(),
		"endpoint", transport.Endpoint())
	return chatLoop(cmd.Context(), session)
}

// applyChatFlags copies explicitly set generation flags over cfg. The flags
// exist on both the root and the chat command, so "chatbot-llm
// --temperature 0.2 chat" is parsed by the root before chat runs.
func applyChatFlags(cmd *cobra.Command, cfg *config.Config) {
	if chatFlagChanged(cmd, "temperature") {
		cfg.Temperature = temperature
	}
	if chatFlagChanged(cmd, "max-tokens") {
		cfg.MaxTokens = maxTokens
	}
}

func chatFlagChanged(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Changed(name) || cmd.Root().Flags().Changed(name)
}

// loadAgents reads the builtin agents plus the --agents-file overlay, or the
// configured one when the flag is absent.
func loadAgents(cfg *config.Config) (*persona.Registry, error) {
	path := agentsFile
	if path == "" {
		path = cfg.AgentsFile
	}
	reg, err := persona.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}
	return reg, nil
}

// resolveAgent falls back to the default agent when name is unknown, after
// telling the user what exists.
func resolveAgent(reg *persona.Registry, name string) persona.Persona {
	p, err := reg.Resolve(name)
	if err == nil {
		return p
	}
	var nf *persona.NotFoundError
	if errors.As(err, &nf) {
		yellow := color.New(color.FgYellow)
		yellow.Fprintf(os.Stderr, "  Agent %q not found. Available agents:\n", nf.Name)
		printAgents(os.Stderr, nf.Available)
		yellow.Fprintf(os.Stderr, "  Falling back to %q.\n\n", persona.DefaultName)
	}
	p, _ = reg.Resolve(persona.DefaultName)
	return p
}

func chatLoop(ctx context.Context, session *chat.Session) error {
	cyan := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(os.Stderr)
	cyan.Fprintf(os.Stderr, "  Starting chat with agent: %s\n", session.Persona().Name)
	dim.Fprintf(os.Stderr, "  Type 'quit' or 'exit' to end the conversation.\n\n")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	rec := stats.NewRecorder()
	defer func() {
		if rec.Len() > 0 {
			dim.Fprintln(os.Stderr, "  Session:")
			rec.Summarize().Print(os.Stderr)
			fmt.Fprintln(os.Stderr)
		}
	}()

	for {
		input, err := line.Prompt("you> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			dim.Fprintf(os.Stderr, "\n  Goodbye!\n\n")
			return exitcode.Cancel()
		}
		if errors.Is(err, io.EOF) {
			dim.Fprintf(os.Stderr, "\n  Goodbye!\n\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		if chat.IsBlank(input) {
			continue
		}
		if chat.IsExit(input) {
			dim.Fprintf(os.Stderr, "  Goodbye!\n\n")
			return nil
		}
		line.AppendHistory(input)

		rec.Add(runTurn(ctx, session, input))
	}
}

// runTurn sends one message and streams the reply to stdout. Ctrl-C while
// the reply is streaming stops the turn but not the session.
func runTurn(parent context.Context, session *chat.Session, input string) stats.Turn {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	sp := ui.NewSpinner("Thinking...")
	sp.Start()
	prefix := color.New(color.FgCyan, color.Bold).Sprintf("%s> ", session.Persona().Name)
	printer := ui.NewStreamPrinter(os.Stdout, prefix).WaitWith(sp)

	out, err := session.RunTurn(ctx, input, printer)
	printer.Finish()

	turn := stats.Turn{
		FirstDelta: out.FirstDelta,
		Elapsed:    out.Elapsed,
		Deltas:     out.Deltas,
		Chars:      len(out.Reply),
		Failed:     err != nil,
		Partial:    out.Partial,
	}
	if err != nil {
		reportTurnError(ctx, parent, err)
	}
	return turn
}

func reportTurnError(ctx, parent context.Context, err error) {
	red := color.New(color.FgRed)
	dim := color.New(color.FgHiBlack)

	if ctx.Err() != nil && parent.Err() == nil {
		color.New(color.FgYellow).Fprintf(os.Stderr, "  Interrupted.\n\n")
		return
	}

	var te *ai.TransportError
	if errors.As(err, &te) && te.Kind == ai.KindStatus {
		red.Fprintf(os.Stderr, "  Error: API returned status %d\n", te.StatusCode)
		if te.Body != "" {
			dim.Fprintf(os.Stderr, "    %s\n", ui.Indent(te.Body, "    "))
		}
	} else {
		red.Fprintf(os.Stderr, "  Error: %v\n", err)
	}
	dim.Fprintf(os.Stderr, "  Please try again.\n\n")
}
