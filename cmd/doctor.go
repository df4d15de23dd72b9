package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/arin/chatbot-llm/internal/config"
	"github.com/arin/chatbot-llm/internal/ui"
	"github.com/fatih/color"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
)

const probeTimeout = 10 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and endpoint health",
	Long: `Run a health check on your chatbot-llm setup.
Verifies the configuration file, API key, agents file, endpoint
connectivity and model availability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)
		cyan := color.New(color.FgCyan, color.Bold)

		cyan.Fprintf(os.Stderr, "\n  🩺 chatbot-llm doctor\n\n")

		pass, fail, warn := 0, 0, 0

		check := func(name string, fn func() (string, error)) {
			detail, err := fn()
			if err != nil {
				if strings.HasPrefix(err.Error(), "warn:") {
					yellow.Fprintf(os.Stderr, "  ⚠ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", strings.TrimPrefix(err.Error(), "warn:"))
					warn++
				} else {
					red.Fprintf(os.Stderr, "  ✗ %s\n", name)
					dim.Fprintf(os.Stderr, "    %s\n", err.Error())
					fail++
				}
			} else {
				green.Fprintf(os.Stderr, "  ✓ %s", name)
				if detail != "" {
					dim.Fprintf(os.Stderr, ": %s", detail)
				}
				fmt.Fprintln(os.Stderr)
				pass++
			}
		}

		// 1. Config file
		cfg, cfgErr := config.Load()
		check("Configuration", func() (string, error) {
			if cfgErr != nil {
				return "", cfgErr
			}
			if _, err := os.Stat(config.Path()); err != nil {
				return "", fmt.Errorf("warn:%s not found, using defaults and environment", config.Path())
			}
			return config.Path(), nil
		})
		if cfgErr != nil {
			cfg = &config.Config{BaseURL: config.DefaultBaseURL, Model: config.DefaultModel}
		}

		// 2. API key
		check("API key", func() (string, error) {
			if strings.TrimSpace(cfg.APIKey) == "" {
				return "", config.ErrMissingAPIKey
			}
			return cfg.MaskedKey(), nil
		})

		// 3. Agents
		check("Agents", func() (string, error) {
			reg, err := loadAgents(cfg)
			if err != nil {
				return "", err
			}
			source := "builtin"
			if path := agentSource(cfg); path != "" {
				source = path
			}
			return fmt.Sprintf("%d loaded from %s (%s)", reg.Len(), source, strings.Join(reg.Names(), ", ")), nil
		})

		// 4. Endpoint and model
		modelCheck := fmt.Sprintf("Model available (%s)", cfg.Model)
		if strings.TrimSpace(cfg.APIKey) == "" {
			check(modelCheck, func() (string, error) {
				return "", errors.New("warn:skipped, no API key")
			})
		} else {
			sp := ui.NewSpinner("Contacting " + cfg.BaseURL + "...")
			sp.Start()
			ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
			detail, err := probeModel(ctx, cfg)
			cancel()
			if err != nil {
				sp.Fail(modelCheck)
				dim.Fprintf(os.Stderr, "    %s\n", err.Error())
				fail++
			} else {
				sp.Success(modelCheck + ": " + detail)
				pass++
			}
		}

		// 5. Config directory
		check("Config directory", func() (string, error) {
			dir := config.Dir()
			info, err := os.Stat(dir)
			if err != nil {
				return "", fmt.Errorf("warn:%s not found, created by 'config set-key'", dir)
			}
			if !info.IsDir() {
				return "", fmt.Errorf("%s exists but is not a directory", dir)
			}
			return dir, nil
		})

		// 6. OS and arch
		check("System info", func() (string, error) {
			return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH), nil
		})

		// Summary
		fmt.Fprintln(os.Stderr)
		total := pass + fail + warn
		if fail == 0 && warn == 0 {
			green.Fprintf(os.Stderr, "  All %d checks passed. You're good to go.\n\n", total)
		} else if fail == 0 {
			yellow.Fprintf(os.Stderr, "  %d passed, %d warnings. Everything works, but some things could be better.\n\n", pass, warn)
		} else {
			red.Fprintf(os.Stderr, "  %d passed, %d failed, %d warnings. Fix the failures above.\n\n", pass, fail, warn)
		}

		return nil
	},
}

func agentSource(cfg *config.Config) string {
	if agentsFile != "" {
		return agentsFile
	}
	return cfg.AgentsFile
}

// probeModel asks the endpoint for the configured model. It exercises the
// same credential and base URL the chat transport uses.
func probeModel(ctx context.Context, cfg *config.Config) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = config.DefaultBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base+"/"),
		option.WithMaxRetries(0),
	)
	model, err := client.Models.Get(ctx, cfg.Model)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case 401, 403:
				return "", fmt.Errorf("credential rejected (status %d)", apiErr.StatusCode)
			case 404:
				return "", fmt.Errorf("model %q not found, set another with 'config set-model'", cfg.Model)
			}
			return "", fmt.Errorf("endpoint returned status %d", apiErr.StatusCode)
		}
		return "", fmt.Errorf("could not reach %s: %w", base, err)
	}
	if model.OwnedBy != "" {
		return fmt.Sprintf("%s, owned by %s", model.ID, model.OwnedBy), nil
	}
	return model.ID, nil
}
