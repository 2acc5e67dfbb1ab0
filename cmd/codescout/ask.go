package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"codescout/agent"
	"codescout/internal/config"
	"codescout/internal/logging"
	"codescout/patterns"
	"codescout/providers/ai/openai"
	"codescout/providers/tool"
	"codescout/providers/tool/codegraph"
)

const envAPIKey = "OPENAI_API_KEY"

var askCmd = &cobra.Command{
	Use:   "ask \"question\"",
	Short: "Ask a question about the codebase",
	Long: `Runs one query through the chosen strategy. The model explores the code graph
with the registered tools and prints its final answer. Verbosity levels stream
the exploration: 1 prints tool-call names, 2 adds arguments, 3 adds truncated
tool results.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringP("strategy", "s", string(agent.StrategyReAct),
		fmt.Sprintf("Strategy to use: %s", strategyList()))
	askCmd.Flags().IntP("verbosity", "v", 0, "Trace verbosity (0-3)")
	askCmd.Flags().String("model", "", "Model identifier (overrides config)")
	askCmd.Flags().String("graph-url", "", "Code graph service URL (overrides config)")
	askCmd.Flags().String("session", "", "Continuity key (UUID) of an existing session to resume")
}

func strategyList() string {
	names := make([]string, 0, len(agent.Strategies()))
	for _, strategy := range agent.Strategies() {
		names = append(names, string(strategy))
	}
	return strings.Join(names, ", ")
}

func runAsk(cmd *cobra.Command, args []string) error {
	// Local .env files supply the API key in development; absence is fine.
	_ = godotenv.Load()

	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("log-format")
	logging.Init(level, format)
	logger := logging.New("cli")

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}
	if graphURL, _ := cmd.Flags().GetString("graph-url"); graphURL != "" {
		cfg.GraphServiceURL = graphURL
	}

	apiKey := os.Getenv(envAPIKey)
	if apiKey == "" {
		return fmt.Errorf("%s environment variable is not set", envAPIKey)
	}

	provider := openai.New().WithAPIKey(apiKey)
	if cfg.APIBaseURL != "" {
		provider = provider.WithBaseURL(cfg.APIBaseURL)
	}

	catalog := tool.NewCatalogWithTools(codegraph.Tools(codegraph.NewClient(cfg.GraphServiceURL))...)

	session := agent.NewSession()
	if key, _ := cmd.Flags().GetString("session"); key != "" {
		id, err := uuid.Parse(key)
		if err != nil {
			return fmt.Errorf("invalid session key %q: %w", key, err)
		}
		session = agent.ResumeSession(id)
	}

	strategyName, _ := cmd.Flags().GetString("strategy")
	verbosity, _ := cmd.Flags().GetInt("verbosity")

	logger.Info("asking", "strategy", strategyName, "session", session.ID.String())

	var opts []patterns.Option
	if hook := traceHook(cmd.OutOrStdout(), verbosity); hook != nil {
		opts = append(opts, patterns.WithTraceHook(hook))
	}

	result, err := agent.New(provider, catalog, cfg).Run(cmd.Context(), agent.Strategy(strategyName), args[0], opts...)
	if err != nil {
		return err
	}
	session.Record(result)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Final Answer:")
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintln(out, result.Answer)
	return nil
}
