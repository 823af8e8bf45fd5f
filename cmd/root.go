package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mandi-setu/parchi-cli/internal/agent"
	"github.com/mandi-setu/parchi-cli/internal/config"
	"github.com/mandi-setu/parchi-cli/internal/store"
	"github.com/mandi-setu/parchi-cli/pkg/anthropic"
	"github.com/mandi-setu/parchi-cli/pkg/translate"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parchi-cli",
	Short: "Multilingual mandi negotiation and digital parchi pipeline",
	Long:  "Turns vendor negotiations in Indian languages into validated trade records with the 5% mandi cess applied, issues digital parchis, and exports the committee ledger.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// initStore opens the configured store and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// initAgent wires the model client, rate limiter, and translator into a
// negotiation agent.
func initAgent() (*agent.Agent, error) {
	llm := anthropic.NewRateLimited(
		anthropic.NewClient(cfg.Anthropic.Key),
		cfg.Anthropic.RequestsPerSecond,
		cfg.Anthropic.Burst,
	)
	translator := translate.NewLLMTranslator(llm, cfg.Anthropic.TranslateModel, cfg.Anthropic.MaxTokens)

	return agent.New(llm, translator, agent.Config{
		Model:                 cfg.Anthropic.Model,
		MaxTokens:             cfg.Anthropic.MaxTokens,
		PivotLanguage:         cfg.Agent.PivotLanguage,
		DefaultLanguage:       cfg.Agent.DefaultLanguage,
		MaxExtractionAttempts: cfg.Agent.MaxExtractionAttempts,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
