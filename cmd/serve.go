package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frontdeskhq/frontdesk/internal/agent"
	"github.com/frontdeskhq/frontdesk/internal/db"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
	"github.com/frontdeskhq/frontdesk/internal/knowledge"
	mcpserver "github.com/frontdeskhq/frontdesk/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the receptionist and its escalation queue as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		biz := knowledge.Business{Name: cfg.Business.Name, Phone: cfg.Business.Phone}
		knowledgeStore := knowledge.NewStore(database)
		if err := knowledgeStore.Bootstrap(context.Background(), biz); err != nil {
			return fmt.Errorf("bootstrapping knowledge corpus: %w", err)
		}
		helpdeskStore := helpdesk.NewStore(database)

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		notifier, err := createNotifierFromConfig(cfg)
		if err != nil {
			return err
		}

		engine, err := agent.NewEngine(context.Background(), agent.Config{
			Knowledge: knowledgeStore,
			Helpdesk:  helpdeskStore,
			Sessions:  createSessionStoreFromConfig(cfg, database),
			Provider:  provider,
			Notifier:  notifier,
			Model:     cfg.Model,
			Business:  biz,
		})
		if err != nil {
			return fmt.Errorf("creating engine: %w", err)
		}

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "frontdesk MCP server started on stdio (business=%s, db=%s)\n",
			cfg.Business.Name, cfg.DBPath)

		srv := mcpserver.NewServer(engine, knowledgeStore, helpdeskStore)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
