package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/frontdeskhq/frontdesk/internal/agent"
	"github.com/frontdeskhq/frontdesk/internal/db"
	"github.com/frontdeskhq/frontdesk/internal/events"
	"github.com/frontdeskhq/frontdesk/internal/helpdesk"
	"github.com/frontdeskhq/frontdesk/internal/knowledge"
	"github.com/frontdeskhq/frontdesk/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the frontdesk HTTP server",
	Long:  `Starts the receptionist with its REST API, the supervisor event feed, and the background timeout sweeper.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serverPort != 0 {
			cfg.Server.Port = serverPort
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
		hub := events.NewHub()

		engine, err := agent.NewEngine(context.Background(), agent.Config{
			Knowledge: knowledgeStore,
			Helpdesk:  helpdeskStore,
			Sessions:  createSessionStoreFromConfig(cfg, database),
			Provider:  provider,
			Notifier:  notifier,
			Hub:       hub,
			Model:     cfg.Model,
			Business:  biz,
		})
		if err != nil {
			return fmt.Errorf("creating engine: %w", err)
		}

		srv := server.New(server.Config{
			Host:     cfg.Server.Host,
			Port:     cfg.Server.Port,
			AllowAll: true,
		}, engine)

		// Register all feature routes.
		r := srv.Router()
		agent.RegisterRoutes(r, engine)
		knowledge.RegisterRoutes(r, knowledgeStore, func(req *http.Request, added *knowledge.Entry) {
			if err := engine.RefreshContext(req.Context()); err != nil {
				log.Printf("refreshing context after corpus change: %v", err)
			}
			if added != nil {
				hub.Publish(events.TypeKnowledgeAdded, added)
			}
		})
		helpdesk.RegisterRoutes(r, helpdeskStore, agent.ResolveHandler(engine))
		r.Get("/api/events", events.Handler(hub))

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Background timeout sweeper.
		sweeper := helpdesk.NewSweeper(helpdeskStore)
		sweeper.OnTimeout = func(req *helpdesk.Request) {
			hub.Publish(events.TypeRequestTimeout, req)
		}
		go sweeper.Run(ctx)

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "frontdesk v%s starting on %s:%d\n", Version, cfg.Server.Host, cfg.Server.Port)
		fmt.Fprintf(os.Stderr, "  Business: %s\n", cfg.Business.Name)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", cfg.DBPath)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)

		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serverCmd)
}
