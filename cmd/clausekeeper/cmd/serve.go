package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/solatis/clausekeeper/internal/core/api"
	"github.com/solatis/clausekeeper/internal/core/auth"
	"github.com/solatis/clausekeeper/internal/core/config"
	"github.com/solatis/clausekeeper/internal/core/db"
	"github.com/solatis/clausekeeper/internal/core/server"
	"github.com/spf13/cobra"
)

const Version = "0.1.0"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP evaluation service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "HTTP server host")
	serveCmd.Flags().Int("port", 8080, "HTTP server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		cfg.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Port = port
	}
	if dbURL != "" {
		cfg.DBURL = dbURL
	}

	var queries *db.Queries
	if cfg.DBURL != "" {
		database, err := db.Open(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("failed to open ruleset cache database: %w", err)
		}
		defer database.Close()

		if err := db.MigrateUp(database); err != nil {
			return fmt.Errorf("failed to apply ruleset cache migrations: %w", err)
		}

		queries, err = db.LoadQueries(database)
		if err != nil {
			return fmt.Errorf("failed to load queries: %w", err)
		}
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	authenticator := auth.NewAuthenticator(secrets, nil)
	if len(secrets) == 0 {
		log.Println("no CK_HMAC_SECRET configured, serving open (no API key required)")
	}

	if cfg.EnvID != "" || cfg.AgentID != "" || cfg.ProjectID != "" {
		log.Printf("feature flag identity: env=%s agent=%s project=%s", cfg.EnvID, cfg.AgentID, cfg.ProjectID)
	}

	service := api.NewService(cfg, queries)

	httpServer, err := server.NewHTTPServer(cfg, service, authenticator)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Printf("Starting clausekeeper v%s on %s:%d", Version, cfg.Host, cfg.Port)
	errChan := make(chan error, 1)
	go func() {
		errChan <- httpServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		return httpServer.Shutdown(ctx)
	}
}
