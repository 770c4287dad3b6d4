package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wealthreactor/auth"
	"wealthreactor/cmd"
	"wealthreactor/config"
	"wealthreactor/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load .env when present; real environment variables take precedence
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.WithError(err).Warn("Failed to load .env file")
	}

	// Check for migration subcommands
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(); err != nil {
			log.Fatal("Migration error: ", err)
		}
		return
	}

	// Mint an operator token for the admin routes
	if len(os.Args) > 1 && os.Args[1] == "admin-token" {
		if err := handleAdminToken(); err != nil {
			log.Fatal("Admin token error: ", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wealthreactor migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

func handleAdminToken() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: wealthreactor admin-token <operator>")
	}

	cfg := config.Get()
	issuer, err := auth.NewTokenIssuer(cfg.AdminJWTSecret, cfg.AdminOperators, cfg.AdminTokenTTL)
	if err != nil {
		return err
	}

	token, expiresAt, err := issuer.Mint(os.Args[2])
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Token for %s expires at %s\n", os.Args[2], expiresAt.UTC().Format("2006-01-02 15:04:05 MST"))
	fmt.Println(token)
	return nil
}
