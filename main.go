package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chewbot/cmd"
	"chewbot/database"
)

const migrateUsage = `usage: chewbot migrate <command>

commands:
  up          apply every pending migration
  down [n]    roll back the last n migrations (default 1)
  status      print the current schema version`

func main() {
	log.SetPrefix("chewbot: ")

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := handleMigrationCommand(os.Args[2:]); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Stop the chat connection and event loop on Ctrl-C or a container stop
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Printf("Received %s, leaving Twitch chat...", sig)
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatalf("chewbot stopped: %v", err)
	}
}

func handleMigrationCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", migrateUsage)
	}

	switch args[0] {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(args) > 1 {
			steps = args[1]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], migrateUsage)
	}
}
