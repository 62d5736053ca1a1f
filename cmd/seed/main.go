package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chatrizz/backend/internal/config"
	"github.com/chatrizz/backend/internal/database"
	"github.com/chatrizz/backend/internal/logger"
	"github.com/chatrizz/backend/internal/seed"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.LogLevel, ""); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	if err := database.Migrate(); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	seeder := seed.New(database.DB)

	switch command {
	case "dev":
		log.Println("Seeding development database...")
		if err := seeder.Run(context.Background()); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Printf("Done. All demo accounts use password %q", seed.DefaultPassword)
	case "clean":
		log.Println("Removing seeded chat data...")
		if err := seeder.Clean(); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		log.Println("Done")
	default:
		fmt.Println("Usage: seed [dev|clean]")
		fmt.Println("  dev   - Seed demo users and chats")
		fmt.Println("  clean - Remove seeded chat data (users are kept)")
		os.Exit(1)
	}
}
