package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/voicelog/backend/internal/config"
	"github.com/voicelog/backend/internal/database"
	"github.com/voicelog/backend/internal/seed"
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
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := database.Initialize(cfg.DatabaseURL, cfg.Environment); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	seeder := seed.NewSeeder(database.DB)

	switch command {
	case "dev":
		log.Println("Seeding development database...")
		if err := seeder.SeedDev(); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding complete")
	case "clean":
		log.Println("Removing all seed data...")
		if err := seeder.Clean(); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
		log.Println("Clean complete")
	default:
		fmt.Println("Usage: seed [dev|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}
