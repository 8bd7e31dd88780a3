package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/vncsmyrnk/govledger/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/govledger/internal/config"
)

// Usage: migrations <name>   runs the single migration matching name
//        migrations all      applies every up migration in order
func main() {
	if len(os.Args) < 2 {
		log.Fatal("a migration name is required.")
	}
	migrationName := os.Args[1]

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg := config.Default()
	cfg.Store.Driver = config.StorePostgres
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open("postgres", cfg.Store.Postgres.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	if migrationName == "all" {
		if err := postgres.ApplyMigrations(ctx, db); err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		fmt.Println("Migrations applied successfully.")
		return
	}

	fileContent, err := postgres.MigrationFileContent(migrationName)
	if err != nil {
		log.Fatal(err)
	}

	if _, err := db.ExecContext(ctx, string(fileContent)); err != nil {
		log.Fatalf("Failed to execute SQL file: %v", err)
	}

	fmt.Println("Migration file executed successfully.")
}
