package main

import (
	"log"

	"github.com/chronograph-app/chronograph/db"
	"github.com/chronograph-app/chronograph/internal/backup"
	"github.com/chronograph-app/chronograph/internal/config"
	"github.com/chronograph-app/chronograph/internal/router"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	gdb, err := db.ConnectDatabase(cfg.DSN())

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.MigrateDatabase(gdb); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	backups := backup.NewRunner(cfg)

	if err := backups.Start(); err != nil {
		log.Fatalf("Failed to start backup scheduler: %v", err)
	}
	defer backups.Stop()

	r := router.NewRouter(cfg, gdb)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
