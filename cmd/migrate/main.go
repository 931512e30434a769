package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/tenaworks/proximity/internal/adapters/postgres"
	"github.com/tenaworks/proximity/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 || os.Args[1] != "up" {
		log.Fatal("usage: migrate up")
	}

	cfg, err := config.Load("proximity-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	applied, err := postgres.Migrate(ctx, db)
	if err != nil {
		log.Fatalf("migrate: %v", err)
	}
	for _, name := range applied {
		fmt.Printf("OK  %s\n", name)
	}
	if len(applied) == 0 {
		log.Println("schema is up to date")
		return
	}
	log.Println("all migrations applied")
}
