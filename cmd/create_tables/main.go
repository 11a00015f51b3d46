package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/ivankuzmin/pricearchive/internal/config"
	"github.com/ivankuzmin/pricearchive/internal/store"
)

func main() {
	godotenv.Load()

	cfg := config.FromEnv()
	if cfg.TargetURL == "" {
		log.Fatalf("TARGET_DB_URL is required")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, store.DefaultDriver, cfg.TargetDSN())
	if err != nil {
		log.Fatalf("open target: %v", err)
	}
	defer st.Close()

	if err := st.CreateTables(ctx); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	log.Printf("target tables created")
}
