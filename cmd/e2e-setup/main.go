package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"qr-redirect/internal/config"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
	"qr-redirect/internal/infra/api"
	"qr-redirect/internal/infra/db/postgres"
	"qr-redirect/internal/infra/redis"

	"github.com/joho/godotenv"
)

// This script is for setting up a clean, predictable database state
// for manual end-to-end testing.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	owner := flag.String("owner", "e2e-owner", "owner id for the seeded code and the printed token")
	flag.Parse()
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}

	// --- Connect to Postgres ---
	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 5)
	if err != nil {
		log.Fatalf("postgres connection failed: %v", err)
	}
	defer pool.Close()

	log.Println("--- Starting E2E Environment Setup ---")

	// 1. Clean the Redis cache to remove any stale data.
	if cfg.Redis.URL != "" {
		log.Println("[1/4] Wiping Redis cache...")
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisClient.Close()
		if err := redisClient.FlushDB(ctx); err != nil {
			log.Fatalf("failed to flush redis: %v", err)
		}
	} else {
		log.Println("[1/4] Redis not configured, skipping.")
	}

	// 2. Clean the database completely.
	log.Println("[2/4] Wiping all existing database data...")
	if _, err := pool.Exec(ctx, `TRUNCATE codes, scans RESTART IDENTITY CASCADE;`); err != nil {
		log.Fatalf("failed to truncate tables: %v", err)
	}

	// 3. Seed the reference code used by the redirect scenarios.
	log.Println("[3/4] Seeding abc123 -> https://example.com ...")
	code, err := model.NewCode("abc123", *owner, model.KindURL, model.Payload{URL: &model.URLPayload{URL: "https://example.com"}})
	if err != nil {
		log.Fatalf("build code: %v", err)
	}
	if err := postgres.NewCodeRepo(pool).Create(ctx, repository.NoTX, code); err != nil {
		log.Fatalf("failed to save code: %v", err)
	}

	// 4. Print a bearer token for the owner API.
	log.Println("[4/4] Minting owner token...")
	if cfg.Auth.JWTSecret == "" {
		log.Println("auth.jwt_secret is empty; no token printed")
	} else {
		tok, err := api.NewAuthenticator(cfg.Auth.JWTSecret).Mint(*owner, 24*time.Hour)
		if err != nil {
			log.Fatalf("mint token: %v", err)
		}
		fmt.Printf("Authorization: Bearer %s\n", tok)
	}

	log.Println("--- ✅ E2E Environment Setup Complete ---")
}
