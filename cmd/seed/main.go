package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"time"

	"qr-redirect/internal/config"
	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	pg "qr-redirect/internal/infra/db/postgres"
	"qr-redirect/internal/infra/logging"
	"qr-redirect/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	owner := flag.String("owner", "demo-owner", "owner id for the seeded codes")
	flag.Parse()
	_ = godotenv.Load()

	// ---- Config ----
	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	codeUC := usecase.NewCodeUseCase(pg.NewCodeRepo(pool), pg.NewScanRepo(pool), pg.NewTxManager(pool), logging.Nop())

	eventStart := time.Now().UTC().Truncate(time.Hour)
	eventEnd := eventStart.Add(7 * 24 * time.Hour)
	seed := []usecase.CreateCodeInput{
		{ID: "abc123", Kind: model.KindURL, Payload: model.Payload{URL: &model.URLPayload{URL: "https://example.com"}}},
		{ID: "demo-card", Kind: model.KindVCard, Payload: model.Payload{VCard: &model.VCardPayload{
			FirstName: "Jane", LastName: "Doe", Organization: "Example Corp",
			Email: "jane@example.com", Website: "https://example.com",
		}}},
		{ID: "demo-ticket", Kind: model.KindTicket, Payload: model.Payload{Ticket: &model.TicketPayload{
			EventID: "ev-demo", EventName: "Demo Conference", HolderName: "Jane Doe", Seat: "A-12",
			ValidFrom: &eventStart, ValidUntil: &eventEnd,
		}}},
	}

	for _, in := range seed {
		c, err := codeUC.Create(ctx, *owner, in)
		switch {
		case errors.Is(err, domain.ErrAlreadyExists):
			fmt.Printf("present: %s (%s)\n", in.ID, in.Kind)
		case err != nil:
			log.Fatalf("create code %q: %v", in.ID, err)
		default:
			fmt.Printf("seeded:  %s (%s) -> %s\n", c.ID, c.Kind, c.RedirectTarget(cfg.HTTP.PublicBaseURL))
		}
	}

	fmt.Println("✅ Seeding complete.")
}
