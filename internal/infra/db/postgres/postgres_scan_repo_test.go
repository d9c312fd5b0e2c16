//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"

	"qr-redirect/internal/domain"
	"qr-redirect/internal/domain/model"
	"qr-redirect/internal/domain/ports/repository"
)

func TestScanRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	codes := NewCodeRepo(testPool)
	repo := NewScanRepo(testPool)
	ctx := context.Background()
	cleanup(t)

	if err := codes.Create(ctx, repository.NoTX, mustURLCode(t, "abc123", "owner-1", "https://example.com")); err != nil {
		t.Fatalf("seed code: %v", err)
	}

	t.Run("append stores nullable metadata as NULL", func(t *testing.T) {
		s, err := model.NewScan("abc123", model.ScanMetadata{})
		if err != nil {
			t.Fatalf("NewScan: %v", err)
		}
		if err := repo.Append(ctx, repository.NoTX, s); err != nil {
			t.Fatalf("Append: %v", err)
		}
		list, err := repo.ListByCode(ctx, repository.NoTX, "abc123", 0, 10)
		if err != nil {
			t.Fatalf("ListByCode: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("expected 1 scan, got %d", len(list))
		}
		if list[0].IPAddress != nil || list[0].Latitude != nil || list[0].Longitude != nil {
			t.Errorf("expected nil metadata, got %+v", list[0])
		}
	})

	t.Run("append keeps metadata", func(t *testing.T) {
		ip, lat, lng := "203.0.113.7", 52.52, 13.405
		s, _ := model.NewScan("abc123", model.ScanMetadata{IPAddress: &ip, Latitude: &lat, Longitude: &lng})
		if err := repo.Append(ctx, repository.NoTX, s); err != nil {
			t.Fatalf("Append: %v", err)
		}
		list, _ := repo.ListByCode(ctx, repository.NoTX, "abc123", 0, 1)
		if len(list) != 1 || list[0].ID != s.ID {
			t.Fatalf("expected newest scan first, got %+v", list)
		}
		if list[0].IPAddress == nil || *list[0].IPAddress != ip || *list[0].Latitude != lat {
			t.Errorf("metadata mismatch: %+v", list[0])
		}
	})

	t.Run("unknown code is NotFound", func(t *testing.T) {
		s, _ := model.NewScan("missing", model.ScanMetadata{})
		if err := repo.Append(ctx, repository.NoTX, s); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("concurrent appends each add one row", func(t *testing.T) {
		before, _ := repo.CountByCode(ctx, repository.NoTX, "abc123")
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, _ := model.NewScan("abc123", model.ScanMetadata{})
				if err := repo.Append(ctx, repository.NoTX, s); err != nil {
					t.Errorf("Append: %v", err)
				}
			}()
		}
		wg.Wait()
		after, err := repo.CountByCode(ctx, repository.NoTX, "abc123")
		if err != nil {
			t.Fatalf("CountByCode: %v", err)
		}
		if after-before != 10 {
			t.Errorf("expected 10 new scans, got %d", after-before)
		}
	})

	t.Run("scans cascade with their code", func(t *testing.T) {
		if err := codes.Delete(ctx, repository.NoTX, "abc123"); err != nil {
			t.Fatalf("Delete code: %v", err)
		}
		n, _ := repo.CountByCode(ctx, repository.NoTX, "abc123")
		if n != 0 {
			t.Errorf("expected scans removed with code, got %d", n)
		}
	})
}
