package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/uptimeprobe/internal/domain"
	"github.com/hamed0406/uptimeprobe/internal/repo"
)

func TestMemoryStore_AddAndLookupSite(t *testing.T) {
	ctx := context.Background()
	s := New()

	s.AddSite(domain.Site{ID: "site-1", Domain: "example.com"})

	got, err := s.Lookup(ctx, "site-1")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Domain != "example.com" {
		t.Fatalf("unexpected domain: %s", got.Domain)
	}

	if _, err := s.Lookup(ctx, "missing"); !errors.Is(err, repo.ErrSiteNotFound) {
		t.Fatalf("want ErrSiteNotFound, got %v", err)
	}
}

func TestMemoryStore_StreakIncrementReset(t *testing.T) {
	ctx := context.Background()
	s := New()

	for want := 1; want <= 3; want++ {
		n, err := s.Increment(ctx, "site-1")
		if err != nil {
			t.Fatalf("Increment: %v", err)
		}
		if n != want {
			t.Fatalf("want %d, got %d", want, n)
		}
	}
	if err := s.Reset(ctx, "site-1"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := s.Increment(ctx, "site-1"); n != 1 {
		t.Fatalf("want 1 after reset, got %d", n)
	}
}

func TestMemoryStore_WriteAndResults(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Now().UTC()

	_ = s.Write(ctx, domain.CheckResult{SiteID: "a", Status: domain.StatusDown, Timestamp: t0})
	_ = s.Write(ctx, domain.CheckResult{SiteID: "a", Status: domain.StatusUp, Timestamp: t0.Add(time.Second)})
	_ = s.Write(ctx, domain.CheckResult{SiteID: "b", Status: domain.StatusUp, Timestamp: t0})

	if n := len(s.Results()); n != 3 {
		t.Fatalf("want 3 results, got %d", n)
	}
	got := s.Results()
	if got[0].Status != domain.StatusDown || got[1].Status != domain.StatusUp || got[2].SiteID != "b" {
		t.Fatalf("results out of write order: %+v", got)
	}
}
