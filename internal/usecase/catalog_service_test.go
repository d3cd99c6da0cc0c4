package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
	"github.com/fortifiedfantasy/fein-engine/internal/infrastructure/repository/memory"
)

func TestCatalogService_EnsureSport_CachesPerProcess(t *testing.T) {
	t.Parallel()

	counting := &countingCatalog{inner: memory.NewSportCatalogRepository(nil)}
	svc := NewCatalogService(counting)

	ctx := context.Background()
	first, err := svc.EnsureSport(ctx, "ffl")
	if err != nil {
		t.Fatalf("first EnsureSport error: %v", err)
	}
	second, err := svc.EnsureSport(ctx, "ffl")
	if err != nil {
		t.Fatalf("second EnsureSport error: %v", err)
	}

	if first != "ff_sport_ffl" || second != first {
		t.Fatalf("unexpected table names: %s then %s", first, second)
	}
	if got := counting.ensures.Load(); got != 1 {
		t.Fatalf("expected 1 repository ensure, got=%d", got)
	}
}

func TestCatalogService_EnsureSport_SanitizesSlug(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(memory.NewSportCatalogRepository(nil))

	table, err := svc.EnsureSport(context.Background(), "Robert'); DROP TABLE--")
	if err != nil {
		t.Fatalf("EnsureSport error: %v", err)
	}
	if table != "ff_sport_unk" {
		t.Fatalf("hostile slug not sanitized: got=%s", table)
	}
}

func TestCatalogService_RefreshRollup_RequiresSeason(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(memory.NewSportCatalogRepository(nil))

	_, err := svc.RefreshRollup(context.Background(), "ffl", 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCatalogService_Codes_AssignsStableNumCodes(t *testing.T) {
	t.Parallel()

	svc := NewCatalogService(memory.NewSportCatalogRepository(nil))
	ctx := context.Background()

	for _, slug := range []string{"ffl", "fba", "ffl"} {
		if _, err := svc.EnsureSport(ctx, slug); err != nil {
			t.Fatalf("EnsureSport %s: %v", slug, err)
		}
	}

	codes, err := svc.Codes(ctx)
	if err != nil {
		t.Fatalf("Codes error: %v", err)
	}
	if len(codes) != 2 {
		t.Fatalf("expected 2 codes, got=%d", len(codes))
	}

	byChar := make(map[string]int, len(codes))
	for _, code := range codes {
		byChar[code.CharCode] = code.NumCode
	}
	if byChar["ffl"] != 1 || byChar["fba"] != 2 {
		t.Fatalf("unexpected num codes: %+v", byChar)
	}
}

type countingCatalog struct {
	inner   sportcatalog.Repository
	ensures atomic.Int32
}

func (c *countingCatalog) EnsureSport(ctx context.Context, charCode string) (string, error) {
	c.ensures.Add(1)
	return c.inner.EnsureSport(ctx, charCode)
}

func (c *countingCatalog) ListCodes(ctx context.Context) ([]sportcatalog.SportCode, error) {
	return c.inner.ListCodes(ctx)
}

func (c *countingCatalog) RefreshRollup(ctx context.Context, charCode string, season int) (sportcatalog.Entry, error) {
	return c.inner.RefreshRollup(ctx, charCode, season)
}

func (c *countingCatalog) ListRollups(ctx context.Context, charCode string) ([]sportcatalog.Entry, error) {
	return c.inner.ListRollups(ctx, charCode)
}
