package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/sportcatalog"
)

// CatalogService guards writes into per-sport ledgers: every sport slug
// passes through EnsureSport before the first row lands. The ensured
// set is cached per process because the underlying DDL is idempotent
// but not free.
type CatalogService struct {
	catalog sportcatalog.Repository

	mu      sync.Mutex
	ensured map[string]string
}

func NewCatalogService(catalog sportcatalog.Repository) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		ensured: make(map[string]string),
	}
}

// EnsureSport registers the sport on first sight and returns its ledger
// table name.
func (s *CatalogService) EnsureSport(ctx context.Context, charCode string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.EnsureSport")
	defer span.End()

	code := sportcatalog.SanitizeCharCode(charCode)

	s.mu.Lock()
	if table, ok := s.ensured[code]; ok {
		s.mu.Unlock()
		return table, nil
	}
	s.mu.Unlock()

	table, err := s.catalog.EnsureSport(ctx, code)
	if err != nil {
		return "", fmt.Errorf("ensure sport %s: %w", code, err)
	}

	s.mu.Lock()
	s.ensured[code] = table
	s.mu.Unlock()

	return table, nil
}

func (s *CatalogService) RefreshRollup(ctx context.Context, charCode string, season int) (sportcatalog.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.RefreshRollup")
	defer span.End()

	if season <= 0 {
		return sportcatalog.Entry{}, fmt.Errorf("%w: season is required", ErrInvalidInput)
	}

	entry, err := s.catalog.RefreshRollup(ctx, sportcatalog.SanitizeCharCode(charCode), season)
	if err != nil {
		return sportcatalog.Entry{}, fmt.Errorf("refresh rollup: %w", err)
	}

	return entry, nil
}

func (s *CatalogService) Rollups(ctx context.Context, charCode string) ([]sportcatalog.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.Rollups")
	defer span.End()

	if charCode != "" {
		charCode = sportcatalog.SanitizeCharCode(charCode)
	}
	entries, err := s.catalog.ListRollups(ctx, charCode)
	if err != nil {
		return nil, fmt.Errorf("list rollups: %w", err)
	}

	return entries, nil
}

func (s *CatalogService) Codes(ctx context.Context) ([]sportcatalog.SportCode, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CatalogService.Codes")
	defer span.End()

	codes, err := s.catalog.ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sport codes: %w", err)
	}

	return codes, nil
}
