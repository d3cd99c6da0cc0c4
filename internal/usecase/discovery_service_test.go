package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fortifiedfantasy/fein-engine/internal/domain/credential"
)

var discoveryTestToken = credential.Token{SWID: "{AAA-BBB}", S2: "s2-token"}

func fixedDiscoveryClock() time.Time {
	return time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
}

func TestDiscoveryService_Discover_DedupesAndKeepsProbeOrder(t *testing.T) {
	t.Parallel()

	provider := &stubLeagueProvider{
		leaguesForOwner: func(_ context.Context, sport string, season int, _ string, _ credential.Token, _ http.Header) ([]map[string]any, error) {
			switch {
			case sport == "ffl" && season == 2025:
				// The same league listed twice must collapse to one tuple.
				return []map[string]any{
					{"id": float64(100), "settings": map[string]any{"name": "Alpha", "size": float64(10)}},
					{"id": float64(100), "settings": map[string]any{"name": "Alpha", "size": float64(10)}},
				}, nil
			case sport == "fba" && season == 2023:
				return []map[string]any{
					{"id": "7", "settings": map[string]any{"name": "Hoops", "size": float64(8)}},
				}, nil
			case sport == "fhl":
				return nil, errors.New("upstream 500")
			default:
				return nil, nil
			}
		},
	}

	svc := NewDiscoveryService(provider, DiscoveryConfig{Workers: 2}, nil)
	svc.now = fixedDiscoveryClock

	discovered, err := svc.Discover(context.Background(), "{AAA-BBB}", discoveryTestToken)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}

	if len(discovered) != 2 {
		t.Fatalf("expected 2 tuples, got=%d: %+v", len(discovered), discovered)
	}
	if discovered[0].Sport != "ffl" || discovered[0].Season != 2025 || discovered[0].LeagueID != "100" {
		t.Fatalf("unexpected first tuple: %+v", discovered[0])
	}
	if discovered[1].Sport != "fba" || discovered[1].Season != 2023 || discovered[1].LeagueID != "7" {
		t.Fatalf("unexpected second tuple: %+v", discovered[1])
	}
	if discovered[0].Name != "Alpha" || discovered[0].Size != 10 {
		t.Fatalf("tuple lost its bundle summary: %+v", discovered[0])
	}
	if discovered[0].Bundle == nil {
		t.Fatalf("tuple should carry the provider bundle")
	}
}

func TestDiscoveryService_Discover_IsDeterministicAcrossRuns(t *testing.T) {
	t.Parallel()

	provider := &stubLeagueProvider{
		leaguesForOwner: func(_ context.Context, sport string, season int, _ string, _ credential.Token, _ http.Header) ([]map[string]any, error) {
			if sport == "flb" && (season == 2025 || season == 2021) {
				return []map[string]any{{"id": "55"}}, nil
			}
			return nil, nil
		},
	}

	svc := NewDiscoveryService(provider, DiscoveryConfig{Workers: 8}, nil)
	svc.now = fixedDiscoveryClock

	first, err := svc.Discover(context.Background(), "{AAA-BBB}", discoveryTestToken)
	if err != nil {
		t.Fatalf("first Discover error: %v", err)
	}
	second, err := svc.Discover(context.Background(), "{AAA-BBB}", discoveryTestToken)
	if err != nil {
		t.Fatalf("second Discover error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("runs disagree on tuple count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Sport != second[i].Sport || first[i].Season != second[i].Season || first[i].LeagueID != second[i].LeagueID {
			t.Fatalf("runs disagree at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDiscoveryService_Discover_AllProbesFailingIsEmpty(t *testing.T) {
	t.Parallel()

	provider := &stubLeagueProvider{
		leaguesForOwner: func(_ context.Context, _ string, _ int, _ string, _ credential.Token, _ http.Header) ([]map[string]any, error) {
			return nil, errors.New("upstream 503")
		},
	}

	svc := NewDiscoveryService(provider, DiscoveryConfig{Workers: 4}, nil)
	svc.now = fixedDiscoveryClock

	discovered, err := svc.Discover(context.Background(), "{AAA-BBB}", discoveryTestToken)
	if err != nil {
		t.Fatalf("Discover error: %v", err)
	}
	if len(discovered) != 0 {
		t.Fatalf("expected no tuples, got=%d", len(discovered))
	}
}

func TestDiscoveryService_Discover_RequiresOwnerGUID(t *testing.T) {
	t.Parallel()

	svc := NewDiscoveryService(&stubLeagueProvider{}, DiscoveryConfig{}, nil)

	_, err := svc.Discover(context.Background(), "  ", discoveryTestToken)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDiscoveryService_DiscoverViaFan(t *testing.T) {
	t.Parallel()

	provider := &stubLeagueProvider{
		fan: func(_ context.Context, _ string, _ credential.Token) (map[string]any, error) {
			return map[string]any{
				"preferences": []any{
					map[string]any{
						"metaData": map[string]any{
							"entry": map[string]any{
								"abbrev":   "FFL",
								"seasonId": float64(2025),
								"entryId":  float64(7),
								"groups": []any{
									map[string]any{"groupId": float64(864927), "groupName": "Legends"},
								},
							},
						},
					},
				},
			}, nil
		},
	}

	svc := NewDiscoveryService(provider, DiscoveryConfig{}, nil)
	svc.now = fixedDiscoveryClock

	discovered, err := svc.DiscoverViaFan(context.Background(), "{AAA-BBB}", discoveryTestToken)
	if err != nil {
		t.Fatalf("DiscoverViaFan error: %v", err)
	}
	if len(discovered) != 1 {
		t.Fatalf("expected 1 tuple, got=%d", len(discovered))
	}
	if discovered[0].Sport != "ffl" || discovered[0].Season != 2025 || discovered[0].LeagueID != "864927" {
		t.Fatalf("unexpected tuple: %+v", discovered[0])
	}
	if discovered[0].Name != "Legends" {
		t.Fatalf("unexpected league name: %s", discovered[0].Name)
	}
}

// stubLeagueProvider satisfies LeagueProvider with injectable behavior.
// Nil callbacks answer empty.
type stubLeagueProvider struct {
	league          func(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error)
	leaguesForOwner func(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error)
	fan             func(ctx context.Context, ownerGUID string, token credential.Token) (map[string]any, error)
}

func (s *stubLeagueProvider) League(ctx context.Context, sport string, season int, leagueID string, token credential.Token) (map[string]any, error) {
	if s.league == nil {
		return nil, nil
	}
	return s.league(ctx, sport, season, leagueID, token)
}

func (s *stubLeagueProvider) LeaguesForOwner(ctx context.Context, sport string, season int, ownerGUID string, token credential.Token, conditional http.Header) ([]map[string]any, error) {
	if s.leaguesForOwner == nil {
		return nil, nil
	}
	return s.leaguesForOwner(ctx, sport, season, ownerGUID, token, conditional)
}

func (s *stubLeagueProvider) Fan(ctx context.Context, ownerGUID string, token credential.Token) (map[string]any, error) {
	if s.fan == nil {
		return nil, nil
	}
	return s.fan(ctx, ownerGUID, token)
}
