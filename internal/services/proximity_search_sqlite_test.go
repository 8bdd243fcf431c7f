package services

import (
	"context"
	"testing"

	"greenMarketBack/internal/db"
	"greenMarketBack/internal/models"
	"greenMarketBack/internal/repositories"
)

func seedItems(t *testing.T, repo *repositories.ItemRepository) {
	t.Helper()
	ctx := context.Background()
	points := []struct {
		title string
		lat   float64
		lon   float64
	}{
		{"A", 43.260, 76.945},
		{"B", 43.240, 76.945},
		{"C", 43.500, 76.945},
	}
	for _, p := range points {
		loc := models.GeoPoint{Latitude: p.lat, Longitude: p.lon}
		if _, err := repo.Create(ctx, models.NewItem{Title: p.title, Quantity: 1, CreatorID: "u-1", Location: &loc}); err != nil {
			t.Fatalf("create %s: %v", p.title, err)
		}
	}
}

func newSQLiteRepo(t *testing.T, dialect repositories.Dialect) *repositories.ItemRepository {
	t.Helper()
	conn := db.NewTestDB(t)
	db.SeedUser(t, conn, "u-1", "Dana", "dana@example.com")
	repo := repositories.NewItemRepository(conn, dialect)
	seedItems(t, repo)
	return repo
}

func newSQLiteService(t *testing.T, dialect repositories.Dialect) *ProximitySearchService {
	t.Helper()
	return NewProximitySearchService(newSQLiteRepo(t, dialect), nil, testLogger{}, SearchConfig{})
}

func titles(items []models.RankedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}

func TestSearchAgainstSQLiteStore(t *testing.T) {
	svc := newSQLiteService(t, repositories.SQLiteDialect{})

	res, err := svc.Search(context.Background(), models.SearchRequest{
		Latitude:  ptr(43.238),
		Longitude: ptr(76.945),
		RadiusKm:  ptr(5),
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res.Mode != models.SearchModeRanked {
		t.Fatalf("expected ranked mode, got %s", res.Mode)
	}
	if got := titles(res.Items); len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Fatalf("expected [B A], got %v", got)
	}
	if res.Returned != 2 || res.RadiusKm != 5 {
		t.Fatalf("unexpected envelope %+v", res)
	}
}

func TestSearchFallsBackOnStoreWithoutGeo(t *testing.T) {
	svc := newSQLiteService(t, repositories.SQLiteDialect{DisableGeo: true})

	res, err := svc.Search(context.Background(), models.SearchRequest{
		Latitude:  ptr(43.238),
		Longitude: ptr(76.945),
		RadiusKm:  ptr(5),
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if res.Mode != models.SearchModeFallback {
		t.Fatalf("expected fallback mode, got %s", res.Mode)
	}
	if len(res.Items) != 2 || res.Returned != 2 {
		t.Fatalf("expected 2 items, got %d", len(res.Items))
	}
	for _, it := range res.Items {
		if it.Distance != 0 || it.Point != (models.GeoPoint{}) {
			t.Fatalf("expected zero placeholders, got %v at %v", it.Distance, it.Point)
		}
	}
	if res.Center != (models.GeoPoint{Latitude: 43.238, Longitude: 76.945}) {
		t.Fatalf("expected center echoed, got %v", res.Center)
	}
}

func TestCachedSearchHidesItemsNoLongerActive(t *testing.T) {
	repo := newSQLiteRepo(t, repositories.SQLiteDialect{})
	sc := newStubCache()
	svc := NewProximitySearchService(repo, sc, testLogger{}, SearchConfig{})
	ctx := context.Background()
	req := models.SearchRequest{Latitude: ptr(43.238), Longitude: ptr(76.945), RadiusKm: ptr(5)}

	first, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(first.Items) != 2 || sc.sets != 1 {
		t.Fatalf("expected 2 cached items, got %d items and %d cache writes", len(first.Items), sc.sets)
	}

	completed := first.Items[0].ID
	if err := repo.UpdateStatus(ctx, completed, models.ItemStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	second, err := svc.Search(ctx, req)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	for _, it := range second.Items {
		if it.ID == completed {
			t.Fatalf("completed item %s still returned", completed)
		}
		if it.Status != models.ItemStatusActive {
			t.Fatalf("non-active item %s returned with status %s", it.ID, it.Status)
		}
	}
	if got := titles(second.Items); len(got) != 1 || got[0] != "A" {
		t.Fatalf("expected [A], got %v", got)
	}
}
