package repositories

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"greenMarketBack/internal/db"
	"greenMarketBack/internal/models"
)

var almaty = models.GeoPoint{Latitude: 43.238, Longitude: 76.945}

type fixture struct {
	repo *ItemRepository
	near models.Item
	mid  models.Item
	far  models.Item
}

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRepo(t *testing.T, dialect Dialect) *ItemRepository {
	t.Helper()
	conn := db.NewTestDB(t)
	db.SeedUser(t, conn, "u-1", "Aigerim", "aigerim@example.com")
	db.SeedMaterial(t, conn, "m-wood", "Oak", "wood")
	db.SeedMaterial(t, conn, "m-metal", "Steel", "metal")
	db.SeedOrganization(t, conn, "org-1", "ReUse Hub", true)

	repo := NewItemRepository(conn, dialect)
	repo.Now = tickingClock()
	return repo
}

func createItem(t *testing.T, repo *ItemRepository, in models.NewItem) models.Item {
	t.Helper()
	if in.CreatorID == "" {
		in.CreatorID = "u-1"
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	item, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create item %q: %v", in.Title, err)
	}
	return item
}

func strPtr(s string) *string { return &s }

func newFixture(t *testing.T, dialect Dialect) fixture {
	t.Helper()
	repo := newTestRepo(t, dialect)
	price := 15.5

	f := fixture{repo: repo}
	f.near = createItem(t, repo, models.NewItem{
		Title:    "Near",
		Price:    &price,
		Location: &models.GeoPoint{Latitude: 43.240, Longitude: 76.945},
	})
	f.mid = createItem(t, repo, models.NewItem{
		Title:      "Mid",
		Location:   &models.GeoPoint{Latitude: 43.260, Longitude: 76.945},
		MaterialID: strPtr("m-wood"),
	})
	f.far = createItem(t, repo, models.NewItem{
		Title:          "Far",
		Location:       &models.GeoPoint{Latitude: 43.500, Longitude: 76.945},
		OrganizationID: strPtr("org-1"),
	})
	createItem(t, repo, models.NewItem{
		Title:    "Inactive at center",
		Status:   models.ItemStatusInactive,
		Location: &almaty,
	})
	createItem(t, repo, models.NewItem{Title: "Unlocated"})
	return f
}

func ids(items []models.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func rankedIDs(items []models.RankedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCreateRoundTrip(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})
	price := 20.0

	item := createItem(t, repo, models.NewItem{
		Title:          "Glass jars",
		Description:    "Thirty clean jars",
		Price:          &price,
		Quantity:       30,
		Location:       &almaty,
		MaterialID:     strPtr("m-metal"),
		OrganizationID: strPtr("org-1"),
	})

	if item.ID == "" || item.Status != models.ItemStatusActive {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.Price == nil || *item.Price != 20 {
		t.Fatalf("unexpected price %v", item.Price)
	}
	if item.Location == nil || *item.Location != almaty {
		t.Fatalf("unexpected location %v", item.Location)
	}
	if item.Material == nil || item.Material.Category != "metal" {
		t.Fatalf("unexpected material %+v", item.Material)
	}
	if item.Organization == nil || !item.Organization.Verified {
		t.Fatalf("unexpected organization %+v", item.Organization)
	}
	if item.Creator.Email != "aigerim@example.com" {
		t.Fatalf("unexpected creator %+v", item.Creator)
	}
	if item.Images == nil || len(item.Images) != 0 {
		t.Fatalf("expected empty images, got %v", item.Images)
	}
	if item.CreatedAt.IsZero() || !item.CreatedAt.Equal(item.UpdatedAt) {
		t.Fatalf("unexpected timestamps %v / %v", item.CreatedAt, item.UpdatedAt)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})

	_, err := repo.Create(context.Background(), models.NewItem{Title: "x", CreatorID: "u-1", Status: "SOLD"})
	if !errors.Is(err, models.ErrQueryError) {
		t.Fatalf("expected ErrQueryError for unknown status, got %v", err)
	}

	_, err = repo.Create(context.Background(), models.NewItem{
		Title:     "x",
		CreatorID: "u-1",
		Location:  &models.GeoPoint{Latitude: math.NaN(), Longitude: 1},
	})
	if !errors.Is(err, models.ErrQueryError) {
		t.Fatalf("expected ErrQueryError for NaN location, got %v", err)
	}

	_, err = repo.Create(context.Background(), models.NewItem{
		Title:     "x",
		CreatorID: "u-1",
		Location:  &models.GeoPoint{Latitude: 95, Longitude: 1},
	})
	if !errors.Is(err, models.ErrQueryError) {
		t.Fatalf("expected ErrQueryError for out-of-range location, got %v", err)
	}
}

func TestFindActiveWithLocation(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	items, err := f.repo.FindActiveWithLocation(ctx, ItemFilters{})
	if err != nil {
		t.Fatalf("FindActiveWithLocation returned error: %v", err)
	}

	want := []string{f.far.ID, f.mid.ID, f.near.ID}
	if got := ids(items); !equalIDs(got, want) {
		t.Fatalf("expected newest-first %v, got %v", want, got)
	}
	for _, it := range items {
		if it.Status != models.ItemStatusActive || it.Location == nil {
			t.Fatalf("listing returned ineligible item %+v", it)
		}
	}
}

func TestFindActiveWithLocationFilters(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	tests := []struct {
		name    string
		filters ItemFilters
		want    []string
	}{
		{name: "material category", filters: ItemFilters{MaterialCategory: "wood"}, want: []string{f.mid.ID}},
		{name: "organization", filters: ItemFilters{OrganizationID: "org-1"}, want: []string{f.far.ID}},
		{name: "limit", filters: ItemFilters{Limit: 2}, want: []string{f.far.ID, f.mid.ID}},
		{name: "offset", filters: ItemFilters{Limit: 2, Offset: 1}, want: []string{f.mid.ID, f.near.ID}},
		{name: "no match", filters: ItemFilters{MaterialCategory: "textile"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := f.repo.FindActiveWithLocation(ctx, tt.filters)
			if err != nil {
				t.Fatalf("FindActiveWithLocation returned error: %v", err)
			}
			if items == nil {
				t.Fatalf("expected a non-nil slice")
			}
			if got := ids(items); !equalIDs(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestImagesOrderedPrimaryFirst(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	first, err := f.repo.AddImage(ctx, f.near.ID, models.NewItemImage{URL: "https://cdn.example.com/a.jpg"})
	if err != nil {
		t.Fatalf("AddImage returned error: %v", err)
	}
	primary, err := f.repo.AddImage(ctx, f.near.ID, models.NewItemImage{URL: "https://cdn.example.com/b.jpg", AltText: "front", IsPrimary: true})
	if err != nil {
		t.Fatalf("AddImage returned error: %v", err)
	}
	last, err := f.repo.AddImage(ctx, f.near.ID, models.NewItemImage{URL: "https://cdn.example.com/c.jpg"})
	if err != nil {
		t.Fatalf("AddImage returned error: %v", err)
	}

	items, err := f.repo.FindActiveWithLocation(ctx, ItemFilters{})
	if err != nil {
		t.Fatalf("FindActiveWithLocation returned error: %v", err)
	}
	var near models.Item
	for _, it := range items {
		if it.ID == f.near.ID {
			near = it
		}
		if it.ID != f.near.ID && len(it.Images) != 0 {
			t.Fatalf("images leaked onto item %s", it.ID)
		}
	}

	if len(near.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(near.Images))
	}
	want := []string{primary.ID, first.ID, last.ID}
	for i, img := range near.Images {
		if img.ID != want[i] {
			t.Fatalf("image %d: expected %s, got %s", i, want[i], img.ID)
		}
	}
	if near.Images[0].AltText != "front" || !near.Images[0].IsPrimary {
		t.Fatalf("unexpected primary image %+v", near.Images[0])
	}
}

func TestDistanceQueryRanksWithinRadius(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})

	ranked, err := f.repo.DistanceQuery(context.Background(), almaty, 10, 0)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}

	want := []string{f.near.ID, f.mid.ID}
	if got := rankedIDs(ranked); !equalIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, ri := range ranked {
		if ri.Distance < 0 || ri.Distance > 10 {
			t.Fatalf("distance %v outside radius", ri.Distance)
		}
		if i > 0 && ranked[i-1].Distance > ri.Distance {
			t.Fatalf("distances not ascending: %v then %v", ranked[i-1].Distance, ri.Distance)
		}
		if ri.Location == nil || ri.Point != *ri.Location {
			t.Fatalf("point %v does not match stored location %v", ri.Point, ri.Location)
		}
	}
	if math.Abs(ranked[0].Distance-0.222) > 0.01 {
		t.Fatalf("unexpected nearest distance %v", ranked[0].Distance)
	}
	if ranked[0].Price == nil || *ranked[0].Price != 15.5 {
		t.Fatalf("expected hydrated price, got %v", ranked[0].Price)
	}
}

func TestDistanceQueryLimitAndIdempotence(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	first, err := f.repo.DistanceQuery(ctx, almaty, 100, 2)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}
	second, err := f.repo.DistanceQuery(ctx, almaty, 100, 2)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}

	if got := rankedIDs(first); !equalIDs(got, []string{f.near.ID, f.mid.ID}) {
		t.Fatalf("unexpected limited result %v", got)
	}
	if !equalIDs(rankedIDs(first), rankedIDs(second)) {
		t.Fatalf("repeated query differs: %v vs %v", rankedIDs(first), rankedIDs(second))
	}
}

func TestDistanceQueryAtStoredPoint(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})
	spot := models.GeoPoint{Latitude: -33.8688, Longitude: 151.2093}
	item := createItem(t, repo, models.NewItem{Title: "Bricks", Location: &spot})

	ranked, err := repo.DistanceQuery(context.Background(), spot, 0, 0)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].ID != item.ID {
		t.Fatalf("expected the item at the center, got %v", rankedIDs(ranked))
	}
	if ranked[0].Distance > 1e-6 {
		t.Fatalf("expected zero distance, got %v", ranked[0].Distance)
	}
}

func TestDistanceQueryEmptyStore(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})

	ranked, err := repo.DistanceQuery(context.Background(), almaty, 10, 10)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}
	if ranked == nil || len(ranked) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", ranked)
	}
}

func TestDistanceQueryWithoutGeoSupport(t *testing.T) {
	f := newFixture(t, SQLiteDialect{DisableGeo: true})

	_, err := f.repo.DistanceQuery(context.Background(), almaty, 10, 10)
	if !errors.Is(err, models.ErrGeoUnavailable) {
		t.Fatalf("expected ErrGeoUnavailable, got %v", err)
	}
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable alongside, got %v", err)
	}

	items, err := f.repo.FindActiveWithLocation(context.Background(), ItemFilters{Limit: 10})
	if err != nil {
		t.Fatalf("listing must work without geo support: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestDistanceQueryRejectsInvalidEnvelope(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})
	ctx := context.Background()

	tests := []struct {
		name   string
		center models.GeoPoint
		radius float64
	}{
		{name: "nan latitude", center: models.GeoPoint{Latitude: math.NaN()}, radius: 10},
		{name: "infinite longitude", center: models.GeoPoint{Longitude: math.Inf(1)}, radius: 10},
		{name: "negative radius", center: almaty, radius: -1},
		{name: "nan radius", center: almaty, radius: math.NaN()},
		{name: "latitude out of range", center: models.GeoPoint{Latitude: 1000, Longitude: 76.9}, radius: 10},
		{name: "longitude out of range", center: models.GeoPoint{Latitude: 43.2, Longitude: -181}, radius: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.DistanceQuery(ctx, tt.center, tt.radius, 10)
			if !errors.Is(err, models.ErrQueryError) {
				t.Fatalf("expected ErrQueryError, got %v", err)
			}
			if errors.Is(err, models.ErrStoreUnavailable) {
				t.Fatalf("invalid input must not look like an outage: %v", err)
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	if err := f.repo.UpdateStatus(ctx, f.near.ID, models.ItemStatusReserved); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}
	ranked, err := f.repo.DistanceQuery(ctx, almaty, 10, 0)
	if err != nil {
		t.Fatalf("DistanceQuery returned error: %v", err)
	}
	if got := rankedIDs(ranked); !equalIDs(got, []string{f.mid.ID}) {
		t.Fatalf("reserved item still listed: %v", got)
	}

	if err := f.repo.UpdateStatus(ctx, "missing", models.ItemStatusActive); !errors.Is(err, models.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
	if err := f.repo.UpdateStatus(ctx, f.mid.ID, "SOLD"); !errors.Is(err, models.ErrQueryError) {
		t.Fatalf("expected ErrQueryError, got %v", err)
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, models.ErrNoRecord) {
		t.Fatalf("expected ErrNoRecord, got %v", err)
	}
}

func TestPingClosedStore(t *testing.T) {
	repo := newTestRepo(t, SQLiteDialect{})
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}

	repo.DB.Close()
	err := repo.Ping(context.Background())
	if !errors.Is(err, models.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable after close, got %v", err)
	}
}

func TestActiveIDs(t *testing.T) {
	f := newFixture(t, SQLiteDialect{})
	ctx := context.Background()

	if err := f.repo.UpdateStatus(ctx, f.mid.ID, models.ItemStatusCompleted); err != nil {
		t.Fatalf("UpdateStatus returned error: %v", err)
	}

	active, err := f.repo.ActiveIDs(ctx, []string{f.near.ID, f.mid.ID, f.far.ID, "missing"})
	if err != nil {
		t.Fatalf("ActiveIDs returned error: %v", err)
	}
	if !active[f.near.ID] || !active[f.far.ID] {
		t.Fatalf("expected active items reported, got %v", active)
	}
	if active[f.mid.ID] || active["missing"] {
		t.Fatalf("completed or unknown item reported active: %v", active)
	}

	empty, err := f.repo.ActiveIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty result for no ids, got %v, %v", empty, err)
	}
}
