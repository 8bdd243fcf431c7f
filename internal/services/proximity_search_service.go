package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/slices"

	"greenMarketBack/internal/models"
	"greenMarketBack/internal/repositories"
)

const (
	DefaultRadiusKm    = 10.0
	DefaultMaxLimit    = 10
	DefaultMapMaxLimit = 100
	DefaultRetryDelay  = 50 * time.Millisecond
)

// Logger provides minimal logging required by the services.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// ItemStore is the part of the item repository used by search.
type ItemStore interface {
	DistanceQuery(ctx context.Context, center models.GeoPoint, radiusKm float64, limit int) ([]models.RankedItem, error)
	FindActiveWithLocation(ctx context.Context, f repositories.ItemFilters) ([]models.Item, error)
	// ActiveIDs returns which of ids are still ACTIVE with a location.
	ActiveIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// SearchCache stores ranked search results by envelope.
type SearchCache interface {
	Get(ctx context.Context, env models.SearchEnvelope) (models.SearchResult, bool, error)
	Set(ctx context.Context, env models.SearchEnvelope, res models.SearchResult) error
}

// SearchConfig tunes defaults and limits of the search service.
type SearchConfig struct {
	DefaultRadiusKm float64
	MaxLimit        int
	MapMaxLimit     int
	// QueryTimeout bounds each store call; zero leaves the caller's deadline.
	QueryTimeout time.Duration
	// RetryAttempts is the total number of tries for a store that is
	// unreachable. One means no retry.
	RetryAttempts int
	// RetryDelay is the wait before the first retry; it doubles after each.
	RetryDelay time.Duration
}

func (c SearchConfig) withDefaults() SearchConfig {
	if c.DefaultRadiusKm <= 0 || math.IsNaN(c.DefaultRadiusKm) || math.IsInf(c.DefaultRadiusKm, 0) {
		c.DefaultRadiusKm = DefaultRadiusKm
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = DefaultMaxLimit
	}
	if c.MapMaxLimit <= 0 {
		c.MapMaxLimit = DefaultMapMaxLimit
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 1
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	return c
}

// ProximitySearchService ranks active items by distance from a point.
type ProximitySearchService struct {
	store  ItemStore
	cache  SearchCache
	logger Logger
	cfg    SearchConfig
}

// NewProximitySearchService constructs the service. cache may be nil.
func NewProximitySearchService(store ItemStore, cache SearchCache, logger Logger, cfg SearchConfig) *ProximitySearchService {
	return &ProximitySearchService{
		store:  store,
		cache:  cache,
		logger: logger,
		cfg:    cfg.withDefaults(),
	}
}

// Envelope applies the search defaults to req.
func (s *ProximitySearchService) Envelope(req models.SearchRequest) models.SearchEnvelope {
	env := models.SearchEnvelope{
		RadiusKm: s.cfg.DefaultRadiusKm,
		Limit:    s.cfg.MaxLimit,
	}
	if req.Latitude != nil && isFinite(*req.Latitude) && math.Abs(*req.Latitude) <= 90 {
		env.Center.Latitude = *req.Latitude
	}
	if req.Longitude != nil && isFinite(*req.Longitude) && math.Abs(*req.Longitude) <= 180 {
		env.Center.Longitude = *req.Longitude
	}
	if req.RadiusKm != nil && isFinite(*req.RadiusKm) && *req.RadiusKm >= 0 {
		env.RadiusKm = *req.RadiusKm
	}
	if req.Limit > 0 && req.Limit < s.cfg.MaxLimit {
		env.Limit = req.Limit
	}
	return env
}

// Search returns active items near the requested point, nearest first. When
// the store cannot compute distances it lists active located items with zero
// placeholders instead.
func (s *ProximitySearchService) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	env := s.Envelope(req)

	if cached, ok := s.cachedResult(ctx, env); ok {
		return cached, nil
	}

	var ranked []models.RankedItem
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		ranked, err = s.store.DistanceQuery(ctx, env.Center, env.RadiusKm, env.Limit)
		return err
	})
	if errors.Is(err, models.ErrGeoUnavailable) {
		s.logger.Infof("distance ranking unavailable, listing without distances: %v", err)
		return s.fallback(ctx, env)
	}
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("%w: %w", models.ErrSearchFailed, err)
	}

	res := newSearchResult(env, rankWithin(ranked, env), models.SearchModeRanked)
	if s.cache != nil {
		if err := s.cache.Set(ctx, env, res); err != nil {
			s.logger.Errorf("search cache set: %v", err)
		}
	}
	return res, nil
}

// cachedResult returns a cached ranked result only while every item in it is
// still eligible.
func (s *ProximitySearchService) cachedResult(ctx context.Context, env models.SearchEnvelope) (models.SearchResult, bool) {
	if s.cache == nil {
		return models.SearchResult{}, false
	}
	cached, ok, err := s.cache.Get(ctx, env)
	if err != nil {
		s.logger.Errorf("search cache get: %v", err)
		return models.SearchResult{}, false
	}
	if !ok {
		return models.SearchResult{}, false
	}

	if len(cached.Items) > 0 {
		ids := make([]string, 0, len(cached.Items))
		for _, it := range cached.Items {
			ids = append(ids, it.ID)
		}
		var active map[string]bool
		err := s.withStore(ctx, func(ctx context.Context) error {
			var err error
			active, err = s.store.ActiveIDs(ctx, ids)
			return err
		})
		if err != nil {
			s.logger.Errorf("search cache revalidate: %v", err)
			return models.SearchResult{}, false
		}
		for _, id := range ids {
			if !active[id] {
				return models.SearchResult{}, false
			}
		}
	}

	cached.Center = env.Center
	cached.RadiusKm = env.RadiusKm
	cached.Returned = len(cached.Items)
	cached.Mode = models.SearchModeRanked
	return cached, true
}

func (s *ProximitySearchService) fallback(ctx context.Context, env models.SearchEnvelope) (models.SearchResult, error) {
	var items []models.Item
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.store.FindActiveWithLocation(ctx, repositories.ItemFilters{Limit: env.Limit})
		return err
	})
	if err != nil {
		return models.SearchResult{}, fmt.Errorf("%w: %w", models.ErrSearchFailed, err)
	}

	ranked := make([]models.RankedItem, 0, len(items))
	for _, it := range items {
		ranked = append(ranked, models.RankedItem{Item: it})
	}
	return newSearchResult(env, ranked, models.SearchModeFallback), nil
}

// ListMap lists active located items for the map view.
func (s *ProximitySearchService) ListMap(ctx context.Context, req models.MapRequest) ([]models.Item, error) {
	limit := s.cfg.MapMaxLimit
	if req.Limit > 0 && req.Limit < limit {
		limit = req.Limit
	}
	filters := repositories.ItemFilters{
		MaterialCategory: req.MaterialCategory,
		OrganizationID:   req.OrganizationID,
		Limit:            limit,
	}

	var items []models.Item
	err := s.withStore(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.store.FindActiveWithLocation(ctx, filters)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrSearchFailed, err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// withStore runs fn under the configured timeout, retrying with a growing
// delay only while the store is unreachable.
func (s *ProximitySearchService) withStore(ctx context.Context, fn func(context.Context) error) error {
	var err error
	delay := s.cfg.RetryDelay
	for attempt := 1; attempt <= s.cfg.RetryAttempts; attempt++ {
		err = s.callOnce(ctx, fn)
		if !retryable(err) || ctx.Err() != nil || attempt == s.cfg.RetryAttempts {
			return err
		}
		s.logger.Errorf("store unavailable (attempt %d/%d), retrying in %s: %v", attempt, s.cfg.RetryAttempts, delay, err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

func (s *ProximitySearchService) callOnce(ctx context.Context, fn func(context.Context) error) error {
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}
	return fn(ctx)
}

func retryable(err error) bool {
	return err != nil &&
		errors.Is(err, models.ErrStoreUnavailable) &&
		!errors.Is(err, models.ErrGeoUnavailable) &&
		!errors.Is(err, models.ErrQueryError)
}

// rankWithin drops anything outside the radius and orders by distance. Ties
// keep the store's order.
func rankWithin(items []models.RankedItem, env models.SearchEnvelope) []models.RankedItem {
	out := make([]models.RankedItem, 0, len(items))
	for _, it := range items {
		if it.Distance <= env.RadiusKm {
			out = append(out, it)
		}
	}
	slices.SortStableFunc(out, func(a, b models.RankedItem) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return 0
	})
	if len(out) > env.Limit {
		out = out[:env.Limit]
	}
	return out
}

func newSearchResult(env models.SearchEnvelope, items []models.RankedItem, mode models.SearchMode) models.SearchResult {
	return models.SearchResult{
		Items:    items,
		Center:   env.Center,
		RadiusKm: env.RadiusKm,
		Returned: len(items),
		Mode:     mode,
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
