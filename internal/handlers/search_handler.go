package handlers

import (
	"context"
	"net/http"

	"greenMarketBack/internal/models"
	"greenMarketBack/internal/services"
)

const searchFailedMessage = "Failed to search items"

// ItemSearcher is the search service as seen by the HTTP layer.
type ItemSearcher interface {
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error)
	ListMap(ctx context.Context, req models.MapRequest) ([]models.Item, error)
}

// SearchHandler exposes proximity search and the map listing.
type SearchHandler struct {
	Service ItemSearcher
	Logger  services.Logger
}

// Search handles GET /api/items/search. Unparsable numbers fall back to the
// defaults instead of failing the request.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req := models.SearchRequest{
		Latitude:  parseOptionalFloat(getParam(r, "latitude")),
		Longitude: parseOptionalFloat(getParam(r, "longitude")),
		RadiusKm:  parseOptionalFloat(getParam(r, "radius")),
		Limit:     parsePositiveInt(getParam(r, "limit"), 0),
	}

	res, err := h.Service.Search(r.Context(), req)
	if err != nil {
		h.Logger.Errorf("search items: %v", err)
		writeError(w, http.StatusInternalServerError, searchFailedMessage)
		return
	}
	if res.Mode == models.SearchModeFallback {
		w.Header().Set("X-Search-Mode", string(res.Mode))
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: newSearchData(res)})
}

// Map handles GET /api/items/map.
func (h *SearchHandler) Map(w http.ResponseWriter, r *http.Request) {
	req := models.MapRequest{
		MaterialCategory: getParam(r, "category"),
		OrganizationID:   getParam(r, "organization_id"),
		Limit:            parsePositiveInt(getParam(r, "limit"), 0),
	}

	items, err := h.Service.ListMap(r.Context(), req)
	if err != nil {
		h.Logger.Errorf("list map items: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load map items")
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: newMapData(items)})
}

// Pinger reports store reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the item store answers.
type HealthHandler struct {
	Store  Pinger
	Logger services.Logger
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Errorf("health check: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
