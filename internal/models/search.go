package models

// SearchMode tells whether results were ranked by the store or listed
// without distance information.
type SearchMode string

const (
	SearchModeRanked   SearchMode = "ranked"
	SearchModeFallback SearchMode = "fallback"
)

// SearchRequest holds already-parsed search parameters. Nil fields take
// their defaults.
type SearchRequest struct {
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
	Limit     int
}

// SearchEnvelope is the request-scoped center, radius and result cap.
type SearchEnvelope struct {
	Center   GeoPoint
	RadiusKm float64
	Limit    int
}

// RankedItem is an item with its distance from the search center.
type RankedItem struct {
	Item
	Distance float64
	Point    GeoPoint
}

type SearchResult struct {
	Items    []RankedItem
	Center   GeoPoint
	RadiusKm float64
	// Returned is the number of items in this response, not the number of
	// eligible items in the store.
	Returned int
	Mode     SearchMode
}

// MapRequest filters the map listing of active located items.
type MapRequest struct {
	MaterialCategory string
	OrganizationID   string
	Limit            int
}
