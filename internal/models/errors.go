package models

import (
	"errors"
)

var (
	ErrNoRecord = errors.New("models: no matching record found")

	// ErrStoreUnavailable means the store could not serve the query: the
	// connection failed or the distance-capable path is missing.
	ErrStoreUnavailable = errors.New("models: store unavailable")
	// ErrGeoUnavailable is always reported together with ErrStoreUnavailable.
	ErrGeoUnavailable = errors.New("models: geospatial distance capability unavailable")
	ErrQueryError     = errors.New("models: malformed query")

	ErrSearchFailed = errors.New("search failed")
)
