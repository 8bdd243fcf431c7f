package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

// getParam returns a path or query parameter value regardless of whether
// the router stores it with a leading colon or not.
func getParam(r *http.Request, name string) string {
	if r == nil {
		return ""
	}

	if val := r.URL.Query().Get(":" + name); val != "" {
		return val
	}

	return r.URL.Query().Get(name)
}

// parseOptionalFloat returns nil for empty, malformed, NaN or infinite
// input so that the caller's default applies.
func parseOptionalFloat(input string) *float64 {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	value, err := strconv.ParseFloat(input, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}
	return &value
}

func parsePositiveInt(input string, fallback int) int {
	input = strings.TrimSpace(input)
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil && value > 0 {
		return value
	}
	return fallback
}
