package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"greenMarketBack/internal/models"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type itemProjection struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	Status       models.ItemStatus    `json:"status"`
	Price        *float64             `json:"price"`
	Quantity     int                  `json:"quantity"`
	CreatedAt    string               `json:"createdAt"`
	UpdatedAt    string               `json:"updatedAt"`
	Location     models.GeoPoint      `json:"location"`
	Distance     float64              `json:"distance"`
	Material     *models.Material     `json:"material"`
	Organization *models.Organization `json:"organization"`
	Creator      models.Creator       `json:"creator"`
	Images       []models.ItemImage   `json:"images"`
}

type searchData struct {
	Items  []itemProjection `json:"items"`
	Center models.GeoPoint  `json:"center"`
	Radius float64          `json:"radius"`
	Total  int              `json:"total"`
}

type mapItem struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Status       models.ItemStatus    `json:"status"`
	Price        *float64             `json:"price"`
	Quantity     int                  `json:"quantity"`
	Location     models.GeoPoint      `json:"location"`
	Material     *models.Material     `json:"material"`
	Organization *models.Organization `json:"organization"`
	Image        *models.ItemImage    `json:"image"`
}

type mapData struct {
	Items []mapItem `json:"items"`
	Total int       `json:"total"`
}

func newItemProjection(ri models.RankedItem) itemProjection {
	images := ri.Images
	if images == nil {
		images = []models.ItemImage{}
	}
	return itemProjection{
		ID:           ri.ID,
		Title:        ri.Title,
		Description:  ri.Description,
		Status:       ri.Status,
		Price:        ri.Price,
		Quantity:     ri.Quantity,
		CreatedAt:    ri.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:    ri.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Location:     ri.Point,
		Distance:     ri.Distance,
		Material:     ri.Material,
		Organization: ri.Organization,
		Creator:      ri.Creator,
		Images:       images,
	}
}

func newSearchData(res models.SearchResult) searchData {
	items := make([]itemProjection, 0, len(res.Items))
	for _, ri := range res.Items {
		items = append(items, newItemProjection(ri))
	}
	return searchData{
		Items:  items,
		Center: res.Center,
		Radius: res.RadiusKm,
		Total:  res.Returned,
	}
}

func newMapData(items []models.Item) mapData {
	out := make([]mapItem, 0, len(items))
	for _, it := range items {
		mi := mapItem{
			ID:           it.ID,
			Title:        it.Title,
			Status:       it.Status,
			Price:        it.Price,
			Quantity:     it.Quantity,
			Material:     it.Material,
			Organization: it.Organization,
		}
		if it.Location != nil {
			mi.Location = *it.Location
		}
		if len(it.Images) > 0 {
			img := it.Images[0]
			mi.Image = &img
		}
		out = append(out, mi)
	}
	return mapData{Items: out, Total: len(out)}
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
