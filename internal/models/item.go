package models

import "time"

// ItemStatus is the lifecycle state of a listed item.
type ItemStatus string

const (
	ItemStatusActive    ItemStatus = "ACTIVE"
	ItemStatusInactive  ItemStatus = "INACTIVE"
	ItemStatusReserved  ItemStatus = "RESERVED"
	ItemStatusCompleted ItemStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusActive, ItemStatusInactive, ItemStatusReserved, ItemStatusCompleted:
		return true
	}
	return false
}

type Item struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       ItemStatus    `json:"status"`
	Price        *float64      `json:"price"`
	Quantity     int           `json:"quantity"`
	Location     *GeoPoint     `json:"location"`
	Material     *Material     `json:"material"`
	Organization *Organization `json:"organization"`
	Creator      Creator       `json:"creator"`
	Images       []ItemImage   `json:"images"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// NewItem carries the writable fields of an item.
type NewItem struct {
	Title          string
	Description    string
	Status         ItemStatus
	Price          *float64
	Quantity       int
	Location       *GeoPoint
	MaterialID     *string
	OrganizationID *string
	CreatorID      string
}

type Material struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type Organization struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Verified bool   `json:"verified"`
}

// Creator is the public identity of the user who listed an item.
type Creator struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ItemImage struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	AltText   string    `json:"altText"`
	IsPrimary bool      `json:"isPrimary"`
	CreatedAt time.Time `json:"-"`
}

type NewItemImage struct {
	URL       string
	AltText   string
	IsPrimary bool
}
