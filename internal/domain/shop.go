package domain

import (
	"time"
)

// Shop represents one physical capsule-toy retail location.
type Shop struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Hours       *string    `json:"hours,omitempty"`
	ImageURL    *string    `json:"image_url,omitempty"`
	SNSURL      *string    `json:"sns_url,omitempty"`
	ReviewCount *int       `json:"review_count,omitempty"`
	Rating      *float64   `json:"rating,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Mappable reports whether the shop has been geocoded. Latitude and longitude
// are either both present or both absent.
func (s *Shop) Mappable() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Sort options for shop listings.
const (
	ShopSortName   = "name"
	ShopSortNewest = "newest"
)
