package domain

import (
	"time"
)

// Link records that a shop carries a gacha. The (ShopID, GachaID) pair is
// unique; the relation is a set with no ordering semantics. Provenance fields
// are written by ingestion only and ignored by the read paths.
type Link struct {
	ShopID     string     `json:"shop_id"`
	GachaID    string     `json:"gacha_id"`
	Confidence *float64   `json:"confidence,omitempty"`
	Source     *string    `json:"source,omitempty"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}
