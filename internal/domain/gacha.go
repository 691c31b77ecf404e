package domain

import (
	"regexp"
	"time"
)

// Gacha represents one purchasable capsule-toy product line.
type Gacha struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	NameKo      *string    `json:"name_ko,omitempty"`
	Keywords    *string    `json:"keywords,omitempty"`
	Brand       string     `json:"brand"`
	Price       int64      `json:"price"`
	ImageURL    string     `json:"image_url"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Category    string     `json:"category"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName returns the localized name, falling back to the canonical name
// when no localization exists.
func (g *Gacha) DisplayName() string {
	if g.NameKo != nil && *g.NameKo != "" {
		return *g.NameKo
	}
	return g.Name
}

// Sort options for gacha listings. Exactly one is active at a time.
const (
	SortNewest    = "newest"
	SortName      = "name"
	SortPriceLow  = "priceLow"
	SortPriceHigh = "priceHigh"
)

// Release window values for the month filter. Any other value is interpreted
// as a YYYY-MM month prefix; unparseable values fall through as "no filter".
const (
	MonthAll = "all"
	MonthNew = "new"
)

// NewWindow is the trailing window that classifies a release as "new".
const NewWindow = 30 * 24 * time.Hour

// ReleasedWithin reports whether the gacha's release date falls inside the
// trailing window ending at now. A gacha with no release date is never "new".
func (g *Gacha) ReleasedWithin(window time.Duration, now time.Time) bool {
	if g.ReleaseDate == nil {
		return false
	}
	return !g.ReleaseDate.Before(now.Add(-window)) && !g.ReleaseDate.After(now)
}

var yearMonthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// IsYearMonth reports whether s is a YYYY-MM release-month filter value.
// Unrecognized values fall through every filter branch as "no filter".
func IsYearMonth(s string) bool {
	return yearMonthRe.MatchString(s)
}

// ReleasedInMonth reports whether the gacha's release date falls in the given
// YYYY-MM month. A gacha with no release date fails every month filter.
func (g *Gacha) ReleasedInMonth(month string) bool {
	if g.ReleaseDate == nil {
		return false
	}
	return g.ReleaseDate.Format("2006-01") == month
}
