// Package listing provides models and repositories for rental listings
// tracked by a group, plus the service-level delete that keeps every
// member's comparison data consistent when a listing disappears.
package listing

import (
	"errors"
	"time"
)

// Common errors for listing operations.
var (
	ErrListingNotFound = errors.New("listing not found")
	ErrDuplicateURL    = errors.New("listing with this URL already exists in group")
)

// Point is a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Listing is a rental listing shared into a group. Only ID, GroupID, URL,
// AddedBy and AddedAt are required; the rest is scraped or user-supplied
// detail and may be absent.
type Listing struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	URL     string `json:"url"`
	Site    string `json:"site,omitempty"`

	Title         string   `json:"title,omitempty"`
	Description   string   `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	PriceInterval string   `json:"price_interval,omitempty"` // weekly, monthly
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *int     `json:"bathrooms,omitempty"`
	Postcode      string   `json:"postcode,omitempty"`
	Address       string   `json:"address,omitempty"`
	PropertyType  string   `json:"property_type,omitempty"` // flat, house
	Furnished     string   `json:"furnished,omitempty"`
	AvailableFrom string   `json:"available_from,omitempty"`
	Deposit       *float64 `json:"deposit,omitempty"`

	AgentName  string `json:"agent_name,omitempty"`
	AgentPhone string `json:"agent_phone,omitempty"`
	AgentEmail string `json:"agent_email,omitempty"`

	Features []string `json:"features,omitempty"`
	Images   []string `json:"images,omitempty"`
	Location *Point   `json:"location,omitempty"`

	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

// clone returns a deep copy so repository callers can't mutate stored state.
func (l *Listing) clone() *Listing {
	cp := *l
	if l.Price != nil {
		v := *l.Price
		cp.Price = &v
	}
	if l.Bedrooms != nil {
		v := *l.Bedrooms
		cp.Bedrooms = &v
	}
	if l.Bathrooms != nil {
		v := *l.Bathrooms
		cp.Bathrooms = &v
	}
	if l.Deposit != nil {
		v := *l.Deposit
		cp.Deposit = &v
	}
	if l.Location != nil {
		p := *l.Location
		cp.Location = &p
	}
	if l.Features != nil {
		cp.Features = append([]string(nil), l.Features...)
	}
	if l.Images != nil {
		cp.Images = append([]string(nil), l.Images...)
	}
	return &cp
}
