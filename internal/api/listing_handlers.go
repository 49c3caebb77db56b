package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onnwee/flatrank/internal/listing"
	"github.com/onnwee/flatrank/internal/middleware"
	"github.com/onnwee/flatrank/internal/validate"
)

// CreateListingRequest represents the request body for adding a listing to a
// group. Only URL is required; the rest is optional detail.
type CreateListingRequest struct {
	URL           string         `json:"url"`
	Site          string         `json:"site,omitempty"`
	Title         string         `json:"title,omitempty"`
	Description   string         `json:"description,omitempty"`
	Price         *float64       `json:"price,omitempty"`
	PriceInterval string         `json:"price_interval,omitempty"`
	Bedrooms      *int           `json:"bedrooms,omitempty"`
	Bathrooms     *int           `json:"bathrooms,omitempty"`
	Postcode      string         `json:"postcode,omitempty"`
	Address       string         `json:"address,omitempty"`
	PropertyType  string         `json:"property_type,omitempty"`
	Furnished     string         `json:"furnished,omitempty"`
	AvailableFrom string         `json:"available_from,omitempty"`
	Deposit       *float64       `json:"deposit,omitempty"`
	AgentName     string         `json:"agent_name,omitempty"`
	AgentPhone    string         `json:"agent_phone,omitempty"`
	AgentEmail    string         `json:"agent_email,omitempty"`
	Features      []string       `json:"features,omitempty"`
	Images        []string       `json:"images,omitempty"`
	Location      *listing.Point `json:"location,omitempty"`
}

// ListingHandlers holds dependencies for listing HTTP handlers.
type ListingHandlers struct {
	svc *listing.Service
}

// NewListingHandlers creates a new ListingHandlers instance.
func NewListingHandlers(svc *listing.Service) *ListingHandlers {
	return &ListingHandlers{svc: svc}
}

// CreateListing handles POST /groups/{id}/listings - adds a listing to the
// group's shared pool.
func (h *ListingHandlers) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	var req CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	l := &listing.Listing{
		GroupID:       groupID,
		URL:           req.URL,
		Site:          req.Site,
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		PriceInterval: req.PriceInterval,
		Bedrooms:      req.Bedrooms,
		Bathrooms:     req.Bathrooms,
		Postcode:      req.Postcode,
		Address:       req.Address,
		PropertyType:  req.PropertyType,
		Furnished:     req.Furnished,
		AvailableFrom: req.AvailableFrom,
		Deposit:       req.Deposit,
		AgentName:     req.AgentName,
		AgentPhone:    req.AgentPhone,
		AgentEmail:    req.AgentEmail,
		Features:      req.Features,
		Images:        req.Images,
		Location:      req.Location,
		AddedBy:       userID,
	}

	created, err := h.svc.Create(r.Context(), l)
	if err != nil {
		writeListingError(w, r, err, "Failed to create listing")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, created)
}

// ListListings handles GET /groups/{id}/listings - the group's listings in
// canonical order.
func (h *ListingHandlers) ListListings(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	listings, err := h.svc.List(r.Context(), groupID)
	if err != nil {
		writeListingError(w, r, err, "Failed to list listings")
		return
	}
	if listings == nil {
		listings = []*listing.Listing{}
	}

	writeJSON(w, r.Context(), http.StatusOK, listings)
}

// DeleteListing handles DELETE /listings/{id} - removes a listing and prunes
// it from every member's comparison data.
func (h *ListingHandlers) DeleteListing(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}

	listingID := strings.TrimPrefix(r.URL.Path, "/listings/")
	if listingID == "" || strings.Contains(listingID, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Listing ID is required")
		return
	}

	if err := h.svc.Delete(r.Context(), listingID); err != nil {
		writeListingError(w, r, err, "Failed to delete listing")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeListingError maps listing domain errors to API error responses.
func writeListingError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, listing.ErrListingNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Listing not found")
	case errors.Is(err, listing.ErrDuplicateURL):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeDuplicateURL)
		WriteError(w, ctx, http.StatusConflict, ErrCodeDuplicateURL, "A listing with this URL already exists in the group")
	case errors.Is(err, validate.ErrInvalidID), errors.Is(err, validate.ErrInvalidURL),
		errors.Is(err, validate.ErrDisallowedScheme), errors.Is(err, validate.ErrEmpty),
		errors.Is(err, validate.ErrStringTooShort), errors.Is(err, validate.ErrStringTooLong),
		errors.Is(err, validate.ErrInvalidCharacters):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, fallback)
	}
}
