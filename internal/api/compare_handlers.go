// Package api provides HTTP handlers for the flatrank API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onnwee/flatrank/internal/middleware"
	"github.com/onnwee/flatrank/internal/rank"
	"github.com/onnwee/flatrank/internal/validate"
)

// RecordComparisonRequest represents the request body for recording a comparison.
type RecordComparisonRequest struct {
	GroupID  string `json:"group_id"`
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
}

// MatrixResponse is the pairwise relation matrix for one user over a group's
// listings. Relations[i][j] is the relation between ListingIDs[i] and
// ListingIDs[j]: "direct", "inferred" or "unknown".
type MatrixResponse struct {
	GroupID    string     `json:"group_id"`
	ListingIDs []string   `json:"listing_ids"`
	Relations  [][]string `json:"relations"`
	Unknown    int        `json:"unknown_pairs"`
}

// CompareHandlers holds dependencies for comparison HTTP handlers.
type CompareHandlers struct {
	recorder *rank.Recorder
	selector *rank.Selector
	store    rank.Store
	listings rank.ListingSource
}

// NewCompareHandlers creates a new CompareHandlers instance.
func NewCompareHandlers(recorder *rank.Recorder, selector *rank.Selector, store rank.Store, listings rank.ListingSource) *CompareHandlers {
	return &CompareHandlers{
		recorder: recorder,
		selector: selector,
		store:    store,
		listings: listings,
	}
}

// NextPair handles GET /compare/next?group_id= and returns the next pair the
// caller should compare. Responds 204 when the caller's preferences are fully
// resolved for the group.
func (h *CompareHandlers) NextPair(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	pair, err := h.selector.NextPair(r.Context(), userID, groupID)
	if err != nil {
		writeRankError(w, r, err, "Failed to select next pair")
		return
	}
	if pair == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, pair)
}

// RecordComparison handles POST /compare - records one pairwise preference.
func (h *CompareHandlers) RecordComparison(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	var req RecordComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	if err := validate.GroupID(req.GroupID); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "group_id is required")
		return
	}

	if err := h.recorder.Record(r.Context(), userID, req.GroupID, req.WinnerID, req.LoserID); err != nil {
		writeRankError(w, r, err, "Failed to record comparison")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Matrix handles GET /compare/matrix?group_id= - the caller's pairwise
// relation matrix over the group's listings. Debug view: shows which pairs
// are directly compared, inferred, or still unknown.
func (h *CompareHandlers) Matrix(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	listingIDs, err := h.listings.ListingIDs(r.Context(), groupID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load group listings")
		return
	}
	comparisons, err := h.store.LoadComparisons(r.Context(), userID, groupID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load comparisons")
		return
	}

	m := rank.ComputeMatrix(comparisons, listingIDs)
	ids := m.IDs()
	relations := make([][]string, len(ids))
	for i, a := range ids {
		row := make([]string, len(ids))
		for j, b := range ids {
			row[j] = m.Relation(a, b).String()
		}
		relations[i] = row
	}

	writeJSON(w, r.Context(), http.StatusOK, MatrixResponse{
		GroupID:    groupID,
		ListingIDs: ids,
		Relations:  relations,
		Unknown:    m.CountUnknown(),
	})
}

// ResetComparisons handles DELETE /compare?group_id= - clears the caller's
// comparisons and order for a fresh start.
func (h *CompareHandlers) ResetComparisons(w http.ResponseWriter, r *http.Request) {
	userID, groupID, ok := h.callerAndGroup(w, r)
	if !ok {
		return
	}

	if err := h.recorder.Reset(r.Context(), userID, groupID); err != nil {
		writeRankError(w, r, err, "Failed to reset comparisons")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// callerAndGroup extracts the authenticated user and the group_id query
// parameter, writing the error response itself when either is missing.
func (h *CompareHandlers) callerAndGroup(w http.ResponseWriter, r *http.Request) (userID, groupID string, ok bool) {
	userID = middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return "", "", false
	}

	groupID = strings.TrimSpace(r.URL.Query().Get("group_id"))
	if err := validate.GroupID(groupID); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, "group_id query parameter is required")
		return "", "", false
	}
	return userID, groupID, true
}

// writeRankError maps ranking engine errors to API error responses.
func writeRankError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, rank.ErrSelfComparison):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeSelfComparison)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeSelfComparison, "Winner and loser must be different listings")
	case errors.Is(err, rank.ErrInvalidListingID), errors.Is(err, rank.ErrInvalidUserID):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, fallback)
	}
}
