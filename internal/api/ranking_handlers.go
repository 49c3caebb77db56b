package api

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/onnwee/flatrank/internal/group"
	"github.com/onnwee/flatrank/internal/middleware"
	"github.com/onnwee/flatrank/internal/rank"
)

// RankingsResponse is the aggregated ranking for a group.
type RankingsResponse struct {
	GroupID  string                `json:"group_id"`
	Rankings []rank.AggregateEntry `json:"rankings"`
}

// RankingHandlers holds dependencies for group ranking HTTP handlers.
type RankingHandlers struct {
	aggregator *rank.Aggregator
	groups     group.Repository
}

// NewRankingHandlers creates a new RankingHandlers instance.
func NewRankingHandlers(aggregator *rank.Aggregator, groups group.Repository) *RankingHandlers {
	return &RankingHandlers{aggregator: aggregator, groups: groups}
}

// GetGroupRankings handles GET /groups/{id}/rankings - the group-wide ranking
// aggregated over members' complete orders. Only members may view it.
func (h *RankingHandlers) GetGroupRankings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/groups/"), "/")
	if len(pathParts) < 1 || pathParts[0] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Group ID is required")
		return
	}
	groupID := pathParts[0]

	g, err := h.groups.GetByID(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, group.ErrGroupNotFound) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Group not found")
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to load group")
		return
	}
	if !slices.Contains(g.MemberIDs, userID) {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeForbidden)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Only group members can view rankings")
		return
	}

	entries, err := h.aggregator.Aggregate(r.Context(), groupID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to aggregate rankings")
		return
	}
	if entries == nil {
		entries = []rank.AggregateEntry{}
	}

	writeJSON(w, r.Context(), http.StatusOK, RankingsResponse{
		GroupID:  groupID,
		Rankings: entries,
	})
}
