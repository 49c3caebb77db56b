package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/onnwee/flatrank/internal/group"
	"github.com/onnwee/flatrank/internal/middleware"
	"github.com/onnwee/flatrank/internal/validate"
)

// CreateGroupRequest represents the request body for creating a group.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// GroupHandlers holds dependencies for group HTTP handlers.
type GroupHandlers struct {
	svc *group.Service
}

// NewGroupHandlers creates a new GroupHandlers instance.
func NewGroupHandlers(svc *group.Service) *GroupHandlers {
	return &GroupHandlers{svc: svc}
}

// CreateGroup handles POST /groups - creates a new group with the caller as
// its first member.
func (h *GroupHandlers) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON in request body")
		return
	}

	g, err := h.svc.Create(r.Context(), req.Name, userID)
	if err != nil {
		if errors.Is(err, validate.ErrStringTooShort) || errors.Is(err, validate.ErrStringTooLong) ||
			errors.Is(err, validate.ErrInvalidCharacters) || errors.Is(err, validate.ErrEmpty) {
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
			WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to create group")
		return
	}

	writeJSON(w, r.Context(), http.StatusCreated, g)
}

// ListGroups handles GET /groups - the caller's groups, oldest first.
func (h *GroupHandlers) ListGroups(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	groups, err := h.svc.ListForUser(r.Context(), userID)
	if err != nil {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to list groups")
		return
	}
	if groups == nil {
		groups = []*group.Group{}
	}

	writeJSON(w, r.Context(), http.StatusOK, groups)
}

// GetGroup handles GET /groups/{id}.
func (h *GroupHandlers) GetGroup(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	g, err := h.svc.Get(r.Context(), groupID)
	if err != nil {
		writeGroupError(w, r, err, "Failed to load group")
		return
	}

	writeJSON(w, r.Context(), http.StatusOK, g)
}

// JoinGroup handles POST /groups/{id}/members - adds the caller to the group.
func (h *GroupHandlers) JoinGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}
	groupID, ok := groupIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.svc.Join(r.Context(), groupID, userID); err != nil {
		writeGroupError(w, r, err, "Failed to join group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LeaveGroup handles DELETE /groups/{id}/members/{user_id}. Callers can only
// remove themselves; the member's comparison data is kept but stops
// contributing to the group ranking.
func (h *GroupHandlers) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := caller(w, r)
	if !ok {
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/groups/"), "/")
	if len(pathParts) < 3 || pathParts[0] == "" || pathParts[1] != "members" || pathParts[2] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Group ID and member user ID are required")
		return
	}
	groupID, memberID := pathParts[0], pathParts[2]

	if memberID != userID {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeForbidden)
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, "Members can only remove themselves")
		return
	}

	if err := h.svc.Leave(r.Context(), groupID, memberID); err != nil {
		writeGroupError(w, r, err, "Failed to leave group")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// caller extracts the authenticated user, writing a 401 when absent.
func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
		WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "Authentication required")
		return "", false
	}
	return userID, true
}

// groupIDFromPath extracts the {id} segment from /groups/{id}[/...].
func groupIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/groups/"), "/")
	if len(pathParts) < 1 || pathParts[0] == "" {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Group ID is required")
		return "", false
	}
	return pathParts[0], true
}

// writeGroupError maps group domain errors to API error responses.
func writeGroupError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, group.ErrGroupNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Group not found")
	case errors.Is(err, group.ErrAlreadyMember):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeAlreadyMember)
		WriteError(w, ctx, http.StatusConflict, ErrCodeAlreadyMember, "Already a member of this group")
	case errors.Is(err, group.ErrMemberNotFound):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotAMember)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotAMember, "Not a member of this group")
	case errors.Is(err, validate.ErrInvalidID):
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeValidation)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, fallback)
	}
}
