package api

import (
	"net/http"
	"strings"

	"github.com/onnwee/flatrank/internal/middleware"
)

// RouterConfig bundles the handler sets the router dispatches to.
type RouterConfig struct {
	Compare  *CompareHandlers
	Groups   *GroupHandlers
	Listings *ListingHandlers
	Rankings *RankingHandlers
	Health   *HealthHandlers

	// RequireAuth wraps every route except health probes. Optional so
	// tests can mount handlers without a token service.
	RequireAuth func(http.Handler) http.Handler

	// CompareRateLimit wraps the /compare routes, inside RequireAuth so
	// the limiter can key on the authenticated user. Optional.
	CompareRateLimit func(http.Handler) http.Handler
}

// NewRouter builds the API route table. Path parameters are parsed by the
// handlers themselves; the router only dispatches on method and shape.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	authed := func(h http.HandlerFunc) http.Handler {
		if cfg.RequireAuth == nil {
			return h
		}
		return cfg.RequireAuth(h)
	}
	authedLimited := func(h http.HandlerFunc) http.Handler {
		if cfg.CompareRateLimit == nil {
			return authed(h)
		}
		limited := cfg.CompareRateLimit(h)
		return authed(limited.ServeHTTP)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", cfg.Health.Health)
	mux.HandleFunc("/ready", cfg.Health.Ready)

	mux.Handle("/compare", authedLimited(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Compare.RecordComparison(w, r)
		case http.MethodDelete:
			cfg.Compare.ResetComparisons(w, r)
		default:
			methodNotAllowed(w, r)
		}
	}))
	mux.Handle("/compare/next", authedLimited(requireMethod(http.MethodGet, cfg.Compare.NextPair)))
	mux.Handle("/compare/matrix", authedLimited(requireMethod(http.MethodGet, cfg.Compare.Matrix)))

	mux.Handle("/groups", authed(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			cfg.Groups.CreateGroup(w, r)
		case http.MethodGet:
			cfg.Groups.ListGroups(w, r)
		default:
			methodNotAllowed(w, r)
		}
	}))
	mux.Handle("/groups/", authed(func(w http.ResponseWriter, r *http.Request) {
		cfg.routeGroupSubpath(w, r)
	}))

	mux.Handle("/listings/", authed(requireMethod(http.MethodDelete, cfg.Listings.DeleteListing)))

	return mux
}

// routeGroupSubpath dispatches /groups/{id}[/rankings|/listings|/members[/{user_id}]].
func (cfg RouterConfig) routeGroupSubpath(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/groups/"), "/")

	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r)
			return
		}
		cfg.Groups.GetGroup(w, r)

	case len(parts) == 2 && parts[1] == "rankings":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r)
			return
		}
		cfg.Rankings.GetGroupRankings(w, r)

	case len(parts) == 2 && parts[1] == "listings":
		switch r.Method {
		case http.MethodPost:
			cfg.Listings.CreateListing(w, r)
		case http.MethodGet:
			cfg.Listings.ListListings(w, r)
		default:
			methodNotAllowed(w, r)
		}

	case len(parts) == 2 && parts[1] == "members":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r)
			return
		}
		cfg.Groups.JoinGroup(w, r)

	case len(parts) == 3 && parts[1] == "members":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w, r)
			return
		}
		cfg.Groups.LeaveGroup(w, r)

	default:
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
	}
}

func requireMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			methodNotAllowed(w, r)
			return
		}
		h(w, r)
	}
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
	WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
}
