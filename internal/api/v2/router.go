package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hashicorp-forge/distributor/internal/server"
	"github.com/hashicorp-forge/distributor/pkg/subscriptions"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// BasePath is where the protocol API is mounted.
const BasePath = "/api/v2"

// NewRouter returns the HTTP handler serving the protocol API.
//
// GET  /api/v2/                         - API index with routes
// GET  /api/v2/types                    - Content types and their collections
// GET  /api/v2/{rest_base}              - List items
// POST /api/v2/{rest_base}              - Create an item from a push
// GET  /api/v2/{rest_base}/{id}         - Get an item
// POST /api/v2/{rest_base}/{id}         - Update an item from a push
// POST /api/v2/dt_subscription/receive  - Register a subscription
// POST /api/v2/dt_subscription/update   - Apply an origin update
func NewRouter(srv server.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))

	r.Route(BasePath, func(r chi.Router) {
		r.Use(ProtocolMiddleware(srv))
		r.Use(AuthMiddleware(srv))

		r.Get("/", IndexHandler(srv))
		r.Get("/types", TypesHandler(srv))

		r.Post("/"+subscriptions.ReceivePath, ReceiveSubscriptionHandler(srv))
		r.Post("/"+subscriptions.UpdatePath, UpdateSubscriptionHandler(srv))

		r.Get("/{rest_base}", ListItemsHandler(srv))
		r.Post("/{rest_base}", CreateItemHandler(srv))
		r.Get("/{rest_base}/{id}", GetItemHandler(srv))
		r.Post("/{rest_base}/{id}", UpdateItemHandler(srv))
	})
	return r
}

// ProtocolMiddleware advertises the protocol on every response.
func ProtocolMiddleware(srv server.Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(syndication.HeaderMarker, "yes")
			w.Header().Add("Link", syndication.APILinkHeader(baseURL(srv, r)))
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware rejects requests the server's verifier does not accept.
// Without configured credentials every request passes.
func AuthMiddleware(srv server.Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if srv.Verifier == nil || !srv.Verifier.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			if err := srv.Verifier.Verify(r); err != nil {
				srv.Logger.Warn("rejected request",
					"error", err,
					"path", r.URL.Path,
					"method", r.Method,
				)
				writeError(w, http.StatusUnauthorized, "rest_not_logged_in", "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// baseURL is the absolute API base. The configured site URL wins over the
// request's host.
func baseURL(srv server.Server, r *http.Request) string {
	if srv.Config != nil && srv.Config.Site != nil && srv.Config.Site.URL != "" {
		return strings.TrimRight(srv.Config.Site.URL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host + BasePath
}
