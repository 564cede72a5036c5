package api

import (
	"net/http"

	"github.com/hashicorp-forge/distributor/internal/server"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

type link struct {
	Href string `json:"href"`
}

type links map[string][]link

// IndexResponse is the API index.
type IndexResponse struct {
	Name   string                `json:"name"`
	URL    string                `json:"url"`
	Routes map[string]RouteEntry `json:"routes"`
}

// RouteEntry describes one route of the index.
type RouteEntry struct {
	Methods []string `json:"methods"`
	Links   links    `json:"_links"`
}

// TypeResponse describes a content type in the types index.
type TypeResponse struct {
	Slug     string `json:"slug"`
	RestBase string `json:"rest_base"`
	Links    links  `json:"_links"`
}

// IndexHandler serves the API index. Only types supporting the editor are
// advertised as routes.
func IndexHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := srv.Repository.ListTypes(r.Context())
		if err != nil {
			srv.Logger.Error("error listing types", "error", err)
			writeSyndicationError(w, err)
			return
		}

		base := baseURL(srv, r)
		resp := IndexResponse{
			URL:    base,
			Routes: make(map[string]RouteEntry, len(types)+1),
		}
		if srv.Config != nil && srv.Config.Site != nil {
			resp.Name = srv.Config.Site.Name
		}
		resp.Routes["/"] = RouteEntry{
			Methods: []string{http.MethodGet},
			Links:   links{"self": {{Href: base + "/"}}},
		}
		for _, t := range types {
			if !t.SupportsEditor {
				continue
			}
			resp.Routes["/"+restBase(t)] = RouteEntry{
				Methods: []string{http.MethodGet, http.MethodPost},
				Links:   links{"self": {{Href: base + "/" + restBase(t)}}},
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// TypesHandler serves the types index keyed by type name.
func TypesHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := srv.Repository.ListTypes(r.Context())
		if err != nil {
			srv.Logger.Error("error listing types", "error", err)
			writeSyndicationError(w, err)
			return
		}

		base := baseURL(srv, r)
		resp := make(map[string]TypeResponse, len(types))
		for _, t := range types {
			if !t.SupportsEditor {
				continue
			}
			resp[t.Name] = TypeResponse{
				Slug:     t.Name,
				RestBase: restBase(t),
				Links:    links{"wp:items": {{Href: base + "/" + restBase(t)}}},
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func restBase(t syndication.TypeInfo) string {
	if t.RestBase != "" {
		return t.RestBase
	}
	return t.Name
}

// lookupRestBase finds the editable type served at rb.
func lookupRestBase(srv server.Server, r *http.Request, rb string) (*syndication.TypeInfo, error) {
	types, err := srv.Repository.ListTypes(r.Context())
	if err != nil {
		return nil, err
	}
	for i := range types {
		if restBase(types[i]) == rb && types[i].SupportsEditor {
			return &types[i], nil
		}
	}
	return nil, syndication.NewError(syndication.KindNotFound, "route", "no route was found matching the URL")
}
