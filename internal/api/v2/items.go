package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp-forge/distributor/internal/server"
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// ItemResponse is the read representation of an item.
type ItemResponse struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Excerpt  string `json:"excerpt"`
	Slug     string `json:"slug"`
	Status   string `json:"status"`
	Author   string `json:"author,omitempty"`
	Parent   int64  `json:"parent"`
	Link     string `json:"link"`
	Date     string `json:"date_gmt,omitempty"`
	Modified string `json:"modified_gmt,omitempty"`

	Meta  map[string][]string              `json:"distributor_meta"`
	Terms map[string][]syndication.TermRef `json:"distributor_terms"`
	Media []syndication.MediaRef           `json:"distributor_media"`
	Links links                            `json:"_links"`
}

// PushRequest is the write representation of an item.
type PushRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Slug    string `json:"slug"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	Author  string `json:"author"`
	Parent  int64  `json:"parent"`

	Meta  map[string][]string              `json:"distributor_meta"`
	Terms map[string][]syndication.TermRef `json:"distributor_terms"`
	Media []syndication.MediaRef           `json:"distributor_media"`

	OriginalSourceID int64  `json:"distributor_original_source_id"`
	OriginalSiteName string `json:"distributor_original_site_name"`
	OriginalSiteURL  string `json:"distributor_original_site_url"`
	OriginalPostID   int64  `json:"distributor_original_post_id"`
	OriginalPostURL  string `json:"distributor_original_post_url"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func newItemResponse(c *syndication.Content, collection string) ItemResponse {
	self := collection + "/" + strconv.FormatInt(c.ID, 10)
	resp := ItemResponse{
		ID:       c.ID,
		Type:     c.Type,
		Title:    c.Title,
		Content:  c.Body,
		Excerpt:  c.Excerpt,
		Slug:     c.Slug,
		Status:   c.Status,
		Author:   c.Author,
		Parent:   c.ParentID,
		Link:     self,
		Date:     formatTime(c.Date),
		Modified: formatTime(c.Modified),
		Meta:     c.Meta,
		Terms:    c.Terms,
		Media:    c.Media,
		Links: links{
			"self":       {{Href: self}},
			"collection": {{Href: collection}},
		},
	}
	if resp.Meta == nil {
		resp.Meta = map[string][]string{}
	}
	if resp.Terms == nil {
		resp.Terms = map[string][]syndication.TermRef{}
	}
	if resp.Media == nil {
		resp.Media = []syndication.MediaRef{}
	}
	return resp
}

// ListItemsHandler lists items of a type. Paging follows the page and
// per_page query parameters.
func ListItemsHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := lookupRestBase(srv, r, urlParam(r, "rest_base"))
		if err != nil {
			writeSyndicationError(w, err)
			return
		}

		perPage := defaultPerPage
		if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
			perPage = v
		}
		if perPage > maxPerPage {
			perPage = maxPerPage
		}
		page := 1
		if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
			page = v
		}

		items, err := srv.Repository.List(r.Context(), t.Name, perPage, (page-1)*perPage)
		if err != nil {
			srv.Logger.Error("error listing items", "error", err, "type", t.Name)
			writeSyndicationError(w, err)
			return
		}

		collection := baseURL(srv, r) + "/" + restBase(*t)
		resp := make([]ItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, newItemResponse(&items[i], collection))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetItemHandler returns a single item with its distributable meta.
func GetItemHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := lookupRestBase(srv, r, urlParam(r, "rest_base"))
		if err != nil {
			writeSyndicationError(w, err)
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}

		c, err := srv.Preparer.Export(r.Context(), id)
		if err != nil {
			if !syndication.IsNotFound(err) {
				srv.Logger.Error("error exporting item", "error", err, "id", id)
			}
			writeSyndicationError(w, err)
			return
		}
		if c.Type != t.Name {
			writeError(w, http.StatusNotFound, "rest_post_invalid_id", "invalid post ID")
			return
		}
		writeJSON(w, http.StatusOK, newItemResponse(c, baseURL(srv, r)+"/"+restBase(*t)))
	}
}

// CreateItemHandler creates an item from a push.
func CreateItemHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := lookupRestBase(srv, r, urlParam(r, "rest_base"))
		if err != nil {
			writeSyndicationError(w, err)
			return
		}
		req, ok := readJSON[PushRequest](w, r)
		if !ok {
			return
		}

		id, err := savePush(srv, r, t, 0, req)
		if err != nil {
			writeSyndicationError(w, err)
			return
		}
		srv.Logger.Info("created item from push",
			"id", id,
			"type", t.Name,
			"original_post_id", req.OriginalPostID,
		)
		respondItem(srv, w, r, t, id, http.StatusCreated)
	}
}

// UpdateItemHandler replaces an existing item from a push.
func UpdateItemHandler(srv server.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := lookupRestBase(srv, r, urlParam(r, "rest_base"))
		if err != nil {
			writeSyndicationError(w, err)
			return
		}
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		current, err := srv.Repository.Get(r.Context(), id)
		if err != nil {
			writeSyndicationError(w, err)
			return
		}
		if current.Type != t.Name {
			writeError(w, http.StatusNotFound, "rest_post_invalid_id", "invalid post ID")
			return
		}
		req, ok := readJSON[PushRequest](w, r)
		if !ok {
			return
		}

		if _, err := savePush(srv, r, t, id, req); err != nil {
			writeSyndicationError(w, err)
			return
		}
		srv.Logger.Info("updated item from push", "id", id, "type", t.Name)
		respondItem(srv, w, r, t, id, http.StatusOK)
	}
}

// savePush writes the core fields, then the distributable parts, then the
// origin meta. Save hooks are suspended so incoming copies do not notify
// subscribers of this server.
func savePush(srv server.Server, r *http.Request, t *syndication.TypeInfo, id int64, req PushRequest) (int64, error) {
	ctx, release := srv.Repository.Hooks().Suspend(r.Context(), syndication.HookContentSaved)
	defer release()

	status := req.Status
	if status == "" {
		status = "draft"
	}
	id, err := srv.Repository.Save(ctx, &syndication.Content{
		ID:       id,
		Type:     t.Name,
		Title:    req.Title,
		Body:     req.Content,
		Excerpt:  req.Excerpt,
		Slug:     req.Slug,
		Status:   status,
		Author:   req.Author,
		ParentID: req.Parent,
	})
	if err != nil {
		srv.Logger.Error("error saving pushed item", "error", err)
		return 0, err
	}

	incoming := &syndication.Content{Meta: req.Meta, Terms: req.Terms, Media: req.Media}
	if incoming.Meta == nil {
		incoming.Meta = map[string][]string{}
	}
	if err := srv.Preparer.Import(ctx, id, incoming); err != nil {
		return 0, syndication.WrapError(syndication.KindRemoteRejected, "push", err)
	}

	if req.OriginalPostID > 0 {
		err := srv.Preparer.RecordOrigin(ctx, id, syndication.Origin{
			ConnectionID: req.OriginalSourceID,
			RemotePostID: req.OriginalPostID,
			RemoteURL:    req.OriginalPostURL,
		})
		if err != nil {
			return 0, err
		}
		site := map[string][]string{}
		if req.OriginalSiteName != "" {
			site[syndication.MetaOriginalSiteName] = []string{req.OriginalSiteName}
		}
		if req.OriginalSiteURL != "" {
			site[syndication.MetaOriginalSiteURL] = []string{req.OriginalSiteURL}
		}
		keepAll := func(string) bool { return true }
		if err := srv.Repository.SetMeta(ctx, id, site, keepAll); err != nil {
			return 0, err
		}
	}
	return id, nil
}

func respondItem(srv server.Server, w http.ResponseWriter, r *http.Request, t *syndication.TypeInfo, id int64, status int) {
	c, err := srv.Preparer.Export(r.Context(), id)
	if err != nil {
		srv.Logger.Error("error exporting item", "error", err, "id", id)
		writeSyndicationError(w, err)
		return
	}
	writeJSON(w, status, newItemResponse(c, baseURL(srv, r)+"/"+restBase(*t)))
}
