package rest

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// pushBody is the write representation of an item.
type pushBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Slug    string `json:"slug,omitempty"`
	Status  string `json:"status"`
	Type    string `json:"type"`
	Author  string `json:"author,omitempty"`
	Parent  int64  `json:"parent,omitempty"`

	Meta  map[string][]string              `json:"distributor_meta"`
	Terms map[string][]syndication.TermRef `json:"distributor_terms"`
	Media []syndication.MediaRef           `json:"distributor_media"`

	OriginalSourceID int64  `json:"distributor_original_source_id"`
	OriginalSiteName string `json:"distributor_original_site_name,omitempty"`
	OriginalSiteURL  string `json:"distributor_original_site_url,omitempty"`
	OriginalPostID   int64  `json:"distributor_original_post_id"`
	OriginalPostURL  string `json:"distributor_original_post_url,omitempty"`
}

func (c *Connection) encodePush(content *syndication.Content, postType string, opts syndication.PushOptions) ([]byte, error) {
	body := pushBody{
		Title:   content.Title,
		Content: content.Body,
		Excerpt: content.Excerpt,
		Slug:    content.Slug,
		Status:  content.Status,
		Type:    postType,
		Author:  content.Author,
		Parent:  opts.RemoteParentID,

		Meta:  content.Meta,
		Terms: content.Terms,
		Media: content.Media,

		OriginalSourceID: c.conn.ID,
		OriginalSiteName: c.cfg.SiteName,
		OriginalSiteURL:  c.cfg.SiteURL,
		OriginalPostID:   content.ID,
		OriginalPostURL:  content.Link,
	}
	if opts.Status != "" {
		body.Status = opts.Status
	}
	if body.Meta == nil {
		body.Meta = map[string][]string{}
	}
	if body.Terms == nil {
		body.Terms = map[string][]syndication.TermRef{}
	}
	if body.Media == nil {
		body.Media = []syndication.MediaRef{}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, nil
}

// wireItem is the read representation of an item. Text fields may arrive as
// plain strings or as {"raw", "rendered"} objects; ids may arrive as numbers
// or numeric strings.
type wireItem struct {
	ID       int64  `mapstructure:"id"`
	Type     string `mapstructure:"type"`
	Title    string `mapstructure:"title"`
	Content  string `mapstructure:"content"`
	Excerpt  string `mapstructure:"excerpt"`
	Slug     string `mapstructure:"slug"`
	Status   string `mapstructure:"status"`
	Author   string `mapstructure:"author"`
	Parent   int64  `mapstructure:"parent"`
	Link     string `mapstructure:"link"`
	Date     string `mapstructure:"date_gmt"`
	Modified string `mapstructure:"modified_gmt"`

	Meta            map[string][]string   `mapstructure:"meta"`
	DistributorMeta map[string][]string   `mapstructure:"distributor_meta"`
	Terms           map[string][]wireTerm `mapstructure:"distributor_terms"`
	Media           []wireMedia           `mapstructure:"distributor_media"`
	Links           map[string][]wireHref `mapstructure:"_links"`
}

type wireTerm struct {
	ID     int64  `mapstructure:"term_id"`
	Name   string `mapstructure:"name"`
	Slug   string `mapstructure:"slug"`
	Parent string `mapstructure:"parent"`
}

type wireMedia struct {
	ID        int64               `mapstructure:"id"`
	SourceURL string              `mapstructure:"source_url"`
	Title     string              `mapstructure:"title"`
	Caption   string              `mapstructure:"caption"`
	AltText   string              `mapstructure:"alt_text"`
	MimeType  string              `mapstructure:"mime_type"`
	Featured  bool                `mapstructure:"featured"`
	Meta      map[string][]string `mapstructure:"meta"`
}

type wireHref struct {
	Href string `mapstructure:"href"`
}

// renderedHook flattens {"raw": ..., "rendered": ...} objects into strings,
// preferring the raw value.
func renderedHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	m, ok := data.(map[string]interface{})
	if !ok {
		return data, nil
	}
	if raw, ok := m["raw"].(string); ok {
		return raw, nil
	}
	if rendered, ok := m["rendered"].(string); ok {
		return rendered, nil
	}
	return "", nil
}

func decodeItem(body []byte) (*wireItem, error) {
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("response is not an object")
	}

	var item wireItem
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       renderedHook,
		WeaklyTypedInput: true,
		Result:           &item,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return &item, nil
}

func (w *wireItem) selfLink() string {
	for _, l := range w.Links["self"] {
		if l.Href != "" {
			return l.Href
		}
	}
	return w.Link
}

func parseRemoteTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// content converts the wire item. Fields the remote omitted get explicit
// defaults: the requested post type and draft status.
func (w *wireItem) content(postType string) *syndication.Content {
	c := &syndication.Content{
		ID:       w.ID,
		Type:     w.Type,
		Title:    w.Title,
		Body:     w.Content,
		Excerpt:  w.Excerpt,
		Slug:     w.Slug,
		Status:   w.Status,
		Author:   w.Author,
		ParentID: w.Parent,
		Link:     w.selfLink(),
		Date:     parseRemoteTime(w.Date),
		Modified: parseRemoteTime(w.Modified),
		Meta:     map[string][]string{},
		Terms:    map[string][]syndication.TermRef{},
		Media:    []syndication.MediaRef{},
	}
	if c.Type == "" {
		c.Type = postType
	}
	if c.Status == "" {
		c.Status = "draft"
	}

	meta := w.DistributorMeta
	if meta == nil {
		meta = w.Meta
	}
	for k, v := range meta {
		c.Meta[k] = v
	}
	for taxonomy, terms := range w.Terms {
		for _, t := range terms {
			parent := t.Parent
			if parent == "0" {
				parent = ""
			}
			c.Terms[taxonomy] = append(c.Terms[taxonomy], syndication.TermRef{
				ID:         t.ID,
				Name:       t.Name,
				Slug:       t.Slug,
				ParentSlug: parent,
			})
		}
	}
	for _, m := range w.Media {
		c.Media = append(c.Media, syndication.MediaRef{
			ID:        m.ID,
			SourceURL: m.SourceURL,
			Title:     m.Title,
			Caption:   m.Caption,
			AltText:   m.AltText,
			MimeType:  m.MimeType,
			Featured:  m.Featured,
			Meta:      m.Meta,
		})
	}
	return c
}

// remoteError is the error body shape returned by the REST protocol.
type remoteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// classify converts a non-2xx response into a syndication error. The body is
// used as the message when it is a recognizable error object.
func classify(op string, resp *syndication.Response) *syndication.Error {
	kind := syndication.KindRemoteRejected
	switch resp.StatusCode {
	case 401, 403:
		kind = syndication.KindUnauthorized
	}

	msg := ""
	var re remoteError
	if err := json.Unmarshal(resp.Body, &re); err == nil {
		switch {
		case re.Message != "" && re.Code != "":
			msg = re.Code + ": " + re.Message
		case re.Message != "":
			msg = re.Message
		case re.Error != "":
			msg = re.Error
		case re.Code != "":
			msg = re.Code
		}
	}
	if msg == "" {
		msg = truncate(strings.TrimSpace(string(resp.Body)), 200)
	}
	if msg == "" {
		msg = "remote returned an error"
	}

	return &syndication.Error{
		Kind:       kind,
		Op:         op,
		Message:    msg,
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
