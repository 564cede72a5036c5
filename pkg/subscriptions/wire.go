// Package subscriptions keeps syndicated copies up to date.
//
// On the origin a Notifier listens for content.saved and sends the saved
// item to every connection holding a subscribed copy. On the target a
// Receiver records subscriptions and applies the updates it is sent, after
// checking the shared signature.
package subscriptions

import (
	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// Endpoint paths relative to a connection's base URL.
const (
	ReceivePath = "dt_subscription/receive"
	UpdatePath  = "dt_subscription/update"
)

// ReceiveRequest asks a target to send updates of its copy PostID back to
// the origin item RemotePostID at TargetURL.
type ReceiveRequest struct {
	PostID       int64  `json:"post_id"`
	RemotePostID int64  `json:"remote_post_id"`
	Signature    string `json:"signature"`
	TargetURL    string `json:"target_url"`
}

// UpdateRequest carries a new version of the origin item to the copy PostID.
type UpdateRequest struct {
	PostID    int64    `json:"post_id"`
	Signature string   `json:"signature"`
	PostData  PostData `json:"post_data"`
}

// PostData is the item state sent with an update.
type PostData struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Excerpt string `json:"excerpt"`
	Slug    string `json:"slug"`
	Status  string `json:"status"`
	Type    string `json:"post_type"`

	Meta  map[string][]string              `json:"distributor_meta"`
	Terms map[string][]syndication.TermRef `json:"distributor_terms"`
	Media []syndication.MediaRef           `json:"distributor_media"`
}

// PostDataFromContent converts an exported item.
func PostDataFromContent(c *syndication.Content) PostData {
	return PostData{
		Title:   c.Title,
		Content: c.Body,
		Excerpt: c.Excerpt,
		Slug:    c.Slug,
		Status:  c.Status,
		Type:    c.Type,
		Meta:    c.Meta,
		Terms:   c.Terms,
		Media:   c.Media,
	}
}

// ToContent converts the update into the item it describes.
func (d PostData) ToContent(id int64) *syndication.Content {
	return &syndication.Content{
		ID:      id,
		Type:    d.Type,
		Title:   d.Title,
		Body:    d.Content,
		Excerpt: d.Excerpt,
		Slug:    d.Slug,
		Status:  d.Status,
		Meta:    d.Meta,
		Terms:   d.Terms,
		Media:   d.Media,
	}
}
