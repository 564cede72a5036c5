package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// RemoteGet fetches one remote item. Types that are unknown locally or do
// not support the editor are reported as not found without contacting the
// remote.
func (c *Connection) RemoteGet(ctx context.Context, ref syndication.ItemReference) (*syndication.Content, error) {
	content, _, err := c.fetch(ctx, ref)
	return content, err
}

// fetch is RemoteGet that also reports whether the response carried the
// protocol marker.
func (c *Connection) fetch(ctx context.Context, ref syndication.ItemReference) (*syndication.Content, bool, error) {
	const op = "remote_get"

	postType := ref.PostType
	if postType == "" {
		postType = "post"
	}

	info, err := c.deps.Types.LookupType(ctx, postType)
	if err != nil {
		if syndication.IsNotFound(err) {
			return nil, false, syndication.NewError(syndication.KindNotFound, op,
				fmt.Sprintf("post type %q is not registered", postType))
		}
		return nil, false, fmt.Errorf("failed to look up post type: %w", err)
	}
	if !info.SupportsEditor {
		return nil, false, syndication.NewError(syndication.KindNotFound, op,
			fmt.Sprintf("post type %q is not available for syndication", postType))
	}
	if ref.RemotePostID <= 0 {
		return nil, false, syndication.NewError(syndication.KindNotFound, op, "no match")
	}

	resp, err := c.send(ctx, http.MethodGet, c.itemHref(ctx, postType, ref.RemotePostID), nil)
	if err != nil {
		return nil, false, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, false, &syndication.Error{Kind: syndication.KindNotFound, Op: op,
			Message: "no match", StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if !resp.OK() {
		return nil, false, classify(op, resp)
	}

	item, err := decodeItem(resp.Body)
	if err != nil {
		return nil, false, &syndication.Error{Kind: syndication.KindRemoteRejected, Op: op, Err: err,
			StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if item.ID == 0 {
		return nil, false, syndication.NewError(syndication.KindNotFound, op, "no match")
	}

	supported := syndication.SupportsProtocol(resp.Header)
	c.recordProtocol(supported)
	return item.content(postType), supported, nil
}
