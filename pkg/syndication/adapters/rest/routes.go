package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"path"
	"strconv"
	"strings"
)

const (
	typeKeyPrefix  = "type:"
	routeKeyPrefix = "route:"
)

func (c *Connection) cacheRoute(key, href string) {
	c.routes.SetWithTTL(key, href, 1, c.cfg.CacheTTL)
}

// itemsHref resolves the collection endpoint of a remote post type. Cached
// discovery results are preferred; otherwise the remote types index is read
// and, failing that, the canonical path is derived from the type's REST base.
func (c *Connection) itemsHref(ctx context.Context, postType string) string {
	if href, ok := c.routes.Get(typeKeyPrefix + postType); ok {
		return href
	}

	restBase := c.restBase(ctx, postType)
	if href, ok := c.routes.Get(routeKeyPrefix + restBase); ok {
		return href
	}

	if href := c.discoverTypes(ctx, postType); href != "" {
		return href
	}

	return c.base + "/" + restBase
}

func (c *Connection) restBase(ctx context.Context, postType string) string {
	info, err := c.deps.Types.LookupType(ctx, postType)
	if err == nil && info.RestBase != "" {
		return info.RestBase
	}
	return postType
}

// itemHref is the endpoint of a single remote item.
func (c *Connection) itemHref(ctx context.Context, postType string, id int64) string {
	return strings.TrimRight(c.itemsHref(ctx, postType), "/") + "/" + strconv.FormatInt(id, 10)
}

// discoverTypes reads the types index, caches every advertised collection
// and returns the one for postType.
func (c *Connection) discoverTypes(ctx context.Context, postType string) string {
	resp, err := c.send(ctx, http.MethodGet, c.base+"/"+strings.Trim(c.cfg.TypesPath, "/"), nil)
	if err != nil {
		c.logger.Debug("types discovery failed", "error", err)
		return ""
	}
	if !resp.OK() {
		c.logger.Debug("types discovery rejected", "status", resp.StatusCode)
		return ""
	}

	var index map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &index); err != nil {
		c.logger.Debug("types index is not an object", "error", err)
		return ""
	}

	var found string
	for name, raw := range index {
		var descriptor struct {
			Links wireLinks `json:"_links"`
		}
		if err := json.Unmarshal(raw, &descriptor); err != nil {
			continue
		}
		href := descriptor.Links.first("wp:items")
		if href == "" {
			continue
		}
		c.cacheRoute(typeKeyPrefix+name, href)
		if name == postType {
			found = href
		}
	}
	c.routes.Wait()
	return found
}

// seedRoutes caches the collection routes advertised by a discovery
// document. Routes are keyed by their last path segment, which matches a
// post type's REST base.
func (c *Connection) seedRoutes(routes map[string]json.RawMessage) {
	for route, raw := range routes {
		if strings.Contains(route, "(") || strings.Contains(route, "{") {
			continue
		}
		var entry struct {
			Links wireLinks `json:"_links"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		href := entry.Links.first("self")
		if href == "" {
			continue
		}
		c.cacheRoute(routeKeyPrefix+path.Base(route), href)
	}
	c.routes.Wait()
}

// wireLinks is the HAL-style _links object of the REST protocol.
type wireLinks map[string][]struct {
	Href string `json:"href"`
}

func (l wireLinks) first(rel string) string {
	for _, link := range l[rel] {
		if link.Href != "" {
			return link.Href
		}
	}
	return ""
}
