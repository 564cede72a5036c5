package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hashicorp-forge/distributor/pkg/syndication"
)

// discovery is the part of the API index the connection reads.
type discovery struct {
	Routes json.RawMessage `json:"routes"`
}

// CheckConnections reads the API index. It never fails; problems are
// reported through the returned health. no_distributor is always present.
func (c *Connection) CheckConnections(ctx context.Context) syndication.ConnectionHealth {
	health := syndication.ConnectionHealth{
		Errors:    map[string]bool{syndication.HealthNoDistributor: true},
		CheckedAt: c.now(),
	}

	resp, err := c.send(ctx, http.MethodGet, c.base+"/", nil)
	if err != nil {
		c.logger.Debug("connection check failed", "error", err)
		if syndication.KindOf(err) == syndication.KindUnauthorized {
			health.Errors[syndication.HealthUnauthorized] = true
		} else {
			health.Errors[syndication.HealthNoExternalConnection] = true
		}
		return health
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		health.Errors[syndication.HealthUnauthorized] = true
		return health
	case !resp.OK():
		health.Errors[syndication.HealthNoExternalConnection] = true
		return health
	}
	health.Reachable = true

	supported := syndication.SupportsProtocol(resp.Header)
	c.recordProtocol(supported)
	health.Errors[syndication.HealthNoDistributor] = !supported

	var index discovery
	if err := json.Unmarshal(resp.Body, &index); err != nil {
		health.Errors[syndication.HealthNoExternalConnection] = true
		return health
	}
	if blank(index.Routes) {
		health.Errors[syndication.HealthNoExternalConnection] = true
		return health
	}
	var routes map[string]json.RawMessage
	if err := json.Unmarshal(index.Routes, &routes); err == nil {
		c.seedRoutes(routes)
	}
	return health
}

// blank reports whether raw is missing or holds an empty value: null, false,
// zero, "", "0" or an empty array or object.
func blank(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return true
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == "" || t == "0"
	case []interface{}:
		return len(t) == 0
	case map[string]interface{}:
		return len(t) == 0
	}
	return false
}
