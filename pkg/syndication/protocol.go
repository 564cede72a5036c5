package syndication

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tomnomnom/linkheader"
)

const (
	// HeaderMarker is the protocol marker response header.
	HeaderMarker = "X-Distributor"

	// LinkRelAPI is the Link relation advertising the syndication API.
	LinkRelAPI = "https://distributor.io/api"
)

// Meta keys maintained by syndication. They are never exported as
// distributable meta.
const (
	MetaOriginalPostID   = "dt_original_post_id"
	MetaOriginalPostURL  = "dt_original_post_url"
	MetaOriginalSourceID = "dt_original_source_id"
	MetaSyndicateTime    = "dt_syndicate_time"
	MetaUnlinked         = "dt_unlinked"
	MetaSubscriptionSig  = "dt_subscription_signature"
	MetaOriginalMediaURL = "dt_original_media_url"
	MetaConnectionMap    = "dt_connection_map"
	MetaOriginalSiteName = "dt_original_site_name"
	MetaOriginalSiteURL  = "dt_original_site_url"
)

// HasMarker reports whether the response headers carry a truthy protocol
// marker. Any non-empty value other than an explicit false counts, which
// includes "yes".
func HasMarker(h http.Header) bool {
	v := strings.TrimSpace(h.Get(HeaderMarker))
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "no", "off", "null":
		return false
	}
	return true
}

// HasAPILink reports whether a Link header advertises the syndication API.
// A literal "null" value is treated the same as an absent header.
func HasAPILink(h http.Header) bool {
	for _, raw := range h.Values("Link") {
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.EqualFold(raw, "null") {
			continue
		}
		if len(linkheader.Parse(raw).FilterByRel(LinkRelAPI)) > 0 {
			return true
		}
	}
	return false
}

// SupportsProtocol reports whether either protocol signal is present.
func SupportsProtocol(h http.Header) bool {
	return HasMarker(h) || HasAPILink(h)
}

// APILinkHeader formats the Link header value advertising base.
func APILinkHeader(base string) string {
	return "<" + base + ">; rel=\"" + LinkRelAPI + "\""
}
