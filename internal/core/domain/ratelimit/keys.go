package ratelimit

import (
	"fmt"

	"github.com/jobdeck/gatekeeper/internal/utils"
)

// RequestInfo carries the request attributes key functions may draw on.
// The serving layer fills it once per request; key functions stay pure.
type RequestInfo struct {
	IP        string
	Method    string
	Path      string
	UserAgent string
	// UserID is the authenticated subject, empty for anonymous callers.
	UserID string
}

// KeyFunc derives the identity a counter window is scoped to.
type KeyFunc func(info RequestInfo) string

// AnonymousKey scopes counters to the network client: IP address plus a
// fingerprint of the client signature, so distinct clients behind one NAT
// do not share a window.
func AnonymousKey(info RequestInfo) string {
	return fmt.Sprintf("ip:%s:%s", info.IP, utils.ClientFingerprint(info.UserAgent))
}

// AuthenticatedKey scopes counters to the authenticated user. Requests
// without a subject share one anonymous bucket rather than escaping the
// limit.
func AuthenticatedKey(info RequestInfo) string {
	if info.UserID == "" {
		return "user:anonymous"
	}
	return "user:" + info.UserID
}

// EndpointKey scopes counters to client and endpoint so a hot route
// cannot consume the caller's whole allowance for the rest of the API.
func EndpointKey(info RequestInfo) string {
	return fmt.Sprintf("%s:%s:%s", info.IP, info.Method, info.Path)
}
