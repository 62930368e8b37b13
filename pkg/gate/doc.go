// Package gate decides whether a piece of content is gated behind
// membership login.
//
// A content page can render the gated-content region (the member-only
// experience) or the gated-content-login region (the login prompt shown to
// anonymous visitors). The Detector answers whether a given content
// reference carries gated content at all; the API layer combines that
// answer with session state to pick the region.
//
// Detection can be expensive for backends that have to inspect stored
// content, so CachingDetector memoizes answers in a bounded LRU.
package gate
