// Package gateway provides the authenticated request path to the dashboard
// backend: bearer-token injection, transparent retry after a single token
// refresh on HTTP 401, and JSON result handling.
//
// The refresh flow is coordinated so that at most one refresh call is in
// flight process-wide. Concurrent callers that need a fresh token attach to
// the in-flight call and all receive the same token or the same error:
//
//	gw, _ := gateway.New(baseURL, store)
//	var needs []Need
//	err := gw.DoJSON(ctx, http.MethodGet, "/needs", nil, &needs)
//
// The refresh credential itself is never read by this package. It lives in an
// HTTP-only cookie carried by the shared cookie jar and is presented to the
// refresh endpoint implicitly.
package gateway
