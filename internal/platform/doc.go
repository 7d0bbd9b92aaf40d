// Package platform provides an HTTP client for the crowdfunding platform API.
//
// # Overview
//
// This package defines the client the admin console uses to browse and
// mutate resource families (campaigns, organizations, users, transactions,
// categories, admin actions). It handles HTTP communication, JSON decoding,
// response normalization, and conversion of every failure into a single
// APIError shape.
//
// # Architecture
//
//   - client.go: HTTP client, endpoints, error conversion
//   - types.go: Item, Page, BulkResult, Statistics and the list normalizer
//   - demoapi: in-memory implementation of the same contract
//
// # Client Usage
//
//	client, err := platform.NewClient("http://127.0.0.1:8000/api", platform.Options{Token: token})
//	if err != nil {
//		return err
//	}
//
//	page, err := client.List(ctx, platform.Campaigns, platform.ListQuery{
//		Filters: map[string]string{"status": "active"},
//		Page:    1,
//	})
//
// # API Endpoints
//
//   - GET /{resource}/?filters&page&page_size: paginated list
//   - GET /{resource}/{id}/: detail
//   - POST /{resource}/{id}/{action}/: per-item action (verify, feature, ...)
//   - PATCH and DELETE /{resource}/{id}/
//   - POST /{resource}/{bulk_action}/ with {"ids": [...]}
//   - GET /{resource}/export/: binary export of the filtered collection
//   - GET /statistics/: dashboard summary
//   - GET /favorites/, GET /favorites/count/, POST /favorites/toggle/
//
// # Response Normalization
//
// List endpoints answer either with a bare JSON array or with a
// {"results": [...], "count": N} envelope. decodeList is the only place
// that distinguishes the two; callers always see a Page with TotalCount
// set (len(items) for bare arrays).
//
// Item ids arrive as JSON numbers or strings and are normalized to strings
// so they can key selection sets and pending-action maps.
//
// # Request Handling
//
// All requests:
//   - Use context for cancellation and timeout control
//   - Set Accept, User-Agent and a fresh X-Request-ID header
//   - Send the bearer token when one is configured
//
// # Error Handling
//
// Responses with status >= 400 become *APIError carrying the status, the
// message extracted from a {"message"}, {"detail"} or {"error"} body, and
// the request id. Transport failures become an APIError with status 0.
// When the request context was cancelled the context error is returned
// unchanged so callers can recognise superseded work with errors.Is.
package platform
