// Package chronam provides the HTTP client, URL construction, and response
// models for the Chronicling America (loc.gov) newspaper-archive API.
//
// The package covers the remote-API boundary only: validated search
// parameters (Query), search-result decoding (SearchResult, Record), and
// per-page file URLs (FileURL, LocalPath). Rate limiting, retries, and
// concurrency live in the query, download, and batch packages, which compose
// this client.
package chronam
