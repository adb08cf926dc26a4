// Package api holds the JSON wire types and query parameter sets of the
// bitsync HTTP API. The server in internal/transport/chi and the Go client
// in pkg/client share them.
package api
