// Package handler implements the reachgraph HTTP API.
//
// # Routes
//
//	GET    /api/snapshot?format=json|yaml|table  latest published snapshot
//	GET    /api/nodes                            monitored nodes in order
//	POST   /api/nodes                            {"address": "..."} add
//	DELETE /api/nodes/{address}                  remove
//	POST   /api/rounds                           run one probing round now
//	GET    /api/status                           scheduler counters
//	GET    /healthz                              process liveness
//	GET    /events                               SSE snapshot stream
//
// Errors are returned as JSON with {error, details}. Registry errors map to
// 400 (invalid address), 404 (not found) and 409 (duplicate, round in
// flight).
package handler
