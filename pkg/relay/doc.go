// Package relay implements the parcel tracking relay.
//
// A request moves through these states:
//
//	Received → order ID present → credential present → upstream called
//	  → {valid JSON | invalid body | transport failure} → responded
//
// Each request makes at most one upstream call and every path ends in a JSON
// response. The upstream JSON body is relayed byte for byte with the upstream
// status. The five outcome kinds and their statuses:
//
//	ok                    upstream status, upstream body
//	client_input          400
//	server_configuration  500
//	upstream_contract     upstream status, or 502 when none
//	upstream_unavailable  503
//
// Track holds the logic and is shared by the HTTP handler and the serverless
// adapters.
package relay
