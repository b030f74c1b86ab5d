// Trackrelay is a parcel tracking relay.
//
// It serves GET /apps/parceltrack?channel_order_no=<id>, forwards the lookup
// to the upstream tracking API with the server-held access token, and relays
// the upstream status and JSON body back to the caller.
//
// Usage:
//
//	# Start the server using environment variables and .env
//	trackrelay run
//
//	# Start with a configuration file, reloaded on change
//	trackrelay run --config /etc/trackrelay/config.yaml
//
//	# Check configuration without starting
//	trackrelay validate --config config.yaml
//
//	# Show version information
//	trackrelay version
package main

func main() {
	Execute()
}
