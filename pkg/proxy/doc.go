// Package proxy holds the HTTP plumbing shared by the relay endpoint: JSON
// response writers, request field extraction and, in the middleware
// subpackage, the request ID, access log, panic recovery and CORS layers.
//
// Every response written through this package carries
// Content-Type: application/json. Error bodies use a single envelope:
//
//	{"error":"<message>"}
//
// # Basic Usage
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    orderID := proxy.ExtractOrderID(r)
//	    if orderID == "" {
//	        proxy.WriteError(w, http.StatusBadRequest, "Order ID (channel_order_no) is required.")
//	        return
//	    }
//	    ...
//	}
package proxy
