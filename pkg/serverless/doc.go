// Package serverless runs the tracking relay on function platforms.
//
// Two entry shapes are supported:
//
//   - Vercel-style Go functions, which call a plain http.HandlerFunc
//     (see api/parceltrack.go and ServeHTTP)
//   - AWS Lambda behind API Gateway or Netlify Functions, which deliver
//     events.APIGatewayProxyRequest values (see NewLambdaHandler and
//     cmd/trackrelay-lambda)
//
// Both wrap the same handler as the long-running server: panic recovery,
// request IDs, access logging, the CORS allow-list and the relay itself.
// Configuration comes from the environment only and is loaded once per
// function instance.
package serverless
