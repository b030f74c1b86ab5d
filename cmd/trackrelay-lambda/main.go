// Command trackrelay-lambda runs the tracking relay as an AWS Lambda or
// Netlify function behind an API Gateway proxy integration.
package main

import (
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"mercator-hq/trackrelay/pkg/serverless"
)

func main() {
	h, err := serverless.Handler()
	if err != nil {
		slog.Error("failed to initialise tracking relay", "error", err)
		os.Exit(1)
	}

	lambda.Start(serverless.NewLambdaHandler(h))
}
