package main

import (
	"context"

	"inference-relay/internal/handlers"
	"inference-relay/pkg/lambda"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"
)

// containerRelay serves each invocation from the warm container, which
// survives across invocations
func containerRelay(ctx context.Context) (handlers.RelayService, *logrus.Logger, error) {
	container, err := lambda.GetConnectionManager().GetContainer(ctx)
	if err != nil {
		return nil, nil, err
	}
	return container.Relay, container.Logger, nil
}

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	awslambda.StartWithOptions(
		handlers.APIGatewayHandler(containerRelay),
		awslambda.WithEnableSIGTERM(func() {
			if err := lambda.GetConnectionManager().Cleanup(); err != nil {
				logrus.WithError(err).Error("Failed to release relay container")
			}
		}),
	)
}
