package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"inference-relay/pkg/lambda"
)

// RelayProvider yields the relay and logger for one invocation, building
// them on a cold start
type RelayProvider func(ctx context.Context) (RelayService, *logrus.Logger, error)

// APIGatewayHandler adapts the relay to API Gateway proxy events.
//
// A provider failure answers 500. A body that cannot be decoded answers
// 400 for POST only; other methods reach the relay with an empty body so
// the method check still produces 405.
func APIGatewayHandler(provider RelayProvider) func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		service, logger, err := provider(ctx)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"request_id": event.RequestContext.RequestID,
				"error":      err.Error(),
			}).Error("Failed to initialize relay")
			return lambda.ToAPIGateway(lambda.JSONError(http.StatusInternalServerError, "internal server error")), nil
		}

		req, err := lambda.FromAPIGateway(event)
		if err != nil {
			if event.HTTPMethod == http.MethodPost {
				logger.WithFields(logrus.Fields{
					"request_id": event.RequestContext.RequestID,
					"error":      err.Error(),
				}).Warn("Rejected undecodable request body")
				return lambda.ToAPIGateway(lambda.JSONError(http.StatusBadRequest, "invalid JSON")), nil
			}
			req = &lambda.Request{
				Method:    event.HTTPMethod,
				Path:      event.Path,
				Headers:   event.Headers,
				RequestID: event.RequestContext.RequestID,
			}
		}

		resp, err := NewRelayHandler(service, logger).HandleRelay(ctx, req)
		if err != nil {
			return lambda.ToAPIGateway(lambda.JSONError(http.StatusInternalServerError, "internal server error")), nil
		}

		return lambda.ToAPIGateway(resp), nil
	}
}
