package main

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"github.com/chowjack2099/China-side-Execution/internal/app/bootstrap"
	appconfig "github.com/chowjack2099/China-side-Execution/internal/config"
	"github.com/chowjack2099/China-side-Execution/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	app, err := bootstrap.Build(context.Background(), cfg, logger, bootstrap.Options{})
	if err != nil {
		panic(err)
	}

	proxy := newProxy(app.Handler, logger)
	lambda.Start(proxy.handle)
}

type proxy struct {
	adapter *httpadapter.HandlerAdapterV2
	logger  *logging.Logger
}

func newProxy(h http.Handler, logger *logging.Logger) *proxy {
	if logger == nil {
		logger = logging.Default()
	}
	return &proxy{adapter: httpadapter.NewV2(h), logger: logger}
}

// handle replays an API Gateway v2 event through the HTTP router. Events the
// adapter cannot translate, such as a malformed base64 body, answer 400.
func (p *proxy) handle(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	resp, err := p.adapter.ProxyWithContext(ctx, evt)
	if err != nil {
		p.logger.Warn("lambda event rejected", "error", err, "path", evt.RawPath)
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid request"}, nil
	}
	return resp, nil
}
