package main

import (
	"context"
	"log"
	"strings"
	"time"

	"recruiter-backend/infrastructure/config"
	"recruiter-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
)

// init runs during cold start
func init() {
	started := time.Now()

	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	handler := container.Router.Setup()
	chiRouter, ok := handler.(*chi.Mux)
	if !ok {
		log.Fatal("Router did not produce a chi mux")
	}
	chiLambda = chiadapter.NewV2(chiRouter)

	container.Logger.Info("Lambda cold start completed",
		zap.Duration("duration", time.Since(started)),
	)
}

// Handler adapts API Gateway V2 requests to the chi router. When the
// gateway's JWT authorizer already validated the caller, its claims are
// forwarded as trusted headers so the in-process middleware skips a second
// validation.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	forwardAuthorizerClaims(&req)
	return chiLambda.ProxyWithContextV2(ctx, req)
}

// forwardAuthorizerClaims copies JWT authorizer claims into the headers the
// authentication middleware trusts inside Lambda
func forwardAuthorizerClaims(req *events.APIGatewayV2HTTPRequest) {
	if req.RequestContext.Authorizer == nil || req.RequestContext.Authorizer.JWT == nil {
		return
	}
	claims := req.RequestContext.Authorizer.JWT.Claims
	sub := claims["sub"]
	if sub == "" {
		return
	}

	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	req.Headers["X-API-Gateway-Authorized"] = "true"
	req.Headers["X-User-ID"] = sub
	req.Headers["X-User-Email"] = claims["email"]
	if roles := claims["roles"]; roles != "" {
		req.Headers["X-User-Roles"] = strings.Trim(roles, "[]")
	}
}

func main() {
	lambda.Start(Handler)
}
