// Package jwtgrpc provides JWT authentication as gRPC server interceptors.
package jwtgrpc

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
	"github.com/denali-js/go-jwt-middleware/core"
)

// Interceptor provides JWT validation for gRPC servers.
type Interceptor struct {
	middleware      *jwtmiddleware.JWTMiddleware
	middlewareOpts  []jwtmiddleware.Option
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          jwtmiddleware.Logger
}

// New creates a new gRPC JWT interceptor with the provided options.
//
// Example:
//
//	interceptor, err := jwtgrpc.New(
//	    jwtgrpc.WithMiddlewareOptions(jwtmiddleware.WithConfig(cfg)),
//	    jwtgrpc.WithExcludedMethods("/grpc.health.v1.Health/Check"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	server := grpc.NewServer(
//	    grpc.UnaryInterceptor(interceptor.UnaryServerInterceptor()),
//	    grpc.StreamInterceptor(interceptor.StreamServerInterceptor()),
//	)
func New(opts ...Option) (*Interceptor, error) {
	i := &Interceptor{
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	middlewareOpts := i.middlewareOpts
	if i.logger != nil {
		middlewareOpts = append(middlewareOpts, jwtmiddleware.WithLogger(i.logger))
	}
	m, err := jwtmiddleware.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}
	i.middleware = m

	return i, nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that validates JWTs.
// It extracts the JWT from gRPC metadata, validates it, and makes the claims
// available in the request context.
func (i *Interceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(ctx, req)
		}

		validatedCtx, err := i.validateRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that validates JWTs.
// It extracts the JWT from gRPC metadata, validates it, and makes the claims
// available in the stream context.
func (i *Interceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debug("skipping JWT validation for excluded method",
					"method", info.FullMethod)
			}
			return handler(srv, ss)
		}

		validatedCtx, err := i.validateRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{
			ServerStream: ss,
			ctx:          validatedCtx,
		})
	}
}

func (i *Interceptor) validateRequest(ctx context.Context, method string) (context.Context, error) {
	validatedCtx, _, err := i.middleware.Check(ctx, MetadataRequest(ctx))
	if err != nil {
		if i.logger != nil {
			i.logger.Warn("JWT validation failed",
				"error", err,
				"method", method)
		}
		return ctx, i.errorHandler(err)
	}
	return validatedCtx, nil
}

// MetadataRequest exposes the incoming metadata of ctx as a core.Request.
// gRPC calls are HTTP/2 POSTs, so the method is always POST and CORS
// preflight never applies. Repeated keys are joined with ",".
func MetadataRequest(ctx context.Context) core.Request {
	md, _ := metadata.FromIncomingContext(ctx)
	return metadataRequest{md: md}
}

type metadataRequest struct {
	md metadata.MD
}

func (m metadataRequest) Method() string {
	return http.MethodPost
}

func (m metadataRequest) Header(name string) (string, bool) {
	values := m.md.Get(name)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, ","), true
}

// wrappedServerStream wraps grpc.ServerStream with a custom context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapped context with JWT claims.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
