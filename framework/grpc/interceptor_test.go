package jwtgrpc

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	jwtmiddleware "github.com/denali-js/go-jwt-middleware"
	"github.com/denali-js/go-jwt-middleware/core"
)

const (
	issuer   = "testIssuer"
	audience = "testAudience"
	method   = "/test.Service/Method"
)

// testPrivateKey is shared across tests for token signing
var testPrivateKey *ecdsa.PrivateKey

func init() {
	var err error
	testPrivateKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		panic(err)
	}
}

func buildTestToken(t *testing.T, iss, aud string) string {
	t.Helper()

	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(iss).
		Audience([]string{aud}).
		IssuedAt(now).
		Expiration(now.Add(24 * time.Hour)).
		Build()
	require.NoError(t, err)

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256, testPrivateKey))
	require.NoError(t, err, "could not sign token")

	return string(signed)
}

func newInterceptor(t *testing.T, opts ...Option) *Interceptor {
	t.Helper()

	opts = append([]Option{WithMiddlewareOptions(jwtmiddleware.WithConfig(core.Config{
		Secret: core.StaticKey(&testPrivateKey.PublicKey),
		VerifyOptions: core.VerifyOptions{
			Issuer:   []string{issuer},
			Audience: []string{audience},
		},
	}))}, opts...)
	interceptor, err := New(opts...)
	require.NoError(t, err)
	return interceptor
}

func incoming(token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestUnaryServerInterceptor_Success(t *testing.T) {
	interceptor := newInterceptor(t)

	handler := func(ctx context.Context, req any) (any, error) {
		claims := jwtmiddleware.MustGetClaims[core.Claims](ctx)
		assert.Equal(t, issuer, claims.Issuer())
		return "success", nil
	}

	resp, err := interceptor.UnaryServerInterceptor()(incoming(buildTestToken(t, issuer, audience)), nil,
		&grpc.UnaryServerInfo{FullMethod: method}, handler)

	assert.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestUnaryServerInterceptor_Failures(t *testing.T) {
	testCases := []struct {
		name     string
		ctx      context.Context
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name:     "missing metadata",
			ctx:      context.Background(),
			wantCode: codes.Unauthenticated,
			wantMsg:  "missing credentials",
		},
		{
			name:     "wrong issuer",
			ctx:      incoming(buildTestToken(t, "someone-else", audience)),
			wantCode: codes.Unauthenticated,
			wantMsg:  "invalid issuer",
		},
		{
			name:     "wrong audience",
			ctx:      incoming(buildTestToken(t, issuer, "other")),
			wantCode: codes.Unauthenticated,
			wantMsg:  "invalid audience",
		},
		{
			name:     "bad scheme",
			ctx:      metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Basic abc")),
			wantCode: codes.Unauthenticated,
			wantMsg:  "invalid authorization metadata format, expected: Bearer <token>",
		},
		{
			name:     "garbage token",
			ctx:      incoming("not-a-jwt"),
			wantCode: codes.Unauthenticated,
			wantMsg:  "malformed token",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			interceptor := newInterceptor(t)
			handler := func(ctx context.Context, req any) (any, error) {
				t.Fatal("handler should not be called")
				return nil, nil
			}

			resp, err := interceptor.UnaryServerInterceptor()(tc.ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)

			assert.Nil(t, resp)
			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tc.wantCode, st.Code())
			assert.Equal(t, tc.wantMsg, st.Message())
		})
	}
}

func TestUnaryServerInterceptor_ExcludedMethod(t *testing.T) {
	interceptor := newInterceptor(t, WithExcludedMethods("/grpc.health.v1.Health/Check"))

	called := false
	handler := func(ctx context.Context, req any) (any, error) {
		called = true
		assert.False(t, jwtmiddleware.HasClaims(ctx))
		return "ok", nil
	}

	resp, err := interceptor.UnaryServerInterceptor()(context.Background(), nil,
		&grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}, handler)
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "ok", resp)
}

func TestUnaryServerInterceptor_ConfigLoaderFailure(t *testing.T) {
	interceptor, err := New(WithMiddlewareOptions(jwtmiddleware.WithConfigLoader(func(context.Context) (core.Config, error) {
		return core.Config{}, errors.New("secret store offline")
	})))
	require.NoError(t, err)

	_, err = interceptor.UnaryServerInterceptor()(incoming(buildTestToken(t, issuer, audience)), nil,
		&grpc.UnaryServerInfo{FullMethod: method}, func(context.Context, any) (any, error) { return nil, nil })

	assert.Equal(t, codes.Internal, status.Code(err))
}

type mockServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (m *mockServerStream) Context() context.Context {
	return m.ctx
}

func TestStreamServerInterceptor(t *testing.T) {
	interceptor := newInterceptor(t)

	t.Run("success", func(t *testing.T) {
		stream := &mockServerStream{ctx: incoming(buildTestToken(t, issuer, audience))}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: method},
			func(srv any, ss grpc.ServerStream) error {
				claims, err := jwtmiddleware.GetClaims[core.Claims](ss.Context())
				require.NoError(t, err)
				assert.Equal(t, issuer, claims.Issuer())
				return nil
			})
		assert.NoError(t, err)
	})

	t.Run("missing token", func(t *testing.T) {
		stream := &mockServerStream{ctx: context.Background()}

		err := interceptor.StreamServerInterceptor()(nil, stream, &grpc.StreamServerInfo{FullMethod: method},
			func(any, grpc.ServerStream) error {
				t.Fatal("handler should not be called")
				return nil
			})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})
}

func TestMetadataRequest(t *testing.T) {
	md := metadata.Pairs("x-tenant", "a", "x-tenant", "b")
	req := MetadataRequest(metadata.NewIncomingContext(context.Background(), md))

	assert.Equal(t, "POST", req.Method())
	v, ok := req.Header("X-Tenant")
	assert.True(t, ok)
	assert.Equal(t, "a,b", v)

	_, ok = MetadataRequest(context.Background()).Header("authorization")
	assert.False(t, ok)
}

func TestNew_Errors(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, jwtmiddleware.ErrConfigMissing)

	_, err = New(WithErrorHandler(nil))
	assert.Error(t, err)

	_, err = New(WithLogger(nil))
	assert.Error(t, err)
}

func TestDefaultErrorHandler(t *testing.T) {
	assert.NoError(t, DefaultErrorHandler(nil))
	assert.Equal(t, codes.Internal, status.Code(DefaultErrorHandler(errors.New("boom"))))

	err := DefaultErrorHandler(core.NewUnauthorizedError("revoked", "token revoked", nil))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, "invalid or malformed token", status.Convert(err).Message())
}
