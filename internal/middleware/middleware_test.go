package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"medtrack-api/internal/api"
	"medtrack-api/internal/auth"
)

const secret = "test-secret"

func echoUID(ctx context.Context, _ any) (any, error) {
	uid, _ := UserID(ctx)
	return uid, nil
}

func TestAuthAcceptsBearerToken(t *testing.T) {
	tok, err := auth.MakeToken("user-1", secret)
	require.NoError(t, err)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("ListGroups")}

	got, err := Auth(secret)(ctx, nil, info, echoUID)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)
}

func TestAuthRejects(t *testing.T) {
	other, err := auth.MakeToken("user-1", "other-secret")
	require.NoError(t, err)

	info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("RecordDose")}
	tests := map[string]context.Context{
		"no metadata":  context.Background(),
		"no token":     metadata.NewIncomingContext(context.Background(), metadata.Pairs()),
		"wrong secret": metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+other)),
		"garbage":      metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer x.y.z")),
	}
	for name, ctx := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Auth(secret)(ctx, nil, info, echoUID)
			assert.Equal(t, codes.Unauthenticated, status.Code(err))
		})
	}
}

func TestAuthSkipsOpenMethods(t *testing.T) {
	for _, m := range []string{"Register", "Login", "Refresh"} {
		info := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(m)}
		_, err := Auth(secret)(context.Background(), nil, info, echoUID)
		assert.NoError(t, err, m)
	}
}

func TestRateLimit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rl := NewRateLimiter(ctx, 0.001, 2)
	intercept := RateLimit(rl)

	pctx := peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1234}})
	login := &grpc.UnaryServerInfo{FullMethod: api.FullMethod("Login")}
	ok := func(context.Context, any) (any, error) { return nil, nil }

	for range 2 {
		_, err := intercept(pctx, nil, login, ok)
		require.NoError(t, err)
	}
	_, err := intercept(pctx, nil, login, ok)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// unlimited methods pass regardless
	_, err = intercept(pctx, nil, &grpc.UnaryServerInfo{FullMethod: api.FullMethod("GetHistory")}, ok)
	assert.NoError(t, err)

	rl.sweep(-time.Second)
	_, err = intercept(pctx, nil, login, ok)
	assert.NoError(t, err, "a swept peer starts with a fresh bucket")
}

func TestClientIP(t *testing.T) {
	remote := &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(10, 0, 0, 1), Port: 1234}}
	local := &peer.Peer{Addr: &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4321}}
	relayed := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "203.0.113.7"))

	assert.Equal(t, "10.0.0.1", clientIP(peer.NewContext(context.Background(), remote)))
	assert.Equal(t, "203.0.113.7", clientIP(peer.NewContext(relayed, local)))
	assert.Equal(t, "10.0.0.1", clientIP(peer.NewContext(relayed, remote)), "only the local bridge may relay an address")
	assert.Equal(t, "127.0.0.1", clientIP(peer.NewContext(context.Background(), local)))
	assert.Equal(t, "unknown", clientIP(context.Background()))
}
