package health

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeDB struct {
	mu  sync.Mutex
	err error
}

func (f *fakeDB) PingContext(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *fakeDB) set(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func newHealthClient(t *testing.T, db Pinger) grpc_health_v1.HealthClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := NewServer(db, false)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return grpc_health_v1.NewHealthClient(conn)
}

func TestHealthCheck(t *testing.T) {
	db := &fakeDB{}
	client := newHealthClient(t, db)
	ctx := context.Background()

	tests := []struct {
		name    string
		pingErr error
		service string
		want    grpc_health_v1.HealthCheckResponse_ServingStatus
	}{
		{name: "overall serving", service: "", want: grpc_health_v1.HealthCheckResponse_SERVING},
		{name: "api serving", service: ServiceName, want: grpc_health_v1.HealthCheckResponse_SERVING},
		{name: "database down", pingErr: errors.New("connection refused"), service: ServiceName, want: grpc_health_v1.HealthCheckResponse_NOT_SERVING},
		{name: "database back", service: "", want: grpc_health_v1.HealthCheckResponse_SERVING},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db.set(tt.pingErr)
			resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: tt.service})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.GetStatus())
		})
	}
}

func TestHealthCheck_UnknownService(t *testing.T) {
	client := newHealthClient(t, &fakeDB{})

	_, err := client.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: "nope.v1.Nothing"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}
