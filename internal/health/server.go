// Package health serves the standard gRPC health protocol on the ops port.
package health

import (
	"context"
	"log"
	"net"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/gurkanbulca/taskpulse/internal/middleware"
)

// ServiceName is the health entry for the REST API. The empty name reports
// overall process health.
const ServiceName = "taskpulse.v1.API"

const pingTimeout = 2 * time.Second

// Pinger is the slice of *sqlx.DB the checker needs.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// checker refreshes serving status from a database ping on every Check.
// Watch and List are served from the last recorded status.
type checker struct {
	*grpchealth.Server
	db Pinger
}

func (c *checker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	c.refresh(ctx)
	return c.Server.Check(ctx, req)
}

func (c *checker) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := c.db.PingContext(ctx); err != nil {
		log.Printf("[ERROR] health check: database unreachable: %v", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	c.SetServingStatus("", status)
	c.SetServingStatus(ServiceName, status)
}

// Server is the ops gRPC server.
type Server struct {
	grpc    *grpc.Server
	checker *checker
}

// NewServer registers the health service and, when enableReflection is set,
// server reflection for grpcurl and similar tools.
func NewServer(db Pinger, enableReflection bool) *Server {
	g := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.UnaryClientInfo(),
			middleware.UnaryLogger,
		),
	)

	c := &checker{Server: grpchealth.NewServer(), db: db}
	grpc_health_v1.RegisterHealthServer(g, c)
	c.refresh(context.Background())

	if enableReflection {
		reflection.Register(g)
		log.Println("gRPC reflection enabled (disable in production)")
	}
	return &Server{grpc: g, checker: c}
}

// Serve blocks until the listener fails or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop marks every service NOT_SERVING so watchers drain, then stops
// gracefully.
func (s *Server) Stop() {
	s.checker.Shutdown()
	s.grpc.GracefulStop()
}
