package rpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/vietddude/faultline/internal/fault"
)

// HealthStatus represents the health state of a provider.
type HealthStatus struct {
	Available     bool
	SuccessCount  int
	FailureCount  int
	ErrorRate     float64
	LastSuccessAt time.Time
	LastFailureAt time.Time
	LastFailure   *fault.Error
}

// GRPCProvider owns a client connection whose failures come back as
// *fault.Error. Use Conn() with generated clients.
type GRPCProvider struct {
	Name     string
	endpoint string
	conn     *grpc.ClientConn

	mu     sync.RWMutex
	health HealthStatus
}

// NewGRPCProvider creates a new gRPC provider. The connection is lazy, so
// an unreachable endpoint surfaces as a classified UNAVAILABLE on the
// first call rather than here.
func NewGRPCProvider(name, endpoint string, extra ...grpc.DialOption) (*GRPCProvider, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	opts = append(opts,
		grpc.WithChainUnaryInterceptor(UnaryClientInterceptor()),
		grpc.WithChainStreamInterceptor(StreamClientInterceptor()),
	)
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create grpc client for %s: %w", target, err)
	}

	return &GRPCProvider{
		Name:     name,
		endpoint: endpoint,
		conn:     conn,
		health:   HealthStatus{Available: true},
	}, nil
}

// Conn returns the underlying gRPC connection.
func (p *GRPCProvider) Conn() *grpc.ClientConn {
	return p.conn
}

// Close cleans up resources.
func (p *GRPCProvider) Close() error {
	return p.conn.Close()
}

// Check calls the standard health service. A reply other than SERVING is
// reported as an UNAVAILABLE failure.
func (p *GRPCProvider) Check(ctx context.Context, service string) error {
	resp, err := healthpb.NewHealthClient(p.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		fe := fault.FromError(err)
		p.RecordFailure(fe)
		return fe
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		fe := fault.FromAPIFailure(codes.Unavailable,
			fmt.Sprintf("service %q reported %s", service, resp.GetStatus()))
		p.RecordFailure(fe)
		return fe
	}

	p.RecordSuccess()
	return nil
}

// GetHealth returns the provider's health status.
func (p *GRPCProvider) GetHealth() HealthStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.health
}

// RecordSuccess counts a successful call and marks the provider available.
func (p *GRPCProvider) RecordSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.health.SuccessCount++
	p.health.LastSuccessAt = time.Now()
	p.health.Available = true
	p.updateErrorRate()
}

// RecordFailure counts a classified failure and keeps it as LastFailure.
func (p *GRPCProvider) RecordFailure(fe *fault.Error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.health.FailureCount++
	p.health.LastFailureAt = time.Now()
	p.health.LastFailure = fe
	p.updateErrorRate()

	if p.health.ErrorRate > 0.5 {
		p.health.Available = false
	}
}

func (p *GRPCProvider) updateErrorRate() {
	total := p.health.SuccessCount + p.health.FailureCount
	if total > 0 {
		p.health.ErrorRate = float64(p.health.FailureCount) / float64(total)
	}
}
