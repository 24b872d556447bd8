// Package grpc implements the gRPC transport for roomcall.
//
// The service roomcall.v1.Turns has a single unary method, Handle. Turns and
// responses travel as JSON using the "json" content-subtype, so clients
// need no generated stubs: they dial with grpc.CallContentSubtype("json")
// and invoke HandleMethod. The standard grpc.health.v1 service is served
// alongside.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/transport"
)

// Service and method names.
const (
	ServiceName  = "roomcall.v1.Turns"
	HandleMethod = "/" + ServiceName + "/Handle"
)

// Codec carries messages as JSON. It is registered under the name "json".
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (Codec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (Codec) Name() string                       { return "json" }

func init() {
	encoding.RegisterCodec(Codec{})
}

// turnsServer is the server API of roomcall.v1.Turns.
type turnsServer interface {
	Handle(ctx context.Context, turn *message.Turn) (*message.Response, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*turnsServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Handle", Handler: handleTurn},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roomcall/v1/turns.proto",
}

func handleTurn(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(message.Turn)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(turnsServer).Handle(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HandleMethod}
	h := func(ctx context.Context, req any) (any, error) {
		return srv.(turnsServer).Handle(ctx, req.(*message.Turn))
	}
	return interceptor(ctx, in, info, h)
}

type service struct {
	handler transport.Handler
}

func (s *service) Handle(ctx context.Context, turn *message.Turn) (*message.Response, error) {
	resp, err := s.handler(ctx, turn)
	if err != nil {
		slog.Error("dispatch failed", "turn_id", turn.ID, "error", err)
		return nil, status.Error(codes.Internal, "dispatch error")
	}
	return resp, nil
}

// Transport implements transport.Transport over gRPC.
type Transport struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a new gRPC transport on the given port.
func New(port int) *Transport {
	t := &Transport{
		port:   port,
		server: grpc.NewServer(),
		health: health.NewServer(),
	}
	healthpb.RegisterHealthServer(t.server, t.health)
	return t
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "grpc" }

// Listen starts the gRPC server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", t.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	slog.Info("grpc transport listening", "port", t.port)
	return t.Serve(ctx, lis, handler)
}

// Serve serves on lis until ctx is cancelled or Close is called. It must be
// called at most once.
func (t *Transport) Serve(ctx context.Context, lis net.Listener, handler transport.Handler) error {
	t.server.RegisterService(&serviceDesc, &service{handler: handler})
	t.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		slog.Info("grpc transport shutting down")
		t.health.Shutdown()
		t.server.GracefulStop()
	}()

	if err := t.server.Serve(lis); !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// Close gracefully stops the gRPC server.
func (t *Transport) Close() error {
	t.health.Shutdown()
	t.server.GracefulStop()
	return nil
}

// Client calls roomcall.v1.Turns on an established connection.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Handle sends one turn.
func (c *Client) Handle(ctx context.Context, turn *message.Turn, opts ...grpc.CallOption) (*message.Response, error) {
	out := new(message.Response)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(Codec{}.Name())}, opts...)
	if err := c.cc.Invoke(ctx, HandleMethod, turn, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
