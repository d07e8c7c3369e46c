package broadcast

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"

	"bookmerge/pkg/rpcpb"
	"bookmerge/pkg/types"
)

// Service implements BookMergerServer on top of a Cell, forwarding the
// latest published Summary to every connected client (intermediate values
// may be coalesced) until its context is canceled or the client
// disconnects.
type Service struct {
	cell *Cell
	log  *slog.Logger
}

// NewService wraps cell as a BookMergerServer.
func NewService(cell *Cell, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{cell: cell, log: log}
}

// Publish forwards to the underlying Cell, so the merger goroutine can
// depend on *Service alone.
func (s *Service) Publish(v types.Summary) {
	s.cell.Publish(v)
}

// BookSummary streams the latest Summary to stream until the client
// disconnects or stream's context is canceled.
func (s *Service) BookSummary(_ *rpcpb.Empty, stream BookMerger_BookSummaryServer) error {
	r := s.cell.Subscribe()
	defer r.Close()

	s.log.Info("client subscribed", "active_receivers", s.cell.ActiveReceivers())
	defer s.log.Info("client disconnected", "active_receivers", s.cell.ActiveReceivers()-1)

	ctx := stream.Context()
	for {
		v, ok := r.Next(ctx)
		if !ok {
			return ctx.Err()
		}
		if err := stream.Send(&v); err != nil {
			return err
		}
	}
}

// Server hosts the BookMerger gRPC service on a TCP listener, using a JSON
// codec so the hand-written ServiceDesc needs no protoc-generated message
// types.
type Server struct {
	grpcServer *grpc.Server
	addr       string
}

// NewServer builds a Server bound to addr (e.g. ":50051") serving svc.
func NewServer(addr string, svc *Service) *Server {
	gs := grpc.NewServer(grpc.ForceServerCodec(jsonCodec{}))
	RegisterBookMergerServer(gs, svc)
	return &Server{grpcServer: gs, addr: addr}
}

// ListenAndServe opens addr and blocks serving RPCs until Stop is called or
// the listener fails.
func (s *Server) ListenAndServe() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.grpcServer.Serve(lis)
}

// Stop gracefully shuts the server down, waiting for in-flight streams to
// drain.
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
}
