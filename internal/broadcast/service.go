package broadcast

import (
	"context"

	"google.golang.org/grpc"

	"bookmerge/pkg/rpcpb"
	"bookmerge/pkg/types"
)

// serviceName mirrors what protoc-gen-go-grpc would derive from a
// "package bookmerge;" proto file declaring this service.
const serviceName = "bookmerge.BookMerger"

// BookMergerServer is the server API for the BookMerger service.
type BookMergerServer interface {
	// BookSummary streams the merged cross-venue Summary to the caller,
	// sending the current value immediately and then the newest value after
	// each change (intermediate values may be coalesced) until ctx is
	// canceled.
	BookSummary(*rpcpb.Empty, BookMerger_BookSummaryServer) error
}

// BookMergerClient is the client API for the BookMerger service.
type BookMergerClient interface {
	BookSummary(ctx context.Context, in *rpcpb.Empty, opts ...grpc.CallOption) (BookMerger_BookSummaryClient, error)
}

// BookMerger_BookSummaryServer is the server-side stream handle for
// BookSummary, in the shape protoc-gen-go-grpc generates for a
// server-streaming RPC.
type BookMerger_BookSummaryServer interface {
	Send(*types.Summary) error
	grpc.ServerStream
}

type bookMergerBookSummaryServer struct {
	grpc.ServerStream
}

func (x *bookMergerBookSummaryServer) Send(m *types.Summary) error {
	return x.ServerStream.SendMsg(m)
}

// BookMerger_BookSummaryClient is the client-side stream handle for
// BookSummary.
type BookMerger_BookSummaryClient interface {
	Recv() (*types.Summary, error)
	grpc.ClientStream
}

type bookMergerBookSummaryClient struct {
	grpc.ClientStream
}

func (x *bookMergerBookSummaryClient) Recv() (*types.Summary, error) {
	m := new(types.Summary)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func _BookMerger_BookSummary_Handler(srv any, stream grpc.ServerStream) error {
	m := new(rpcpb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(BookMergerServer).BookSummary(m, &bookMergerBookSummaryServer{ServerStream: stream})
}

// ServiceDesc is the grpc.ServiceDesc for BookMerger, registered the same
// way a generated _grpc.pb.go file would register it.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BookMergerServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "BookSummary",
			Handler:       _BookMerger_BookSummary_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "bookmerge/broadcast.proto",
}

// RegisterBookMergerServer registers srv with s.
func RegisterBookMergerServer(s grpc.ServiceRegistrar, srv BookMergerServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type bookMergerClient struct {
	cc grpc.ClientConnInterface
}

// NewBookMergerClient wraps cc as a BookMergerClient. Calls made through it
// use the JSON codec instead of cc's negotiated default, so it works
// against a server registered with ForceServerCodec(jsonCodec{}) without
// any client-side proto generation.
func NewBookMergerClient(cc grpc.ClientConnInterface) BookMergerClient {
	return &bookMergerClient{cc: cc}
}

func (c *bookMergerClient) BookSummary(ctx context.Context, in *rpcpb.Empty, opts ...grpc.CallOption) (BookMerger_BookSummaryClient, error) {
	opts = append([]grpc.CallOption{grpc.ForceCodec(jsonCodec{})}, opts...)
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], "/"+serviceName+"/BookSummary", opts...)
	if err != nil {
		return nil, err
	}
	x := &bookMergerBookSummaryClient{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
