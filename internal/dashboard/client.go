package dashboard

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bookmerge/internal/broadcast"
)

// Dial connects to a BookMerger RPC server at addr and returns a client.
// Uses plaintext transport credentials; the server does not require TLS.
func Dial(addr string) (*grpc.ClientConn, broadcast.BookMergerClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, broadcast.NewBookMergerClient(conn), nil
}
