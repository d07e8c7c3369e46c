// Package rpcpb holds the small set of wire message types for the
// BookMerger gRPC service. Summaries are carried as pkg/types.Summary
// directly rather than a duplicated protobuf message, since the service
// uses a JSON codec instead of protobuf wire encoding.
package rpcpb

// Empty is the request message for BookSummary: the call takes no
// parameters, but gRPC's generated-code shape always needs a request type.
type Empty struct{}
