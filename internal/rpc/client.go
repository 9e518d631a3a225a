package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the Dashboard service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a Client over cc.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Heatmap calls Dashboard/Heatmap.
func (c *Client) Heatmap(ctx context.Context, req map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, HeatmapMethod, req, opts)
}

// History calls Dashboard/History.
func (c *Client) History(ctx context.Context, ticker string, maxPoints int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, HistoryMethod, map[string]any{"ticker": ticker, "max": maxPoints}, opts)
}

func (c *Client) invoke(ctx context.Context, method string, req map[string]any, opts []grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
