package grpcserver

import (
	"context"

	"github.com/md-rashed-zaman/bookavail/services/availability-service/internal/availability"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the availability service over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Generate(ctx context.Context, req availability.Request) ([]availability.AvailabilityDay, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, GenerateMethod, in, out); err != nil {
		return nil, err
	}
	var resp struct {
		Days []availability.AvailabilityDay `json:"days"`
	}
	if err := fromStruct(out, &resp); err != nil {
		return nil, err
	}
	return resp.Days, nil
}
