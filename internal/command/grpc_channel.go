package command

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/skyward-ai/skyward/internal/types"
)

// callToolMethod is the unary method exposed by the device-side command
// service. Requests and replies are google.protobuf.Struct so the channel
// stays schema-free: the request carries {name, args}, the reply carries the
// ToolResult fields.
const callToolMethod = "/skyward.v1.CommandService/CallTool"

// GRPCChannel implements Channel over a gRPC connection to the device-side
// command service.
type GRPCChannel struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// NewGRPCChannel connects to the command service at endpoint. Insecure
// transport credentials are used unless dial options are provided.
func NewGRPCChannel(endpoint string, opts ...grpc.DialOption) (*GRPCChannel, error) {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(endpoint, opts...)
	if err != nil {
		return nil, types.WrapError(types.CHANNEL_UNAVAILABLE,
			fmt.Sprintf("failed to connect to command channel %q", endpoint), err)
	}

	return &GRPCChannel{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
	}, nil
}

// CallTool invokes the named operation on the device.
func (c *GRPCChannel) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error) {
	req, err := structpb.NewStruct(map[string]any{
		"name": name,
		"args": args,
	})
	if err != nil {
		return nil, types.WrapError(types.CHANNEL_BAD_REPLY,
			fmt.Sprintf("failed to encode arguments for tool %q", name), err)
	}

	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, callToolMethod, req, resp); err != nil {
		if ctx.Err() != nil {
			return nil, types.WrapError(types.CHANNEL_TIMEOUT,
				fmt.Sprintf("tool call %q did not complete in time", name), err)
		}
		return nil, types.WrapError(types.CHANNEL_UNAVAILABLE,
			fmt.Sprintf("tool call %q failed", name), err)
	}

	return decodeToolResult(resp.AsMap()), nil
}

// Healthy probes the command service via the standard gRPC health protocol.
func (c *GRPCChannel) Healthy(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := c.health.Check(probeCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return false
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
}

// Close closes the underlying connection.
func (c *GRPCChannel) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// decodeToolResult maps a reply struct onto ToolResult, tolerating missing
// and extra fields.
func decodeToolResult(m map[string]any) *ToolResult {
	result := &ToolResult{}

	if v, ok := m["success"].(bool); ok {
		result.Success = &v
	}
	if v, ok := m["message"].(string); ok {
		result.Message = v
	}
	if v, ok := m["droneState"].(map[string]any); ok {
		result.DroneState = v
	}
	if v, ok := m["battery"].(float64); ok {
		b := int(v)
		result.Battery = &b
	}
	if v, ok := m["threshold"].(float64); ok {
		t := int(v)
		result.Threshold = &t
	}
	if v, ok := m["isLow"].(bool); ok {
		result.IsLow = &v
	}
	if v, ok := m["error"].(string); ok {
		result.Error = v
	}

	return result
}

// Ensure GRPCChannel implements Channel at compile time.
var _ Channel = (*GRPCChannel)(nil)
