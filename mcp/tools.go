package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/receptorhq/receptor-go/proto"
)

func (f *FleetServer) registerTools() {
	listTool := mcp.NewTool("list_terminals",
		mcp.WithDescription("List all registered terminals and their connection state"),
	)
	f.srv.AddTool(listTool, f.handleListTerminals)

	statsTool := mcp.NewTool("get_terminal_stats",
		mcp.WithDescription("Get the statistics snapshot of one terminal"),
		mcp.WithString("terminal_id",
			mcp.Required(),
			mcp.Description("Terminal identifier used at registration"),
		),
	)
	f.srv.AddTool(statsTool, f.handleGetTerminalStats)

	sendTool := mcp.NewTool("send_signal",
		mcp.WithDescription("Send an uplink signal through a connected terminal"),
		mcp.WithString("terminal_id",
			mcp.Required(),
			mcp.Description("Terminal identifier used at registration"),
		),
		mcp.WithString("signal_type",
			mcp.Required(),
			mcp.Description("Signal type string, e.g. telemetry"),
		),
		mcp.WithObject("payload",
			mcp.Description("Signal payload as a JSON object"),
		),
	)
	f.srv.AddTool(sendTool, f.handleSendSignal)
}

func (f *FleetServer) handleListTerminals(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := f.sdk.Terminals()

	terminals := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		connected, err := f.sdk.IsConnected(id)
		if err != nil {
			continue
		}
		terminals = append(terminals, map[string]any{
			"id":        id,
			"connected": connected,
		})
	}

	resultBytes, _ := json.Marshal(map[string]any{
		"terminals": terminals,
		"count":     len(terminals),
	})
	return mcp.NewToolResultText(string(resultBytes)), nil
}

func (f *FleetServer) handleGetTerminalStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("terminal_id")
	if err != nil {
		return mcp.NewToolResultError("terminal_id is required and must be a string"), err
	}

	stats, err := f.sdk.Stats(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error reading stats: %v", err)), err
	}

	resultBytes, _ := json.Marshal(map[string]any{
		"id":                   id,
		"connected":            stats.Connected,
		"uptimeSeconds":        stats.Uptime.Seconds(),
		"signalsSent":          stats.SignalsSent,
		"binaryFramesSent":     stats.BinaryFramesSent,
		"directivesReceived":   stats.DirectivesReceived,
		"binaryFramesReceived": stats.BinaryFramesReceived,
		"errors":               stats.Errors,
		"reconnectAttempts":    stats.ReconnectAttempts,
	})
	return mcp.NewToolResultText(string(resultBytes)), nil
}

func (f *FleetServer) handleSendSignal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("terminal_id")
	if err != nil {
		return mcp.NewToolResultError("terminal_id is required and must be a string"), err
	}
	sigType, err := request.RequireString("signal_type")
	if err != nil {
		return mcp.NewToolResultError("signal_type is required and must be a string"), err
	}

	sig := proto.NewSignal(sigType)
	if args, ok := request.GetRawArguments().(map[string]any); ok {
		if payload, exists := args["payload"]; exists {
			payloadMap, ok := payload.(map[string]any)
			if !ok {
				return mcp.NewToolResultError("payload must be a JSON object"), fmt.Errorf("payload is not an object")
			}
			sig.Payload = proto.Payload(payloadMap)
		}
	}

	if err := f.sdk.SendSignal(id, sig); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send signal: %v", err)), err
	}

	return mcp.NewToolResultText(fmt.Sprintf("Signal %s sent through terminal %s", sig.UUID, id)), nil
}
