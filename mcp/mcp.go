// Package mcp exposes a terminal fleet over the Model Context Protocol, so
// agent tooling can inspect terminals and send signals through an SDK
// instance.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/receptorhq/receptor-go/sdk"
)

type FleetServer struct {
	srv *server.MCPServer
	sdk *sdk.SDK
}

func NewFleetServer(s *sdk.SDK) *FleetServer {
	f := &FleetServer{
		srv: server.NewMCPServer("Receptor Fleet", "1.0.0"),
		sdk: s,
	}
	f.registerTools()
	return f
}

// Run serves MCP over stdio until the client disconnects.
func (f *FleetServer) Run() error {
	slog.Info("Started stdio MCP server")
	defer func() {
		slog.Info("Shut down stdio MCP server")
	}()
	return server.ServeStdio(f.srv)
}
