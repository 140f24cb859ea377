package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/receptorhq/receptor-go/client"
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/sdk"
	"github.com/receptorhq/receptor-go/status"
	"github.com/receptorhq/receptor-go/web"
)

func main() {
	logger := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(logger))

	endpoint := os.Getenv("RECEPTOR_ENDPOINT")
	if endpoint == "" {
		endpoint = "ws://localhost:8080/gateway"
	}

	fleet := sdk.New()

	fleet.SetGlobalConnectionHandler(func(terminalID string, connected bool, errorMessage string) {
		slog.Info("Connection state changed", "terminal", terminalID, "connected", connected, "error", errorMessage)
	})
	fleet.SetGlobalDirectiveHandler(func(terminalID string, d *proto.Directive) {
		slog.Info("Directive received", "terminal", terminalID, "name", d.Name)
	})
	fleet.SetGlobalErrorHandler(func(terminalID string, code status.Code, message string) {
		slog.Warn("Terminal error", "terminal", terminalID, "code", code, "message", message)
	})

	for i := 1; i <= 3; i++ {
		id := fmt.Sprintf("sensor-%d", i)
		err := fleet.RegisterTerminal(id, client.Config{
			DeviceID:   id,
			DeviceType: "sensor",
			Endpoint:   endpoint,
			TenantID:   "acme",
			ProductID:  "env-sensor",
			ProductKey: os.Getenv("RECEPTOR_PRODUCT_KEY"),
		})
		if err != nil {
			panic(err)
		}
	}

	for id, err := range fleet.ConnectAll("") {
		if err != nil {
			slog.Warn("Terminal failed to connect", "terminal", id, "error", err)
		}
	}

	inspector := web.NewInspector(fleet)
	go func() {
		slog.Info("Fleet inspector listening", "addr", ":8089")
		if err := http.ListenAndServe(":8089", inspector.Routes()); err != nil {
			slog.Error("Inspector server stopped", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			batch := make([]sdk.BatchSignal, 0, 3)
			for _, id := range fleet.Terminals() {
				sig := proto.NewSignal("telemetry")
				sig.Payload.SetString("status", "ok")
				batch = append(batch, sdk.BatchSignal{TerminalID: id, Signal: sig})
			}
			for i, err := range fleet.SendSignalsBatch(batch) {
				if err != nil {
					slog.Warn("Batch send failed", "terminal", batch[i].TerminalID, "error", err)
				}
			}
		case <-ctx.Done():
			slog.Info("Shutting down fleet")
			fleet.DisconnectAll()
			return
		}
	}
}
