package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/receptorhq/receptor-go/client"
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/status"
)

func main() {
	logger := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(logger))

	endpoint := os.Getenv("RECEPTOR_ENDPOINT")
	if endpoint == "" {
		// Fall back to mDNS on the local network.
		platform, err := client.DiscoverPlatform(5 * time.Second)
		if err != nil {
			panic(err)
		}
		endpoint = platform.Endpoint()
	}

	transport, err := client.NewTransport(client.Config{
		DeviceID:   "thermo-001",
		DeviceType: "thermometer",
		Endpoint:   endpoint,
		TenantID:   "acme",
		ProductID:  "thermo",
		ProductKey: os.Getenv("RECEPTOR_PRODUCT_KEY"),
	})
	if err != nil {
		panic(err)
	}

	transport.OnDirective(func(d *proto.Directive) {
		slog.Info("Directive received", "name", d.Name, "interval", d.GetIntParameter("interval", 5))
	})
	transport.OnError(func(code status.Code, message string) {
		slog.Warn("Terminal error", "code", code, "message", message)
	})

	if err := transport.Connect(""); err != nil {
		panic(err)
	}

	ticker := time.NewTicker(5 * time.Second)
	for temp := 20.0; ; temp += 0.1 {
		<-ticker.C
		sig := proto.NewSignal("telemetry")
		sig.Payload.SetFloat("temperature", temp).SetString("unit", "C")
		if err := transport.SendSignal(sig); err != nil {
			slog.Warn("Send failed", "error", err)
		}
	}
}
