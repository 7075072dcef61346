// Command ld2410-bridge connects to an LD2410 device and serves its live
// presence reports to any number of websocket clients, for a browser-based
// dashboard.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/hilink/ld2410"
	"github.com/hilink/ld2410/internal/bridge"
)

func main() {
	var (
		device = flag.String("device", "/dev/ttyUSB0", "serial device path")
		baud   = flag.Int("baud", 256000, "serial baud rate")
		addr   = flag.String("addr", ":8080", "address to serve the websocket endpoint on")
		path   = flag.String("path", "/ws", "websocket endpoint path")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := ld2410.Open(ctx, *device, ld2410.WithBaudRate(*baud), ld2410.WithLogger(log.Default()))
	cancel()
	if err != nil {
		log.Fatalf("ld2410-bridge: open %s: %v", *device, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("ld2410-bridge: close: %v", err)
		}
	}()

	b := bridge.New(log.Default())

	reports, unsubscribe := client.GetReports()
	defer unsubscribe()
	go func() {
		for r := range reports {
			b.Broadcast(r.Basic, r.Engineering)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc(*path, b.Handler)

	log.Printf("ld2410-bridge: serving %s on %s", *path, *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatalf("ld2410-bridge: %v", err)
	}
}
