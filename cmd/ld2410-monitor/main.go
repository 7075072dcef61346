// Command ld2410-monitor connects to an LD2410 device and prints each
// presence report it receives to stdout until interrupted.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hilink/ld2410"
)

func main() {
	var (
		device      = flag.String("device", "/dev/ttyUSB0", "serial device path")
		baud        = flag.Int("baud", 256000, "serial baud rate")
		engineering = flag.Bool("engineering", false, "enable engineering mode for per-gate energy readings")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	client, err := ld2410.Open(ctx, *device, ld2410.WithBaudRate(*baud), ld2410.WithLogger(log.Default()))
	cancel()
	if err != nil {
		log.Fatalf("ld2410-monitor: open %s: %v", *device, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("ld2410-monitor: close: %v", err)
		}
	}()

	if *engineering {
		enableCtx, enableCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.SetEngineeringMode(enableCtx, true)
		enableCancel()
		if err != nil {
			log.Fatalf("ld2410-monitor: enable engineering mode: %v", err)
		}
	}

	reports, unsubscribe := client.GetReports()
	defer unsubscribe()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	enc := json.NewEncoder(os.Stdout)
	for {
		select {
		case r, ok := <-reports:
			if !ok {
				log.Println("ld2410-monitor: report stream closed")
				return
			}
			if err := enc.Encode(r); err != nil {
				log.Printf("ld2410-monitor: encode report: %v", err)
			}
		case <-stop:
			log.Println("ld2410-monitor: shutting down")
			return
		}
	}
}
