// Command ld2410-emulator plays the device side of the LD2410 wire protocol
// over a TCP listener, for exercising the client and the other command-line
// tools without real hardware. Point ld2410ctl/ld2410-monitor/ld2410-bridge
// at it through a TCP-to-serial bridge, or dial it directly in a test
// harness that wants a real net.Conn instead of net.Pipe.
package main

import (
	"flag"
	"log"
	"math/rand"
	"net"
	"time"

	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/testemulator"
)

func main() {
	var (
		addr   = flag.String("addr", "127.0.0.1:4100", "address to listen on")
		period = flag.Duration("period", time.Second, "interval between simulated presence reports")
	)
	flag.Parse()

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("ld2410-emulator: listen on %s: %v", *addr, err)
	}
	defer func() {
		if err := ln.Close(); err != nil {
			log.Printf("ld2410-emulator: close listener: %v", err)
		}
	}()
	log.Printf("ld2410-emulator: listening on %s", *addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Fatalf("ld2410-emulator: accept: %v", err)
		}
		log.Printf("ld2410-emulator: client connected from %s", conn.RemoteAddr())
		go serve(conn, *period)
	}
}

func serve(conn net.Conn, period time.Duration) {
	emu := testemulator.NewOnConn(conn)
	defer func() {
		if err := emu.Close(); err != nil {
			log.Printf("ld2410-emulator: close connection: %v", err)
		}
	}()

	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for range ticker.C {
		report := simulatedReport()
		if err := emu.SendReport(report); err != nil {
			log.Printf("ld2410-emulator: send report: %v", err)
			return
		}
	}
}

// simulatedReport returns a plausible basic report: a target drifting in
// and out of the motion gates.
func simulatedReport() protocol.BasicReport {
	if rand.Intn(3) == 0 {
		return protocol.BasicReport{Status: protocol.TargetNone}
	}
	distance := uint16(50 + rand.Intn(400))
	return protocol.BasicReport{
		Status:             protocol.TargetMotion | protocol.TargetStandstill,
		MotionDistance:     distance,
		MotionEnergy:       uint8(30 + rand.Intn(70)),
		StandstillDistance: distance,
		StandstillEnergy:   uint8(20 + rand.Intn(60)),
		DetectionDistance:  distance,
	}
}
