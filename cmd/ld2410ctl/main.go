// Command ld2410ctl runs one-shot get/set operations against an LD2410
// device, either from a YAML device profile or from command-line flags.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hilink/ld2410"
	"github.com/hilink/ld2410/internal/config"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "path to a YAML device profile (see internal/config.Profile)")
		device      = flag.String("device", "", "serial device path, overrides the profile's device")
		baud        = flag.Int("baud", 0, "serial baud rate, overrides the profile's baud_rate")
		cmd         = flag.String("cmd", "get-parameters", "operation: get-parameters, set-parameters, get-firmware, get-bt-address, restart, factory-reset, apply-profile")
		timeout     = flag.Duration("timeout", 5*time.Second, "overall operation timeout")
	)
	flag.Parse()

	profile, err := loadProfile(*profilePath, *device, *baud)
	if err != nil {
		log.Fatalf("ld2410ctl: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := ld2410.Open(ctx, profile.Device,
		ld2410.WithBaudRate(profile.BaudRate),
		ld2410.WithCommandTimeout(profile.CommandTimeout),
	)
	if err != nil {
		log.Fatalf("ld2410ctl: open %s: %v", profile.Device, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("ld2410ctl: close: %v", err)
		}
	}()

	if err := run(ctx, client, *cmd, profile); err != nil {
		log.Fatalf("ld2410ctl: %s: %v", *cmd, err)
	}
}

func loadProfile(path, deviceOverride string, baudOverride int) (*config.Profile, error) {
	var profile *config.Profile
	if path != "" {
		p, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		profile = p
	} else {
		profile = &config.Profile{BaudRate: 256000, CommandTimeout: 2 * time.Second}
	}
	if deviceOverride != "" {
		profile.Device = deviceOverride
	}
	if baudOverride != 0 {
		profile.BaudRate = baudOverride
	}
	if profile.Device == "" {
		return nil, fmt.Errorf("no device path given (use -profile or -device)")
	}
	return profile, nil
}

func run(ctx context.Context, client *ld2410.Client, cmd string, profile *config.Profile) error {
	switch cmd {
	case "get-parameters":
		params, err := client.GetParameters(ctx)
		if err != nil {
			return err
		}
		return printJSON(params)

	case "set-parameters":
		return applyParameters(ctx, client, profile)

	case "get-firmware":
		v, err := client.GetFirmwareVersion(ctx)
		if err != nil {
			return err
		}
		return printJSON(v)

	case "get-bt-address":
		mac, err := client.GetBluetoothAddress(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%02X:%02X:%02X:%02X:%02X:%02X\n", mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
		return nil

	case "restart":
		return client.RestartModule(ctx, true)

	case "factory-reset":
		return client.ResetToFactory(ctx)

	case "apply-profile":
		if err := applyParameters(ctx, client, profile); err != nil {
			return err
		}
		return applyGateSensitivities(ctx, client, profile)

	default:
		return fmt.Errorf("unknown -cmd %q", cmd)
	}
}

func applyParameters(ctx context.Context, client *ld2410.Client, profile *config.Profile) error {
	if profile.Parameters == nil {
		return fmt.Errorf("profile has no parameters section")
	}
	p := profile.Parameters
	return client.SetParameters(ctx, p.MotionMaxGate, p.StandstillMaxGate, p.NoOneIdleDuration)
}

func applyGateSensitivities(ctx context.Context, client *ld2410.Client, profile *config.Profile) error {
	return client.Configure(ctx, func(ctx context.Context) error {
		for _, gs := range profile.GateSensitivities {
			if err := client.SetGateSensitivity(ctx, gs.Gate, gs.MotionSensitivity, gs.StandstillSensitivity); err != nil {
				return err
			}
		}
		return nil
	})
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
