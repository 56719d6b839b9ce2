// Command ws28xx-probe is a developer diagnostic: open the dongle,
// print its serial/device id, optionally wait for pairing, then exit.
// It is not the pair/info/current/history/set-interval front-end that
// is delegated to an external collaborator CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chrissnell/ws28xx"
	"github.com/chrissnell/ws28xx/internal/config"
	"github.com/chrissnell/ws28xx/internal/log"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to driver YAML configuration file")
		pair       = flag.Bool("pair", false, "Wait for the console's SET button to complete pairing")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		logFile    = flag.String("log-file", "", "Rotate logs into this file instead of stdout")
	)
	flag.Parse()

	if err := log.InitWithFile(*debug, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "ws28xx-probe: logger init: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	sugar := log.GetSugaredLogger()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ws28xx-probe: %v\n", err)
		os.Exit(1) // configuration error
	}

	driver, err := ws28xx.New(cfg, sugar)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ws28xx-probe: %v\n", err)
		os.Exit(2) // transceiver not found
	}
	defer driver.Close()

	fmt.Printf("serial:    %s\n", driver.GetTransceiverSerial())
	fmt.Printf("device id: %#04x\n", driver.GetTransceiverId())
	fmt.Printf("present:   %t\n", driver.TransceiverIsPresent())

	if !*pair {
		return
	}

	fmt.Printf("waiting up to %s for pairing (press SET on the console)...\n", cfg.PairingTimeoutDuration())
	deviceID, err := driver.Pair(cfg.PairingTimeoutDuration())
	if err != nil {
		fmt.Fprintf(os.Stderr, "ws28xx-probe: pairing failed: %v\n", err)
		os.Exit(3) // pairing failed
	}
	fmt.Printf("paired, device id: %#04x\n", deviceID)

	waitForFrame(driver)
}

// waitForFrame polls the driver's health snapshot briefly so the
// operator sees the service worker has actually started exchanging
// frames with the console before the tool exits.
func waitForFrame(driver *ws28xx.Driver) {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		h := driver.Health()
		if !h.LastFrameAt.IsZero() {
			fmt.Printf("last frame: %s\n", humanize.Time(h.LastFrameAt))
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("last frame: none received yet")
}

func loadConfig(path string) (config.DriverConfig, error) {
	if path == "" {
		return config.DriverConfig{
			TransceiverFrequency: config.RegionUS,
			PollingInterval:      30,
			CommInterval:         [2]int{380, 200},
			PairingTimeout:       90,
			MaxTries:             3,
		}, nil
	}
	return config.NewDriverConfig(path)
}
