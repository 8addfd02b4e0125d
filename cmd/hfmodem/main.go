// Command hfmodem runs one rig's software HF modem: the MIL-STD-188-110D
// Appendix D serial-tone waveform and MIL-STD-188-141D 4G ALE/WALE link
// layer, exposed over KISS-over-TCP (with optional DNS-SD advertisement),
// with a flag-driven entry point that parses config overrides before
// wiring subsystems together. The --enable-pty flag only logs a notice;
// no pseudo-tty endpoint is opened.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/w1ale/hfmodem/internal/adapters/netkiss"
	"github.com/w1ale/hfmodem/internal/hfmodem"
	"github.com/w1ale/hfmodem/internal/hfmodem/modem"
)

func main() {
	configFile := pflag.StringP("config-file", "c", "hfmodem.yaml", "Rig configuration file (YAML).")
	rigID := pflag.StringP("rig", "r", "hf0", "Rig identifier, used in logs and capture filenames.")
	kissPort := pflag.IntP("kiss-port", "k", 8001, "TCP port for the KISS host-adapter endpoint.")
	advertise := pflag.BoolP("dns-sd", "d", false, "Advertise the KISS TCP endpoint via DNS-SD.")
	enablePTY := pflag.BoolP("enable-pty", "p", false, "Log a notice about the pseudo-tty KISS endpoint (no pty is opened).")
	jsonLog := pflag.BoolP("json-log", "j", false, "Emit logs as JSON instead of human-readable text.")
	help := pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - software HF ALE/110D modem for one rig.\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Usage: hfmodem [options]\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg := hfmodem.DefaultConfig()
	cfg.Rig = *rigID
	if _, err := os.Stat(*configFile); err == nil {
		loaded, err := hfmodem.LoadConfig(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hfmodem: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	root := hfmodem.NewLogger(*rigID, os.Stderr, *jsonLog)

	m, err := modem.New(*rigID, cfg, modem.Deps{})
	if err != nil {
		root.Error("failed to start modem", "err", err)
		os.Exit(1)
	}
	defer m.Close()

	srv, err := netkiss.Listen(m, *kissPort, *rigID+"-hfmodem", *advertise)
	if err != nil {
		root.Error("failed to open KISS listener", "err", err)
		os.Exit(1)
	}
	root.Info("listening", "port", *kissPort, "dns_sd", *advertise)

	if *enablePTY {
		root.Info("pty KISS endpoint requested; bind internal/adapters/kisspty.Open to a rig before use")
	}

	if err := srv.Serve(); err != nil {
		root.Error("kiss server stopped", "err", err)
		os.Exit(1)
	}
}
