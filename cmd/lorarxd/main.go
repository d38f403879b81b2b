// Command lorarxd is the LoRa receiver daemon: it reads baseband IQ
// samples from a file or UDP source, demodulates and decodes LoRa PHY
// frames, and publishes them as LoRaTap-wrapped UDP datagrams.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tve-devices/lorarx/internal/config"
	"github.com/tve-devices/lorarx/internal/frame"
	"github.com/tve-devices/lorarx/internal/iqsource"
	"github.com/tve-devices/lorarx/internal/receiver"
	"github.com/tve-devices/lorarx/internal/rxlog"
	"github.com/tve-devices/lorarx/internal/sink"
	"github.com/tve-devices/lorarx/internal/trace"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "lorarx.yaml", "Configuration file name.")
	var iqFile = pflag.StringP("iq-file", "f", "", "Read IQ samples from this file instead of listening on UDP.")
	var iqListen = pflag.StringP("iq-listen", "l", "", "Listen for IQ sample datagrams on host:port.")
	var sinkAddr = pflag.StringP("sink-addr", "s", "", "Override udp_sink_addr from the config file.")
	var logLevel = pflag.StringP("log-level", "v", "", "Override log_level from the config file (debug, info, warn, error).")
	var traceDir = pflag.StringP("trace-dir", "t", "", "Write per-symbol trace files to this directory.")
	pflag.Parse()

	if err := run(*configFile, *iqFile, *iqListen, *sinkAddr, *logLevel, *traceDir); err != nil {
		fmt.Fprintln(os.Stderr, "lorarxd:", err)
		os.Exit(1)
	}
}

func run(configFile, iqFile, iqListen, sinkAddr, logLevel, traceDir string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if sinkAddr != "" {
		cfg.UDPSinkAddr = sinkAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if traceDir != "" {
		cfg.TraceDir = traceDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := rxlog.New(os.Stderr, cfg.LogLevel)

	var source iqsource.Source
	switch {
	case iqFile != "":
		f, err := iqsource.OpenFile(iqFile, cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("opening iq file: %w", err)
		}
		defer f.Close()
		source = f
	case iqListen != "":
		u, err := iqsource.ListenUDP(iqListen, cfg.SampleRate)
		if err != nil {
			return fmt.Errorf("listening for iq samples: %w", err)
		}
		defer u.Close()
		source = u
	default:
		return fmt.Errorf("one of --iq-file or --iq-listen is required")
	}

	final, err := sink.NewUDPSink(cfg.UDPSinkAddr, log)
	if err != nil {
		return fmt.Errorf("dialing udp sink: %w", err)
	}
	defer final.Close()

	var opts []frame.Option
	if cfg.TraceDir != "" {
		t, err := trace.NewFileSink(cfg.TraceDir, "lorarxd-%Y%m%d-%H%M%S.trace")
		if err != nil {
			return fmt.Errorf("opening trace file: %w", err)
		}
		defer t.Close()
		opts = append(opts, frame.WithTrace(t))
	}

	decCfg := frame.Config{
		SampleRate:       cfg.SampleRate,
		Bandwidth:        cfg.Bandwidth,
		SF:               cfg.SF,
		ImplicitHeader:   cfg.ImplicitHeader,
		CR:               cfg.CR,
		CRCPresent:       cfg.CRCPresent,
		ReducedRate:      cfg.ReducedRate,
		FineSyncEnabled:  !cfg.DisableDriftCorrection,
		ChannelFrequency: cfg.ChannelFrequency,
		SyncWord:         cfg.SyncWord,
	}

	const queueDepth = 64
	const chunkSize = 1 << 14

	// The decoder publishes to a buffered queue; a separate writer
	// goroutine drains it to the UDP sink so a slow or blocked socket
	// write never stalls the decode loop (spec §5).
	queue := sink.NewChanSink(queueDepth)
	dec, err := frame.New(decCfg, queue, opts...)
	if err != nil {
		return err
	}
	recv := receiver.New(source, dec, queue, final, chunkSize, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Infof("lorarxd starting: sf=%d bandwidth=%g sample_rate=%g", cfg.SF, cfg.Bandwidth, cfg.SampleRate)
	if err := recv.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	log.Infof("lorarxd stopped: frames_emitted=%d sync_losses=%d parity_errors=%d",
		dec.FramesEmitted, dec.SyncLosses, dec.ParityErrors)
	return nil
}
