// cmd/signctl/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/api"
	"github.com/tamzrod/sign-controller/internal/bridge"
	"github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/logging"
	"github.com/tamzrod/sign-controller/internal/poller"
	"github.com/tamzrod/sign-controller/internal/scheduler"
	"github.com/tamzrod/sign-controller/internal/transport"
	"github.com/tamzrod/sign-controller/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: signctl <config.yaml>")
		os.Exit(2)
	}

	if err := run(os.Args[1]); err != nil {
		log.Fatal().Err(err).Msg("signctl stopped")
	}
}

func run(cfgPath string) error {
	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Build the pipeline
	// --------------------

	// ---- sign link ----
	link, err := buildLink(cfg.Transport)
	if err != nil {
		return fmt.Errorf("transport build failed: %w", err)
	}
	defer link.Close()

	// ---- scheduler ----
	sched, err := scheduler.New(cfg.Policy(), link, scheduler.Options{
		FrameGap: cfg.Transport.FrameGap,
	})
	if err != nil {
		return fmt.Errorf("scheduler build failed: %w", err)
	}

	// ---- status writer (optional) ----
	statusWriter, closeStatus, err := writer.BuildStatusWriter(cfg.Status)
	if err != nil {
		return fmt.Errorf("status writer build failed: %w", err)
	}
	defer closeStatus()

	// ---- command bridge (broker optional) ----
	br, err := bridge.New(cfg, sched)
	if err != nil {
		return err
	}
	if cfg.MQTT.Enabled {
		if err := br.Start(ctx); err != nil {
			return err
		}
		defer br.Stop()
	}

	// ---- ack poller (optional) ----
	p, err := poller.Build(cfg, link, nil)
	if err != nil {
		return fmt.Errorf("poller build failed: %w", err)
	}

	var wg sync.WaitGroup

	acks := make(chan poller.PollResult, 8)
	if p != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Run(ctx, acks)
		}()
	}

	// ---- http api (optional) ----
	if cfg.API.Enabled {
		srv := api.New(cfg.API, br)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("api server stopped")
			}
		}()
	}

	// ---- scheduler loop ----
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(ctx)
	}()

	log.Info().
		Str("sign", cfg.Sign.ID).
		Str("link", link.Endpoint()).
		Bool("status", statusWriter != nil).
		Bool("mqtt", cfg.MQTT.Enabled).
		Bool("api", cfg.API.Enabled).
		Bool("ack_poll", p != nil).
		Msg("signctl started")

	o := &orchestrator{
		cfgPath: cfgPath,
		sched:   sched,
		status:  statusWriter,
		bridge:  br,
	}
	o.run(ctx, sched.Reports(), acks)

	wg.Wait()
	log.Info().Msg("signctl stopped")
	return nil
}

// buildLink constructs the sign link for the configured kind.
// Nothing is dialed here; the link connects on first use.
func buildLink(c config.TransportConfig) (*transport.Link, error) {
	switch c.Kind {
	case "serial":
		return transport.NewSerial(transport.SerialConfig{
			Device:   c.Device,
			BaudRate: c.BaudRate,
			DataBits: c.DataBits,
			StopBits: c.StopBits,
			Parity:   c.Parity,
			Timeout:  c.Timeout,
			RS485:    c.RS485,
		})
	case "tcp":
		return transport.NewTCP(transport.TCPConfig{
			Endpoint: c.Endpoint,
			Timeout:  c.Timeout,
		})
	default:
		return nil, fmt.Errorf("transport: unknown kind %q", c.Kind)
	}
}
