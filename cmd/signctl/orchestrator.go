// cmd/signctl/orchestrator.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tamzrod/sign-controller/internal/bridge"
	"github.com/tamzrod/sign-controller/internal/config"
	"github.com/tamzrod/sign-controller/internal/poller"
	"github.com/tamzrod/sign-controller/internal/protocol"
	"github.com/tamzrod/sign-controller/internal/scheduler"
	"github.com/tamzrod/sign-controller/internal/status"
	"github.com/tamzrod/sign-controller/internal/writer"
)

// controller is what the orchestrator needs from the scheduler.
type controller interface {
	Submit(ctx context.Context, ev scheduler.Event) error
}

// orchestrator owns the runner-side state: the status snapshot, the 1 Hz
// seconds ticker and config reloads. One goroutine.
type orchestrator struct {
	cfgPath string
	sched   controller
	status  writer.StatusWriter // nil when disabled
	bridge  *bridge.Bridge      // may be nil

	tracker *status.Tracker
}

func (o *orchestrator) run(ctx context.Context, reports <-chan scheduler.Report, acks <-chan poller.PollResult) {
	o.tracker = status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	// Full block write on start (identity re-assert) if enabled.
	o.writeStatus()

	for {
		select {
		case <-ctx.Done():
			return

		case r := <-reports:
			o.observe(r)

		case <-secTicker.C:
			if o.tracker.TickSecond() {
				o.writeStatus()
			}

		case res := <-acks:
			o.ack(res)

		case <-hup:
			o.reload(ctx)
		}
	}
}

func (o *orchestrator) observe(r scheduler.Report) {
	switch r.Kind {
	case scheduler.ReportWarning:
		log.Info().
			Dur("remaining", r.PriorityRemaining).
			Msg("priority message about to expire")
	case scheduler.ReportFault:
		log.Warn().Err(r.Err).
			Str("state", r.Cursor.State.String()).
			Uint64("dropped", r.FramesDropped).
			Msg("sign fault")
	}

	if o.tracker.Observe(r) {
		o.writeStatus()
	}
	if o.bridge != nil {
		o.bridge.PublishReport(r)
	}
}

func (o *orchestrator) writeStatus() {
	if o.status == nil {
		return
	}
	if err := o.status.WriteStatus(o.tracker.Snapshot()); err != nil {
		log.Warn().Err(err).Msg("status write failed")
	}
}

func (o *orchestrator) ack(res poller.PollResult) {
	switch {
	case res.Err != nil:
		log.Warn().Err(res.Err).Str("sign", res.SignID).Msg("ack read failed")
	case res.Ack.Kind == protocol.AckNAK:
		log.Warn().Str("sign", res.SignID).Msg("sign rejected a frame")
	default:
		log.Debug().Str("sign", res.SignID).Str("ack", res.Ack.Kind.String()).Msg("ack")
	}
}

// reload re-reads the config file and swaps the display policy. Transport,
// status and broker settings need a restart.
func (o *orchestrator) reload(ctx context.Context) {
	next, err := config.Load(o.cfgPath)
	if err != nil {
		log.Error().Err(err).Msg("config reload rejected, keeping current policy")
		return
	}

	if o.bridge != nil {
		err = o.bridge.Reconfigure(next)
	} else {
		err = o.sched.Submit(ctx, scheduler.Reconfigure{Policy: next.Policy()})
	}
	if err != nil {
		log.Error().Err(err).Msg("config reload failed")
		return
	}
	log.Info().Str("path", o.cfgPath).Msg("config reloaded")
}
