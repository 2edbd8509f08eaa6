package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/veldra/helmsman/dispatch"
	"github.com/veldra/helmsman/geom"
	"github.com/veldra/helmsman/input"
	hlog "github.com/veldra/helmsman/internal/log"
	"github.com/veldra/helmsman/source/termkeys"
	"github.com/veldra/helmsman/source/wstouch"
)

// Run is the interactive input loop: terminal keyboard plus an optional
// WebSocket touch feed, unified into one thrust vector per tick.
type Run struct {
	TickRate    int           `help:"Simulation ticks per second" default:"60" env:"HELMSMAN_TICK_RATE"`
	KeyForce    float64       `help:"Thrust magnitude per held directional key" default:"1.0" env:"HELMSMAN_KEY_FORCE"`
	Sensitivity float64       `help:"Gesture displacement to thrust scale" default:"0.02" env:"HELMSMAN_SENSITIVITY"`
	HoldWindow  time.Duration `help:"How long a terminal key press counts as held" default:"200ms" env:"HELMSMAN_HOLD_WINDOW"`
	Bindings    string        `help:"Directional key bindings" enum:"arrows,wasd" default:"arrows" env:"HELMSMAN_BINDINGS"`
	TouchFeed   bool          `help:"Serve the WebSocket touch feed" default:"true" negatable:""`

	Touch wstouch.ServerConfig `embed:"" prefix:"touch."`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(logger *slog.Logger) error {
	if r.TickRate <= 0 {
		return fmt.Errorf("tick rate must be positive, got %d", r.TickRate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := dispatch.NewBus()
	defer bus.Close()

	keys := termkeys.New(termkeys.Config{Hold: r.HoldWindow, Logger: logger})

	if r.TouchFeed {
		touchSrv := wstouch.New(bus, r.Touch, logger)
		if err := touchSrv.Start(); err != nil {
			return fmt.Errorf("start touch feed: %w", err)
		}
		defer touchSrv.Close()
	}

	ctl := input.New(keys, bus, input.Config{
		Bindings:    r.bindings(),
		KeyForce:    r.KeyForce,
		Sensitivity: r.Sensitivity,
		Logger:      logger,
	})
	if err := ctl.Init(); err != nil {
		return fmt.Errorf("initialize input controller: %w", err)
	}
	defer ctl.Dispose()

	logger.Info("input loop running",
		"tick_rate", r.TickRate, "bindings", r.Bindings, "touch_feed", r.TouchFeed)
	logger.Info("steer with the bound keys, press q or Ctrl-C to quit")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := keys.RunTerminal(ctx); err != nil {
			return err
		}
		// Reader EOF also ends the session.
		return context.Canceled
	})
	g.Go(func() error { return r.tickLoop(ctx, ctl, logger) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, termkeys.ErrQuit) {
		logger.Info("input loop stopped")
		return nil
	}
	return err
}

func (r *Run) tickLoop(ctx context.Context, ctl *input.Controller, logger *slog.Logger) error {
	interval := time.Second / time.Duration(r.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var prev geom.Vec2
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			ctl.Update(dt)
			thrust := ctl.Thrust()

			if ctl.DidReset() {
				logger.Info("reset requested, discarding buffered input")
				ctl.Clear()
				thrust = ctl.Thrust()
			}

			if thrust != prev {
				logger.Info("thrust", "x", thrust.X, "y", thrust.Y)
				prev = thrust
			}
			logger.Log(ctx, hlog.LevelTrace, "tick", "dt", dt, "x", thrust.X, "y", thrust.Y)
		}
	}
}

func (r *Run) bindings() input.Bindings {
	if r.Bindings == "wasd" {
		return input.Bindings{
			Left:  input.KeyA,
			Right: input.KeyD,
			Up:    input.KeyW,
			Down:  input.KeyS,
			Reset: input.KeyR,
		}
	}
	return input.DefaultBindings()
}
