// Package input unifies polled keyboard state and event-driven touch
// gestures into a single per-tick control signal: a 2D thrust vector plus a
// reset flag.
//
// Keyboard state is polled once per Update call. Touch notifications arrive
// asynchronously through a dispatch.Bus, possibly several per tick, and are
// coalesced into a small accumulator that Update drains. The two modalities
// are alternative sources for the same signal: a completed gesture takes
// precedence over the keyboard for that tick, they are never summed.
package input

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/veldra/helmsman/dispatch"
	"github.com/veldra/helmsman/geom"
)

const (
	// DefaultKeyForce is the thrust magnitude a held directional key
	// contributes on its axis.
	DefaultKeyForce = 1.0
	// DefaultSensitivity scales gesture displacement (in source units,
	// typically pixels) into thrust.
	DefaultSensitivity = 0.02
)

// Config carries the tunables for a Controller. Zero values select the
// defaults above; a nil Logger falls back to slog.Default.
type Config struct {
	Bindings    Bindings
	KeyForce    float64
	Sensitivity float64
	Logger      *slog.Logger
}

// Controller turns raw keyboard and touch input into one thrust vector per
// tick. Construction has no side effects; callers must Init before use and
// Dispose when done. The published results are valid for exactly one tick.
type Controller struct {
	mu sync.Mutex

	source KeySource
	bus    *dispatch.Bus

	bindings    Bindings
	keyForce    float64
	sensitivity float64
	logger      *slog.Logger

	active   bool
	beganSub dispatch.Handle
	endedSub dispatch.Handle

	// Current gesture, if one is being tracked.
	tracking      bool
	gestureID     int64
	gestureOrigin geom.Vec2
	gestureStart  time.Time

	// Force from gestures completed since the last Update. Written by touch
	// callbacks, read-and-zeroed by Update.
	pending geom.Vec2

	// Published results.
	thrust geom.Vec2
	reset  bool
}

// New creates a controller reading key state from source and touch events
// from bus. It attaches nothing; call Init to start receiving input.
func New(source KeySource, bus *dispatch.Bus, cfg Config) *Controller {
	var zero Bindings
	if cfg.Bindings == zero {
		cfg.Bindings = DefaultBindings()
	}
	if cfg.KeyForce == 0 {
		cfg.KeyForce = DefaultKeyForce
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = DefaultSensitivity
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Controller{
		source:      source,
		bus:         bus,
		bindings:    cfg.Bindings,
		keyForce:    cfg.KeyForce,
		sensitivity: cfg.Sensitivity,
		logger:      cfg.Logger,
	}
}

// Init attaches the touch listeners and activates the controller. Calling
// Init on an active controller is a no-op. On failure no listeners stay
// attached and the controller remains inactive.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		return nil
	}

	began, err := c.bus.SubscribeBegan(c.TouchBegan)
	if err != nil {
		return fmt.Errorf("attach touch-began listener: %w", err)
	}
	ended, err := c.bus.SubscribeEnded(c.TouchEnded)
	if err != nil {
		c.bus.Unsubscribe(began)
		return fmt.Errorf("attach touch-ended listener: %w", err)
	}

	c.beganSub, c.endedSub = began, ended
	c.active = true
	return nil
}

// Dispose detaches the touch listeners and discards all buffered input. The
// controller can be reused with another Init. Safe to call repeatedly.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return
	}
	c.bus.Unsubscribe(c.beganSub)
	c.bus.Unsubscribe(c.endedSub)
	c.active = false
	c.clearLocked()
}

// IsActive reports whether listeners are attached and polling is permitted.
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Update processes one tick: it polls the current key state, drains the
// gesture force accumulated since the previous tick, and publishes the
// unified thrust vector and reset flag. While inactive it is a no-op.
//
// dt is accepted for symmetry with the owning loop; key force is a step
// function of key state, so no ramping depends on it.
func (c *Controller) Update(dt time.Duration) {
	c.mu.Lock()
	if !c.active {
		c.mu.Unlock()
		return
	}
	src, b := c.source, c.bindings
	c.mu.Unlock()

	// Poll outside the lock; sources may take their own locks.
	kb := geom.Vec2{
		X: c.keyContribution(src, b.Right) - c.keyContribution(src, b.Left),
		Y: c.keyContribution(src, b.Up) - c.keyContribution(src, b.Down),
	}
	reset := src.IsDown(b.Reset)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		// Disposed while polling; drop the result.
		return
	}

	gesture := c.pending
	c.pending = geom.Vec2{}

	if !gesture.IsZero() {
		c.thrust = gesture
	} else {
		c.thrust = kb
	}
	c.reset = reset
}

func (c *Controller) keyContribution(src KeySource, k Key) float64 {
	if src.IsDown(k) {
		return c.keyForce
	}
	return 0
}

// Clear discards all buffered and published input without touching listener
// attachment, e.g. after consuming a reset action.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Controller) clearLocked() {
	c.pending = geom.Vec2{}
	c.tracking = false
	c.thrust = geom.Vec2{}
	c.reset = false
}

// Thrust returns the unified thrust vector published by the last Update.
func (c *Controller) Thrust() geom.Vec2 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thrust
}

// DidReset reports whether the reset action was signaled by the last Update.
func (c *Controller) DidReset() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reset
}

// TouchBegan is the touch-began callback. If no gesture is tracked and the
// application owns focus, the event's position and timestamp become the
// gesture origin. While a gesture is tracked, further touches are ignored
// until it ends.
func (c *Controller) TouchBegan(ev dispatch.TouchEvent, focus bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || !focus || c.tracking {
		return
	}
	c.tracking = true
	c.gestureID = ev.ID
	c.gestureOrigin = ev.Pos
	c.gestureStart = ev.Time
}

// TouchEnded is the touch-ended callback. When the event matches the tracked
// gesture, the displacement from the origin, scaled by the sensitivity, is
// added to the force pending for the next Update; the tracked gesture is
// cleared either way. An unfocused end clears tracking without registering
// force.
func (c *Controller) TouchEnded(ev dispatch.TouchEvent, focus bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active || !c.tracking || ev.ID != c.gestureID {
		return
	}
	origin, start := c.gestureOrigin, c.gestureStart
	c.tracking = false
	if !focus {
		return
	}
	disp := ev.Pos.Sub(origin)
	c.pending = c.pending.Add(disp.Scale(c.sensitivity))
	c.logger.Debug("gesture completed",
		"dx", disp.X, "dy", disp.Y, "duration", ev.Time.Sub(start))
}
