// Package notify implements the transient, auto-dismissing message slot shown
// to the user. The slot holds at most one message; showing a new one preempts
// the previous one and restarts its display window.
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/MrEthical07/parkauth/internal/clock"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/google/uuid"
)

const (
	DefaultDisplayDuration = 5 * time.Second
	DefaultFadeDuration    = 500 * time.Millisecond
)

// Notification is a snapshot of the channel.
type Notification struct {
	ID       string
	Text     string
	Severity Severity
	Visible  bool
	Phase    Phase
}

// Config controls display timing. Zero durations fall back to the defaults.
type Config struct {
	DisplayDuration time.Duration
	FadeDuration    time.Duration
	Clock           clock.Clock
	Logger          *slog.Logger
	// OnChange, when set, receives a snapshot after every state change.
	// It is called without the channel lock held.
	OnChange func(Notification)
	// OnShow, when set, is called once per Show.
	OnShow func(Notification)
}

// Channel is the single-slot notification queue.
//
// Lifecycle: hidden -> visible (Show) -> fading (Hide or display timeout)
// -> hidden (fade timeout). Each phase owns one cancellable timer.
type Channel struct {
	cfg   Config
	clock clock.Clock
	log   *slog.Logger

	mu        sync.Mutex
	current   Notification
	hideTimer clock.Timer
	fadeTimer clock.Timer
}

// New returns an empty, hidden Channel.
func New(cfg Config) *Channel {
	if cfg.DisplayDuration <= 0 {
		cfg.DisplayDuration = DefaultDisplayDuration
	}
	if cfg.FadeDuration <= 0 {
		cfg.FadeDuration = DefaultFadeDuration
	}
	return &Channel{
		cfg:   cfg,
		clock: clock.OrReal(cfg.Clock),
		log:   logging.OrDiscard(cfg.Logger),
	}
}

// Show replaces the current message and arms the auto-hide timer.
func (c *Channel) Show(text string, severity Severity) {
	c.mu.Lock()
	c.stopTimersLocked()
	c.current = Notification{
		ID:       uuid.NewString(),
		Text:     text,
		Severity: severity,
		Visible:  true,
		Phase:    PhaseVisible,
	}
	id := c.current.ID
	c.hideTimer = c.clock.AfterFunc(c.cfg.DisplayDuration, func() { c.expire(id) })
	snap := c.current
	c.mu.Unlock()

	c.log.Debug("notification shown", "id", snap.ID, "severity", snap.Severity.String())
	if c.cfg.OnShow != nil {
		c.cfg.OnShow(snap)
	}
	c.changed(snap)
}

// Hide marks the message invisible now and clears its content after the
// fade duration. Hiding an already hidden or fading channel is a no-op.
func (c *Channel) Hide() {
	c.mu.Lock()
	if c.current.Phase != PhaseVisible {
		c.mu.Unlock()
		return
	}
	snap := c.fadeLocked()
	c.mu.Unlock()

	c.changed(snap)
}

// Current returns a snapshot of the slot.
func (c *Channel) Current() Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Channel) expire(id string) {
	c.mu.Lock()
	if c.current.ID != id || c.current.Phase != PhaseVisible {
		c.mu.Unlock()
		return
	}
	c.hideTimer = nil
	snap := c.fadeLocked()
	c.mu.Unlock()

	c.changed(snap)
}

func (c *Channel) fadeLocked() Notification {
	c.stopTimersLocked()
	c.current.Visible = false
	c.current.Phase = PhaseFading
	id := c.current.ID
	c.fadeTimer = c.clock.AfterFunc(c.cfg.FadeDuration, func() { c.clear(id) })
	return c.current
}

func (c *Channel) clear(id string) {
	c.mu.Lock()
	if c.current.ID != id || c.current.Phase != PhaseFading {
		c.mu.Unlock()
		return
	}
	c.fadeTimer = nil
	c.current = Notification{}
	snap := c.current
	c.mu.Unlock()

	c.changed(snap)
}

func (c *Channel) stopTimersLocked() {
	if c.hideTimer != nil {
		c.hideTimer.Stop()
		c.hideTimer = nil
	}
	if c.fadeTimer != nil {
		c.fadeTimer.Stop()
		c.fadeTimer = nil
	}
}

func (c *Channel) changed(n Notification) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(n)
	}
}
