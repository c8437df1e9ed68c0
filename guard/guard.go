package guard

import (
	"context"
	"log/slog"

	"github.com/MrEthical07/parkauth/events"
	"github.com/MrEthical07/parkauth/internal/logging"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/notify"
)

const (
	DefaultLoginRequiredMessage = "Please login to access this page."
	DefaultNotAuthorizedMessage = "You are not authorized to access this page."
)

// Reasons attached to non-allow decisions.
const (
	ReasonAuthRequired  = "auth_required"
	ReasonAdminRequired = "admin_required"
	ReasonGuestOnly     = "guest_only"
)

// Session is the view of the session store the guard needs.
type Session interface {
	AuthReady() bool
	CheckSession(ctx context.Context)
	IsAuthenticated() bool
	IsAdmin() bool
}

// Notifier receives user-facing messages.
type Notifier interface {
	Show(text string, severity notify.Severity)
}

// Outcome is the verdict on one navigation.
type Outcome int

const (
	Allow Outcome = iota
	// Redirect sends the navigation to Decision.Target instead.
	Redirect
	// Reject cancels the navigation; the user stays where they were.
	Reject
)

func (o Outcome) String() string {
	switch o {
	case Redirect:
		return "redirect"
	case Reject:
		return "reject"
	default:
		return "allow"
	}
}

// Decision is the result of Before.
type Decision struct {
	Outcome Outcome
	// Target is the route name to redirect to.
	Target string
	Reason string
}

// Config wires the guard to the session and notification channel. Empty
// route names and messages take the package defaults.
type Config struct {
	LoginRoute           string
	HomeRoute            string
	LoginRequiredMessage string
	NotAuthorizedMessage string

	Session  Session
	Notifier Notifier
	Events   events.Emitter
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Guard decides whether a navigation may proceed.
type Guard struct {
	cfg Config
	log *slog.Logger
}

// New fills defaults in cfg and returns the Guard.
func New(cfg Config) *Guard {
	if cfg.LoginRoute == "" {
		cfg.LoginRoute = RouteLogin
	}
	if cfg.HomeRoute == "" {
		cfg.HomeRoute = RouteHome
	}
	if cfg.LoginRequiredMessage == "" {
		cfg.LoginRequiredMessage = DefaultLoginRequiredMessage
	}
	if cfg.NotAuthorizedMessage == "" {
		cfg.NotAuthorizedMessage = DefaultNotAuthorizedMessage
	}
	return &Guard{
		cfg: cfg,
		log: logging.OrDiscard(cfg.Logger).With("component", "guard"),
	}
}

// Before decides the navigation from from to to. from is the zero Location
// on the first navigation.
func (g *Guard) Before(ctx context.Context, to, from Location) Decision {
	sess := g.cfg.Session
	if !sess.AuthReady() {
		sess.CheckSession(ctx)
	}

	switch {
	case to.Route.RequiresAuth && !sess.IsAuthenticated():
		g.notify(g.cfg.LoginRequiredMessage, notify.Warning)
		g.cfg.Metrics.Inc(metrics.GuardLoginRedirect)
		d := Decision{Outcome: Redirect, Target: g.cfg.LoginRoute, Reason: ReasonAuthRequired}
		g.record(ctx, events.TypeGuardRedirect, to, from, d)
		return d

	case to.Route.RequiresAdmin && !sess.IsAdmin():
		g.notify(g.cfg.NotAuthorizedMessage, notify.Error)
		g.cfg.Metrics.Inc(metrics.GuardReject)
		d := Decision{Outcome: Reject, Reason: ReasonAdminRequired}
		g.record(ctx, events.TypeGuardReject, to, from, d)
		return d

	case to.Route.GuestOnly && sess.IsAuthenticated():
		g.cfg.Metrics.Inc(metrics.GuardHomeRedirect)
		d := Decision{Outcome: Redirect, Target: g.cfg.HomeRoute, Reason: ReasonGuestOnly}
		g.record(ctx, events.TypeGuardRedirect, to, from, d)
		return d
	}

	g.cfg.Metrics.Inc(metrics.GuardAllow)
	return Decision{Outcome: Allow}
}

func (g *Guard) notify(text string, severity notify.Severity) {
	if g.cfg.Notifier != nil {
		g.cfg.Notifier.Show(text, severity)
	}
}

func (g *Guard) record(ctx context.Context, eventType string, to, from Location, d Decision) {
	g.log.Debug("navigation guarded",
		"to", to.Route.Name,
		"from", from.Route.Name,
		"outcome", d.Outcome.String(),
		"target", d.Target,
		"reason", d.Reason,
	)
	if g.cfg.Events == nil {
		return
	}
	md := map[string]string{
		"to":     to.Path,
		"reason": d.Reason,
	}
	if !from.IsZero() {
		md["from"] = from.Path
	}
	if d.Target != "" {
		md["target"] = d.Target
	}
	g.cfg.Events.Emit(ctx, events.Event{
		Type:     eventType,
		Success:  false,
		Metadata: md,
	})
}
