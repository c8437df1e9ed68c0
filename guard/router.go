package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrEthical07/parkauth/internal/logging"
)

// MaxRedirects bounds how many guard redirects one navigation may follow.
const MaxRedirects = 10

var ErrRedirectLoop = errors.New("navigation redirect loop")

// Result describes a finished navigation.
type Result struct {
	// Location is where the router ended up.
	Location Location
	// Requested is the location the caller asked for.
	Requested Location
	Outcome   Outcome
	// Redirects lists the route names followed, in order.
	Redirects []string
}

// Router holds the current location and runs the guard on every change.
// Navigations are serialized.
type Router struct {
	table *Table
	guard *Guard
	home  string
	log   *slog.Logger

	mu      sync.Mutex
	current Location
}

// NewRouter starts with no current location.
func NewRouter(table *Table, guard *Guard, logger *slog.Logger) *Router {
	return &Router{
		table: table,
		guard: guard,
		home:  guard.cfg.HomeRoute,
		log:   logging.OrDiscard(logger).With("component", "router"),
	}
}

// Current returns the current location and whether any navigation has
// completed.
func (r *Router) Current() (Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, !r.current.IsZero()
}

// Table returns the route table.
func (r *Router) Table() *Table { return r.table }

// Navigate resolves path and moves to it, or wherever the guard sends it. A
// rejected navigation keeps the current location; a rejected first
// navigation lands on the home route.
func (r *Router) Navigate(ctx context.Context, path string) (Result, error) {
	requested, err := r.table.Match(path)
	if err != nil {
		return Result{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	from := r.current
	res := Result{Requested: requested}
	target := requested

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return res, fmt.Errorf("%w: %d hops from %s", ErrRedirectLoop, MaxRedirects, requested.Path)
		}

		d := r.guard.Before(ctx, target, from)
		switch d.Outcome {
		case Allow:
			r.current = target
			res.Location = target
			if res.Outcome != Reject {
				if len(res.Redirects) > 0 {
					res.Outcome = Redirect
				} else {
					res.Outcome = Allow
				}
			}
			r.log.Debug("navigated", "path", target.Path, "route", target.Route.Name)
			return res, nil

		case Redirect:
			next, err := r.table.Resolve(d.Target)
			if err != nil {
				return res, err
			}
			res.Redirects = append(res.Redirects, d.Target)
			target = next

		case Reject:
			res.Outcome = Reject
			if !from.IsZero() {
				res.Location = from
				return res, nil
			}
			home, err := r.table.Resolve(r.home)
			if err != nil {
				return res, err
			}
			if target.Route.Name == home.Route.Name {
				return res, fmt.Errorf("%w: home route rejected", ErrRedirectLoop)
			}
			target = home
		}
	}
}
