package guard

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Route names used by the default table.
const (
	RouteHome           = "Home"
	RouteRegistration   = "Registration"
	RouteLogin          = "Login"
	RouteAdminDashboard = "AdminDashboard"
	RouteAdminSearch    = "AdminSearch"
	RouteUserManagement = "UserManagement"
	RouteAdminSummary   = "AdminSummary"
	RouteUserDashboard  = "UserDashboard"
	RouteUserSummary    = "UserSummary"
	RoutePayment        = "PaymentPage"
)

var ErrRouteNotFound = errors.New("route not found")

// Route is one entry of the navigation table. Path uses {name} parameters;
// the :name form is accepted and converted.
type Route struct {
	Name          string `yaml:"name" json:"name"`
	Path          string `yaml:"path" json:"path"`
	RequiresAuth  bool   `yaml:"requires_auth" json:"requires_auth"`
	RequiresAdmin bool   `yaml:"requires_admin" json:"requires_admin"`
	GuestOnly     bool   `yaml:"guest_only" json:"guest_only"`
}

// DefaultRoutes returns the parking application's route table.
func DefaultRoutes() []Route {
	return []Route{
		{Name: RouteHome, Path: "/"},
		{Name: RouteRegistration, Path: "/register", GuestOnly: true},
		{Name: RouteLogin, Path: "/login", GuestOnly: true},
		{Name: RouteAdminDashboard, Path: "/admin/dashboard", RequiresAuth: true, RequiresAdmin: true},
		{Name: RouteAdminSearch, Path: "/admin/search", RequiresAuth: true, RequiresAdmin: true},
		{Name: RouteUserManagement, Path: "/admin/users", RequiresAuth: true, RequiresAdmin: true},
		{Name: RouteAdminSummary, Path: "/admin/summary", RequiresAuth: true, RequiresAdmin: true},
		{Name: RouteUserDashboard, Path: "/user/dashboard", RequiresAuth: true},
		{Name: RouteUserSummary, Path: "/user/summary", RequiresAuth: true},
		{Name: RoutePayment, Path: "/payment/{reservationId}", RequiresAuth: true},
	}
}

// Location is a resolved navigation target.
type Location struct {
	Route  Route
	Path   string
	Params map[string]string
}

// IsZero reports whether l is the empty location (no navigation yet).
func (l Location) IsZero() bool {
	return l.Route.Name == "" && l.Path == ""
}

// Table matches paths against routes. It is read-only after construction.
type Table struct {
	router *mux.Router
	routes []Route
	byName map[string]Route
}

// NewTable validates routes and builds the matcher. Names must be unique.
func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, errors.New("guard: empty route table")
	}
	t := &Table{
		router: mux.NewRouter(),
		routes: make([]Route, 0, len(routes)),
		byName: make(map[string]Route, len(routes)),
	}
	for _, r := range routes {
		r.Name = strings.TrimSpace(r.Name)
		if r.Name == "" {
			return nil, fmt.Errorf("guard: route with path %q has no name", r.Path)
		}
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("guard: duplicate route name %q", r.Name)
		}
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("guard: route %q path %q must start with /", r.Name, r.Path)
		}
		r.Path = normalizePath(r.Path)
		mr := t.router.NewRoute().Name(r.Name).Path(r.Path)
		if err := mr.GetError(); err != nil {
			return nil, fmt.Errorf("guard: route %q: %w", r.Name, err)
		}
		t.routes = append(t.routes, r)
		t.byName[r.Name] = r
	}
	return t, nil
}

// normalizePath rewrites :param segments as {param}.
func normalizePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") && len(s) > 1 {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// Match resolves path (optionally with a query string) to a Location.
func (t *Table) Match(path string) (Location, error) {
	u, err := url.Parse(path)
	if err != nil {
		return Location{}, err
	}
	// Trailing slashes are optional, as in the browser router.
	if u.Path = strings.TrimRight(u.Path, "/"); u.Path == "" {
		u.Path = "/"
	}
	req := &http.Request{Method: http.MethodGet, URL: u, Host: u.Host}

	var m mux.RouteMatch
	if !t.router.Match(req, &m) || m.Route == nil {
		return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, u.Path)
	}
	route := t.byName[m.Route.GetName()]
	return Location{Route: route, Path: u.Path, Params: m.Vars}, nil
}

// Lookup finds a route by name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// Resolve builds the Location for a named route. pairs are parameter
// name/value pairs.
func (t *Table) Resolve(name string, pairs ...string) (Location, error) {
	route, ok := t.byName[name]
	if !ok {
		return Location{}, fmt.Errorf("%w: %s", ErrRouteNotFound, name)
	}
	u, err := t.router.Get(name).URLPath(pairs...)
	if err != nil {
		return Location{}, fmt.Errorf("guard: build %s: %w", name, err)
	}
	var params map[string]string
	if len(pairs) > 0 {
		params = make(map[string]string, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			params[pairs[i]] = pairs[i+1]
		}
	}
	return Location{Route: route, Path: u.Path, Params: params}, nil
}

// Routes returns the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}
