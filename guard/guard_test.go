package guard

import (
	"context"
	"sync"
	"testing"

	"github.com/MrEthical07/parkauth/events"
	"github.com/MrEthical07/parkauth/metrics"
	"github.com/MrEthical07/parkauth/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu      sync.Mutex
	ready   bool
	authed  bool
	admin   bool
	checks  int
	onCheck func(s *fakeSession)
}

func (f *fakeSession) AuthReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakeSession) CheckSession(context.Context) {
	f.mu.Lock()
	f.checks++
	hook := f.onCheck
	f.mu.Unlock()
	if hook != nil {
		hook(f)
	}
	f.mu.Lock()
	f.ready = true
	f.mu.Unlock()
}

func (f *fakeSession) IsAuthenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeSession) IsAdmin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed && f.admin
}

type notices struct {
	mu    sync.Mutex
	items []notify.Notification
}

func (n *notices) Show(text string, severity notify.Severity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, notify.Notification{Text: text, Severity: severity})
}

func (n *notices) all() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification(nil), n.items...)
}

func mustTable(t *testing.T, routes []Route) *Table {
	t.Helper()
	table, err := NewTable(routes)
	require.NoError(t, err)
	return table
}

func loc(t *testing.T, table *Table, path string) Location {
	t.Helper()
	l, err := table.Match(path)
	require.NoError(t, err)
	return l
}

func TestBeforeRules(t *testing.T) {
	table := mustTable(t, DefaultRoutes())
	home := loc(t, table, "/")

	cases := []struct {
		name     string
		authed   bool
		admin    bool
		path     string
		want     Decision
		severity *notify.Severity
	}{
		{name: "anonymous home", path: "/", want: Decision{Outcome: Allow}},
		{name: "anonymous login", path: "/login", want: Decision{Outcome: Allow}},
		{
			name: "anonymous dashboard", path: "/user/dashboard",
			want:     Decision{Outcome: Redirect, Target: RouteLogin, Reason: ReasonAuthRequired},
			severity: ptr(notify.Warning),
		},
		{
			name: "anonymous admin", path: "/admin/users",
			want:     Decision{Outcome: Redirect, Target: RouteLogin, Reason: ReasonAuthRequired},
			severity: ptr(notify.Warning),
		},
		{
			name: "user admin", authed: true, path: "/admin/summary",
			want:     Decision{Outcome: Reject, Reason: ReasonAdminRequired},
			severity: ptr(notify.Error),
		},
		{name: "user payment", authed: true, path: "/payment/77", want: Decision{Outcome: Allow}},
		{
			name: "user register", authed: true, path: "/register",
			want: Decision{Outcome: Redirect, Target: RouteHome, Reason: ReasonGuestOnly},
		},
		{name: "admin admin", authed: true, admin: true, path: "/admin/dashboard", want: Decision{Outcome: Allow}},
		{
			name: "admin login", authed: true, admin: true, path: "/login",
			want: Decision{Outcome: Redirect, Target: RouteHome, Reason: ReasonGuestOnly},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := &fakeSession{ready: true, authed: tc.authed, admin: tc.admin}
			n := &notices{}
			g := New(Config{Session: sess, Notifier: n})

			got := g.Before(context.Background(), loc(t, table, tc.path), home)
			assert.Equal(t, tc.want, got)
			assert.Zero(t, sess.checks)

			shown := n.all()
			if tc.severity == nil {
				assert.Empty(t, shown)
				return
			}
			require.Len(t, shown, 1)
			assert.Equal(t, *tc.severity, shown[0].Severity)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestBeforeAwaitsBootstrap(t *testing.T) {
	table := mustTable(t, DefaultRoutes())
	sess := &fakeSession{onCheck: func(s *fakeSession) {
		s.mu.Lock()
		s.authed = true
		s.mu.Unlock()
	}}
	g := New(Config{Session: sess})

	d := g.Before(context.Background(), loc(t, table, "/user/summary"), Location{})
	assert.Equal(t, Allow, d.Outcome, "decision uses the restored session")
	assert.Equal(t, 1, sess.checks)

	g.Before(context.Background(), loc(t, table, "/user/summary"), Location{})
	assert.Equal(t, 1, sess.checks, "bootstrap runs once")
}

func TestBeforeMessagesAndTelemetry(t *testing.T) {
	table := mustTable(t, DefaultRoutes())
	sess := &fakeSession{ready: true}
	n := &notices{}
	sink := events.NewChannelSink(4)
	m := metrics.New(metrics.Config{Enabled: true})
	g := New(Config{Session: sess, Notifier: n, Events: sink, Metrics: m})

	g.Before(context.Background(), loc(t, table, "/user/dashboard"), loc(t, table, "/"))
	shown := n.all()
	require.Len(t, shown, 1)
	assert.Equal(t, "Please login to access this page.", shown[0].Text)

	ev := <-sink.Events()
	assert.Equal(t, events.TypeGuardRedirect, ev.Type)
	assert.Equal(t, "/user/dashboard", ev.Metadata["to"])
	assert.Equal(t, "/", ev.Metadata["from"])
	assert.Equal(t, RouteLogin, ev.Metadata["target"])

	sess.authed = true
	g.Before(context.Background(), loc(t, table, "/admin/search"), loc(t, table, "/user/dashboard"))
	shown = n.all()
	require.Len(t, shown, 2)
	assert.Equal(t, "You are not authorized to access this page.", shown[1].Text)
	ev = <-sink.Events()
	assert.Equal(t, events.TypeGuardReject, ev.Type)

	assert.Equal(t, uint64(1), m.Value(metrics.GuardLoginRedirect))
	assert.Equal(t, uint64(1), m.Value(metrics.GuardReject))
}

func TestIsAdminNeverWithoutAuth(t *testing.T) {
	table := mustTable(t, DefaultRoutes())
	sess := &fakeSession{ready: true, admin: true}
	g := New(Config{Session: sess})

	d := g.Before(context.Background(), loc(t, table, "/admin/dashboard"), Location{})
	assert.Equal(t, Decision{Outcome: Redirect, Target: RouteLogin, Reason: ReasonAuthRequired}, d)
}
