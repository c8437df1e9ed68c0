package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableMatches(t *testing.T) {
	table := mustTable(t, DefaultRoutes())

	for path, name := range map[string]string{
		"/":                RouteHome,
		"/register":        RouteRegistration,
		"/login":           RouteLogin,
		"/admin/dashboard": RouteAdminDashboard,
		"/admin/search":    RouteAdminSearch,
		"/admin/users":     RouteUserManagement,
		"/admin/summary":   RouteAdminSummary,
		"/user/dashboard":  RouteUserDashboard,
		"/user/summary":    RouteUserSummary,
		"/payment/r-19":    RoutePayment,
	} {
		l, err := table.Match(path)
		require.NoError(t, err, path)
		assert.Equal(t, name, l.Route.Name, path)
	}
}

func TestMatchExposesParamsAndIgnoresQuery(t *testing.T) {
	table := mustTable(t, DefaultRoutes())

	l, err := table.Match("/payment/res-42?amount=120")
	require.NoError(t, err)
	assert.Equal(t, "res-42", l.Params["reservationId"])
	assert.Equal(t, "/payment/res-42", l.Path)
	assert.True(t, l.Route.RequiresAuth)
}

func TestMatchIgnoresTrailingSlash(t *testing.T) {
	table := mustTable(t, DefaultRoutes())

	for path, name := range map[string]string{
		"/login/":          RouteLogin,
		"/admin/users//":   RouteUserManagement,
		"/payment/r-19/":   RoutePayment,
		"/user/dashboard/": RouteUserDashboard,
	} {
		l, err := table.Match(path)
		require.NoError(t, err, path)
		assert.Equal(t, name, l.Route.Name, path)
	}

	l, err := table.Match("/payment/r-19/?amount=5")
	require.NoError(t, err)
	assert.Equal(t, "/payment/r-19", l.Path)
	assert.Equal(t, "r-19", l.Params["reservationId"])
}

func TestMatchUnknownPath(t *testing.T) {
	table := mustTable(t, DefaultRoutes())

	_, err := table.Match("/parking/lots")
	require.ErrorIs(t, err, ErrRouteNotFound)
	_, err = table.Match("/payment")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestColonParamsAreNormalized(t *testing.T) {
	table := mustTable(t, []Route{
		{Name: "Lot", Path: "/lots/:lotId/spots/:spotId", RequiresAuth: true},
	})

	l, err := table.Match("/lots/3/spots/12")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"lotId": "3", "spotId": "12"}, l.Params)

	r, ok := table.Lookup("Lot")
	require.True(t, ok)
	assert.Equal(t, "/lots/{lotId}/spots/{spotId}", r.Path)
}

func TestResolveBuildsPath(t *testing.T) {
	table := mustTable(t, DefaultRoutes())

	l, err := table.Resolve(RoutePayment, "reservationId", "9")
	require.NoError(t, err)
	assert.Equal(t, "/payment/9", l.Path)
	assert.Equal(t, "9", l.Params["reservationId"])

	_, err = table.Resolve("Nowhere")
	require.ErrorIs(t, err, ErrRouteNotFound)
}

func TestNewTableValidation(t *testing.T) {
	_, err := NewTable(nil)
	require.Error(t, err)

	_, err = NewTable([]Route{{Name: "A", Path: "/a"}, {Name: "A", Path: "/b"}})
	require.Error(t, err)

	_, err = NewTable([]Route{{Name: "", Path: "/a"}})
	require.Error(t, err)

	_, err = NewTable([]Route{{Name: "A", Path: "a"}})
	require.Error(t, err)
}

func TestRoutesReturnsCopy(t *testing.T) {
	table := mustTable(t, DefaultRoutes())
	routes := table.Routes()
	routes[0].Name = "mutated"

	_, ok := table.Lookup(RouteHome)
	assert.True(t, ok)
	assert.Equal(t, RouteHome, table.Routes()[0].Name)
}
