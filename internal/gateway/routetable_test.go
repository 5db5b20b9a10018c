package gateway

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
)

var noopHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

func TestNewTable(t *testing.T) {
	t.Run("valid routes ok", func(t *testing.T) {
		table, err := NewTable([]Route{
			{Method: "GET", Pattern: "/cards/{cardID}", Handler: noopHandler},
			{Method: "POST", Pattern: "/admin/*", Handler: noopHandler},
			{Method: "GET", Pattern: "/", Handler: noopHandler},
		})

		require.NoError(t, err)
		require.NotNil(t, table)
	})

	t.Run("rejects malformed patterns", func(t *testing.T) {
		tests := []struct {
			name  string
			route Route
		}{
			{"lowercase method", Route{Method: "get", Pattern: "/cards", Handler: noopHandler}},
			{"empty method", Route{Method: "", Pattern: "/cards", Handler: noopHandler}},
			{"nil handler", Route{Method: "GET", Pattern: "/cards", Handler: nil}},
			{"no leading slash", Route{Method: "GET", Pattern: "cards", Handler: noopHandler}},
			{"wildcard not last", Route{Method: "GET", Pattern: "/admin/*/stats", Handler: noopHandler}},
			{"empty capture", Route{Method: "GET", Pattern: "/cards/{}", Handler: noopHandler}},
			{"duplicate capture", Route{Method: "GET", Pattern: "/a/{id}/b/{id}", Handler: noopHandler}},
			{"stray brace", Route{Method: "GET", Pattern: "/cards/{id", Handler: noopHandler}},
			{"empty segment", Route{Method: "GET", Pattern: "/cards//activities", Handler: noopHandler}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := NewTable([]Route{tt.route})
				require.Error(t, err)
			})
		}
	})
}

func TestTableMatch(t *testing.T) {
	table, err := NewTable([]Route{
		{Method: "GET", Pattern: "/cards/{cardID}/activities", RateClass: "read", Handler: noopHandler},
		{Method: "GET", Pattern: "/cards/{cardID}", RateClass: "read", Handler: noopHandler},
		{Method: "POST", Pattern: "/businesses/award-points", RateClass: "award", Handler: noopHandler},
		{Method: "GET", Pattern: "/admin/special", RateClass: "admin", Handler: noopHandler},
		{Method: "GET", Pattern: "/admin/*", RateClass: "fallback", Handler: noopHandler},
	})
	require.NoError(t, err)

	t.Run("fixed segments match", func(t *testing.T) {
		match, err := table.Match("POST", "/businesses/award-points")

		require.NoError(t, err)
		require.Equal(t, "/businesses/award-points", match.Pattern)
		require.Equal(t, "award", match.RateClass)
		require.Nil(t, match.Params)
	})

	t.Run("wildcard captures segment", func(t *testing.T) {
		match, err := table.Match("GET", "/cards/42")

		require.NoError(t, err)
		require.Equal(t, "/cards/{cardID}", match.Pattern)
		require.Equal(t, map[string]string{"cardID": "42"}, match.Params)
	})

	t.Run("longer pattern wins when declared first", func(t *testing.T) {
		match, err := table.Match("GET", "/cards/42/activities")

		require.NoError(t, err)
		require.Equal(t, "/cards/{cardID}/activities", match.Pattern)
	})

	t.Run("declaration order wins over catch-all", func(t *testing.T) {
		match, err := table.Match("GET", "/admin/special")
		require.NoError(t, err)
		require.Equal(t, "admin", match.RateClass)

		match, err = table.Match("GET", "/admin/anything/else")
		require.NoError(t, err)
		require.Equal(t, "fallback", match.RateClass)
	})

	t.Run("unknown path not found", func(t *testing.T) {
		_, err := table.Match("GET", "/unknown")

		require.ErrorIs(t, err, apperrors.ErrRouteNotFound)
	})

	t.Run("wrong method lists allowed ones", func(t *testing.T) {
		_, err := table.Match("DELETE", "/cards/42")

		require.ErrorIs(t, err, apperrors.ErrMethodNotAllowed)

		var notAllowed *MethodNotAllowedError
		require.ErrorAs(t, err, &notAllowed)
		require.Equal(t, []string{"GET"}, notAllowed.Allowed, "allowed methods must be enumerated, never unknown")
	})

	t.Run("allowed methods collected from all matching patterns", func(t *testing.T) {
		table, err := NewTable([]Route{
			{Method: "GET", Pattern: "/things/{id}", Handler: noopHandler},
			{Method: "PUT", Pattern: "/things/{id}", Handler: noopHandler},
			{Method: "DELETE", Pattern: "/things/*", Handler: noopHandler},
		})
		require.NoError(t, err)

		_, err = table.Match("POST", "/things/7")

		var notAllowed *MethodNotAllowedError
		require.ErrorAs(t, err, &notAllowed)
		require.Equal(t, []string{"GET", "PUT", "DELETE"}, notAllowed.Allowed)
	})

	t.Run("trailing slash matches", func(t *testing.T) {
		match, err := table.Match("GET", "/cards/42/")

		require.NoError(t, err)
		require.Equal(t, "/cards/{cardID}", match.Pattern)
	})
}
