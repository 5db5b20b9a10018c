package render

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/apperrors"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, map[string]int{"value": 42})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"value": 42}`, w.Body.String())
}

func TestOpError(t *testing.T) {
	w := httptest.NewRecorder()

	OpError(w, "award-points", "Card not found", apperrors.ErrCardNotFound, http.StatusNotFound)

	require.Equal(t, http.StatusNotFound, w.Code)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "not_found", response.Error, "code must be machine readable")
	require.Equal(t, "award-points", response.Op, "failed operation must be named")
	require.Equal(t, "Card not found", response.Message)
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowed(w, "dispatch", []string{"GET", "POST"})

	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, []string{"GET", "POST"}, w.Header().Values("Allow"))

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "method_not_allowed", response.Error)
	require.Equal(t, []string{"GET", "POST"}, response.AllowedMethods, "allowed list must never be empty or unknown")
}

func TestBindAndValidate(t *testing.T) {
	type request struct {
		Name   string `json:"name" validate:"required,min=2"`
		Points int64  `json:"points" validate:"required"`
	}

	t.Run("valid request ok", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "test", "points": 10}`))

		value, err := BindAndValidate[request](w, r)

		require.NoError(t, err)
		require.Equal(t, request{Name: "test", Points: 10}, value)
	})

	t.Run("broken json rendered as decoding error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": `))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, DecodingErrorType, response.Error)
	})

	t.Run("wrong field type names the field", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "test", "points": "ten"}`))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Contains(t, response.Message, "points")
	})

	t.Run("validation errors keyed by json tag", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "x"}`))

		_, err := BindAndValidate[request](w, r)

		require.Error(t, err)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Equal(t, ValidationErrorType, response.Error)
		require.Contains(t, response.Fields, "name")
		require.Contains(t, response.Fields, "points")
	})
}
