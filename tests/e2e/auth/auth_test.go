package auth

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/redakrarssi/Gudcity-REDA-sub006/internal/testutil"
	"github.com/redakrarssi/Gudcity-REDA-sub006/tests/e2e"
)

const (
	registerURL = "/auth/register"
	loginURL    = "/auth/login"
	refreshURL  = "/auth/refresh"
)

func post(t *testing.T, url string, body string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(raw)
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, cookie := range resp.Cookies() {
		if cookie.Name == "refresh_token" {
			return cookie
		}
	}
	t.Fatal("refresh_token cookie not set")
	return nil
}

func Test_AuthRegister(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("register ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, body := post(t, srvURL+registerURL, `{"username": "customer", "password": "StrongEnoughPassword"}`)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "access_token")

				cookie := refreshCookie(t, resp)
				require.True(t, cookie.HttpOnly, "refresh cookie should be HttpOnly")
				require.Equal(t, "/auth", cookie.Path, "refresh cookie is scoped to token issuance paths")
				require.NotEmpty(t, cookie.Value)
			})
		})

		t.Run("register business role", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, body := post(t, srvURL+registerURL, `{"username": "shop", "password": "StrongEnoughPassword", "role": "business"}`)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

				user, err := s.Storage.Users().GetUserByUsername(t.Context(), "shop")
				require.NoError(t, err)
				require.Equal(t, "business", user.Role)
			})
		})

		t.Run("staff role can not be claimed on register", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, _ := post(t, srvURL+registerURL, `{"username": "sneaky", "password": "StrongEnoughPassword", "role": "staff"}`)

				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		})

		t.Run("register existing user fails", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Auth.Register(t.Context(), "customer", "StrongEnoughPassword", "customer")
				require.NoError(t, err)

				resp, body := post(t, srvURL+registerURL, `{"username": "customer", "password": "StrongEnoughPassword"}`)

				require.Equalf(t, http.StatusConflict, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "conflict")
				require.Empty(t, resp.Cookies())
			})
		})

		t.Run("weak password rejected", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, _ := post(t, srvURL+registerURL, `{"username": "customer", "password": "short"}`)

				require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			})
		})
	})
}

func Test_AuthLogin(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		t.Run("login ok", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Auth.Register(t.Context(), "customer", "StrongEnoughPassword", "customer")
				require.NoError(t, err)

				resp, body := post(t, srvURL+loginURL, `{"username": "customer", "password": "StrongEnoughPassword"}`)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "access_token")
				require.NotEmpty(t, refreshCookie(t, resp).Value)
			})
		})

		t.Run("wrong password", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				_, err := s.Auth.Register(t.Context(), "customer", "StrongEnoughPassword", "customer")
				require.NoError(t, err)

				resp, body := post(t, srvURL+loginURL, `{"username": "customer", "password": "WrongPassword"}`)

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				require.NotContains(t, body, "access_token")
			})
		})

		t.Run("unknown user reported same as wrong password", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, _ := post(t, srvURL+loginURL, `{"username": "nobody", "password": "StrongEnoughPassword"}`)

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	})
}

func Test_AuthRefresh(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	e2e.ServeWithTx(pg.Pool, t, func(tx pgx.Tx, srvURL string, s e2e.Services) {
		refresh := func(t *testing.T, cookie *http.Cookie) (*http.Response, string) {
			t.Helper()

			req, err := http.NewRequest(http.MethodPost, srvURL+refreshURL, nil)
			require.NoError(t, err)
			if cookie != nil {
				req.AddCookie(cookie)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			raw, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			return resp, string(raw)
		}

		t.Run("refresh rotates the pair", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				registered, _ := post(t, srvURL+registerURL, `{"username": "customer", "password": "StrongEnoughPassword"}`)
				cookie := refreshCookie(t, registered)

				resp, body := refresh(t, cookie)

				require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)
				require.Contains(t, body, "access_token")

				rotated := refreshCookie(t, resp)
				require.NotEqual(t, cookie.Value, rotated.Value, "refresh token must rotate")

				t.Run("used token rejected", func(t *testing.T) {
					resp, _ := refresh(t, cookie)

					require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
				})
			})
		})

		t.Run("missing cookie", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, _ := refresh(t, nil)

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})

		t.Run("unknown token", func(t *testing.T) {
			testutil.WithTx(tx, t, func(_ pgx.Tx) {
				resp, _ := refresh(t, &http.Cookie{Name: "refresh_token", Value: "deadbeef"})

				require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})
		})
	})
}
