package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthmate/internal/adapters/backend/rest"
	"healthmate/internal/app"
	"healthmate/internal/config"
	"healthmate/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// newFakeREST serves just enough of the REST API for the commands
func newFakeREST(t *testing.T) *httptest.Server {
	access, err := jwt.GenerateAccessToken("7", time.Now().Add(time.Hour))
	require.NoError(t, err)

	user := map[string]any{"id": float64(7), "email": "ann@example.com", "first_name": "Ann", "last_name": "Lee"}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case rest.LoginPath:
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret123" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "No active account found with the given credentials"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"user": user, "access": access, "refresh": "refresh-token"})
		case rest.MePath:
			writeJSON(w, http.StatusOK, user)
		case rest.LogoutPath:
			w.WriteHeader(http.StatusResetContent)
		case "/api/medications/":
			assert.Equal(t, "7", r.URL.Query().Get("user_id"))
			writeJSON(w, http.StatusOK, map[string]any{"count": float64(1), "results": []any{map[string]any{"id": float64(3), "name": "Metformin"}}})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		}
	}))
}

// sharedFactory returns one in-memory application for every command, so
// state carries over between invocations like the file store would.
func sharedFactory(t *testing.T, restURL string) AppFactory {
	cfg := &config.Config{
		AppMode: "dev",
		Backend: config.BackendConfig{Kind: config.BackendREST, RESTURL: restURL, Timeout: time.Second},
		Storage: config.StorageConfig{Driver: config.StorageMemory},
	}
	a, err := app.New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	return func(context.Context) (*app.App, error) { return a, nil }
}

func run(t *testing.T, factory AppFactory, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd(factory)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginWhoamiList(t *testing.T) {
	srv := newFakeREST(t)
	defer srv.Close()
	factory := sharedFactory(t, srv.URL)

	_, err := run(t, factory, "whoami")
	assert.ErrorIs(t, err, ErrNotSignedIn)

	_, err = run(t, factory, "login", "--email", "ann@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No active account")

	out, err := run(t, factory, "login", "--email", "ann@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ann Lee")

	out, err = run(t, factory, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, `"email": "ann@example.com"`)

	out, err = run(t, factory, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "Session is valid")

	out, err = run(t, factory, "list", "medications")
	require.NoError(t, err)
	assert.Contains(t, out, "Metformin")

	out, err = run(t, factory, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	_, err = run(t, factory, "list", "medications")
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestArgumentValidation(t *testing.T) {
	factory := func(context.Context) (*app.App, error) {
		t.Fatal("no command should reach the backend")
		return nil, nil
	}

	_, err := run(t, factory, "login", "--email", "nope", "--password", "x")
	assert.Error(t, err)

	_, err = run(t, factory, "register", "--email", "ann@example.com", "--password", "short")
	assert.Error(t, err)

	_, err = run(t, factory, "list", "bogus")
	assert.Error(t, err)

	_, err = run(t, factory, "list", "medications", "--filter", "novalue")
	assert.Error(t, err)

	_, err = run(t, factory, "get", "medications")
	assert.Error(t, err)
}
