package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Do(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items/", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "proj", r.Header.Get("X-Project"))
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["name"])

		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "cookie-value"})
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", time.Second, http.Header{"X-Project": {"proj"}})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/items/",
		Query:  url.Values{"page": {"2"}},
		Body:   map[string]any{"name": "x"},
		Header: http.Header{"Authorization": {"Bearer abc"}},
	})
	require.NoError(t, err)

	obj, err := resp.Object()
	require.NoError(t, err)
	assert.Equal(t, float64(1), obj["id"])
	assert.Equal(t, "cookie-value", resp.Cookie("sid"))
}

func TestClient_DoReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type","code":"token_not_valid"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, time.Second, nil).Do(context.Background(), Request{Method: http.MethodGet, Path: "/api/auth/me/"})
	require.Error(t, err)

	var apiErr *domain.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Given token not valid for any token type", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.True(t, domain.IsAuthError(err))
}

func TestResponse_DecodeEmpty(t *testing.T) {
	got, err := (&Response{Body: []byte("  ")}).Decode()
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = (&Response{Body: []byte(`[1]`)}).Object()
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "Invalid credentials", ErrorMessage(400, []byte(`{"message":"Invalid credentials","code":401}`)))
	assert.Equal(t, "a; b", ErrorMessage(400, []byte(`{"non_field_errors":["a","b"]}`)))
	assert.Equal(t, "nested", ErrorMessage(400, []byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "Bad Gateway", ErrorMessage(502, []byte("<html>oops</html>")))
	assert.Equal(t, "plain text", ErrorMessage(500, []byte("plain text")))
}
