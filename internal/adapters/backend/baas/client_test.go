package baas

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testProject  = "proj"
	testDatabase = "db"
)

type staticTokens map[string]string

func (s staticTokens) Get(_ context.Context, key string) (string, bool) {
	v, ok := s[key]
	return v, ok && v != ""
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestClient(srv *httptest.Server, tokens staticTokens, hook func(context.Context, string)) *Client {
	return NewClient(Config{
		Endpoint:   srv.URL + "/v1",
		ProjectID:  testProject,
		DatabaseID: testDatabase,
		Timeout:    time.Second,
	}, tokens, hook, zap.NewNop())
}

func docsPath(collection string) string {
	return "/v1/databases/" + testDatabase + "/collections/" + collection + "/documents"
}

// fakeBackend serves the account endpoints and an in-memory set of documents
type fakeBackend struct {
	mu        sync.Mutex
	created   map[string][]map[string]any
	roleFails bool
	requests  []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{created: map[string][]map[string]any{}}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	if r.Header.Get(HeaderProject) != testProject {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "missing project"})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1"+AccountPath:
		writeJSON(w, http.StatusCreated, map[string]any{"$id": "u1"})
	case r.Method == http.MethodPost && r.URL.Path == "/v1"+EmailSessionPath:
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid credentials. Please check the email and password.", "code": 401})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "a_session_" + testProject, Value: "session-secret"})
		writeJSON(w, http.StatusCreated, map[string]any{"$id": "s1", "secret": ""})
	case r.Method == http.MethodPost && r.URL.Path == "/v1"+JWTPath:
		if r.Header.Get(HeaderSession) != "session-secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "User (role: guests) missing scope (account)"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"jwt": "jwt-1"})
	case r.Method == http.MethodGet && r.URL.Path == "/v1"+AccountPath:
		if r.Header.Get(HeaderJWT) != "jwt-1" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid token"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"$id": "u1", "email": "ann@b.com", "name": "Ann Lee"})
	case r.Method == http.MethodGet && r.URL.Path == docsPath(CollectionUser):
		writeJSON(w, http.StatusOK, map[string]any{"total": 1, "documents": []any{
			map[string]any{"$id": "d1", "user_id": "u1", "first_name": "Ann", "last_name": "Lee"},
		}})
	case r.Method == http.MethodGet && r.URL.Path == docsPath(CollectionUserProfile):
		writeJSON(w, http.StatusOK, map[string]any{"total": 1, "documents": []any{
			map[string]any{"$id": "p1", "user_id": "u1", "role_id": "r1", "blood_type": "A+"},
		}})
	case r.Method == http.MethodGet && r.URL.Path == docsPath(CollectionRole)+"/r1":
		if f.roleFails {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "Document not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"$id": "r1", "name": "caretaker", "permissions": `{"view_patients": true}`})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/documents"):
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		collection := strings.Split(r.URL.Path, "/")[5]
		data, _ := body["data"].(map[string]any)
		f.mu.Lock()
		f.created[collection] = append(f.created[collection], data)
		f.mu.Unlock()
		data["$id"] = body["documentId"]
		writeJSON(w, http.StatusCreated, data)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "route not found"})
	}
}

func TestClient_Login(t *testing.T) {
	fake := newFakeBackend()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	result, err := newTestClient(srv, staticTokens{}, nil).Login(context.Background(), "ann@b.com", "secret123")
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, domain.TokenPair{AccessToken: "jwt-1", RefreshToken: "session-secret"}, result.Tokens)

	payload, ok := result.Payload.(domain.NormalizedAuthPayload)
	require.True(t, ok)
	assert.Equal(t, "u1", payload.AuthUser["id"])
	assert.Equal(t, "Ann", payload.AuthUser["first_name"])
	assert.Equal(t, "A+", payload.UserProfile["blood_type"])
	assert.Equal(t, "caretaker", payload.Role["name"])
}

func TestClient_LoginRoleFailureFallsBack(t *testing.T) {
	fake := newFakeBackend()
	fake.roleFails = true
	srv := httptest.NewServer(fake)
	defer srv.Close()

	result, err := newTestClient(srv, staticTokens{}, nil).Login(context.Background(), "ann@b.com", "secret123")
	require.NoError(t, err)
	payload := result.Payload.(domain.NormalizedAuthPayload)
	assert.Nil(t, payload.Role)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()

	var hookCalls int
	client := newTestClient(srv, staticTokens{}, func(context.Context, string) { hookCalls++ })

	result, err := client.Login(context.Background(), "ann@b.com", "wrong")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "Invalid credentials")
	assert.Zero(t, hookCalls)
}

func TestClient_Register(t *testing.T) {
	fake := newFakeBackend()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	result, err := newTestClient(srv, staticTokens{}, nil).Register(context.Background(), domain.RegisterInput{
		Email: "ann@b.com", Password: "secret123", FirstName: "Ann", LastName: "Lee",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "session-secret", result.Tokens.RefreshToken)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.created[CollectionUser], 1)
	require.Len(t, fake.created[CollectionUserProfile], 1)
	assert.Equal(t, "Ann", fake.created[CollectionUser][0]["first_name"])
	assert.NotEmpty(t, fake.created[CollectionUserProfile][0]["user_id"])
}

func TestClient_RefreshAndIsAuthenticated(t *testing.T) {
	srv := httptest.NewServer(newFakeBackend())
	defer srv.Close()
	ctx := context.Background()

	client := newTestClient(srv, staticTokens{domain.RefreshTokenKey: "session-secret"}, nil)
	assert.True(t, client.IsAuthenticated(ctx))

	pair, err := client.RefreshAccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "jwt-1", pair.AccessToken)
	assert.Empty(t, pair.RefreshToken, "the session secret is never rotated")

	anonymous := newTestClient(srv, staticTokens{domain.AccessTokenKey: "jwt-1"}, nil)
	assert.False(t, anonymous.IsAuthenticated(ctx))
	_, err = anonymous.RefreshAccessToken(ctx)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestClient_ListQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, docsPath("health_metric"), r.URL.Path)
		assert.Equal(t, "jwt-1", r.Header.Get(HeaderJWT))

		queries := r.URL.Query()["queries[]"]
		assert.Contains(t, queries, `{"attribute":"user_id","method":"equal","values":["u1"]}`)
		assert.Contains(t, queries, `{"attribute":"recorded_at","method":"orderDesc"}`)
		assert.Contains(t, queries, `{"method":"limit","values":[10]}`)
		assert.Contains(t, queries, `{"method":"offset","values":[10]}`)
		writeJSON(w, http.StatusOK, map[string]any{"total": 0, "documents": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv, staticTokens{domain.AccessTokenKey: "jwt-1"}, nil).List(context.Background(), domain.ResourceHealthMetrics, domain.ListOptions{
		Page: 2, Limit: 10, OrderBy: "-recorded_at", Filters: map[string]string{"user_id": "u1"},
	})
	require.NoError(t, err)
}

func TestClient_UpdateStripsSystemAttributes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, docsPath("medication")+"/m1", r.URL.Path)
		var body map[string]map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"dosage": "5mg"}, body["data"])
		writeJSON(w, http.StatusOK, map[string]any{"$id": "m1", "dosage": "5mg"})
	}))
	defer srv.Close()

	_, err := newTestClient(srv, staticTokens{domain.AccessTokenKey: "jwt-1"}, nil).Update(context.Background(), domain.ResourceMedications, "m1",
		domain.Document{"$id": "m1", "$createdAt": "x", "dosage": "5mg"})
	require.NoError(t, err)
}

func TestClient_DataUnauthorizedTriggersHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Failed to verify JWT. Invalid token: Expired"})
	}))
	defer srv.Close()

	var messages []string
	client := newTestClient(srv, staticTokens{domain.AccessTokenKey: "stale"}, func(_ context.Context, msg string) {
		messages = append(messages, msg)
	})

	err := client.Delete(context.Background(), domain.ResourceDocuments, "x")
	require.Error(t, err)
	require.Len(t, messages, 1)

	_, err = client.GetProfile(context.Background(), "u1")
	require.Error(t, err)
	assert.Len(t, messages, 2)
}

func TestClient_UnknownResource(t *testing.T) {
	client := NewClient(Config{Endpoint: "http://127.0.0.1:0"}, staticTokens{}, nil, zap.NewNop())
	_, err := client.Get(context.Background(), domain.Resource("bogus"), "1")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)
}
