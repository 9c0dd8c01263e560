// Package rest talks to the Django REST backend, which issues JWT
// access/refresh pairs.
package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"healthmate/internal/core/domain"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/apiclient"

	"go.uber.org/zap"
)

// Auth endpoints
const (
	LoginPath    = "/api/auth/login/"
	RegisterPath = "/api/auth/register/"
	MePath       = "/api/auth/me/"
	RefreshPath  = "/api/auth/token/refresh/"
	LogoutPath   = "/api/auth/logout/"
	ProfilePath  = "/api/profile/"
)

// TokenReader gives read access to the persisted tokens
type TokenReader interface {
	Get(ctx context.Context, key string) (string, bool)
}

// Client implements services.Backend for the REST API
type Client struct {
	api           *apiclient.Client
	tokens        TokenReader
	onAuthFailure services.AuthFailureFunc
	logger        *zap.Logger
}

// NewClient creates a REST backend client. onAuthFailure is called when a
// data request is rejected with 401/403; it may be nil.
func NewClient(baseURL string, timeout time.Duration, tokens TokenReader, onAuthFailure services.AuthFailureFunc, logger *zap.Logger) *Client {
	return &Client{
		api:           apiclient.New(baseURL, timeout, nil),
		tokens:        tokens,
		onAuthFailure: onAuthFailure,
		logger:        logger.Named("rest"),
	}
}

// Name implements services.AuthBackend
func (c *Client) Name() string {
	return "rest"
}

// Login implements services.AuthBackend
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   LoginPath,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return rejected(err)
	}
	body, err := resp.Object()
	if err != nil {
		return nil, err
	}
	return authResult(body), nil
}

// Register implements services.AuthBackend. When the registration response
// carries no tokens the new account is signed in with a login call.
func (c *Client) Register(ctx context.Context, input domain.RegisterInput) (*domain.LoginResult, error) {
	username := input.Username
	if username == "" {
		username, _, _ = strings.Cut(input.Email, "@")
	}

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   RegisterPath,
		Body: map[string]string{
			"email":            input.Email,
			"password":         input.Password,
			"password_confirm": input.Password,
			"username":         username,
			"first_name":       input.FirstName,
			"last_name":        input.LastName,
			"phone_number":     input.Phone,
		},
	})
	if err != nil {
		return rejected(err)
	}
	body, err := resp.Object()
	if err != nil {
		return nil, err
	}

	result := authResult(body)
	if result.Success && result.Tokens.AccessToken == "" {
		c.logger.Debug("registration returned no tokens, signing in")
		return c.Login(ctx, input.Email, input.Password)
	}
	return result, nil
}

// Logout implements services.AuthBackend; it blacklists the refresh token
func (c *Client) Logout(ctx context.Context) error {
	refresh, ok := c.tokens.Get(ctx, domain.RefreshTokenKey)
	if !ok {
		return nil
	}
	_, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   LogoutPath,
		Body:   map[string]string{"refresh": refresh},
		Header: c.authHeader(ctx),
	})
	return err
}

// GetCurrentUser implements services.AuthBackend
func (c *Client) GetCurrentUser(ctx context.Context) (domain.AuthPayload, error) {
	if _, ok := c.tokens.Get(ctx, domain.AccessTokenKey); !ok {
		return nil, domain.ErrNotAuthenticated
	}

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   MePath,
		Header: c.authHeader(ctx),
	})
	if err != nil {
		return nil, err
	}
	body, err := resp.Object()
	if err != nil {
		return nil, err
	}
	if inner, ok := body["data"].(map[string]any); ok {
		body = inner
	}
	return services.DecodeAuthPayload(body), nil
}

// RefreshAccessToken implements services.AuthBackend
func (c *Client) RefreshAccessToken(ctx context.Context) (domain.TokenPair, error) {
	refresh, ok := c.tokens.Get(ctx, domain.RefreshTokenKey)
	if !ok {
		return domain.TokenPair{}, domain.ErrNotAuthenticated
	}

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   RefreshPath,
		Body:   map[string]string{"refresh": refresh},
	})
	if err != nil {
		return domain.TokenPair{}, err
	}
	body, err := resp.Object()
	if err != nil {
		return domain.TokenPair{}, err
	}
	return tokensFrom(body), nil
}

// IsAuthenticated implements services.AuthBackend
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	_, ok := c.tokens.Get(ctx, domain.AccessTokenKey)
	return ok
}

// List implements services.DataBackend
func (c *Client) List(ctx context.Context, resource domain.Resource, opts domain.ListOptions) (any, error) {
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		query.Set("page_size", strconv.Itoa(opts.Limit))
	}
	if opts.OrderBy != "" {
		query.Set("ordering", opts.OrderBy)
	}
	for k, v := range opts.Filters {
		query.Set(k, v)
	}
	return c.data(ctx, http.MethodGet, collectionPath(resource), query, nil)
}

// Get implements services.DataBackend
func (c *Client) Get(ctx context.Context, resource domain.Resource, id string) (any, error) {
	return c.data(ctx, http.MethodGet, documentPath(resource, id), nil, nil)
}

// Create implements services.DataBackend
func (c *Client) Create(ctx context.Context, resource domain.Resource, doc domain.Document) (any, error) {
	return c.data(ctx, http.MethodPost, collectionPath(resource), nil, doc)
}

// Update implements services.DataBackend
func (c *Client) Update(ctx context.Context, resource domain.Resource, id string, doc domain.Document) (any, error) {
	return c.data(ctx, http.MethodPatch, documentPath(resource, id), nil, doc)
}

// Delete implements services.DataBackend
func (c *Client) Delete(ctx context.Context, resource domain.Resource, id string) error {
	_, err := c.data(ctx, http.MethodDelete, documentPath(resource, id), nil, nil)
	return err
}

// GetProfile implements services.DataBackend; the profile is scoped by the token
func (c *Client) GetProfile(ctx context.Context, _ string) (any, error) {
	return c.data(ctx, http.MethodGet, ProfilePath, nil, nil)
}

// UpdateProfile implements services.DataBackend
func (c *Client) UpdateProfile(ctx context.Context, _ string, doc domain.Document) (any, error) {
	return c.data(ctx, http.MethodPatch, ProfilePath, nil, doc)
}

// data performs an authenticated data request and reports auth failures
func (c *Client) data(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	req := apiclient.Request{Method: method, Path: path, Query: query, Header: c.authHeader(ctx)}
	if body != nil {
		req.Body = body
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		if domain.IsAuthError(err) && c.onAuthFailure != nil {
			c.onAuthFailure(ctx, err.Error())
		}
		return nil, err
	}
	return resp.Decode()
}

func (c *Client) authHeader(ctx context.Context) http.Header {
	header := http.Header{}
	if access, ok := c.tokens.Get(ctx, domain.AccessTokenKey); ok {
		header.Set("Authorization", "Bearer "+access)
	}
	return header
}

func collectionPath(resource domain.Resource) string {
	return "/api/" + string(resource) + "/"
}

func documentPath(resource domain.Resource, id string) string {
	return collectionPath(resource) + url.PathEscape(id) + "/"
}

// rejected turns a 4xx from an auth endpoint into an unsuccessful result.
// Transport errors and 5xx stay errors.
func rejected(err error) (*domain.LoginResult, error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return &domain.LoginResult{Success: false, Message: apiErr.Message}, nil
	}
	return nil, err
}

func authResult(body map[string]any) *domain.LoginResult {
	result := &domain.LoginResult{
		Success: true,
		Tokens:  tokensFrom(body),
	}
	if success, ok := body["success"].(bool); ok {
		result.Success = success
	}
	if !result.Success {
		result.Message = firstString(body, "error", "message", "detail")
		return result
	}
	result.Payload = services.DecodeAuthPayload(body)
	return result
}

// tokensFrom reads access/refresh tokens at the top level or under "tokens"
func tokensFrom(body map[string]any) domain.TokenPair {
	pair := domain.TokenPair{
		AccessToken:  firstString(body, "access", "access_token"),
		RefreshToken: firstString(body, "refresh", "refresh_token"),
	}
	if nested, ok := body["tokens"].(map[string]any); ok {
		if pair.AccessToken == "" {
			pair.AccessToken = firstString(nested, "access", "access_token")
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = firstString(nested, "refresh", "refresh_token")
		}
	}
	return pair
}

func firstString(body map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := body[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
