// Package baas talks to an Appwrite-compatible backend. Appwrite keeps a
// server-side session; its secret is stored as the refresh token and
// short-lived JWTs minted from it serve as access tokens.
package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"healthmate/internal/core/domain"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/apiclient"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Headers understood by the backend
const (
	HeaderProject = "X-Appwrite-Project"
	HeaderSession = "X-Appwrite-Session"
	HeaderJWT     = "X-Appwrite-JWT"
)

// Account endpoints, relative to the /v1 endpoint
const (
	AccountPath        = "/account"
	EmailSessionPath   = "/account/sessions/email"
	CurrentSessionPath = "/account/sessions/current"
	JWTPath            = "/account/jwts"
)

// Collections that are not DataFacade resources
const (
	CollectionUser        = "user"
	CollectionUserProfile = "user_profile"
	CollectionRole        = "role"
)

// collections maps resources to collection ids
var collections = map[domain.Resource]string{
	domain.ResourceHealthMetrics: "health_metric",
	domain.ResourceAppointments:  "appointment",
	domain.ResourceMedications:   "medication",
	domain.ResourceNotifications: "notification",
	domain.ResourceProfile:       CollectionUserProfile,
	domain.ResourceCaretakers:    "caretaker",
	domain.ResourceHealthTips:    "health_tip",
	domain.ResourceDocuments:     "document",
}

// TokenReader gives read access to the persisted tokens
type TokenReader interface {
	Get(ctx context.Context, key string) (string, bool)
}

// Config addresses one project database
type Config struct {
	Endpoint   string
	ProjectID  string
	DatabaseID string
	Timeout    time.Duration
}

// Client implements services.Backend for the BaaS
type Client struct {
	api           *apiclient.Client
	project       string
	database      string
	tokens        TokenReader
	onAuthFailure services.AuthFailureFunc
	logger        *zap.Logger
}

// NewClient creates a BaaS client. onAuthFailure is called when a data
// request is rejected with 401/403; it may be nil.
func NewClient(cfg Config, tokens TokenReader, onAuthFailure services.AuthFailureFunc, logger *zap.Logger) *Client {
	return &Client{
		api:           apiclient.New(cfg.Endpoint, cfg.Timeout, http.Header{HeaderProject: {cfg.ProjectID}}),
		project:       cfg.ProjectID,
		database:      cfg.DatabaseID,
		tokens:        tokens,
		onAuthFailure: onAuthFailure,
		logger:        logger.Named("baas"),
	}
}

// Name implements services.AuthBackend
func (c *Client) Name() string {
	return "baas"
}

// Login implements services.AuthBackend
func (c *Client) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	secret, jwt, err := c.createSession(ctx, email, password)
	if err != nil {
		return rejected(err)
	}

	payload, err := c.currentUser(ctx, jwt)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{
		Success: true,
		Payload: payload,
		Tokens:  domain.TokenPair{AccessToken: jwt, RefreshToken: secret},
	}, nil
}

// Register implements services.AuthBackend: it creates the account, signs
// in, then creates the user and user_profile documents.
func (c *Client) Register(ctx context.Context, input domain.RegisterInput) (*domain.LoginResult, error) {
	userID := uuid.New().String()
	name := strings.TrimSpace(input.FirstName + " " + input.LastName)
	if name == "" {
		name = input.Username
	}

	_, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   AccountPath,
		Body: map[string]string{
			"userId":   userID,
			"email":    input.Email,
			"password": input.Password,
			"name":     name,
		},
	})
	if err != nil {
		return rejected(err)
	}

	secret, jwt, err := c.createSession(ctx, input.Email, input.Password)
	if err != nil {
		return rejected(err)
	}

	header := http.Header{HeaderJWT: {jwt}}
	userDoc := map[string]any{
		"user_id":    userID,
		"email":      input.Email,
		"username":   input.Username,
		"first_name": input.FirstName,
		"last_name":  input.LastName,
		"phone":      input.Phone,
	}
	if _, err := c.createDocument(ctx, CollectionUser, userDoc, header); err != nil {
		return nil, fmt.Errorf("failed to create user document: %w", err)
	}
	if _, err := c.createDocument(ctx, CollectionUserProfile, map[string]any{"user_id": userID}, header); err != nil {
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	payload, err := c.currentUser(ctx, jwt)
	if err != nil {
		return nil, err
	}
	return &domain.LoginResult{
		Success: true,
		Payload: payload,
		Tokens:  domain.TokenPair{AccessToken: jwt, RefreshToken: secret},
	}, nil
}

// Logout implements services.AuthBackend; it deletes the server-side session
func (c *Client) Logout(ctx context.Context) error {
	header := c.sessionHeader(ctx)
	if header == nil {
		return nil
	}
	_, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodDelete,
		Path:   CurrentSessionPath,
		Header: header,
	})
	return err
}

// GetCurrentUser implements services.AuthBackend
func (c *Client) GetCurrentUser(ctx context.Context) (domain.AuthPayload, error) {
	jwt, ok := c.tokens.Get(ctx, domain.AccessTokenKey)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return c.currentUser(ctx, jwt)
}

// RefreshAccessToken implements services.AuthBackend by minting a new JWT
// from the stored session secret.
func (c *Client) RefreshAccessToken(ctx context.Context) (domain.TokenPair, error) {
	secret, ok := c.tokens.Get(ctx, domain.RefreshTokenKey)
	if !ok {
		return domain.TokenPair{}, domain.ErrNotAuthenticated
	}
	jwt, err := c.mintJWT(ctx, secret)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{AccessToken: jwt}, nil
}

// IsAuthenticated implements services.AuthBackend: a stored session secret
// means a server-side session may still exist.
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	_, ok := c.tokens.Get(ctx, domain.RefreshTokenKey)
	return ok
}

func (c *Client) createSession(ctx context.Context, email, password string) (secret, jwt string, err error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   EmailSessionPath,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return "", "", err
	}
	body, err := resp.Object()
	if err != nil {
		return "", "", err
	}

	secret, _ = body["secret"].(string)
	if secret == "" {
		secret = resp.Cookie("a_session_" + c.project)
	}
	if secret == "" {
		return "", "", fmt.Errorf("%w: session response carries no secret", domain.ErrUnexpectedPayload)
	}

	jwt, err = c.mintJWT(ctx, secret)
	if err != nil {
		return "", "", err
	}
	return secret, jwt, nil
}

func (c *Client) mintJWT(ctx context.Context, secret string) (string, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   JWTPath,
		Header: http.Header{HeaderSession: {secret}},
	})
	if err != nil {
		return "", err
	}
	body, err := resp.Object()
	if err != nil {
		return "", err
	}
	jwt, _ := body["jwt"].(string)
	if jwt == "" {
		return "", fmt.Errorf("%w: jwt response carries no token", domain.ErrUnexpectedPayload)
	}
	return jwt, nil
}

// currentUser assembles account, user document, profile and role
func (c *Client) currentUser(ctx context.Context, jwt string) (domain.AuthPayload, error) {
	header := http.Header{HeaderJWT: {jwt}}

	resp, err := c.api.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: AccountPath, Header: header})
	if err != nil {
		return nil, err
	}
	account, err := resp.Object()
	if err != nil {
		return nil, err
	}

	userID, _ := account["$id"].(string)
	authUser := map[string]any{
		"id":    userID,
		"email": account["email"],
		"name":  account["name"],
		"phone": account["phone"],
	}

	if userDoc, err := c.findByUser(ctx, CollectionUser, userID, header); err != nil {
		c.logger.Warn("failed to load user document", zap.String("user_id", userID), zap.Error(err))
	} else {
		for _, key := range []string{"username", "first_name", "last_name", "phone"} {
			if v, ok := userDoc[key].(string); ok && v != "" {
				authUser[key] = v
			}
		}
	}

	profile, err := c.findByUser(ctx, CollectionUserProfile, userID, header)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			c.logger.Warn("failed to load user profile", zap.String("user_id", userID), zap.Error(err))
		}
		profile = map[string]any{}
	}

	return domain.NormalizedAuthPayload{
		AuthUser:    authUser,
		UserProfile: profile,
		Role:        c.role(ctx, profile, header),
	}, nil
}

// role loads the role document referenced by the profile. A missing or
// unreadable role yields nil, which normalizes to the default role.
func (c *Client) role(ctx context.Context, profile map[string]any, header http.Header) map[string]any {
	roleID, _ := profile["role_id"].(string)
	if roleID == "" {
		return nil
	}

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   c.documentPath(CollectionRole, roleID),
		Header: header,
	})
	if err != nil {
		c.logger.Warn("failed to load role", zap.String("role_id", roleID), zap.Error(err))
		return nil
	}
	role, err := resp.Object()
	if err != nil {
		return nil
	}
	return role
}

// findByUser returns the first document of collection owned by userID
func (c *Client) findByUser(ctx context.Context, collection, userID string, header http.Header) (map[string]any, error) {
	query := url.Values{}
	query.Add("queries[]", equalQuery(services.OwnerField, userID))
	query.Add("queries[]", limitQuery(1))

	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   c.collectionPath(collection),
		Query:  query,
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	body, err := resp.Object()
	if err != nil {
		return nil, err
	}
	docs, _ := body["documents"].([]any)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%s for user %s: %w", collection, userID, domain.ErrNotFound)
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s document is %T", domain.ErrUnexpectedPayload, collection, docs[0])
	}
	return doc, nil
}

func (c *Client) createDocument(ctx context.Context, collection string, data map[string]any, header http.Header) (any, error) {
	resp, err := c.api.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   c.collectionPath(collection),
		Body:   map[string]any{"documentId": uuid.New().String(), "data": data},
		Header: header,
	})
	if err != nil {
		return nil, err
	}
	return resp.Decode()
}

// List implements services.DataBackend
func (c *Client) List(ctx context.Context, resource domain.Resource, opts domain.ListOptions) (any, error) {
	collection, err := collectionOf(resource)
	if err != nil {
		return nil, err
	}
	return c.data(ctx, http.MethodGet, c.collectionPath(collection), listQuery(opts), nil)
}

// Get implements services.DataBackend
func (c *Client) Get(ctx context.Context, resource domain.Resource, id string) (any, error) {
	collection, err := collectionOf(resource)
	if err != nil {
		return nil, err
	}
	return c.data(ctx, http.MethodGet, c.documentPath(collection, id), nil, nil)
}

// Create implements services.DataBackend
func (c *Client) Create(ctx context.Context, resource domain.Resource, doc domain.Document) (any, error) {
	collection, err := collectionOf(resource)
	if err != nil {
		return nil, err
	}
	return c.data(ctx, http.MethodPost, c.collectionPath(collection), nil, map[string]any{
		"documentId": uuid.New().String(),
		"data":       writable(doc),
	})
}

// Update implements services.DataBackend
func (c *Client) Update(ctx context.Context, resource domain.Resource, id string, doc domain.Document) (any, error) {
	collection, err := collectionOf(resource)
	if err != nil {
		return nil, err
	}
	return c.data(ctx, http.MethodPatch, c.documentPath(collection, id), nil, map[string]any{"data": writable(doc)})
}

// Delete implements services.DataBackend
func (c *Client) Delete(ctx context.Context, resource domain.Resource, id string) error {
	collection, err := collectionOf(resource)
	if err != nil {
		return err
	}
	_, err = c.data(ctx, http.MethodDelete, c.documentPath(collection, id), nil, nil)
	return err
}

// GetProfile implements services.DataBackend
func (c *Client) GetProfile(ctx context.Context, userID string) (any, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	profile, err := c.findByUser(ctx, CollectionUserProfile, userID, c.jwtHeader(ctx))
	if err != nil {
		c.reportAuthFailure(ctx, err)
		return nil, err
	}
	return profile, nil
}

// UpdateProfile implements services.DataBackend
func (c *Client) UpdateProfile(ctx context.Context, userID string, doc domain.Document) (any, error) {
	if userID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	profile, err := c.findByUser(ctx, CollectionUserProfile, userID, c.jwtHeader(ctx))
	if err != nil {
		c.reportAuthFailure(ctx, err)
		return nil, err
	}
	id := domain.Document(profile).ID()
	return c.data(ctx, http.MethodPatch, c.documentPath(CollectionUserProfile, id), nil, map[string]any{"data": writable(doc)})
}

// data performs an authenticated data request and reports auth failures
func (c *Client) data(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	req := apiclient.Request{Method: method, Path: path, Query: query, Header: c.jwtHeader(ctx)}
	if body != nil {
		req.Body = body
	}

	resp, err := c.api.Do(ctx, req)
	if err != nil {
		c.reportAuthFailure(ctx, err)
		return nil, err
	}
	return resp.Decode()
}

func (c *Client) reportAuthFailure(ctx context.Context, err error) {
	if domain.IsAuthError(err) && c.onAuthFailure != nil {
		c.onAuthFailure(ctx, err.Error())
	}
}

func (c *Client) jwtHeader(ctx context.Context) http.Header {
	header := http.Header{}
	if jwt, ok := c.tokens.Get(ctx, domain.AccessTokenKey); ok {
		header.Set(HeaderJWT, jwt)
	}
	return header
}

// sessionHeader authenticates with the session secret, falling back to the JWT
func (c *Client) sessionHeader(ctx context.Context) http.Header {
	if secret, ok := c.tokens.Get(ctx, domain.RefreshTokenKey); ok {
		return http.Header{HeaderSession: {secret}}
	}
	if jwt, ok := c.tokens.Get(ctx, domain.AccessTokenKey); ok {
		return http.Header{HeaderJWT: {jwt}}
	}
	return nil
}

func (c *Client) collectionPath(collection string) string {
	return "/databases/" + url.PathEscape(c.database) + "/collections/" + url.PathEscape(collection) + "/documents"
}

func (c *Client) documentPath(collection, id string) string {
	return c.collectionPath(collection) + "/" + url.PathEscape(id)
}

func collectionOf(resource domain.Resource) (string, error) {
	collection, ok := collections[resource]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownResource, resource)
	}
	return collection, nil
}

// listQuery renders list options as JSON encoded queries
func listQuery(opts domain.ListOptions) url.Values {
	query := url.Values{}
	for attribute, value := range opts.Filters {
		query.Add("queries[]", equalQuery(attribute, value))
	}
	if opts.OrderBy != "" {
		method, attribute := "orderAsc", opts.OrderBy
		if strings.HasPrefix(attribute, "-") {
			method, attribute = "orderDesc", attribute[1:]
		}
		query.Add("queries[]", encodeQuery(map[string]any{"method": method, "attribute": attribute}))
	}
	if opts.Limit > 0 {
		query.Add("queries[]", limitQuery(opts.Limit))
	}
	if offset := opts.Offset(); offset > 0 {
		query.Add("queries[]", encodeQuery(map[string]any{"method": "offset", "values": []int{offset}}))
	}
	return query
}

func equalQuery(attribute, value string) string {
	return encodeQuery(map[string]any{"method": "equal", "attribute": attribute, "values": []any{typedValue(value)}})
}

func limitQuery(limit int) string {
	return encodeQuery(map[string]any{"method": "limit", "values": []int{limit}})
}

func encodeQuery(q map[string]any) string {
	b, _ := json.Marshal(q)
	return string(b)
}

// typedValue keeps booleans typed so they match boolean attributes
func typedValue(value string) any {
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	return value
}

// writable drops system attributes the backend refuses on write
func writable(doc domain.Document) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if strings.HasPrefix(k, "$") {
			continue
		}
		out[k] = v
	}
	return out
}

// rejected turns a 4xx from an account endpoint into an unsuccessful result
func rejected(err error) (*domain.LoginResult, error) {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return &domain.LoginResult{Success: false, Message: apiErr.Message}, nil
	}
	return nil, err
}
