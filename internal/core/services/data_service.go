package services

import (
	"context"
	"fmt"

	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/metrics"
	"healthmate/internal/pkg/response"

	"go.uber.org/zap"
)

// OwnerField links a document to the user that owns it
const OwnerField = "user_id"

// DataService is the CRUD facade over the configured backend. Failures are
// logged and returned; it never retries. Auth failures are reported by the
// backend client itself through its AuthFailureFunc.
type DataService struct {
	backend DataBackend
	logger  *zap.Logger
	metrics *metrics.SessionMetrics
	owner   func() string
}

// DataOption configures a DataService
type DataOption func(*DataService)

// WithOwner scopes owner-scoped resources to the id returned by owner:
// lists are filtered by it and new documents carry it.
func WithOwner(owner func() string) DataOption {
	return func(s *DataService) { s.owner = owner }
}

// WithDataMetrics records failed requests
func WithDataMetrics(m *metrics.SessionMetrics) DataOption {
	return func(s *DataService) { s.metrics = m }
}

// NewDataService creates a new data service
func NewDataService(backend DataBackend, logger *zap.Logger, opts ...DataOption) *DataService {
	s := &DataService{backend: backend, logger: logger.Named("data")}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns a page of documents
func (s *DataService) List(ctx context.Context, resource domain.Resource, opts domain.ListOptions) (domain.DocumentList, error) {
	if err := checkCollection(resource); err != nil {
		return domain.DocumentList{}, err
	}

	opts = s.scopeList(resource, opts)
	payload, err := s.backend.List(ctx, resource, opts)
	if err != nil {
		return domain.DocumentList{}, s.fail(resource, "list", err)
	}
	list, err := response.UnwrapList(payload)
	if err != nil {
		return domain.DocumentList{}, s.fail(resource, "list", err)
	}
	return list, nil
}

// Get returns one document
func (s *DataService) Get(ctx context.Context, resource domain.Resource, id string) (domain.Document, error) {
	if err := checkCollection(resource); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing %s id", domain.ErrInvalidInput, resource)
	}

	payload, err := s.backend.Get(ctx, resource, id)
	if err != nil {
		return nil, s.fail(resource, "get", err, zap.String("id", id))
	}
	return s.unwrapDocument(resource, "get", payload)
}

// Create stores a new document
func (s *DataService) Create(ctx context.Context, resource domain.Resource, doc domain.Document) (domain.Document, error) {
	if err := checkWritable(resource); err != nil {
		return nil, err
	}

	doc = s.scopeDocument(resource, doc)
	payload, err := s.backend.Create(ctx, resource, doc)
	if err != nil {
		return nil, s.fail(resource, "create", err)
	}
	return s.unwrapDocument(resource, "create", payload)
}

// Update applies a partial update
func (s *DataService) Update(ctx context.Context, resource domain.Resource, id string, doc domain.Document) (domain.Document, error) {
	if err := checkWritable(resource); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: missing %s id", domain.ErrInvalidInput, resource)
	}

	payload, err := s.backend.Update(ctx, resource, id, doc)
	if err != nil {
		return nil, s.fail(resource, "update", err, zap.String("id", id))
	}
	return s.unwrapDocument(resource, "update", payload)
}

// Delete removes a document
func (s *DataService) Delete(ctx context.Context, resource domain.Resource, id string) error {
	if err := checkWritable(resource); err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("%w: missing %s id", domain.ErrInvalidInput, resource)
	}

	if err := s.backend.Delete(ctx, resource, id); err != nil {
		return s.fail(resource, "delete", err, zap.String("id", id))
	}
	return nil
}

// GetProfile returns the signed in user's profile document
func (s *DataService) GetProfile(ctx context.Context) (domain.Document, error) {
	payload, err := s.backend.GetProfile(ctx, s.ownerID())
	if err != nil {
		return nil, s.fail(domain.ResourceProfile, "get", err)
	}
	return s.unwrapDocument(domain.ResourceProfile, "get", payload)
}

// UpdateProfile applies a partial update to the signed in user's profile
func (s *DataService) UpdateProfile(ctx context.Context, doc domain.Document) (domain.Document, error) {
	payload, err := s.backend.UpdateProfile(ctx, s.ownerID(), doc)
	if err != nil {
		return nil, s.fail(domain.ResourceProfile, "update", err)
	}
	return s.unwrapDocument(domain.ResourceProfile, "update", payload)
}

func (s *DataService) unwrapDocument(resource domain.Resource, operation string, payload any) (domain.Document, error) {
	doc, err := response.UnwrapDocument(payload)
	if err != nil {
		return nil, s.fail(resource, operation, err)
	}
	return doc, nil
}

func (s *DataService) fail(resource domain.Resource, operation string, err error, fields ...zap.Field) error {
	s.logger.Error("data request failed", append(fields,
		zap.String("resource", string(resource)),
		zap.String("operation", operation),
		zap.Error(err),
	)...)
	s.metrics.DataError(string(resource), operation)
	return fmt.Errorf("%s %s: %w", operation, resource, err)
}

func (s *DataService) ownerID() string {
	if s.owner == nil {
		return ""
	}
	return s.owner()
}

// scopeList pins the owner filter to the signed in user; a caller supplied
// user_id never widens the query.
func (s *DataService) scopeList(resource domain.Resource, opts domain.ListOptions) domain.ListOptions {
	owner := s.ownerID()
	if !resource.OwnerScoped() || owner == "" {
		return opts
	}

	filters := make(map[string]string, len(opts.Filters)+1)
	for k, v := range opts.Filters {
		filters[k] = v
	}
	filters[OwnerField] = owner
	opts.Filters = filters
	return opts
}

func (s *DataService) scopeDocument(resource domain.Resource, doc domain.Document) domain.Document {
	owner := s.ownerID()
	if !resource.OwnerScoped() || owner == "" {
		return doc
	}

	scoped := make(domain.Document, len(doc)+1)
	for k, v := range doc {
		scoped[k] = v
	}
	scoped[OwnerField] = owner
	return scoped
}

// checkCollection rejects the profile, which is a singleton per user
func checkCollection(resource domain.Resource) error {
	if _, err := domain.ParseResource(string(resource)); err != nil {
		return err
	}
	if resource == domain.ResourceProfile {
		return fmt.Errorf("%w: %s is accessed through GetProfile and UpdateProfile", domain.ErrInvalidInput, resource)
	}
	return nil
}

func checkWritable(resource domain.Resource) error {
	if err := checkCollection(resource); err != nil {
		return err
	}
	if resource == domain.ResourceHealthTips {
		return fmt.Errorf("%w: %s is read-only", domain.ErrInvalidInput, resource)
	}
	return nil
}
