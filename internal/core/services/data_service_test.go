package services

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDataService(backend *MockBackend, owner string) *DataService {
	return NewDataService(backend, zap.NewNop(), WithOwner(func() string { return owner }))
}

func TestDataService_ListUnwrapsPaginatedResults(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")

	backend.On("List", mock.Anything, domain.ResourceHealthMetrics, mock.MatchedBy(func(opts domain.ListOptions) bool {
		return opts.Filters[OwnerField] == "u1" && opts.Filters["metric_type"] == "weight"
	})).Return(map[string]any{
		"count":   float64(12),
		"results": []any{map[string]any{"id": float64(1), "value": "70"}},
	}, nil)

	list, err := svc.ListHealthMetrics(context.Background(), domain.ListOptions{Page: 1, Limit: 1, Filters: map[string]string{"metric_type": "weight"}})
	require.NoError(t, err)
	assert.Equal(t, 12, list.Total)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "1", list.Documents[0].ID())
}

func TestDataService_ListBareArray(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "")

	backend.On("List", mock.Anything, domain.ResourceHealthTips, mock.MatchedBy(func(opts domain.ListOptions) bool {
		_, scoped := opts.Filters[OwnerField]
		return !scoped
	})).Return([]any{map[string]any{"$id": "t1"}, map[string]any{"$id": "t2"}}, nil)

	list, err := svc.ListHealthTips(context.Background(), domain.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "t2", list.Documents[1].ID())
}

func TestDataService_HealthTipsAreNotOwnerScoped(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")

	backend.On("List", mock.Anything, domain.ResourceHealthTips, mock.MatchedBy(func(opts domain.ListOptions) bool {
		_, scoped := opts.Filters[OwnerField]
		return !scoped
	})).Return(map[string]any{"documents": []any{}, "total": float64(0)}, nil)

	_, err := svc.ListHealthTips(context.Background(), domain.ListOptions{})
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestDataService_CreateStampsOwner(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	input := domain.Document{"name": "Metformin", "dosage": "500mg"}

	backend.On("Create", mock.Anything, domain.ResourceMedications, domain.Document{
		"name": "Metformin", "dosage": "500mg", OwnerField: "u1",
	}).Return(map[string]any{"success": true, "data": map[string]any{"id": "m1", "name": "Metformin"}}, nil)

	doc, err := svc.CreateMedication(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "m1", doc.ID())
	_, mutated := input[OwnerField]
	assert.False(t, mutated, "caller's document must not be modified")
}

func TestDataService_CallerCannotOverrideOwner(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	ctx := context.Background()

	backend.On("List", mock.Anything, domain.ResourceMedications, mock.MatchedBy(func(opts domain.ListOptions) bool {
		return opts.Filters[OwnerField] == "u1" && opts.Filters["status"] == "active"
	})).Return([]any{}, nil)
	backend.On("Create", mock.Anything, domain.ResourceAppointments, domain.Document{
		"title": "Checkup", OwnerField: "u1",
	}).Return(map[string]any{"id": "a1"}, nil)

	_, err := svc.List(ctx, domain.ResourceMedications, domain.ListOptions{Filters: map[string]string{OwnerField: "u2", "status": "active"}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.ResourceAppointments, domain.Document{"title": "Checkup", OwnerField: "u2"})
	require.NoError(t, err)
	backend.AssertExpectations(t)
}

func TestDataService_ReadOnlyAndSingletonResources(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.ResourceHealthTips, domain.Document{"title": "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Delete(ctx, domain.ResourceHealthTips, "t1"), domain.ErrInvalidInput)

	_, err = svc.List(ctx, domain.ResourceProfile, domain.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Get(ctx, domain.Resource("pets"), "1")
	assert.ErrorIs(t, err, domain.ErrUnknownResource)

	_, err = svc.GetAppointment(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	backend.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDataService_ErrorsAreWrappedAndNotRetried(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	apiErr := &domain.APIError{StatusCode: http.StatusUnauthorized, Message: "token not valid"}

	backend.On("Get", mock.Anything, domain.ResourceAppointments, "a1").Return(nil, apiErr)

	_, err := svc.GetAppointment(context.Background(), "a1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.True(t, domain.IsAuthError(err))
	backend.AssertNumberOfCalls(t, "Get", 1)
}

func TestDataService_Profile(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	ctx := context.Background()

	backend.On("GetProfile", mock.Anything, "u1").Return(map[string]any{"user_id": "u1", "blood_type": "A-"}, nil)
	backend.On("UpdateProfile", mock.Anything, "u1", domain.Document{"height": float64(180)}).Return(map[string]any{"user_id": "u1", "height": float64(180)}, nil)

	profile, err := svc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A-", profile["blood_type"])

	updated, err := svc.UpdateProfile(ctx, domain.Document{"height": float64(180)})
	require.NoError(t, err)
	assert.Equal(t, float64(180), updated["height"])
}

func TestDataService_UnexpectedPayload(t *testing.T) {
	backend := &MockBackend{}
	svc := newDataService(backend, "u1")
	backend.On("Update", mock.Anything, domain.ResourceNotifications, "n1", domain.Document{"is_read": true}).Return("ok", nil)

	_, err := svc.MarkNotificationRead(context.Background(), "n1")
	assert.ErrorIs(t, err, domain.ErrUnexpectedPayload)

	backend.On("Delete", mock.Anything, domain.ResourceDocuments, "d1").Return(errors.New("boom"))
	assert.EqualError(t, svc.DeleteDocument(context.Background(), "d1"), "delete documents: boom")
}
