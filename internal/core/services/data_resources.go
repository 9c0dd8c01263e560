package services

import (
	"context"

	"healthmate/internal/core/domain"
)

// Health metrics

func (s *DataService) ListHealthMetrics(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceHealthMetrics, opts)
}

func (s *DataService) GetHealthMetric(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceHealthMetrics, id)
}

func (s *DataService) CreateHealthMetric(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceHealthMetrics, doc)
}

func (s *DataService) UpdateHealthMetric(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceHealthMetrics, id, doc)
}

func (s *DataService) DeleteHealthMetric(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceHealthMetrics, id)
}

// Appointments

func (s *DataService) ListAppointments(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceAppointments, opts)
}

func (s *DataService) GetAppointment(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceAppointments, id)
}

func (s *DataService) CreateAppointment(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceAppointments, doc)
}

func (s *DataService) UpdateAppointment(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceAppointments, id, doc)
}

func (s *DataService) DeleteAppointment(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceAppointments, id)
}

// Medications

func (s *DataService) ListMedications(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceMedications, opts)
}

func (s *DataService) GetMedication(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceMedications, id)
}

func (s *DataService) CreateMedication(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceMedications, doc)
}

func (s *DataService) UpdateMedication(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceMedications, id, doc)
}

func (s *DataService) DeleteMedication(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceMedications, id)
}

// Notifications

func (s *DataService) ListNotifications(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceNotifications, opts)
}

func (s *DataService) GetNotification(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceNotifications, id)
}

func (s *DataService) CreateNotification(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceNotifications, doc)
}

func (s *DataService) UpdateNotification(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceNotifications, id, doc)
}

// MarkNotificationRead sets the read flag on a notification
func (s *DataService) MarkNotificationRead(ctx context.Context, id string) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceNotifications, id, domain.Document{"is_read": true})
}

func (s *DataService) DeleteNotification(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceNotifications, id)
}

// Caretakers

func (s *DataService) ListCaretakers(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceCaretakers, opts)
}

func (s *DataService) GetCaretaker(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceCaretakers, id)
}

func (s *DataService) CreateCaretaker(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceCaretakers, doc)
}

func (s *DataService) UpdateCaretaker(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceCaretakers, id, doc)
}

func (s *DataService) DeleteCaretaker(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceCaretakers, id)
}

// Health tips are published content and read-only

func (s *DataService) ListHealthTips(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceHealthTips, opts)
}

func (s *DataService) GetHealthTip(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceHealthTips, id)
}

// Documents

func (s *DataService) ListDocuments(ctx context.Context, opts domain.ListOptions) (domain.DocumentList, error) {
	return s.List(ctx, domain.ResourceDocuments, opts)
}

func (s *DataService) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	return s.Get(ctx, domain.ResourceDocuments, id)
}

func (s *DataService) CreateDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	return s.Create(ctx, domain.ResourceDocuments, doc)
}

func (s *DataService) UpdateDocument(ctx context.Context, id string, doc domain.Document) (domain.Document, error) {
	return s.Update(ctx, domain.ResourceDocuments, id, doc)
}

func (s *DataService) DeleteDocument(ctx context.Context, id string) error {
	return s.Delete(ctx, domain.ResourceDocuments, id)
}
