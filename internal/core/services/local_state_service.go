package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"healthmate/internal/adapters/persistence/repositories"
	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LocalStateService keeps device-local preferences: theme, reminders and
// assistant chat history.
type LocalStateService struct {
	repo   repositories.KeyValueRepository
	logger *zap.Logger
	now    func() time.Time

	// mu serialises read-modify-write of the stored lists
	mu sync.Mutex
}

// NewLocalStateService creates a new local state service
func NewLocalStateService(repo repositories.KeyValueRepository, logger *zap.Logger) *LocalStateService {
	return &LocalStateService{repo: repo, logger: logger.Named("local_state"), now: time.Now}
}

// IsDarkMode returns the stored theme preference; unset means light
func (s *LocalStateService) IsDarkMode(ctx context.Context) (bool, error) {
	raw, err := s.repo.Get(ctx, domain.DarkModeKey)
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	dark, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed theme preference", zap.String("value", raw))
		return false, nil
	}
	return dark, nil
}

// SetDarkMode stores the theme preference
func (s *LocalStateService) SetDarkMode(ctx context.Context, dark bool) error {
	return s.repo.Set(ctx, domain.DarkModeKey, strconv.FormatBool(dark))
}

// Alerts returns the stored reminders
func (s *LocalStateService) Alerts(ctx context.Context) ([]domain.HealthAlert, error) {
	alerts := []domain.HealthAlert{}
	if err := s.load(ctx, domain.HealthAlertsKey, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// SaveAlerts replaces every stored reminder
func (s *LocalStateService) SaveAlerts(ctx context.Context, alerts []domain.HealthAlert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store(ctx, domain.HealthAlertsKey, alerts)
}

// UpsertAlert validates and stores a reminder. An alert without an id is
// new and gets one.
func (s *LocalStateService) UpsertAlert(ctx context.Context, alert domain.HealthAlert) (domain.HealthAlert, error) {
	if err := validation.Alert(alert.Title, alert.Time, alert.Days, alert.MinutesBefore); err != nil {
		return domain.HealthAlert{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.Alerts(ctx)
	if err != nil {
		return domain.HealthAlert{}, err
	}

	if alert.ID == "" {
		alert.ID = uuid.New().String()
		alert.CreatedAt = s.stamp()
		alerts = append(alerts, alert)
	} else {
		found := false
		for i := range alerts {
			if alerts[i].ID == alert.ID {
				alert.CreatedAt = alerts[i].CreatedAt
				alerts[i] = alert
				found = true
				break
			}
		}
		if !found {
			return domain.HealthAlert{}, fmt.Errorf("alert %s: %w", alert.ID, domain.ErrNotFound)
		}
	}

	if err := s.store(ctx, domain.HealthAlertsKey, alerts); err != nil {
		return domain.HealthAlert{}, err
	}
	return alert, nil
}

// DeleteAlert removes a reminder
func (s *LocalStateService) DeleteAlert(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	alerts, err := s.Alerts(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		if alerts[i].ID == id {
			return s.store(ctx, domain.HealthAlertsKey, append(alerts[:i], alerts[i+1:]...))
		}
	}
	return fmt.Errorf("alert %s: %w", id, domain.ErrNotFound)
}

// ChatHistory returns stored conversations, most recent first
func (s *LocalStateService) ChatHistory(ctx context.Context) ([]domain.ChatConversation, error) {
	history := []domain.ChatConversation{}
	if err := s.load(ctx, domain.ChatHistoryKey, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// SaveConversation stores a conversation at the head of the history,
// replacing an earlier copy with the same id. The history is capped at
// ChatHistoryLimit entries; the oldest are dropped.
func (s *LocalStateService) SaveConversation(ctx context.Context, conversation domain.ChatConversation) (domain.ChatConversation, error) {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	if conversation.Title == "" {
		conversation.Title = conversationTitle(conversation.Messages)
	}
	if conversation.Messages == nil {
		conversation.Messages = []domain.ChatMessage{}
	}
	conversation.LastUpdated = s.stamp()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.ChatHistory(ctx)
	if err != nil {
		return domain.ChatConversation{}, err
	}

	next := make([]domain.ChatConversation, 0, len(history)+1)
	next = append(next, conversation)
	for _, c := range history {
		if c.ID != conversation.ID {
			next = append(next, c)
		}
	}
	if len(next) > domain.ChatHistoryLimit {
		next = next[:domain.ChatHistoryLimit]
	}

	if err := s.store(ctx, domain.ChatHistoryKey, next); err != nil {
		return domain.ChatConversation{}, err
	}
	return conversation, nil
}

// DeleteConversation removes one conversation
func (s *LocalStateService) DeleteConversation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.ChatHistory(ctx)
	if err != nil {
		return err
	}
	for i := range history {
		if history[i].ID == id {
			return s.store(ctx, domain.ChatHistoryKey, append(history[:i], history[i+1:]...))
		}
	}
	return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
}

// ClearChatHistory removes every conversation
func (s *LocalStateService) ClearChatHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.Delete(ctx, domain.ChatHistoryKey)
}

// stamp is the current time as it reads back from storage
func (s *LocalStateService) stamp() time.Time {
	return s.now().UTC().Round(0)
}

func conversationTitle(messages []domain.ChatMessage) string {
	for _, m := range messages {
		if m.Role != "user" || m.Content == "" {
			continue
		}
		title := []rune(m.Content)
		if len(title) > 40 {
			return string(title[:40]) + "..."
		}
		return string(title)
	}
	return "New conversation"
}

func (s *LocalStateService) load(ctx context.Context, key string, dst any) error {
	raw, err := s.repo.Get(ctx, key)
	if errors.Is(err, repositories.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		// A corrupt list is reset rather than blocking the feature.
		s.logger.Error("discarding malformed local state", zap.String("key", key), zap.Error(err))
		return nil
	}
	return nil
}

func (s *LocalStateService) store(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := s.repo.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
