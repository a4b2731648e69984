// Package notify is the user's notification inbox: an append-only log of
// reminder records with a cached unread counter and change events for
// observers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/nhle/volunteer-board/internal/logging"
	"github.com/nhle/volunteer-board/internal/model"
	"github.com/nhle/volunteer-board/internal/store"
)

// Topic is the pub/sub topic inbox changes are published on.
const Topic = "notifications"

// EventType describes which mutation produced an Event.
type EventType string

// Event types.
const (
	EventAdded   EventType = "added"
	EventRead    EventType = "read"
	EventReadAll EventType = "read_all"
	EventDeleted EventType = "deleted"
	EventCleared EventType = "cleared"
)

// Event is published to observers after every inbox mutation.
type Event struct {
	Type           EventType `json:"type"`
	NotificationID string    `json:"notification_id,omitempty"`
	Unread         int       `json:"unread"`
}

// Filter selects notifications by kind and read state.
type Filter = store.NotificationFilter

// NewNotification is the input to Add.
type NewNotification struct {
	Kind         model.NotificationKind
	Title        string
	Body         string
	EnrollmentID string
	NavTarget    string

	// At is the creation time; zero means the service clock.
	At time.Time
}

// notificationStore is the persistence the service needs.
type notificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) error
	GetNotifications(ctx context.Context, filter store.NotificationFilter) ([]model.Notification, error)
	CountUnreadNotifications(ctx context.Context) (int, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
	DeleteNotification(ctx context.Context, id string) error
	ClearNotifications(ctx context.Context) (int64, error)
}

// Service owns the notification log.
type Service struct {
	store  notificationStore
	pubsub *gochannel.GoChannel
	logger *slog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	unread int
}

// NewService creates a Service and primes the unread counter from the store.
func NewService(ctx context.Context, s notificationStore, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	svc := &Service{
		store: s,
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			logging.NewWatermillAdapter(logger),
		),
		logger: logger.With("component", "notify"),
		now:    time.Now,
	}

	if err := svc.refreshUnread(ctx); err != nil {
		svc.pubsub.Close()
		return nil, err
	}
	return svc, nil
}

// Close stops delivering events to subscribers.
func (s *Service) Close() error {
	return s.pubsub.Close()
}

// Add appends a record with a fresh id and read=false.
func (s *Service) Add(ctx context.Context, in NewNotification) (model.Notification, error) {
	if in.Kind == "" || in.Title == "" {
		return model.Notification{}, fmt.Errorf("adding notification: kind and title must not be empty")
	}
	at := in.At
	if at.IsZero() {
		at = s.now()
	}

	n := model.Notification{
		ID:           uuid.New().String(),
		Kind:         in.Kind,
		Title:        in.Title,
		Body:         in.Body,
		EnrollmentID: in.EnrollmentID,
		NavTarget:    in.NavTarget,
		CreatedAt:    at,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return model.Notification{}, err
	}

	s.changed(ctx, EventAdded, n.ID)
	return n, nil
}

// List returns records matching filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]model.Notification, error) {
	return s.store.GetNotifications(ctx, filter)
}

// MarkRead flips one record to read. Unknown ids are NotFound.
func (s *Service) MarkRead(ctx context.Context, id string) error {
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, EventRead, id)
	return nil
}

// MarkAllRead flips every unread record to read.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if _, err := s.store.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	s.changed(ctx, EventReadAll, "")
	return nil
}

// Delete removes one record. Unknown ids are NotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteNotification(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, EventDeleted, id)
	return nil
}

// Clear removes every record.
func (s *Service) Clear(ctx context.Context) error {
	if _, err := s.store.ClearNotifications(ctx); err != nil {
		return err
	}
	s.changed(ctx, EventCleared, "")
	return nil
}

// UnreadCount returns the cached number of unread records.
func (s *Service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// Subscribe returns a channel of inbox events. Delivery order across
// events is not guaranteed. The channel is closed when ctx is done or the
// service is closed.
func (s *Service) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := s.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", Topic, err)
	}

	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				s.logger.Warn("dropping malformed inbox event", "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			default:
				// Never block the publisher on a slow observer.
				s.logger.Debug("inbox observer lagging, event dropped", "type", ev.Type)
			}
		}
	}()
	return out, nil
}

// changed recomputes the unread counter and notifies observers. Failures
// here never undo the mutation that already succeeded.
func (s *Service) changed(ctx context.Context, typ EventType, id string) {
	if err := s.refreshUnread(ctx); err != nil {
		s.logger.Error("refreshing unread count", "error", err)
	}

	payload, err := json.Marshal(Event{Type: typ, NotificationID: id, Unread: s.UnreadCount()})
	if err != nil {
		s.logger.Error("encoding inbox event", "error", err)
		return
	}
	if err := s.pubsub.Publish(Topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		s.logger.Error("publishing inbox event", "type", typ, "error", err)
	}
}

func (s *Service) refreshUnread(ctx context.Context) error {
	count, err := s.store.CountUnreadNotifications(ctx)
	if err != nil {
		return fmt.Errorf("counting unread notifications: %w", err)
	}
	s.mu.Lock()
	s.unread = count
	s.mu.Unlock()
	return nil
}
