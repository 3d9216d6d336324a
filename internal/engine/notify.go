package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arefin-dev/cliply/backend/internal/models"
	"github.com/arefin-dev/cliply/backend/pkg/metrics"
)

// Notifier turns social events into notification records. One triggering
// event produces at most one record per recipient: self-directed events
// are suppressed, "off" toggle transitions produce nothing, and a reply
// fans out to the parent comment's author in addition to the video owner
// when the three parties are distinct.
type Notifier struct {
	notifications NotificationStore
	users         UserStore
	retention     time.Duration
	log           *slog.Logger
}

// NewNotifier creates a Notifier with the given retention window.
func NewNotifier(notifications NotificationStore, users UserStore, retention time.Duration, log *slog.Logger) *Notifier {
	if retention <= 0 {
		retention = models.NotificationRetention
	}
	return &Notifier{notifications: notifications, users: users, retention: retention, log: log}
}

// FanOut creates the notification owed for one event, if any. Errors are
// logged, not returned: notification creation is off the critical path of
// the toggle and the record store guarantees at-least-once visibility
// only for records that were actually written.
func (n *Notifier) FanOut(ctx context.Context, event Event) {
	if event.ActorID == event.TargetOwner {
		return
	}
	kind, message := n.describe(ctx, event)
	if kind == "" {
		return
	}
	n.create(ctx, kind, message, event, event.TargetOwner)
}

// FanOutReply creates the reply notification owed to a parent comment's
// author. Suppressed when the actor is replying to themselves.
func (n *Notifier) FanOutReply(ctx context.Context, event Event, parentAuthor uint) {
	if event.ActorID == parentAuthor {
		return
	}
	actorName := n.actorName(ctx, event.ActorID)
	n.create(ctx, models.NotificationReply, actorName+" replied to your comment", event, parentAuthor)
}

func (n *Notifier) create(ctx context.Context, kind, message string, event Event, recipient uint) {
	now := event.OccurredAt
	record := &models.Notification{
		Kind:        kind,
		SenderID:    event.ActorID,
		RecipientID: recipient,
		VideoID:     event.VideoID,
		CommentID:   event.CommentID,
		Message:     message,
		CreatedAt:   now,
		ExpiresAt:   now.Add(n.retention),
	}
	if err := n.notifications.Create(ctx, record); err != nil {
		n.log.Error("notification create failed",
			slog.String("kind", kind),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()))
		return
	}
	metrics.NotificationsCreated.WithLabelValues(kind).Inc()
}

func (n *Notifier) describe(ctx context.Context, event Event) (kind, message string) {
	actorName := n.actorName(ctx, event.ActorID)
	switch event.Verb {
	case VerbFollow:
		return models.NotificationFollow, actorName + " started following you"
	case VerbLike:
		if event.CommentID != nil {
			return models.NotificationLike, actorName + " liked your comment"
		}
		return models.NotificationLike, actorName + " liked your video"
	case VerbComment:
		return models.NotificationComment, actorName + " commented on your video"
	default:
		// unfollow/unlike/view never notify
		return "", ""
	}
}

func (n *Notifier) actorName(ctx context.Context, actorID uint) string {
	actor, err := n.users.GetByID(ctx, actorID)
	if err != nil || actor == nil {
		return "Someone"
	}
	if actor.DisplayName != "" {
		return actor.DisplayName
	}
	return actor.Username
}

// List returns a page of a recipient's notifications, newest first.
func (n *Notifier) List(ctx context.Context, recipientID uint, page, pageSize int) ([]models.Notification, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return n.notifications.ListByRecipient(ctx, recipientID, (page-1)*pageSize, pageSize)
}

// UnreadCount returns the number of unread notifications for a recipient.
func (n *Notifier) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	return n.notifications.UnreadCount(ctx, recipientID)
}

// MarkRead marks one notification read. Idempotent: marking an already
// read notification is a no-op, not an error.
func (n *Notifier) MarkRead(ctx context.Context, id, recipientID uint) error {
	return n.notifications.MarkRead(ctx, id, recipientID)
}

// MarkAllRead marks every unread notification of a recipient read.
func (n *Notifier) MarkAllRead(ctx context.Context, recipientID uint) error {
	return n.notifications.MarkAllRead(ctx, recipientID)
}

// PurgeExpired deletes notifications past their retention window. Called
// by the background sweep, never inline on reads.
func (n *Notifier) PurgeExpired(ctx context.Context) (int64, error) {
	deleted, err := n.notifications.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired notifications: %w", err)
	}
	return deleted, nil
}
