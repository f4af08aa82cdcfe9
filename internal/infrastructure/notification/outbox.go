// Package notification implements the notification outbox: requests are
// persisted as rows and delivered asynchronously by a background worker, so
// delivery never participates in the transaction that triggered it.
package notification

import (
	"context"
	"strings"

	"github.com/advisornet/reportd/internal/application/port"
	"github.com/advisornet/reportd/internal/domain/entity"
	"go.uber.org/zap"
)

// Outbox implements port.Notifier by writing pending rows and waking the
// dispatch worker. Send never returns an error to the caller.
type Outbox struct {
	repo   port.NotificationRepository
	wake   chan struct{}
	logger *zap.Logger
}

// NewOutbox creates a new outbox
func NewOutbox(repo port.NotificationRepository, logger *zap.Logger) *Outbox {
	return &Outbox{
		repo:   repo,
		wake:   make(chan struct{}, 1),
		logger: logger,
	}
}

// Send enqueues a notification for asynchronous delivery
func (o *Outbox) Send(ctx context.Context, n port.Notification) {
	row := &entity.Notification{
		Type:       n.Type,
		ReportUUID: n.ReportUUID,
		ActorUUID:  n.ActorUUID,
		Recipients: strings.Join(n.Recipients, ","),
		Body:       n.Body,
		Status:     entity.NotificationStatusPending,
	}

	if err := o.repo.Create(ctx, row); err != nil {
		o.logger.Error("Failed to enqueue notification",
			zap.String("type", n.Type),
			zap.String("report_uuid", n.ReportUUID),
			zap.Error(err))
		return
	}

	// Non-blocking wake; the dispatcher also polls on a ticker.
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// Wake returns the channel the dispatch worker listens on
func (o *Outbox) Wake() <-chan struct{} {
	return o.wake
}

// Verify interface compliance
var _ port.Notifier = (*Outbox)(nil)
