package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/stelaryous/ticketflow/internal/events"
	"github.com/stelaryous/ticketflow/internal/mail"
)

// NotificationWorker reacts to domain events: it mails provisional
// credentials to freshly registered accounts and keeps an audit trail
// of the rest in the log.
type NotificationWorker struct {
	mailer mail.Mailer
	logger *zap.Logger
}

// NewNotificationWorker constructs the worker.
func NewNotificationWorker(mailer mail.Mailer, logger *zap.Logger) *NotificationWorker {
	return &NotificationWorker{mailer: mailer, logger: logger}
}

// Register wires the worker into the dispatcher.
func (w *NotificationWorker) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventUserRegistered, w.handleUserRegistered)
	dispatcher.Subscribe(events.EventTicketCreated, w.logEvent)
	dispatcher.Subscribe(events.EventTicketUpdated, w.logEvent)
	dispatcher.Subscribe(events.EventTicketHidden, w.logEvent)
	dispatcher.Subscribe(events.EventPaymentConfirmed, w.logEvent)
	dispatcher.Subscribe(events.EventTransferRequested, w.logEvent)
	dispatcher.Subscribe(events.EventTransferResolved, w.logEvent)
}

func (w *NotificationWorker) handleUserRegistered(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		w.logger.Warn("unexpected payload on user_registered event", zap.String("event_id", event.ID))
		return nil
	}

	if w.mailer == nil {
		w.logger.Warn("mailer not configured, provisional password not delivered",
			zap.String("username", payload.Username))
		return nil
	}

	body := fmt.Sprintf(
		"Hello %s,\n\nYour account has been created.\n\nUsername: %s\nTemporary password: %s\n\nYou must change this password on your first login.\n",
		payload.Username, payload.Username, payload.TemporaryPassword)

	if err := w.mailer.Send(payload.Email, "Your new account", body); err != nil {
		w.logger.Error("failed to send provisional credentials",
			zap.String("username", payload.Username),
			zap.Error(err))
		return err
	}

	w.logger.Info("provisional credentials sent", zap.String("username", payload.Username))
	return nil
}

func (w *NotificationWorker) logEvent(ctx context.Context, event events.Event) error {
	w.logger.Info("event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("actor", event.Actor.Username))
	return nil
}
