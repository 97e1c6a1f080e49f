package notify

import (
	"context"
	"fmt"

	"studio-backend/internal/requests"
	"studio-backend/internal/shared/metrics"
	"studio-backend/internal/shared/telemetry"
)

// Dispatcher executes notification tasks produced by the lifecycle
// service. Failures are logged and counted but never propagated; the
// transition that produced the task is already committed.
type Dispatcher struct {
	Mailer Mailer
	From   string
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(mailer Mailer, from string) *Dispatcher {
	return &Dispatcher{Mailer: mailer, From: from}
}

// SendQuote emails the owner that their request has been quoted.
func (d *Dispatcher) SendQuote(ctx context.Context, req requests.Request) error {
	return d.send(ctx, req, quoteEmail(d.From, req))
}

// SendResponse emails the owner a new admin reply.
func (d *Dispatcher) SendResponse(ctx context.Context, req requests.Request) error {
	return d.send(ctx, req, responseEmail(d.From, req))
}

// SendDelivery emails the owner that their request has been delivered.
func (d *Dispatcher) SendDelivery(ctx context.Context, req requests.Request) error {
	return d.send(ctx, req, deliveryEmail(d.From, req))
}

func (d *Dispatcher) send(ctx context.Context, req requests.Request, email Email) error {
	if email.To == "" {
		return nil
	}
	if err := d.Mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return nil
}

// Run executes the tasks for a committed transition.
func (d *Dispatcher) Run(ctx context.Context, req requests.Request, tasks []requests.NotificationTask) {
	for _, task := range tasks {
		if task.Recipient == "" {
			continue
		}
		var err error
		switch task.Kind {
		case requests.NotifyQuote:
			err = d.SendQuote(ctx, req)
		case requests.NotifyResponse:
			err = d.SendResponse(ctx, req)
		case requests.NotifyDelivery:
			err = d.SendDelivery(ctx, req)
		default:
			continue
		}
		if err != nil {
			metrics.IncNotificationFailed()
			telemetry.Warn("notify.send_failed", map[string]any{
				"request_id": req.ID,
				"kind":       string(task.Kind),
				"err":        err.Error(),
			})
			continue
		}
		metrics.IncNotificationSent()
		telemetry.Info("notify.sent", map[string]any{
			"request_id": req.ID,
			"kind":       string(task.Kind),
		})
	}
}

var _ requests.TaskRunner = (*Dispatcher)(nil)
