package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/jobs"
)

// Notifier sends a best-effort payment receipt. Implementations must never
// fail the payment flow; errors stay inside the notifier.
type Notifier interface {
	PaymentReceipt(ctx context.Context, p *Payment)
}

// CustomerEmails resolves a customer's email address.
type CustomerEmails interface {
	EmailOf(ctx context.Context, id int64) (string, error)
}

// MailNotifier queues receipt emails through the background worker.
type MailNotifier struct {
	emails CustomerEmails
	queue  *jobs.Client
	logger *slog.Logger
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(emails CustomerEmails, queue *jobs.Client, logger *slog.Logger) *MailNotifier {
	return &MailNotifier{emails: emails, queue: queue, logger: logger}
}

func (n *MailNotifier) PaymentReceipt(ctx context.Context, p *Payment) {
	email, err := n.emails.EmailOf(ctx, p.CustomerID)
	if err != nil {
		n.logger.Warn("payment receipt: resolve customer email",
			slog.Int64("customer_id", p.CustomerID), slog.Any("error", err))
		return
	}
	if email == "" {
		return
	}
	body := fmt.Sprintf("We received your payment %s of %.2f on %s. Thank you.",
		p.PaymentID, p.Amount, p.PaymentDate.Format("2006-01-02"))
	if _, err := n.queue.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("Payment receipt %s", p.PaymentID),
		Body:    body,
	}); err != nil {
		n.logger.Warn("payment receipt: enqueue email",
			slog.String("payment_id", p.PaymentID), slog.Any("error", err))
	}
}

var _ Notifier = (*MailNotifier)(nil)
