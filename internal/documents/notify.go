package documents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/jobs"
)

// Notifier delivers a best-effort "document sent" email. Implementations must
// never fail the send flow; errors stay inside the notifier.
type Notifier interface {
	DocumentSent(ctx context.Context, d *Document)
}

// EmailDirectory resolves a counterparty's email address.
type EmailDirectory interface {
	EmailOf(ctx context.Context, id int64) (string, error)
}

// MailNotifier queues document emails through the background worker.
type MailNotifier struct {
	customers EmailDirectory
	vendors   EmailDirectory
	queue     *jobs.Client
	logger    *slog.Logger
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(customers, vendors EmailDirectory, queue *jobs.Client, logger *slog.Logger) *MailNotifier {
	return &MailNotifier{customers: customers, vendors: vendors, queue: queue, logger: logger}
}

func (n *MailNotifier) DocumentSent(ctx context.Context, d *Document) {
	var email string
	var err error
	switch {
	case d.CustomerID != nil:
		email, err = n.customers.EmailOf(ctx, *d.CustomerID)
	case d.VendorID != nil:
		email, err = n.vendors.EmailOf(ctx, *d.VendorID)
	default:
		return
	}
	if err != nil {
		n.logger.Warn("document sent: resolve counterparty email",
			slog.String("doc_number", d.DocNumber), slog.Any("error", err))
		return
	}
	if email == "" {
		return
	}
	body := fmt.Sprintf("%s %s for %.2f dated %s is attached to your account.",
		kindLabel(d.Kind), d.DocNumber, d.Total, d.DocDate.Format("2006-01-02"))
	if _, err := n.queue.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: fmt.Sprintf("%s %s", kindLabel(d.Kind), d.DocNumber),
		Body:    body,
	}); err != nil {
		n.logger.Warn("document sent: enqueue email",
			slog.String("doc_number", d.DocNumber), slog.Any("error", err))
	}
}

var _ Notifier = (*MailNotifier)(nil)
