/*
Package notify delivers reminder emails.

PURPOSE:
  Implements registry.Sender for the providers an operator can configure:
    - SMTPSender:  any SMTP relay, via go-mail
    - BrevoSender: Brevo transactional email HTTP API
    - LogSender:   dry run, writes the message to the log instead

  Throttled wraps any of them with a token-bucket limiter so a large batch
  stays within the provider's rate limits.

ERRORS:
  Senders return plain errors; the reminder machine wraps them in
  registry.DeliveryError with the recipient.

SEE ALSO:
  - reminder/machine.go: the only caller
  - config/config.go: provider selection
*/
package notify

import (
	"context"

	"github.com/warp/reminder-engine/logger"
	"github.com/warp/reminder-engine/registry"
	"golang.org/x/time/rate"
)

// =============================================================================
// LOG SENDER
// =============================================================================

// LogSender records messages in the log without delivering them.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	if log == nil {
		log = logger.Nop()
	}
	return &LogSender{log: log.WithComponent("notify.log")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.WithContext(ctx).Info("email (dry run)",
		"to", to,
		"subject", subject,
		"bytes", len(body),
	)
	return nil
}

// =============================================================================
// THROTTLING
// =============================================================================

type throttled struct {
	next    registry.Sender
	limiter *rate.Limiter
}

// Throttled limits next to perSecond sends with the given burst. A
// non-positive rate returns next unchanged.
func Throttled(next registry.Sender, perSecond float64, burst int) registry.Sender {
	if perSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &throttled{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (t *throttled) Send(ctx context.Context, to, subject, body string) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	return t.next.Send(ctx, to, subject, body)
}
