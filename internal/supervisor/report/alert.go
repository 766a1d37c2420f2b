package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"piview/internal/supervisor/model"
	"piview/pkg/mail"
)

type MailAlerter struct {
	sender mail.Sender
	to     []string
	host   string
}

func NewMailAlerter(sender mail.Sender, to []string, host string) *MailAlerter {
	return &MailAlerter{
		sender: sender,
		to:     to,
		host:   host,
	}
}

// RebootImminent mails the operators the final snapshot before the kiosk
// reboots itself.
func (a *MailAlerter) RebootImminent(ctx context.Context, rec model.HealthRecord, reason string) error {
	snapshot, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("MailAlerter.RebootImminent: %w", err)
	}
	body := fmt.Sprintf("Kiosk %s is rebooting at %s.\n\nReason: %s\nConsecutive failures: %d\nBrowser restarts: %d\nNetwork: %s\nURL: %s\n",
		a.host,
		time.Now().Format(time.RFC3339),
		reason,
		rec.ConsecutiveFailures,
		rec.RestartCount,
		rec.NetworkState,
		rec.URL,
	)
	err = a.sender.Send(ctx, mail.Message{
		To:       a.to,
		Subject:  fmt.Sprintf("[piview] %s rebooting: %s", a.host, reason),
		TextBody: body,
		Attachments: []mail.Attachment{
			{Name: "health.json", Content: bytes.NewReader(snapshot)},
		},
	})
	if err != nil {
		return fmt.Errorf("MailAlerter.RebootImminent: %w", err)
	}
	return nil
}
