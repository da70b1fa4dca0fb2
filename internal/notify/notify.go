package notify

import (
	"Go_Share/config"
	"context"
	"errors"
	"time"
)

// Event describes a finished upload.
type Event struct {
	UserID    uint64    `json:"user_id"`
	UserName  string    `json:"user_name"`
	FileID    uint64    `json:"file_id"`
	FileName  string    `json:"file_name"`
	Mimetype  string    `json:"mimetype"`
	Size      int64     `json:"size"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier delivers upload events to an external channel.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// Multi fans an event out to every channel and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the configured channels. Without any it returns Nop.
func FromConfig(cfg config.NotifyConfig) Notifier {
	var channels Multi
	if cfg.WebhookURL != "" {
		channels = append(channels, NewWebhook(cfg.WebhookURL, nil))
	}
	if len(cfg.MailTo) > 0 && cfg.SMTPHost != "" {
		channels = append(channels, NewMailer(cfg))
	}
	if len(channels) == 0 {
		return Nop{}
	}
	return channels
}
