package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/glagena/gladownloader/pkg/admission"
)

// Deliverer implements admission.Deliverer by uploading the artifact as a
// video or audio message.
type Deliverer struct {
	api *tgbotapi.BotAPI
}

// NewDeliverer creates a deliverer backed by the given client.
func NewDeliverer(api *tgbotapi.BotAPI) *Deliverer {
	return &Deliverer{api: api}
}

// Deliver implements admission.Deliverer.
func (d *Deliverer) Deliver(ctx context.Context, chatID int64, kind admission.Kind, path string) error {
	var msg tgbotapi.Chattable
	if kind == admission.KindAudio {
		msg = tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	} else {
		msg = tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	}

	if _, err := d.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}
	return nil
}
