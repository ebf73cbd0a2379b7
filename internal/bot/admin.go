package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/glagena/gladownloader/pkg/admission"
)

// handleStats reports the user count and today's aggregate usage.
func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return
	}

	users, err := b.storage.ListUsers(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("user enumeration failed")
		b.reply(msg.Chat.ID, "⚠️ Could not load stats.")
		return
	}

	var video, audio, activeToday int
	for _, u := range users {
		rec, err := b.storage.GetUsage(ctx, u.ID)
		if err != nil {
			continue
		}
		if rec.LastReset == admission.Today() {
			video += rec.Video
			audio += rec.Audio
			if rec.Video+rec.Audio > 0 {
				activeToday++
			}
		}
	}

	b.reply(msg.Chat.ID, fmt.Sprintf(
		"📈 Stats\n\nUsers: %d\nActive today: %d\nVideo today: %d\nAudio today: %d",
		len(users), activeToday, video, audio))
}

// handleBroadcast sends the command argument to every known user. Failures
// (blocked bot, deleted account) are counted, not retried.
func (b *Bot) handleBroadcast(ctx context.Context, msg *tgbotapi.Message) {
	if !b.cfg.IsAdmin(msg.From.ID) {
		return
	}
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		b.reply(msg.Chat.ID, "Usage: /broadcast <message>")
		return
	}

	users, err := b.storage.ListUsers(ctx)
	if err != nil {
		b.log.Error().Err(err).Msg("user enumeration failed")
		b.reply(msg.Chat.ID, "⚠️ Could not load user list.")
		return
	}

	sent, failed := 0, 0
	for _, u := range users {
		id, err := strconv.ParseInt(u.ID, 10, 64)
		if err != nil {
			failed++
			continue
		}
		if _, err := b.api.Send(tgbotapi.NewMessage(id, text)); err != nil {
			failed++
			continue
		}
		sent++
	}

	b.reply(msg.Chat.ID, fmt.Sprintf("📣 Broadcast done: %d sent, %d failed.", sent, failed))
}
