// Package bot wires the admission core to the Telegram transport: message
// and callback dispatch, keyboards, subscription checks, artifact delivery
// and the admin commands.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/glagena/gladownloader/internal/config"
	"github.com/glagena/gladownloader/pkg/admission"
)

const (
	menuStartDownload = "🎬 Start downloading"
	menuBonusLimits   = "💎 Bonus & limits"

	callbackPrefix = "dl_"
)

var urlRegexp = regexp.MustCompile(`https?://\S+`)

// Bot is the Telegram front end.
type Bot struct {
	api     *tgbotapi.BotAPI
	cfg     config.Config
	orch    *admission.Orchestrator
	storage admission.Storage
	log     zerolog.Logger
}

// New wraps an authorized Bot API client.
func New(api *tgbotapi.BotAPI, cfg config.Config, orch *admission.Orchestrator, storage admission.Storage, log zerolog.Logger) *Bot {
	return &Bot{api: api, cfg: cfg, orch: orch, storage: storage, log: log}
}

// Run polls for updates until ctx is done. Each update is handled in its own
// goroutine; panics are contained per update so a single bad request can
// never take the process down.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("handler panic")
		}
	}()

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	if name := displayName(msg.From); name != "" {
		if err := b.storage.SetDisplayName(ctx, userID, name); err != nil {
			b.log.Warn().Err(err).Str("user_id", userID).Msg("display name not saved")
		}
	}

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Text == menuStartDownload:
		b.reply(msg.Chat.ID, "📝 Just send me a link to a video or a track.\n\nI will detect the platform and offer download options.")
	case msg.Text == menuBonusLimits:
		b.showBonus(ctx, msg)
	case urlRegexp.MatchString(msg.Text):
		b.handleLink(ctx, msg)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		reply := tgbotapi.NewMessage(msg.Chat.ID,
			"👋 Welcome to GlaDownloader! 🚀\n\n"+
				"I can fetch video and music from your favorite platforms.\n\n"+
				"Pick an action below: 👇")
		reply.ReplyMarkup = mainMenu()
		b.send(reply)
	case "stats":
		b.handleStats(ctx, msg)
	case "broadcast":
		b.handleBroadcast(ctx, msg)
	}
}

// handleLink stores a pending ticket keyed by the originating message id and
// offers the mode choice.
func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) {
	url := urlRegexp.FindString(msg.Text)
	userID := strconv.FormatInt(msg.From.ID, 10)

	quote, err := b.orch.GetQuote(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", userID).Msg("quote failed")
		b.reply(msg.Chat.ID, "⚠️ Something went wrong, please try again.")
		return
	}

	ticketID := strconv.Itoa(msg.MessageID)
	b.orch.StoreTicket(ticketID, url)

	text := fmt.Sprintf(
		"What do you want to download?\n\n📊 Your limits for today:\n🎬 Video: %d/%d\n🎵 Audio: %d/%d\n",
		quote.Usage.Video, quote.Limits.Video,
		quote.Usage.Audio, quote.Limits.Audio,
	)
	if quote.Subscribed < len(b.cfg.Channels) {
		text += fmt.Sprintf("\n💡 Subscribe to our channels to raise both limits (+%d each)!", b.cfg.BonusLimit)
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Video", callbackPrefix+"video_"+ticketID),
			tgbotapi.NewInlineKeyboardButtonData("🎵 Audio", callbackPrefix+"audio_"+ticketID),
		),
	)
	b.send(reply)
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if !strings.HasPrefix(cq.Data, callbackPrefix) {
		return
	}
	parts := strings.SplitN(cq.Data, "_", 3)
	if len(parts) != 3 {
		return
	}
	kind := admission.Kind(parts[1])
	ticketID := parts[2]
	if !kind.Valid() {
		return
	}

	b.ack(cq.ID, "")

	chatID := cq.Message.Chat.ID
	statusMsgID := cq.Message.MessageID
	userID := strconv.FormatInt(cq.From.ID, 10)

	// Advisory queue hint before the blocking acquire. Never a decision input.
	if b.orch.InFlight() >= b.orch.Capacity() {
		b.edit(chatID, statusMsgID, fmt.Sprintf(
			"⏳ All download slots are busy (%d/%d). Please wait a moment...",
			b.orch.Capacity(), b.orch.Capacity()))
	}

	result, err := b.orch.Download(ctx, admission.DownloadRequest{
		UserID:   userID,
		ChatID:   chatID,
		TicketID: ticketID,
		Kind:     kind,
		OnAdmitted: func(inFlight, capacity int64) {
			b.edit(chatID, statusMsgID, fmt.Sprintf(
				"⏳ Starting download (%s)... Queue: %d/%d", kind, inFlight, capacity))
		},
	})
	if err != nil {
		b.edit(chatID, statusMsgID, userMessage(err))
		return
	}

	// Prompt removal is cosmetic; the artifact is already delivered.
	b.request(tgbotapi.NewDeleteMessage(chatID, statusMsgID))
	b.log.Info().
		Str("user_id", userID).
		Str("kind", string(kind)).
		Str("title", result.Title).
		Msg("download served")
}

// showBonus renders per-channel subscription status and today's limits.
func (b *Bot) showBonus(ctx context.Context, msg *tgbotapi.Message) {
	userID := strconv.FormatInt(msg.From.ID, 10)
	quote, err := b.orch.GetQuote(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", userID).Msg("quote failed")
		b.reply(msg.Chat.ID, "⚠️ Something went wrong, please try again.")
		return
	}

	var status strings.Builder
	for i, ch := range quote.Channels {
		mark := "❌ Not subscribed"
		if ch.Subscribed {
			mark = "✅ Subscribed"
		}
		fmt.Fprintf(&status, "%d. %s: %s\n", i+1, ch.Channel, mark)
	}

	text := fmt.Sprintf(
		"💎 Bonuses and limits\n\n"+
			"📊 Your limits for today:\n"+
			"• Video: %d/%d\n"+
			"• Audio: %d/%d\n\n"+
			"🕛 Limits reset every day at 00:00 (server time).\n\n"+
			"💡 Want more?\n"+
			"Subscribe to our channels and get +%d to each limit for as long as you stay subscribed!\n\n%s",
		quote.Usage.Video, quote.Limits.Video,
		quote.Usage.Audio, quote.Limits.Audio,
		b.cfg.BonusLimit,
		status.String(),
	)
	b.reply(msg.Chat.ID, text)
}

// userMessage maps the error taxonomy to what the user should see.
func userMessage(err error) string {
	var qe *admission.QuotaError
	switch {
	case errors.As(err, &qe):
		return fmt.Sprintf("❌ Daily limit reached (%d/%d). Come back tomorrow!", qe.Limit, qe.Limit)
	case errors.Is(err, admission.ErrTicketNotFound):
		return "⚠️ This link has expired. Please send it again."
	case errors.Is(err, admission.ErrExtractionFailed):
		return "❌ Could not download the file. Try a different link."
	case errors.Is(err, admission.ErrArtifactInvalid):
		return "❌ The downloaded file looks broken. Please try again."
	case errors.Is(err, admission.ErrDeliveryFailed):
		return "❌ Could not send the file. Please try again."
	default:
		// ErrArtifactNotLocated and anything unexpected: internal signal,
		// generic message.
		return "⚠️ Something went wrong, please try again."
	}
}

func displayName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	menu := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuStartDownload)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuBonusLimits)),
	)
	menu.ResizeKeyboard = true
	return menu
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn().Err(err).Msg("send failed")
	}
}

func (b *Bot) request(c tgbotapi.Chattable) {
	if _, err := b.api.Request(c); err != nil {
		b.log.Warn().Err(err).Msg("request failed")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	b.send(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (b *Bot) ack(callbackID, text string) {
	b.request(tgbotapi.NewCallback(callbackID, text))
}
