package bot

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Oracle implements admission.SubscriptionOracle over the Telegram API.
// Membership counts unless the user has left or was kicked; an API failure
// is returned to the caller, which degrades it to "not subscribed".
type Oracle struct {
	api *tgbotapi.BotAPI
}

// NewOracle creates a subscription oracle backed by the given client.
func NewOracle(api *tgbotapi.BotAPI) *Oracle {
	return &Oracle{api: api}
}

// IsSubscribed implements admission.SubscriptionOracle.
func (o *Oracle) IsSubscribed(ctx context.Context, channel, userID string) (bool, error) {
	id, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return false, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	member, err := o.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			SuperGroupUsername: channel,
			UserID:             id,
		},
	})
	if err != nil {
		return false, fmt.Errorf("chat member lookup for %s: %w", channel, err)
	}

	return member.Status != "left" && member.Status != "kicked", nil
}
