package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends messages through a Telegram bot.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

// NewTelegram authenticates the bot token against the Bot API.
// endpoint may be empty for the public API.
func NewTelegram(token, endpoint string, timeout time.Duration) (*Telegram, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &Telegram{bot: bot}, nil
}

// Username returns the bot's user name.
func (t *Telegram) Username() string {
	return t.bot.Self.UserName
}

// Send posts text to the chat. chatID is either a numeric chat id or a
// public channel name such as "@mailbox".
func (t *Telegram) Send(ctx context.Context, chatID, text string, mode ParseMode) error {
	msg, err := newTelegramMessage(chatID, text)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg.ParseMode = string(mode)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func newTelegramMessage(chatID, text string) (tgbotapi.MessageConfig, error) {
	if strings.HasPrefix(chatID, "@") {
		if len(chatID) == 1 {
			return tgbotapi.MessageConfig{}, fmt.Errorf("telegram chat id %q: empty channel name", chatID)
		}
		return tgbotapi.NewMessageToChannel(chatID, text), nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return tgbotapi.MessageConfig{}, fmt.Errorf("telegram chat id %q: %w", chatID, err)
	}
	return tgbotapi.NewMessage(id, text), nil
}
