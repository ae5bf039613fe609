package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/orris-inc/keyhub/internal/domain/notification"
)

// ErrNoToken is returned when neither the channel nor the config carries a bot token.
var ErrNoToken = errors.New("telegram: no bot token configured")

// Classify maps a Bot API send error to a delivery outcome. Anything that is
// not a recognised terminal answer from Telegram is a technical error.
func Classify(err error) notification.Outcome {
	if err == nil {
		return notification.OutcomeSuccess
	}
	var apiErr *tgbotapi.Error
	if !errors.As(err, &apiErr) {
		return notification.OutcomeTechnicalError
	}
	desc := strings.ToLower(apiErr.Message)
	switch apiErr.Code {
	case 403:
		if strings.Contains(desc, "user is deactivated") {
			return notification.OutcomeUserNotFound
		}
		if strings.Contains(desc, "blocked") || strings.Contains(desc, "deactivated by the user") {
			return notification.OutcomeBlocked
		}
	case 400:
		if strings.Contains(desc, "chat not found") || strings.Contains(desc, "user not found") {
			return notification.OutcomeUserNotFound
		}
	}
	return notification.OutcomeTechnicalError
}

// IsBotBlocked reports whether the recipient blocked the bot.
func IsBotBlocked(err error) bool {
	return Classify(err) == notification.OutcomeBlocked
}

// GetRetryAfter extracts the retry_after seconds from a 429 error.
// Returns 0 if the error is not a 429 or has no retry_after.
func GetRetryAfter(err error) int {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == 429 {
		return apiErr.RetryAfter
	}
	return 0
}
