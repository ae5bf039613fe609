package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/singleflight"

	"github.com/orris-inc/keyhub/internal/domain/notification"
	"github.com/orris-inc/keyhub/internal/shared/config"
	"github.com/orris-inc/keyhub/internal/shared/logger"
)

const defaultSendTimeout = 15 * time.Second

// Sender delivers rendered messages through the Bot API, keeping one client per bot token.
type Sender struct {
	defaultToken string
	endpoint     string
	client       *http.Client
	logger       logger.Interface

	mu    sync.RWMutex
	bots  map[string]*tgbotapi.BotAPI
	group singleflight.Group
}

func NewSender(cfg config.TelegramConfig, logger logger.Interface) *Sender {
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Sender{
		defaultToken: cfg.DefaultBotToken,
		endpoint:     endpoint,
		client:       &http.Client{Timeout: timeout},
		logger:       logger,
		bots:         make(map[string]*tgbotapi.BotAPI),
	}
}

// Deliver sends msg with the bot identified by token, or the default bot when
// token is empty. The returned error is informational; the outcome is what
// callers act on.
func (s *Sender) Deliver(ctx context.Context, token string, msg notification.Message) (notification.Delivery, error) {
	chunks := splitMessage(msg.Text, maxMessageLength)
	sent := min(max(msg.SkipParts, 0), len(chunks))

	if err := ctx.Err(); err != nil {
		return technicalError(sent), err
	}
	if token == "" {
		token = s.defaultToken
	}
	if token == "" {
		return technicalError(sent), ErrNoToken
	}

	bot, err := s.bot(token)
	if err != nil {
		s.logger.Warnw("failed to init telegram bot", "error", err)
		return technicalError(sent), err
	}

	for i := sent; i < len(chunks); i++ {
		out := tgbotapi.NewMessage(msg.Recipient, chunks[i])
		out.ParseMode = tgbotapi.ModeHTML
		out.DisableWebPagePreview = true
		if i == len(chunks)-1 && len(msg.Buttons) > 0 {
			out.ReplyMarkup = keyboard(msg.Buttons)
		}
		if _, err := bot.Send(out); err != nil {
			outcome := Classify(err)
			if outcome == notification.OutcomeTechnicalError {
				s.logger.Warnw("failed to send telegram message",
					"chat_id", msg.Recipient,
					"part", i+1,
					"parts", len(chunks),
					"retry_after", GetRetryAfter(err),
					"error", err,
				)
			}
			return notification.Delivery{Outcome: outcome, PartsSent: sent}, err
		}
		sent++
	}
	return notification.Delivery{Outcome: notification.OutcomeSuccess, PartsSent: sent}, nil
}

func technicalError(partsSent int) notification.Delivery {
	return notification.Delivery{Outcome: notification.OutcomeTechnicalError, PartsSent: partsSent}
}

func (s *Sender) bot(token string) (*tgbotapi.BotAPI, error) {
	s.mu.RLock()
	bot, ok := s.bots[token]
	s.mu.RUnlock()
	if ok {
		return bot, nil
	}

	v, err, _ := s.group.Do(token, func() (any, error) {
		bot, err := tgbotapi.NewBotAPIWithClient(token, s.endpoint, s.client)
		if err != nil {
			return nil, fmt.Errorf("failed to create bot client: %w", err)
		}
		s.mu.Lock()
		s.bots[token] = bot
		s.mu.Unlock()
		return bot, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*tgbotapi.BotAPI), nil
}

func keyboard(rows [][]notification.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}
