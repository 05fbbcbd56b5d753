// Package telegram is the outbound notification channel.
//
// It wraps telebot behind a Send call that classifies every failure as
// permanent or transient, which is the only distinction the delivery worker
// acts on. The channel is send-only; inbound update handling belongs to the
// conversation layer, not this subsystem.
package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"habitbot/internal/domain"
	"habitbot/pkg/logx"
)

type Config struct {
	Token       string
	SendTimeout time.Duration // per-send deadline; 0 means 10s
	RatePerSec  int           // outgoing budget; 0 means 3
}

type Channel struct {
	bot     *tele.Bot
	log     logx.Logger
	limiter *rate.Limiter
	timeout time.Duration
}

func New(cfg Config, log logx.Logger) (*Channel, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	timeout := cfg.SendTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 3
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Client: &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Channel{
		bot:     b,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
	}, nil
}

// Send delivers text to the user's private chat and classifies the result.
// The caller's ctx bounds the rate-limiter wait; the HTTP client bounds the
// send itself, so a hung API call cannot stall a scheduler worker forever.
func (c *Channel) Send(ctx context.Context, userID int64, text string) domain.Outcome {
	if err := c.limiter.Wait(ctx); err != nil {
		c.log.Warn("send aborted waiting for rate limiter", logx.Int64("user_id", userID), logx.Err(err))
		return domain.OutcomeTransientFailure
	}
	_, err := c.bot.Send(&tele.User{ID: userID}, text)
	out := Classify(err)
	switch out {
	case domain.OutcomeDelivered:
		c.log.Debug("notification sent", logx.Int64("user_id", userID))
	case domain.OutcomePermanentFailure:
		c.log.Warn("notification permanently undeliverable", logx.Int64("user_id", userID), logx.Err(err))
	default:
		c.log.Warn("notification send failed", logx.Int64("user_id", userID), logx.Err(err))
	}
	return out
}

// Classify maps a telebot send error onto the delivery taxonomy.
//
// Permanent: the recipient blocked the bot, was deactivated, or the chat does
// not exist. Everything else, including flood limits and transport faults,
// is transient.
func Classify(err error) domain.Outcome {
	if err == nil {
		return domain.OutcomeDelivered
	}
	switch {
	case errors.Is(err, tele.ErrBlockedByUser),
		errors.Is(err, tele.ErrUserIsDeactivated),
		errors.Is(err, tele.ErrChatNotFound):
		return domain.OutcomePermanentFailure
	}
	return domain.OutcomeTransientFailure
}
