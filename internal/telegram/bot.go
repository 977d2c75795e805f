// Package telegram is the chat front end: it turns inbound messages into
// ledger engine calls and renders replies with a reaction phrase.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kkalbot/kkalbot/internal/ledger"
	"github.com/kkalbot/kkalbot/internal/metrics"
	"github.com/kkalbot/kkalbot/internal/parse"
	"github.com/kkalbot/kkalbot/internal/ratelimit"
	"github.com/kkalbot/kkalbot/internal/reactions"
)

// Bot runs the Telegram long-polling loop. Each update is handled in its
// own goroutine; shutdown waits for in-flight handlers.
type Bot struct {
	api     *tgbotapi.BotAPI
	engine  *ledger.Engine
	parser  *parse.Parser
	limiter *ratelimit.Limiter // nil disables the flood guard

	wg sync.WaitGroup
}

func NewBot(token string, engine *ledger.Engine, parser *parse.Parser, limiter *ratelimit.Limiter) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}
	slog.Info("authorized on telegram", "account", api.Self.UserName)

	return &Bot{
		api:     api,
		engine:  engine,
		parser:  parser,
		limiter: limiter,
	}, nil
}

// Run blocks until ctx is cancelled or the updates channel closes.
func (b *Bot) Run(ctx context.Context) error {
	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60 // long polling

	updates := b.api.GetUpdatesChan(updateCfg)
	slog.Info("telegram bot listening for updates")

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				slog.Info("telegram updates channel closed")
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)

		case <-ctx.Done():
			slog.Info("stopping telegram bot")
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return nil
		}
	}
}

// Key derives the ledger key from transport identifiers: bare user in a
// private chat, chat+user composite in a group.
func Key(msg *tgbotapi.Message) string {
	if msg.Chat.IsPrivate() {
		return ledger.UserKey(msg.From.ID)
	}
	return ledger.ChatUserKey(msg.Chat.ID, msg.From.ID)
}

// setTargetKey resolves whose limit /set changes: when the command replies
// to someone else's message, that sender's key in the same chat; otherwise
// the issuer's own. Usernames cannot serve as targets since the Bot API
// does not resolve them to IDs.
func setTargetKey(msg *tgbotapi.Message) string {
	if msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil {
		if msg.Chat.IsPrivate() {
			return ledger.UserKey(msg.ReplyToMessage.From.ID)
		}
		return ledger.ChatUserKey(msg.Chat.ID, msg.ReplyToMessage.From.ID)
	}
	return Key(msg)
}

// parseLimitArg reads the numeric limit from the /set argument string. Any
// trailing tokens (a mention, a note) are ignored.
func parseLimitArg(args string) (int, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return v, true
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Text == "" || msg.From == nil {
		return
	}
	key := Key(msg)

	if !b.allow(ctx, key) {
		metrics.UpdatesTotal.WithLabelValues("flooded").Inc()
		return
	}

	if msg.IsCommand() {
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		b.handleCommand(ctx, msg, key)
		return
	}
	metrics.UpdatesTotal.WithLabelValues("text").Inc()

	amount, found := b.parser.Parse(msg.Text)
	if !found {
		// Not every group message is a calorie entry; stay silent.
		metrics.ParseFailuresTotal.Inc()
		return
	}

	status, err := b.engine.RecordIntake(ctx, key, amount)
	switch {
	case err == nil:
		tiers := b.engine.Tiers()
		reaction := reactions.Pick(
			tiers.ClassifyIntake(amount),
			tiers.ClassifyHeadroom(status.Remaining, status.Limit),
		)
		b.reply(msg, IntakeReply(amount, status, reaction))
	case errors.Is(err, ledger.ErrAmountOutOfRange):
		b.reply(msg, "Это слишком много за один раз. Проверь число.")
	default:
		slog.Error("recording intake", "key", key, "error", err)
		b.reply(msg, "Не получилось сохранить. Попробуй ещё раз.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, key string) {
	switch msg.Command() {
	case "start", "help":
		b.reply(msg, HelpReply())

	case "set":
		limit, ok := parseLimitArg(msg.CommandArguments())
		if !ok {
			b.reply(msg, "Формат: /set 2000 (ответом на сообщение — для другого участника)")
			return
		}
		// Replying to someone's message sets their limit instead.
		status, err := b.engine.SetLimit(ctx, setTargetKey(msg), limit)
		switch {
		case errors.Is(err, ledger.ErrInvalidLimit):
			b.reply(msg, "Лимит должен быть больше нуля.")
		case err != nil:
			slog.Error("setting limit", "key", key, "error", err)
			b.reply(msg, "Не получилось сохранить. Попробуй ещё раз.")
		default:
			b.reply(msg, LimitReply(status.Limit))
		}

	case "status":
		status, err := b.engine.GetStatus(ctx, key)
		switch {
		case errors.Is(err, ledger.ErrUnknownUser):
			b.reply(msg, "Я тебя ещё не знаю. Отправь /set 2000 или запиши калории.")
		case err != nil:
			slog.Error("getting status", "key", key, "error", err)
			b.reply(msg, "Не получилось прочитать. Попробуй ещё раз.")
		default:
			b.reply(msg, StatusReply(status))
		}

	case "reset":
		status, err := b.engine.ResetToday(ctx, key)
		switch {
		case errors.Is(err, ledger.ErrUnknownUser):
			b.reply(msg, "Я тебя ещё не знаю. Отправь /set 2000 или запиши калории.")
		case err != nil:
			slog.Error("resetting", "key", key, "error", err)
			b.reply(msg, "Не получилось сохранить. Попробуй ещё раз.")
		default:
			b.reply(msg, ResetReply(status))
		}
	}
}

// allow consults the flood guard; Redis trouble fails open.
func (b *Bot) allow(ctx context.Context, key string) bool {
	if b.limiter == nil {
		return true
	}
	allowed, err := b.limiter.Allow(ctx, key)
	if err != nil {
		slog.Warn("flood guard check failed, allowing message", "error", err)
		return true
	}
	return allowed
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		slog.Error("sending reply", "chat", msg.Chat.ID, "error", err)
	}
}
