package relay

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/service"
)

const (
	offsetKey   = "relay:update_offset"
	pollTimeout = 25 // seconds, long-poll window
)

// Poller long-polls getUpdates and feeds operator actions back into
// the registry: inline-button presses become decisions, and a
// "/comment <variant> <id> <text>" chat message becomes an annotation.
// The consumed update offset is persisted in Redis after every update
// so a restart never replays old commands.
type Poller struct {
	tg       *Client
	registry *service.Registry
	rdb      *redis.Client
	chatID   int64
}

func NewPoller(tg *Client, registry *service.Registry, rdb *redis.Client, chatID int64) *Poller {
	return &Poller{tg: tg, registry: registry, rdb: rdb, chatID: chatID}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		offset := p.loadOffset(ctx)
		updates, err := p.tg.GetUpdates(ctx, offset+1, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("relay-poller: getUpdates failed: %v", err)
			if !sleepCtx(ctx, 5*time.Second) {
				return
			}
			continue
		}
		for _, u := range updates {
			p.handleUpdate(ctx, u)
			p.storeOffset(ctx, u.UpdateID)
		}
	}
}

func (p *Poller) loadOffset(ctx context.Context) int64 {
	s, err := p.rdb.Get(ctx, offsetKey).Result()
	if err != nil {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (p *Poller) storeOffset(ctx context.Context, offset int64) {
	if err := p.rdb.Set(ctx, offsetKey, offset, 0).Err(); err != nil {
		log.Printf("relay-poller: persist offset %d failed: %v", offset, err)
	}
}

func (p *Poller) handleUpdate(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		p.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil && strings.HasPrefix(u.Message.Text, "/comment "):
		p.handleComment(ctx, u.Message)
	}
}

// handleCallback parses "decide:<variant>:<id>:<status>" from an
// inline button and applies the decision.
func (p *Poller) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat.ID != p.chatID {
		return // buttons are only honored from the operator chat
	}
	parts := strings.Split(cb.Data, ":")
	if len(parts) != 4 || parts[0] != "decide" {
		p.answer(ctx, cb.ID, "Неизвестная команда")
		return
	}
	variant, err := model.ParseVariant(parts[1])
	if err != nil {
		p.answer(ctx, cb.ID, "Неизвестный тип заявки")
		return
	}
	id, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		p.answer(ctx, cb.ID, "Некорректный номер заявки")
		return
	}
	status, err := model.ParseStatus(parts[3])
	if err != nil {
		p.answer(ctx, cb.ID, "Некорректный статус")
		return
	}

	req, err := p.registry.SetStatus(ctx, variant, id, status, nil)
	if err != nil {
		log.Printf("relay-poller: decision %s on %s/%d failed: %v", status, variant, id, err)
		p.answer(ctx, cb.ID, "Не удалось обработать заявку")
		return
	}
	p.answer(ctx, cb.ID, "Готово")

	// Rewrite the original message so the buttons disappear and the
	// outcome is visible in the chat history.
	text := fmt.Sprintf("Заявка №%d (%s %s): %s",
		req.ID, req.FirstName, req.LastName, statusLabel(req.Status))
	if err := p.tg.EditMessageText(ctx, cb.Message.Chat.ID, cb.Message.MessageID, text); err != nil {
		log.Printf("relay-poller: edit message failed: %v", err)
	}
}

// handleComment parses "/comment <variant> <id> <text>".
func (p *Poller) handleComment(ctx context.Context, msg *Message) {
	if msg.Chat.ID != p.chatID {
		return // commands are only honored from the operator chat
	}
	fields := strings.SplitN(strings.TrimPrefix(msg.Text, "/comment "), " ", 3)
	if len(fields) != 3 {
		p.reply(ctx, "Использование: /comment beta|team <номер> <текст>")
		return
	}
	variant, err := model.ParseVariant(fields[0])
	if err != nil {
		p.reply(ctx, "Неизвестный тип заявки: "+fields[0])
		return
	}
	id, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		p.reply(ctx, "Некорректный номер заявки: "+fields[1])
		return
	}

	if _, err := p.registry.Comment(ctx, variant, id, strings.TrimSpace(fields[2])); err != nil {
		log.Printf("relay-poller: comment on %s/%d failed: %v", variant, id, err)
		p.reply(ctx, "Не удалось сохранить комментарий")
		return
	}
	p.reply(ctx, fmt.Sprintf("Комментарий к заявке №%d сохранён", id))
}

func (p *Poller) answer(ctx context.Context, callbackID, text string) {
	if err := p.tg.AnswerCallbackQuery(ctx, callbackID, text); err != nil {
		log.Printf("relay-poller: answer callback failed: %v", err)
	}
}

func (p *Poller) reply(ctx context.Context, text string) {
	if _, err := p.tg.SendMessage(ctx, p.chatID, text, nil); err != nil {
		log.Printf("relay-poller: reply failed: %v", err)
	}
}

func statusLabel(s model.Status) string {
	switch s {
	case model.StatusApproved:
		return "одобрена"
	case model.StatusRejected:
		return "отклонена"
	default:
		return "на рассмотрении"
	}
}
