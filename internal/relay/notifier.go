package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/beta-access-portal/internal/model"
	"github.com/iliyamo/beta-access-portal/internal/queue"
)

// Notifier consumes relay.events and mirrors each event into the
// operator chat. It runs a reconnect loop with backoff and keeps going
// until its context is cancelled; a message that cannot be handled is
// rejected without requeue so a poison event cannot wedge the queue.
type Notifier struct {
	tg     *Client
	chatID int64
	rdb    *redis.Client // event dedupe; optional
}

func NewNotifier(tg *Client, chatID int64, rdb *redis.Client) *Notifier {
	return &Notifier{tg: tg, chatID: chatID, rdb: rdb}
}

// Run blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(queue.BrokerURL())
		if err != nil {
			log.Printf("relay-notifier: dial broker failed: %v; retrying in %s", err, backoff)
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := n.consumeLoop(ctx, conn); err != nil {
			log.Printf("relay-notifier: consume loop ended: %v; reconnecting", err)
		}
		_ = conn.Close()
		if !sleepCtx(ctx, 2*time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func (n *Notifier) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("relay-notifier: set QoS failed: %v", err)
	}

	if _, err := ch.QueueDeclare(queue.RelayQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(queue.RelayQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := n.handle(ctx, d.Body); err != nil {
				log.Printf("relay-notifier: handle event failed: %v", err)
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (n *Notifier) handle(ctx context.Context, body []byte) error {
	var ev queue.RequestEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if n.seen(ctx, ev.EventID) {
		return nil // redelivered event, already mirrored
	}

	switch ev.Kind {
	case queue.KindRequestSubmitted:
		_, err := n.tg.SendMessage(ctx, n.chatID, submittedText(&ev), decisionKeyboard(&ev))
		return err
	case queue.KindRequestDecided:
		_, err := n.tg.SendMessage(ctx, n.chatID, decidedText(&ev), nil)
		return err
	}
	return fmt.Errorf("unknown event kind %q", ev.Kind)
}

// seen records the event id in Redis and reports whether it was
// already there. Best-effort: without Redis every delivery is fresh.
func (n *Notifier) seen(ctx context.Context, eventID string) bool {
	if n.rdb == nil || eventID == "" {
		return false
	}
	set, err := n.rdb.SetNX(ctx, "relay:event:"+eventID, "1", 24*time.Hour).Result()
	if err != nil {
		return false
	}
	return !set
}

func variantLabel(v string) string {
	if v == string(model.VariantTeam) {
		return "в команду разработки"
	}
	return "на бета-тестирование"
}

func submittedText(ev *queue.RequestEvent) string {
	return fmt.Sprintf("🆕 Новая заявка %s\n№%d\n%s %s\n%s\n\n%s",
		variantLabel(ev.Variant), ev.RequestID, ev.FirstName, ev.LastName, ev.Email, ev.Summary)
}

func decidedText(ev *queue.RequestEvent) string {
	var head string
	switch ev.Status {
	case string(model.StatusApproved):
		head = "✅ Заявка одобрена"
	case string(model.StatusRejected):
		head = "❌ Заявка отклонена"
	default:
		head = "💬 Заявка прокомментирована"
	}
	text := fmt.Sprintf("%s\nЗаявка %s №%d (%s %s)",
		head, variantLabel(ev.Variant), ev.RequestID, ev.FirstName, ev.LastName)
	if ev.Comment != nil && *ev.Comment != "" {
		text += "\nКомментарий: " + *ev.Comment
	}
	return text
}

// decisionKeyboard attaches approve/reject buttons whose callback data
// the poller parses back into a SetStatus call.
func decisionKeyboard(ev *queue.RequestEvent) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{
		InlineKeyboard: [][]InlineKeyboardButton{{
			{Text: "✅ Одобрить", CallbackData: fmt.Sprintf("decide:%s:%d:%s", ev.Variant, ev.RequestID, model.StatusApproved)},
			{Text: "❌ Отклонить", CallbackData: fmt.Sprintf("decide:%s:%d:%s", ev.Variant, ev.RequestID, model.StatusRejected)},
		}},
	}
}
