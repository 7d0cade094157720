package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goodjobs/shiftbot/internal/alert"
	"github.com/goodjobs/shiftbot/internal/line"
)

// Replier delivers reply messages against a reply token.
type Replier interface {
	Reply(ctx context.Context, replyToken string, messages []line.Message) error
}

// Gateway is the inbound webhook endpoint. It authenticates deliveries,
// fans events out to the Handler, and always acknowledges promptly so the
// platform does not redeliver the batch.
type Gateway struct {
	Handler *Handler
	Replier Replier

	// ChannelSecret authenticates deliveries. Empty disables verification
	// for local development; the bypass is logged on every request.
	ChannelSecret string

	// Alerts receives processing failures. Nil disables alerting.
	Alerts *alert.Reporter
}

// Register mounts the webhook route. Both paths serve the same endpoint;
// /callback is the path older channel configurations point at.
func (g *Gateway) Register(router gin.IRouter) {
	router.POST("/webhook", g.handleWebhook)
	router.POST("/callback", g.handleWebhook)
}

// handleWebhook processes one delivery batch. Event failures are isolated:
// a panic or error in one event is logged and alerted, and the rest of the
// batch still runs. The response is 200 regardless of per-event outcomes;
// only an unauthenticated delivery is rejected.
func (g *Gateway) handleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Printf("bot: read webhook body: %v", err)
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	if g.ChannelSecret == "" {
		log.Printf("bot: WARNING: channel secret not configured, skipping signature verification")
	} else if !line.ValidateSignature(g.ChannelSecret, body, c.GetHeader("X-Line-Signature")) {
		log.Printf("bot: webhook signature mismatch from %s", c.ClientIP())
		c.String(http.StatusForbidden, "invalid signature")
		return
	}

	var payload line.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("bot: decode webhook payload: %v", err)
		c.String(http.StatusOK, "OK")
		return
	}

	for i := range payload.Events {
		g.processEvent(c.Request.Context(), payload.Events[i])
	}
	c.String(http.StatusOK, "OK")
}

// processEvent handles one event, converting panics into reported errors.
func (g *Gateway) processEvent(ctx context.Context, ev line.Event) {
	defer func() {
		if r := recover(); r != nil {
			g.reportFailure(ctx, ev, fmt.Errorf("panic: %v", r))
		}
	}()

	var msgs []line.Message
	var err error

	switch {
	case ev.Type == "message" && ev.Message != nil && ev.Message.Type == "text":
		msgs, err = g.Handler.HandleText(ev.Source.UserID, ev.Message.Text)

	case ev.Type == "postback" && ev.Postback != nil:
		var cmd line.Command
		cmd, err = line.ParsePostback(ev.Postback.Data)
		if err == nil {
			msgs, err = g.Handler.HandlePostback(ev.Source.UserID, cmd)
		}

	default:
		// Stickers, images, joins and the rest are ignored.
		return
	}

	if err != nil {
		g.reportFailure(ctx, ev, err)
		msgs = []line.Message{line.NewText("系統發生錯誤，請稍後再試。")}
	}
	if len(msgs) == 0 || ev.ReplyToken == "" {
		return
	}

	if err := g.Replier.Reply(ctx, ev.ReplyToken, msgs); err != nil {
		g.reportFailure(ctx, ev, err)
	}
}

func (g *Gateway) reportFailure(ctx context.Context, ev line.Event, err error) {
	log.Printf("bot: event %s from %s failed: %v", ev.Type, ev.Source.UserID, err)
	if g.Alerts != nil {
		g.Alerts.Error(ctx, "webhook event failed",
			fmt.Sprintf("type=%s user=%s: %v", ev.Type, ev.Source.UserID, err))
	}
}
