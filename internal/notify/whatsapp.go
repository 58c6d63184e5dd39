package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"rentstore/internal/config"
)

const (
	gatewayTimeout = 10 * time.Second
	sessionWorking = "WORKING"
)

// WhatsAppGateway talks to a WAHA-compatible HTTP gateway that owns the WhatsApp session.
type WhatsAppGateway struct {
	baseURL string
	session string
	apiKey  string
	timeout time.Duration
}

func NewWhatsAppGateway(cfg config.WhatsAppConfig) *WhatsAppGateway {
	return &WhatsAppGateway{
		baseURL: strings.TrimRight(cfg.GatewayURL, "/"),
		session: cfg.Session,
		apiKey:  cfg.APIKey,
		timeout: gatewayTimeout,
	}
}

type sessionStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

type sendTextRequest struct {
	Session string `json:"session"`
	ChatID  string `json:"chatId"`
	Text    string `json:"text"`
}

func (g *WhatsAppGateway) prepare(ctx context.Context, a *fiber.Agent) *fiber.Agent {
	timeout := g.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	a.Timeout(timeout)
	if g.apiKey != "" {
		a.Set("X-Api-Key", g.apiKey)
	}
	return a
}

// Ready reports whether the gateway session is connected and can send.
func (g *WhatsAppGateway) Ready(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	a := g.prepare(ctx, fiber.Get(g.baseURL+"/api/sessions/"+url.PathEscape(g.session)))
	var st sessionStatus
	code, body, errs := a.Struct(&st)
	if len(errs) > 0 {
		return false, fmt.Errorf("gateway session check: %w", errs[0])
	}
	if code != fiber.StatusOK {
		return false, fmt.Errorf("gateway session check: status %d: %s", code, body)
	}
	return st.Status == sessionWorking, nil
}

// SendText sends text to phone, which must already be normalized.
func (g *WhatsAppGateway) SendText(ctx context.Context, phone, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a := g.prepare(ctx, fiber.Post(g.baseURL+"/api/sendText"))
	a.JSON(sendTextRequest{
		Session: g.session,
		ChatID:  phone + "@c.us",
		Text:    text,
	})
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("gateway send: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("gateway send: status %d: %s", code, body)
	}
	return nil
}
