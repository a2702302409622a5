// Package notify pushes expense registrations to LINE Notify.
// Notifications are best-effort: failures are logged, never propagated
// into the write path.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/log"
)

const DefaultEndpoint = "https://notify-api.line.me/api/notify"

type LineNotifier struct {
	endpoint string
	client   *http.Client
	logger   *log.Logger
}

func NewLineNotifier(endpoint string, logger *log.Logger) *LineNotifier {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &LineNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.WithComponent(log.ComponentNotify),
	}
}

// ExpenseMessage holds everything the notification text needs, resolved by
// the caller. RemainingCount only renders when HasRule is set; the raw
// value may be zero or negative after the limit is crossed.
type ExpenseMessage struct {
	OwnerName      string
	CategoryName   string
	Amount         int64
	Memo           string
	HasRule        bool
	RemainingCount int
	HighAmount     bool
}

// BuildExpenseMessage renders the LINE text for one registered expense.
func BuildExpenseMessage(m ExpenseMessage) string {
	var b strings.Builder
	b.WriteString("\n【支出登録】\n")
	fmt.Fprintf(&b, "👤 %s\n", m.OwnerName)
	fmt.Fprintf(&b, "📁 %s\n", m.CategoryName)
	fmt.Fprintf(&b, "💰 %s\n", core.FormatYen(m.Amount))
	if m.Memo != "" {
		fmt.Fprintf(&b, "📝 %s\n", m.Memo)
	}
	if m.HasRule {
		icon := "📊"
		if m.RemainingCount <= 1 {
			icon = "⚠️"
		}
		fmt.Fprintf(&b, "%s %s 残り%d回\n", icon, m.CategoryName, m.RemainingCount)
	}
	if m.HighAmount {
		b.WriteString("🔔 高額支出です！")
	}
	return b.String()
}

// Send posts the message with the household's token. A missing token is a
// silent no-op so unconfigured households never error.
func (n *LineNotifier) Send(ctx context.Context, token, message string) error {
	if token == "" {
		return nil
	}

	form := url.Values{"message": {message}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build line request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send line notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("line notify returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// NotifyExpense builds and sends the registration message, swallowing any
// failure after logging it.
func (n *LineNotifier) NotifyExpense(ctx context.Context, token string, m ExpenseMessage) {
	if err := n.Send(ctx, token, BuildExpenseMessage(m)); err != nil {
		n.logger.WarnContext(ctx, "line notification failed",
			log.FieldOperation, log.OpNotify,
			log.FieldError, err.Error())
	}
}
