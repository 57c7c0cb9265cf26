// Package notifications pushes loan lifecycle notifications to an ntfy topic
// so back-office staff see stage transitions without polling the UI. It
// implements the events.Publisher sink; an unconfigured topic yields a no-op.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stagegate/internal/config"
	"stagegate/internal/events"
)

const userAgent = "Stagegate/0.1.0"

// Service delivers push notifications for loan events.
type Service interface {
	events.Publisher
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		stageEntered:  cfg.Notifications.StageEntered,
		loanCompleted: cfg.Notifications.LoanCompleted,
		errors:        cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	stageEntered  bool
	loanCompleted bool
	errors        bool
}

// Publish maps tracker events onto push notifications.
func (n *ntfyService) Publish(ctx context.Context, event events.Event) error {
	switch event.Type {
	case events.TypeStageEntered:
		if !n.stageEntered {
			return nil
		}
		return n.send(ctx, payload{
			title:   "Stagegate - Stage Entered",
			message: fmt.Sprintf("%s entered %s", applicantLabel(event), event.StageTitle),
			tags:    []string{"stagegate", "stage", "entered"},
		})
	case events.TypeLoanCompleted:
		if !n.loanCompleted {
			return nil
		}
		return n.send(ctx, payload{
			title:    "Stagegate - Loan Complete",
			message:  fmt.Sprintf("Loan for %s reached %s", applicantLabel(event), event.StageTitle),
			tags:     []string{"stagegate", "loan", "completed"},
			priority: "high",
		})
	default:
		return nil
	}
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "Stagegate - Error",
		message:  builder.String(),
		tags:     []string{"stagegate", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "Stagegate - Test",
		message:  "Notification system test",
		tags:     []string{"stagegate", "test"},
		priority: "low",
	})
}

func applicantLabel(event events.Event) string {
	if applicant := strings.TrimSpace(event.Applicant); applicant != "" {
		return applicant
	}
	return "loan " + event.LoanID
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, events.Event) error          { return nil }
func (noopService) NotifyError(context.Context, error, string) error     { return nil }
func (noopService) TestNotification(context.Context) error               { return nil }
