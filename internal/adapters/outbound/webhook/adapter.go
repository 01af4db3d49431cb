package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/fleetguard/fleetguard-controller/internal/logic/tracker"
)

const (
	deliveryTimeout = 10 * time.Second

	colorWarning  = 0xE67E22
	colorCritical = 0xE74C3C
	colorInfo     = 0x3498DB

	footerText = "fleetguard-controller"
)

// Adapter delivers escalation messages to a generic webhook accepting an
// embed-style payload. Deliveries are single-shot: a failure is returned to
// the caller, never retried here.
type Adapter struct {
	logger *slog.Logger
	client *http.Client
	url    string
}

// New creates a webhook adapter for the given delivery URL.
func New(logger *slog.Logger, url string) *Adapter {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = deliveryTimeout

	return &Adapter{
		logger: logger,
		client: client,
		url:    url,
	}
}

// NotifyOveruse delivers the human-readable overage report for one instance.
func (a *Adapter) NotifyOveruse(
	ctx context.Context,
	inst tracker.Instance,
	snap tracker.Snapshot,
) error {
	return a.send(ctx, embed{
		Title:       "Resource limits exceeded",
		Description: renderUsageReport(inst, snap),
		Color:       colorWarning,
	})
}

// NotifyTermination delivers the audit entry recording a forced termination.
func (a *Adapter) NotifyTermination(
	ctx context.Context,
	inst tracker.Instance,
	snap tracker.Snapshot,
) error {
	return a.send(ctx, embed{
		Title:       "Instance terminated",
		Description: renderUsageReport(inst, snap),
		Color:       colorCritical,
	})
}

// NotifySummary delivers the periodic fleet summary.
func (a *Adapter) NotifySummary(
	ctx context.Context,
	episodes []tracker.Episode,
) error {
	return a.send(ctx, embed{
		Title:       "Fleet usage summary",
		Description: renderSummary(episodes, time.Now()),
		Color:       colorInfo,
	})
}

func (a *Adapter) send(ctx context.Context, message embed) error {
	message.Footer = footer{Text: footerText}
	message.Timestamp = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(payload{Embeds: []embed{message}})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("deliver webhook: unexpected status %d", resp.StatusCode)
	}

	a.logger.DebugContext(ctx, "webhook delivered", "title", message.Title)

	return nil
}
