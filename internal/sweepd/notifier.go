package sweepd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/logger"
	"github.com/GoSim-25-26J-441/hpsweep/pkg/models"
)

// NotificationPayload is the JSON body posted to a sweep's callback URL
type NotificationPayload struct {
	SweepID         string                `json:"sweep_id"`
	Status          models.SweepStatus    `json:"status"`
	Experiment      string                `json:"experiment"`
	CreatedAtUnixMs int64                 `json:"created_at_unix_ms"`
	StartedAtUnixMs int64                 `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64                 `json:"ended_at_unix_ms,omitempty"`
	Error           string                `json:"error,omitempty"`
	Models          []models.ModelSummary `json:"models,omitempty"`
	Timestamp       int64                 `json:"timestamp"`
}

// Notifier posts sweep completion callbacks with retries
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	wg         sync.WaitGroup
}

// NewNotifier creates a notifier with a 10s request timeout and 3 retries
func NewNotifier() *Notifier {
	return &Notifier{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries: 3,
		baseDelay:  1 * time.Second,
	}
}

// Notify posts the sweep state to callbackURL in the background. A
// "{sweep_id}" placeholder in the URL is replaced.
func (n *Notifier) Notify(callbackURL string, callbackSecret string, sw models.Sweep) {
	if callbackURL == "" {
		return
	}

	finalURL := strings.ReplaceAll(callbackURL, "{sweep_id}", sw.ID)
	payload := NotificationPayload{
		SweepID:         sw.ID,
		Status:          sw.Status,
		Experiment:      sw.Experiment,
		CreatedAtUnixMs: sw.CreatedAtUnixMs,
		StartedAtUnixMs: sw.StartedAtUnixMs,
		EndedAtUnixMs:   sw.EndedAtUnixMs,
		Error:           sw.Error,
		Models:          sw.Models,
		Timestamp:       time.Now().UTC().UnixMilli(),
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(finalURL, callbackSecret, payload)
	}()
}

// Wait blocks until every pending notification is delivered or abandoned
func (n *Notifier) Wait() {
	n.wg.Wait()
}

// Drain waits like Wait but gives up when ctx ends
func (n *Notifier) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) send(callbackURL string, callbackSecret string, payload NotificationPayload) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal notification payload", "sweep_id", payload.SweepID, "error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			logger.Debug("retrying notification", "sweep_id", payload.SweepID, "attempt", attempt, "delay", delay)
			time.Sleep(delay)
		}

		req, err := http.NewRequest(http.MethodPost, callbackURL, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("failed to create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "hpsweep/1.0")
		if callbackSecret != "" {
			req.Header.Set("X-Hpsweep-Callback-Secret", callbackSecret)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			logger.Warn("notification attempt failed", "sweep_id", payload.SweepID, "attempt", attempt+1, "error", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			logger.Info("notification sent", "sweep_id", payload.SweepID, "status", payload.Status, "status_code", resp.StatusCode)
			return
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		logger.Warn("notification returned non-2xx status",
			"sweep_id", payload.SweepID,
			"status_code", resp.StatusCode,
			"response_body", string(respBody),
			"attempt", attempt+1)
	}

	logger.Error("failed to send notification after retries",
		"callback_url", callbackURL,
		"sweep_id", payload.SweepID,
		"max_retries", n.maxRetries,
		"last_error", lastErr)
}
