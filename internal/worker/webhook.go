// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/report"
	"github.com/vqtrack/vqtrack/internal/stats"
)

const (
	webhookRetryAttempts = 3
	webhookRetryBase     = 300 * time.Millisecond
	webhookHeaderSig     = "X-Signature"
)

type dailySummaryPayload struct {
	WorkspaceID   uuid.UUID `json:"workspace_id"`
	WorkspaceName string    `json:"workspace_name"`
	Date          string    `json:"date"`
	TotalOK       int       `json:"total_ok"`
	TotalDefects  int       `json:"total_defects"`
	OverallFTT    string    `json:"overall_ftt"`
	DowntimeHours string    `json:"downtime_hours"`
	Summary       string    `json:"summary"`
}

// deliverSummaryWebhook posts one workspace's daily summary, retrying with
// exponential backoff on transient failures. Delivery is best effort; a lost
// summary is regenerated from the records on demand.
func (w *Worker) deliverSummaryWebhook(
	ctx context.Context,
	ws domain.WorkspaceRecord,
	s stats.Statistics,
	day time.Time,
) {
	url := strings.TrimSpace(w.webhookURL)
	if url == "" || w.httpClient == nil {
		return
	}

	body, err := json.Marshal(dailySummaryPayload{
		WorkspaceID:   ws.ID,
		WorkspaceName: ws.Name,
		Date:          day.Format("2006-01-02"),
		TotalOK:       s.TotalOK,
		TotalDefects:  s.TotalDefects,
		OverallFTT:    s.OverallFTT,
		DowntimeHours: s.TotalDowntimeHours,
		Summary:       report.ChatSummary(s, domain.AreaAll, day),
	})
	if err != nil {
		w.logger.Error("summary payload marshal failed",
			"workspace_id", ws.ID,
			"error", err,
		)
		return
	}

	signature := signSummaryPayload(w.webhookSecret, body)

	var lastErr error
	for attempt := 1; attempt <= webhookRetryAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			lastErr = err
			w.logger.Error("summary request build failed",
				"workspace_id", ws.ID,
				"attempt", attempt,
				"error", err,
			)
			break
		}
		req.Header.Set("Content-Type", "application/json")
		if signature != "" {
			req.Header.Set(webhookHeaderSig, signature)
		}

		resp, err := w.httpClient.Do(req)
		if err != nil {
			lastErr = err
			w.logger.Warn("summary delivery failure",
				"workspace_id", ws.ID,
				"attempt", attempt,
				"error", err,
			)
		} else {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
				w.logger.Info("summary delivered",
					"workspace_id", ws.ID,
					"workspace", ws.Name,
					"attempt", attempt,
					"response_status", resp.StatusCode,
				)
				return
			}

			lastErr = fmt.Errorf("non-2xx response: %d", resp.StatusCode)
			w.logger.Warn("summary delivery failure",
				"workspace_id", ws.ID,
				"attempt", attempt,
				"response_status", resp.StatusCode,
			)
		}

		if attempt < webhookRetryAttempts {
			wait := webhookRetryBase * time.Duration(1<<(attempt-1))
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				w.logger.Warn("summary delivery canceled before retry",
					"workspace_id", ws.ID,
					"attempt", attempt,
					"error", ctx.Err(),
				)
				return
			case <-timer.C:
			}
		}
	}

	if lastErr != nil {
		w.logger.Error("summary delivery retries exhausted",
			"workspace_id", ws.ID,
			"error", lastErr,
		)
	}
}

func signSummaryPayload(secret string, payload []byte) string {
	if strings.TrimSpace(secret) == "" {
		return ""
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
