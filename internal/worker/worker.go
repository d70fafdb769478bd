// SPDX-License-Identifier: Apache-2.0

// Package worker runs the background refresh loop: it recomputes the daily
// per-area quality gauges for every active workspace and delivers the daily
// summary webhook once per calendar day.
package worker

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/auth"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/metrics"
	"github.com/vqtrack/vqtrack/internal/stats"
)

type RecordSource interface {
	ListPassRecords(ctx context.Context) ([]domain.PassRecord, error)
	ListDefectRecords(ctx context.Context) ([]domain.DefectRecord, error)
	ListDowntimeRecords(ctx context.Context) ([]domain.DowntimeRecord, error)
}

type WorkspaceSource interface {
	ListWorkspaces(ctx context.Context) ([]domain.WorkspaceRecord, error)
}

type Deps struct {
	Records         RecordSource
	Workspaces      WorkspaceSource
	Logger          *slog.Logger
	RefreshInterval time.Duration
	WebhookURL      string
	WebhookSecret   string
	HTTPClient      *http.Client
}

type Worker struct {
	records         RecordSource
	workspaces      WorkspaceSource
	logger          *slog.Logger
	refreshInterval time.Duration
	webhookURL      string
	webhookSecret   string
	httpClient      *http.Client

	// last calendar day a summary went out, keyed by workspace.
	summarySent map[uuid.UUID]string
}

func New(deps Deps) *Worker {
	l := deps.Logger
	if l == nil {
		l = slog.Default()
	}

	interval := deps.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	client := deps.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Worker{
		records:         deps.Records,
		workspaces:      deps.Workspaces,
		logger:          l,
		refreshInterval: interval,
		webhookURL:      deps.WebhookURL,
		webhookSecret:   deps.WebhookSecret,
		httpClient:      client,
		summarySent:     make(map[uuid.UUID]string),
	}
}

// Run refreshes the gauges on the configured interval until the context is
// canceled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.refreshInterval)
	defer ticker.Stop()

	if err := w.RefreshOnce(ctx); err != nil {
		w.logger.Error("stats refresh failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.RefreshOnce(ctx); err != nil {
				w.logger.Error("stats refresh failed", "error", err)
			}
		}
	}
}

// RefreshOnce recomputes today's per-area statistics for every active
// workspace and updates the exported gauges. On the first pass of a new
// calendar day it also delivers the previous day's summary webhook.
func (w *Worker) RefreshOnce(ctx context.Context) error {
	start := time.Now()
	defer func() {
		metrics.ObserveStatsRefreshDuration(time.Since(start))
	}()

	workspaces, err := w.workspaces.ListWorkspaces(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, ws := range workspaces {
		if err := w.refreshWorkspace(ctx, ws, now); err != nil {
			w.logger.Error("workspace refresh failed",
				"workspace_id", ws.ID,
				"workspace", ws.Name,
				"error", err,
			)
			continue
		}
	}

	return nil
}

func (w *Worker) refreshWorkspace(ctx context.Context, ws domain.WorkspaceRecord, now time.Time) error {
	scoped := auth.WithWorkspaceID(ctx, ws.ID)

	pass, defects, downtime, err := w.loadRecords(scoped)
	if err != nil {
		return err
	}

	s := stats.Compute(pass, defects, downtime, stats.Filter{
		StartDate: now,
		EndDate:   now,
		Area:      domain.AreaAll,
	})
	for _, area := range s.AreaStats {
		ftt, err := strconv.ParseFloat(area.FTT, 64)
		if err != nil {
			continue
		}
		metrics.SetAreaFTT(ws.Name, string(area.Area), ftt)
		metrics.SetAreaDowntimeMinutes(ws.Name, string(area.Area), float64(area.DowntimeMinutes))
	}

	w.logger.Debug("workspace gauges refreshed",
		"workspace_id", ws.ID,
		"workspace", ws.Name,
		"total_ok", s.TotalOK,
		"total_defects", s.TotalDefects,
	)

	if w.webhookURL != "" && w.summaryDue(ws.ID, now) {
		yesterday := now.AddDate(0, 0, -1)
		prev := stats.Compute(pass, defects, downtime, stats.Filter{
			StartDate: yesterday,
			EndDate:   yesterday,
			Area:      domain.AreaAll,
		})
		w.deliverSummaryWebhook(ctx, ws, prev, yesterday)
		w.summarySent[ws.ID] = now.Format("2006-01-02")
	}

	return nil
}

func (w *Worker) loadRecords(ctx context.Context) ([]domain.PassRecord, []domain.DefectRecord, []domain.DowntimeRecord, error) {
	pass, err := w.records.ListPassRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	defects, err := w.records.ListDefectRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	downtime, err := w.records.ListDowntimeRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return pass, defects, downtime, nil
}

// summaryDue reports whether the daily summary for a workspace has not yet
// been sent on the current calendar day.
func (w *Worker) summaryDue(workspaceID uuid.UUID, now time.Time) bool {
	return w.summarySent[workspaceID] != now.Format("2006-01-02")
}
