// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vqtrack/vqtrack/internal/auth"
	"github.com/vqtrack/vqtrack/internal/domain"
	"github.com/vqtrack/vqtrack/internal/entry"
	"github.com/vqtrack/vqtrack/internal/metrics"
	"github.com/vqtrack/vqtrack/internal/report"
	"github.com/vqtrack/vqtrack/internal/stats"
	"github.com/vqtrack/vqtrack/internal/transport/middleware"
)

const headerIdempotencyKey = "Idempotency-Key"

type inspectionRequest struct {
	Model          string `json:"model"`
	Area           string `json:"area"`
	VIN            string `json:"vin"`
	DefectType     string `json:"defect_type,omitempty"`
	Quantity       int    `json:"quantity"`
	OperatorID     string `json:"operator_id"`
	EntryDate      string `json:"entry_date"`
	StartTime      string `json:"start_time"`
	EndTime        string `json:"end_time"`
	ActingSection  string `json:"acting_section"`
	ReleaseNote    string `json:"release_note"`
	IsReinspection bool   `json:"is_reinspection"`
	AllowDuplicate bool   `json:"allow_duplicate"`
}

func (req inspectionRequest) toInput(kind domain.RecordKind) entry.InspectionInput {
	return entry.InspectionInput{
		Kind:           kind,
		Model:          domain.CarModel(strings.TrimSpace(req.Model)),
		Area:           domain.Area(strings.TrimSpace(req.Area)),
		VIN:            req.VIN,
		DefectType:     req.DefectType,
		Quantity:       req.Quantity,
		OperatorID:     req.OperatorID,
		EntryDate:      req.EntryDate,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		ActingSection:  req.ActingSection,
		ReleaseNote:    req.ReleaseNote,
		IsReinspection: req.IsReinspection,
	}
}

type downtimeRequest struct {
	Area       string `json:"area"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Reason     string `json:"reason"`
	OperatorID string `json:"operator_id"`
}

type createWorkspaceRequest struct {
	Name              string `json:"name"`
	MaxRequestsPerMin int    `json:"max_requests_per_min"`
}

type Deps struct {
	Records           RecordStore
	Changes           ChangeStreamer
	WorkspaceAdmin    WorkspaceManager
	WorkspaceResolver middleware.WorkspaceResolver
	Health            HealthChecker
	Logger            *slog.Logger
	AdminToken        string
	Version           string
	Commit            string
	BuildDate         string
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics.Init()
	version := valueOrDefault(deps.Version, "dev")
	commit := valueOrDefault(deps.Commit, "none")
	buildDate := valueOrDefault(deps.BuildDate, "unknown")

	r := chi.NewRouter()
	r.Use(requestIDMiddleware())
	r.Use(requestLoggingMiddleware(logger))

	// ---------------- HEALTH ----------------

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if deps.Health != nil {
			if err := deps.Health.Check(r.Context()); err != nil {
				logger.Error("health check failed", "error", err)
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// ---------------- METRICS ----------------

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// ---------------- VERSION ----------------

	r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version":    version,
			"commit":     commit,
			"build_date": buildDate,
		})
	})

	// ---------------- WORKSPACE LIFECYCLE (ADMIN) ----------------

	if deps.WorkspaceAdmin != nil {
		r.Route("/workspaces", func(admin chi.Router) {
			admin.Use(middleware.AdminTokenAuth(deps.AdminToken, logger))

			admin.Post("/", func(w http.ResponseWriter, r *http.Request) {
				reqBody, err := decodeCreateWorkspaceRequest(r)
				if err != nil {
					http.Error(w, "invalid request body", http.StatusBadRequest)
					return
				}

				created, err := deps.WorkspaceAdmin.CreateWorkspace(r.Context(), domain.CreateWorkspaceParams{
					Name:              reqBody.Name,
					MaxRequestsPerMin: reqBody.MaxRequestsPerMin,
				})
				if err != nil {
					if errors.Is(err, domain.ErrInvalidWorkspaceName) {
						http.Error(w, "invalid workspace name", http.StatusBadRequest)
						return
					}
					logger.Error("create workspace failed", "error", err)
					http.Error(w, "failed to create workspace", http.StatusInternalServerError)
					return
				}

				writeJSON(w, http.StatusOK, map[string]string{
					"workspace_id": created.ID.String(),
					"token":        created.Token,
				})
			})

			admin.Get("/", func(w http.ResponseWriter, r *http.Request) {
				workspaces, err := deps.WorkspaceAdmin.ListWorkspaces(r.Context())
				if err != nil {
					logger.Error("list workspaces failed", "error", err)
					http.Error(w, "failed to list workspaces", http.StatusInternalServerError)
					return
				}
				writeJSON(w, http.StatusOK, map[string]any{
					"workspaces": workspaces,
				})
			})

			admin.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
				id, err := uuid.Parse(chi.URLParam(r, "id"))
				if err != nil {
					http.Error(w, "invalid workspace ID", http.StatusBadRequest)
					return
				}

				if err := deps.WorkspaceAdmin.RevokeWorkspace(r.Context(), id); err != nil {
					if errors.Is(err, pgx.ErrNoRows) {
						http.Error(w, "workspace not found", http.StatusNotFound)
						return
					}
					logger.Error("revoke workspace failed", "workspace_id", id, "error", err)
					http.Error(w, "failed to revoke workspace", http.StatusInternalServerError)
					return
				}

				w.WriteHeader(http.StatusNoContent)
			})
		})
	}

	// ---------------- RECORDS (WORKSPACE TOKEN AUTH) ----------------

	r.Group(func(r chi.Router) {
		if deps.WorkspaceResolver != nil {
			r.Use(middleware.WorkspaceTokenAuth(deps.WorkspaceResolver, logger))
		}

		// ---------------- PASS RECORDS ----------------

		r.Get("/records/pass", func(w http.ResponseWriter, r *http.Request) {
			records, err := deps.Records.ListPassRecords(r.Context())
			if err != nil {
				logger.Error("list pass records failed", "error", err)
				http.Error(w, "failed to list records", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"records": records})
		})

		r.Post("/records/pass", func(w http.ResponseWriter, r *http.Request) {
			ctx := idempotentContext(r)

			reqBody, err := decodeInspectionRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			rec, err := entry.BuildPass(reqBody.toInput(domain.KindPass), time.Now())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			existing, err := deps.Records.ListPassRecords(ctx)
			if err != nil {
				logger.Error("list pass records failed", "error", err)
				http.Error(w, "failed to create record", http.StatusInternalServerError)
				return
			}

			if id, ok := replayID(ctx); ok {
				rec.ID = id
				for _, prev := range existing {
					if prev.ID == id {
						writeJSON(w, http.StatusOK, map[string]string{"record_id": id.String()})
						return
					}
				}
			}

			if !reqBody.AllowDuplicate {
				if err := entry.CheckDuplicatePass(rec, existing, uuid.Nil); err != nil {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
			}

			if err := deps.Records.InsertPassRecord(ctx, rec); err != nil {
				logger.Error("insert pass record failed", "error", err)
				http.Error(w, "failed to create record", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionPass, domain.OpAdd)
			logger.Info("pass record created via API", "record_id", rec.ID)
			writeJSON(w, http.StatusOK, map[string]string{"record_id": rec.ID.String()})
		})

		r.Put("/records/pass/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				http.Error(w, "invalid record ID", http.StatusBadRequest)
				return
			}

			reqBody, err := decodeInspectionRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			existing, err := deps.Records.ListPassRecords(r.Context())
			if err != nil {
				logger.Error("list pass records failed", "error", err)
				http.Error(w, "failed to update record", http.StatusInternalServerError)
				return
			}
			original, ok := findPassRecord(existing, id)
			if !ok {
				http.Error(w, "record not found", http.StatusNotFound)
				return
			}

			now := time.Now()
			rec, err := entry.BuildPass(reqBody.toInput(domain.KindPass), now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.ID = id
			ts, err := entry.EditTimestamp(original.Timestamp, reqBody.EntryDate, now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.Timestamp = ts

			if !reqBody.AllowDuplicate {
				if err := entry.CheckDuplicatePass(rec, existing, id); err != nil {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
			}

			if err := deps.Records.UpdatePassRecord(r.Context(), rec); err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					http.Error(w, "record not found", http.StatusNotFound)
					return
				}
				logger.Error("update pass record failed", "record_id", id, "error", err)
				http.Error(w, "failed to update record", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionPass, domain.OpUpdate)
			writeJSON(w, http.StatusOK, map[string]string{"record_id": id.String()})
		})

		r.Delete("/records/pass/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleteRecordHandler(w, r, logger, domain.CollectionPass, deps.Records.DeletePassRecord)
		})

		// ---------------- DEFECT RECORDS ----------------

		r.Get("/records/defects", func(w http.ResponseWriter, r *http.Request) {
			records, err := deps.Records.ListDefectRecords(r.Context())
			if err != nil {
				logger.Error("list defect records failed", "error", err)
				http.Error(w, "failed to list records", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"records": records})
		})

		r.Post("/records/defects", func(w http.ResponseWriter, r *http.Request) {
			ctx := idempotentContext(r)

			reqBody, err := decodeInspectionRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			rec, err := entry.BuildDefect(reqBody.toInput(domain.KindDefect), time.Now())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			existing, err := deps.Records.ListDefectRecords(ctx)
			if err != nil {
				logger.Error("list defect records failed", "error", err)
				http.Error(w, "failed to create record", http.StatusInternalServerError)
				return
			}

			if id, ok := replayID(ctx); ok {
				rec.ID = id
				for _, prev := range existing {
					if prev.ID == id {
						writeJSON(w, http.StatusOK, map[string]string{"record_id": id.String()})
						return
					}
				}
			}

			if !reqBody.AllowDuplicate {
				if err := entry.CheckDuplicateDefect(rec, existing, uuid.Nil); err != nil {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
			}

			if err := deps.Records.InsertDefectRecord(ctx, rec); err != nil {
				logger.Error("insert defect record failed", "error", err)
				http.Error(w, "failed to create record", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionDefect, domain.OpAdd)
			logger.Info("defect record created via API", "record_id", rec.ID)
			writeJSON(w, http.StatusOK, map[string]string{"record_id": rec.ID.String()})
		})

		r.Put("/records/defects/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				http.Error(w, "invalid record ID", http.StatusBadRequest)
				return
			}

			reqBody, err := decodeInspectionRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			existing, err := deps.Records.ListDefectRecords(r.Context())
			if err != nil {
				logger.Error("list defect records failed", "error", err)
				http.Error(w, "failed to update record", http.StatusInternalServerError)
				return
			}
			original, ok := findDefectRecord(existing, id)
			if !ok {
				http.Error(w, "record not found", http.StatusNotFound)
				return
			}

			now := time.Now()
			rec, err := entry.BuildDefect(reqBody.toInput(domain.KindDefect), now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.ID = id
			ts, err := entry.EditTimestamp(original.Timestamp, reqBody.EntryDate, now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			rec.Timestamp = ts

			if !reqBody.AllowDuplicate {
				if err := entry.CheckDuplicateDefect(rec, existing, id); err != nil {
					http.Error(w, err.Error(), http.StatusConflict)
					return
				}
			}

			if err := deps.Records.UpdateDefectRecord(r.Context(), rec); err != nil {
				if errors.Is(err, domain.ErrRecordNotFound) {
					http.Error(w, "record not found", http.StatusNotFound)
					return
				}
				logger.Error("update defect record failed", "record_id", id, "error", err)
				http.Error(w, "failed to update record", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionDefect, domain.OpUpdate)
			writeJSON(w, http.StatusOK, map[string]string{"record_id": id.String()})
		})

		r.Delete("/records/defects/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleteRecordHandler(w, r, logger, domain.CollectionDefect, deps.Records.DeleteDefectRecord)
		})

		// ---------------- DOWNTIME RECORDS ----------------

		r.Get("/records/downtime", func(w http.ResponseWriter, r *http.Request) {
			records, err := deps.Records.ListDowntimeRecords(r.Context())
			if err != nil {
				logger.Error("list downtime records failed", "error", err)
				http.Error(w, "failed to list records", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"records": records})
		})

		r.Post("/records/downtime", func(w http.ResponseWriter, r *http.Request) {
			ctx := idempotentContext(r)

			reqBody, err := decodeDowntimeRequest(r)
			if err != nil {
				http.Error(w, "invalid request body", http.StatusBadRequest)
				return
			}

			rec, err := entry.BuildDowntime(entry.DowntimeInput{
				Area:       domain.Area(strings.TrimSpace(reqBody.Area)),
				StartTime:  reqBody.StartTime,
				EndTime:    reqBody.EndTime,
				Reason:     reqBody.Reason,
				OperatorID: reqBody.OperatorID,
			}, time.Now())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			if id, ok := replayID(ctx); ok {
				rec.ID = id
				existing, err := deps.Records.ListDowntimeRecords(ctx)
				if err != nil {
					logger.Error("list downtime records failed", "error", err)
					http.Error(w, "failed to create record", http.StatusInternalServerError)
					return
				}
				for _, prev := range existing {
					if prev.ID == id {
						writeJSON(w, http.StatusOK, map[string]string{"record_id": id.String()})
						return
					}
				}
			}

			if err := deps.Records.InsertDowntimeRecord(ctx, rec); err != nil {
				logger.Error("insert downtime record failed", "error", err)
				http.Error(w, "failed to create record", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionDowntime, domain.OpAdd)
			logger.Info("downtime record created via API", "record_id", rec.ID)
			writeJSON(w, http.StatusOK, map[string]string{"record_id": rec.ID.String()})
		})

		r.Delete("/records/downtime/{id}", func(w http.ResponseWriter, r *http.Request) {
			deleteRecordHandler(w, r, logger, domain.CollectionDowntime, deps.Records.DeleteDowntimeRecord)
		})

		// ---------------- CLEAR ALL ----------------

		r.Post("/records/clear", func(w http.ResponseWriter, r *http.Request) {
			if err := deps.Records.ClearAll(r.Context()); err != nil {
				logger.Error("clear all records failed", "error", err)
				http.Error(w, "failed to clear records", http.StatusInternalServerError)
				return
			}

			metrics.IncRecordOp(domain.CollectionPass, domain.OpClear)
			metrics.IncRecordOp(domain.CollectionDefect, domain.OpClear)
			metrics.IncRecordOp(domain.CollectionDowntime, domain.OpClear)
			logger.Info("all records cleared via API")
			w.WriteHeader(http.StatusNoContent)
		})

		// ---------------- STATISTICS ----------------

		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			f, err := parseStatsFilter(r, time.Now())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to compute statistics", http.StatusInternalServerError)
				return
			}

			writeJSON(w, http.StatusOK, stats.Compute(pass, defects, downtime, f))
		})

		// ---------------- EXPORTS ----------------

		r.Get("/export/xlsx", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			f, err := parseStatsFilter(r, now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to export records", http.StatusInternalServerError)
				return
			}

			s := stats.Compute(pass, defects, downtime, f)
			data, name, err := report.Excel(s, f.Area, strings.TrimSpace(r.URL.Query().Get("period_label")), now)
			if err != nil {
				logger.Error("xlsx export failed", "error", err)
				http.Error(w, "failed to export records", http.StatusInternalServerError)
				return
			}

			metrics.IncExport("xlsx")
			writeAttachment(w, data, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		})

		r.Get("/export/chat", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			f, err := parseStatsFilter(r, now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to export summary", http.StatusInternalServerError)
				return
			}

			s := stats.Compute(pass, defects, downtime, f)
			metrics.IncExport("chat")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = io.WriteString(w, report.ChatSummary(s, f.Area, now))
		})

		r.Get("/export/deck", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			period := report.Period(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("period"))))
			if period == "" {
				period = report.PeriodWeekly
			}
			if !report.ValidPeriod(period) {
				http.Error(w, "invalid period", http.StatusBadRequest)
				return
			}
			area, err := parseArea(r.URL.Query().Get("area"))
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to export deck", http.StatusInternalServerError)
				return
			}

			start := now.AddDate(0, 0, -period.Days())
			s := stats.Compute(pass, defects, downtime, stats.Filter{
				StartDate: start,
				EndDate:   now,
				Area:      area,
			})
			data, name, err := report.Deck(s, area, period, start, now)
			if err != nil {
				logger.Error("deck export failed", "error", err)
				http.Error(w, "failed to export deck", http.StatusInternalServerError)
				return
			}

			metrics.IncExport("deck")
			writeAttachment(w, data, name, "application/pdf")
		})

		r.Get("/export/dossier", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			vin := strings.TrimSpace(r.URL.Query().Get("vin"))
			if vin == "" {
				http.Error(w, "vin is required", http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to export dossier", http.StatusInternalServerError)
				return
			}

			s := stats.Compute(pass, defects, downtime, stats.Filter{
				EndDate:  now,
				Area:     domain.AreaAll,
				VINQuery: vin,
			})
			data, name, err := report.VINDossier(s.VINHistory, vin, now)
			if err != nil {
				logger.Error("dossier export failed", "vin", vin, "error", err)
				http.Error(w, "failed to export dossier", http.StatusInternalServerError)
				return
			}

			metrics.IncExport("dossier")
			writeAttachment(w, data, name, "application/pdf")
		})

		r.Get("/export/operator-log", func(w http.ResponseWriter, r *http.Request) {
			now := time.Now()
			operatorID := strings.TrimSpace(r.URL.Query().Get("operator_id"))
			if operatorID == "" {
				http.Error(w, "operator_id is required", http.StatusBadRequest)
				return
			}
			f, err := parseStatsFilter(r, now)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}

			pass, defects, downtime, err := loadRecords(r.Context(), deps.Records)
			if err != nil {
				logger.Error("load records failed", "error", err)
				http.Error(w, "failed to export operator log", http.StatusInternalServerError)
				return
			}

			s := stats.Compute(pass, defects, downtime, f)
			data, name, err := report.OperatorLog(s.FilteredPass, s.FilteredDefects, operatorID, now)
			if err != nil {
				logger.Error("operator log export failed", "operator_id", operatorID, "error", err)
				http.Error(w, "failed to export operator log", http.StatusInternalServerError)
				return
			}

			metrics.IncExport("operator_log")
			writeAttachment(w, data, name, "application/pdf")
		})

		// ---------------- STREAM CHANGES (SSE) ----------------

		r.Get("/records/stream", func(w http.ResponseWriter, r *http.Request) {
			if deps.Changes == nil {
				logger.Error("sse change repository is not configured")
				http.Error(w, "failed to stream changes", http.StatusInternalServerError)
				return
			}

			since := strings.TrimSpace(r.URL.Query().Get("since_id"))
			cursor, err := resolveChangesCursor(r.Context(), deps.Changes, since)
			if err != nil {
				if errors.Is(err, errInvalidSinceID) {
					http.Error(w, "invalid since_id", http.StatusBadRequest)
					return
				}
				logger.Error("resolve changes cursor failed", "since_id", since, "error", err)
				http.Error(w, "failed to stream changes", http.StatusInternalServerError)
				return
			}

			flusher, ok := w.(http.Flusher)
			if !ok {
				http.Error(w, "streaming unsupported", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Accel-Buffering", "no")
			w.WriteHeader(http.StatusOK)
			flusher.Flush()

			writeChanges := func() error {
				events, err := deps.Changes.ListChangesAfter(r.Context(), cursor)
				if err != nil {
					return err
				}

				for _, ev := range events {
					payload, err := json.Marshal(ev)
					if err != nil {
						return err
					}
					if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", payload); err != nil {
						return err
					}
					flusher.Flush()
					cursor = ev.Seq
				}

				return nil
			}

			if err := writeChanges(); err != nil {
				logger.Error("sse initial write failed", "error", err)
				return
			}

			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()

			for {
				select {
				case <-r.Context().Done():
					return
				case <-ticker.C:
					if err := writeChanges(); err != nil {
						logger.Error("sse write failed", "error", err)
						return
					}
				}
			}
		})
	})

	return r
}

// idempotentContext attaches the Idempotency-Key header, when present, to the
// request context for the create handlers.
func idempotentContext(r *http.Request) context.Context {
	ctx := r.Context()
	if key := strings.TrimSpace(r.Header.Get(headerIdempotencyKey)); key != "" {
		ctx = auth.WithIdempotencyKey(ctx, key)
	}
	return ctx
}

// replayID derives a stable record ID from the idempotency key so a retried
// create lands on the same row instead of inserting twice.
func replayID(ctx context.Context) (uuid.UUID, bool) {
	key, ok := auth.IdempotencyKeyFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)), true
}

func deleteRecordHandler(
	w http.ResponseWriter,
	r *http.Request,
	logger *slog.Logger,
	collection string,
	remove func(ctx context.Context, id uuid.UUID) error,
) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid record ID", http.StatusBadRequest)
		return
	}

	if err := remove(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		logger.Error("delete record failed", "collection", collection, "record_id", id, "error", err)
		http.Error(w, "failed to delete record", http.StatusInternalServerError)
		return
	}

	metrics.IncRecordOp(collection, domain.OpRemove)
	w.WriteHeader(http.StatusNoContent)
}

func loadRecords(ctx context.Context, store RecordStore) ([]domain.PassRecord, []domain.DefectRecord, []domain.DowntimeRecord, error) {
	pass, err := store.ListPassRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	defects, err := store.ListDefectRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	downtime, err := store.ListDowntimeRecords(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	return pass, defects, downtime, nil
}

// parseStatsFilter reads the dashboard filter query parameters. Missing dates
// default to today, so the bare endpoint serves the live daily view.
func parseStatsFilter(r *http.Request, now time.Time) (stats.Filter, error) {
	q := r.URL.Query()

	start := now
	if v := strings.TrimSpace(q.Get("start")); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return stats.Filter{}, fmt.Errorf("invalid start date %q", v)
		}
		start = parsed
	}
	end := now
	if v := strings.TrimSpace(q.Get("end")); v != "" {
		parsed, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return stats.Filter{}, fmt.Errorf("invalid end date %q", v)
		}
		end = parsed
	}
	if end.Before(start) {
		return stats.Filter{}, errors.New("end date before start date")
	}

	area, err := parseArea(q.Get("area"))
	if err != nil {
		return stats.Filter{}, err
	}

	scope := stats.ScopeSelected
	if strings.EqualFold(strings.TrimSpace(q.Get("scope")), string(stats.ScopeGeneral)) {
		scope = stats.ScopeGeneral
	}

	return stats.Filter{
		StartDate:  start,
		EndDate:    end,
		Area:       area,
		VINQuery:   q.Get("vin"),
		ChartScope: scope,
	}, nil
}

func parseArea(raw string) (domain.Area, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, string(domain.AreaAll)) {
		return domain.AreaAll, nil
	}
	area := domain.Area(raw)
	if !domain.ValidArea(area) {
		return "", fmt.Errorf("unknown area %q", raw)
	}
	return area, nil
}

func findPassRecord(records []domain.PassRecord, id uuid.UUID) (domain.PassRecord, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.PassRecord{}, false
}

func findDefectRecord(records []domain.DefectRecord, id uuid.UUID) (domain.DefectRecord, bool) {
	for _, rec := range records {
		if rec.ID == id {
			return rec, true
		}
	}
	return domain.DefectRecord{}, false
}

func writeAttachment(w http.ResponseWriter, data []byte, name, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeInspectionRequest(r *http.Request) (inspectionRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return inspectionRequest{}, errors.New("request body is required")
	}

	var req inspectionRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return inspectionRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return inspectionRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	if req.Quantity == 0 {
		req.Quantity = 1
	}

	return req, nil
}

func decodeDowntimeRequest(r *http.Request) (downtimeRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return downtimeRequest{}, errors.New("request body is required")
	}

	var req downtimeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return downtimeRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return downtimeRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	return req, nil
}

func decodeCreateWorkspaceRequest(r *http.Request) (createWorkspaceRequest, error) {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return createWorkspaceRequest{}, domain.ErrInvalidWorkspaceName
	}

	var req createWorkspaceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return createWorkspaceRequest{}, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return createWorkspaceRequest{}, errors.New("request body must contain exactly one JSON object")
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return createWorkspaceRequest{}, domain.ErrInvalidWorkspaceName
	}

	return req, nil
}

var errInvalidSinceID = errors.New("invalid since_id")

func resolveChangesCursor(ctx context.Context, changes ChangeStreamer, since string) (int64, error) {
	if since == "" {
		return 0, nil
	}

	if seq, err := strconv.ParseInt(since, 10, 64); err == nil {
		if seq < 0 {
			return 0, errInvalidSinceID
		}
		return seq, nil
	}

	eventID, err := uuid.Parse(since)
	if err != nil {
		return 0, errInvalidSinceID
	}

	seq, err := changes.ResolveCursorByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errInvalidSinceID
		}
		return 0, err
	}

	return seq, nil
}

func valueOrDefault(value, defaultValue string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return defaultValue
	}
	return trimmed
}
