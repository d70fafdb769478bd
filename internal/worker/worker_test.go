// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/auth"
	"github.com/vqtrack/vqtrack/internal/domain"
)

type fakeRecordSource struct {
	pass      []domain.PassRecord
	defects   []domain.DefectRecord
	downtime  []domain.DowntimeRecord
	seenScope []uuid.UUID
	err       error
}

func (f *fakeRecordSource) ListPassRecords(ctx context.Context) ([]domain.PassRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if id, ok := auth.WorkspaceIDFromContext(ctx); ok {
		f.seenScope = append(f.seenScope, id)
	}
	return f.pass, nil
}

func (f *fakeRecordSource) ListDefectRecords(context.Context) ([]domain.DefectRecord, error) {
	return f.defects, f.err
}

func (f *fakeRecordSource) ListDowntimeRecords(context.Context) ([]domain.DowntimeRecord, error) {
	return f.downtime, f.err
}

type fakeWorkspaceSource struct {
	workspaces []domain.WorkspaceRecord
	err        error
}

func (f *fakeWorkspaceSource) ListWorkspaces(context.Context) ([]domain.WorkspaceRecord, error) {
	return f.workspaces, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshOnceScopesEachWorkspace(t *testing.T) {
	wsA := domain.WorkspaceRecord{ID: uuid.New(), Name: "planta-a"}
	wsB := domain.WorkspaceRecord{ID: uuid.New(), Name: "planta-b"}
	records := &fakeRecordSource{
		pass: []domain.PassRecord{{
			ID: uuid.New(), Timestamp: domain.EpochMillis(time.Now()),
			Model: domain.ModelEQE, Area: domain.AreaLinhaOK, Quantity: 1,
		}},
	}

	w := New(Deps{
		Records:    records,
		Workspaces: &fakeWorkspaceSource{workspaces: []domain.WorkspaceRecord{wsA, wsB}},
		Logger:     discardLogger(),
	})

	if err := w.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	if len(records.seenScope) != 2 {
		t.Fatalf("expected 2 scoped loads got %d", len(records.seenScope))
	}
	if records.seenScope[0] != wsA.ID || records.seenScope[1] != wsB.ID {
		t.Fatalf("unexpected scope order %v", records.seenScope)
	}
}

func TestRefreshOnceSurfacesWorkspaceListError(t *testing.T) {
	w := New(Deps{
		Records:    &fakeRecordSource{},
		Workspaces: &fakeWorkspaceSource{err: context.DeadlineExceeded},
		Logger:     discardLogger(),
	})

	if err := w.RefreshOnce(context.Background()); err == nil {
		t.Fatal("expected error from workspace listing")
	}
}

func TestSummaryDeliveredOncePerDay(t *testing.T) {
	var hits atomic.Int32
	var lastBody []byte
	var lastSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody = body
		lastSig = r.Header.Get(webhookHeaderSig)
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ws := domain.WorkspaceRecord{ID: uuid.New(), Name: "planta-a"}
	w := New(Deps{
		Records:       &fakeRecordSource{},
		Workspaces:    &fakeWorkspaceSource{workspaces: []domain.WorkspaceRecord{ws}},
		Logger:        discardLogger(),
		WebhookURL:    srv.URL,
		WebhookSecret: "chave-secreta",
		HTTPClient:    srv.Client(),
	})

	if err := w.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if err := w.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("expected exactly 1 summary delivery got %d", got)
	}

	var payload dailySummaryPayload
	if err := json.Unmarshal(lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.WorkspaceID != ws.ID || payload.WorkspaceName != "planta-a" {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Date != time.Now().AddDate(0, 0, -1).Format("2006-01-02") {
		t.Fatalf("expected previous-day summary, got date %q", payload.Date)
	}

	mac := hmac.New(sha256.New, []byte("chave-secreta"))
	mac.Write(lastBody)
	if want := hex.EncodeToString(mac.Sum(nil)); lastSig != want {
		t.Fatalf("signature mismatch: got %q want %q", lastSig, want)
	}
}

func TestSummaryRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ws := domain.WorkspaceRecord{ID: uuid.New(), Name: "planta-a"}
	w := New(Deps{
		Records:    &fakeRecordSource{},
		Workspaces: &fakeWorkspaceSource{workspaces: []domain.WorkspaceRecord{ws}},
		Logger:     discardLogger(),
		WebhookURL: srv.URL,
		HTTPClient: srv.Client(),
	})

	if err := w.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce: %v", err)
	}

	if got := hits.Load(); got != 3 {
		t.Fatalf("expected 3 delivery attempts got %d", got)
	}
}

func TestSignSummaryPayload(t *testing.T) {
	if got := signSummaryPayload("  ", []byte("x")); got != "" {
		t.Fatalf("expected empty signature for blank secret, got %q", got)
	}
	if got := signSummaryPayload("s", []byte("x")); got == "" {
		t.Fatal("expected non-empty signature")
	}
}
