// SPDX-License-Identifier: Apache-2.0

package httptransport

import (
	"context"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/domain"
)

// RecordStore is the workspace-scoped persistence surface of the three
// record collections. Implementations read the workspace from the request
// context.
type RecordStore interface {
	ListPassRecords(ctx context.Context) ([]domain.PassRecord, error)
	InsertPassRecord(ctx context.Context, rec domain.PassRecord) error
	UpdatePassRecord(ctx context.Context, rec domain.PassRecord) error
	DeletePassRecord(ctx context.Context, id uuid.UUID) error

	ListDefectRecords(ctx context.Context) ([]domain.DefectRecord, error)
	InsertDefectRecord(ctx context.Context, rec domain.DefectRecord) error
	UpdateDefectRecord(ctx context.Context, rec domain.DefectRecord) error
	DeleteDefectRecord(ctx context.Context, id uuid.UUID) error

	ListDowntimeRecords(ctx context.Context) ([]domain.DowntimeRecord, error)
	InsertDowntimeRecord(ctx context.Context, rec domain.DowntimeRecord) error
	DeleteDowntimeRecord(ctx context.Context, id uuid.UUID) error

	ClearAll(ctx context.Context) error
}

type WorkspaceManager interface {
	CreateWorkspace(ctx context.Context, params domain.CreateWorkspaceParams) (domain.CreatedWorkspace, error)
	ListWorkspaces(ctx context.Context) ([]domain.WorkspaceRecord, error)
	RevokeWorkspace(ctx context.Context, id uuid.UUID) error
}

type ChangeStreamer interface {
	ListChangesAfter(ctx context.Context, afterSeq int64) ([]domain.ChangeEvent, error)
	ResolveCursorByEventID(ctx context.Context, eventID uuid.UUID) (int64, error)
}

type HealthChecker interface {
	Check(ctx context.Context) error
}
