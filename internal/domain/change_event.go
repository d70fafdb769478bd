// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Collection names used by the change feed and the store backends.
const (
	CollectionPass     = "pass_records"
	CollectionDefect   = "defect_records"
	CollectionDowntime = "downtime_records"
)

// ChangeEvent is one store mutation within a workspace. Seq is monotonic per
// workspace; subscribers resume from the last seq they saw.
type ChangeEvent struct {
	ID          uuid.UUID `json:"id"`
	Seq         int64     `json:"seq"`
	WorkspaceID uuid.UUID `json:"workspace_id"`
	Collection  string    `json:"collection"`
	RecordID    uuid.UUID `json:"record_id"`
	Op          string    `json:"op"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpRemove = "remove"
	OpClear  = "clear"
)
