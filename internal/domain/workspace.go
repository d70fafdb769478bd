// SPDX-License-Identifier: Apache-2.0

package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxRequestsPerMin = 120
)

type CreateWorkspaceParams struct {
	Name              string
	MaxRequestsPerMin int
}

type CreatedWorkspace struct {
	ID    uuid.UUID
	Token string
}

type WorkspaceRecord struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	MaxRequestsPerMin int       `json:"max_requests_per_min"`
	CreatedAt         time.Time `json:"created_at"`
}
