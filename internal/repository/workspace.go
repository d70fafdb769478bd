// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/vqtrack/vqtrack/internal/auth"
)

var ErrMissingWorkspaceID = errors.New("missing workspace id in context")

func workspaceIDFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := auth.WorkspaceIDFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrMissingWorkspaceID
	}
	return id, nil
}
