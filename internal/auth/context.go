// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"

	"github.com/google/uuid"
)

type workspaceIDContextKey struct{}
type workspaceContextKey struct{}
type idempotencyKeyContextKey struct{}

var ctxWorkspaceIDKey workspaceIDContextKey
var ctxWorkspaceKey workspaceContextKey
var ctxIdempotencyKey idempotencyKeyContextKey

// Workspace is the resolved caller identity. Every record query is scoped to
// the workspace id carried on the request context.
type Workspace struct {
	ID                uuid.UUID
	MaxRequestsPerMin int
}

// WithWorkspaceID stores the authenticated workspace id on the request context.
func WithWorkspaceID(ctx context.Context, workspaceID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxWorkspaceIDKey, workspaceID)
}

// WithWorkspace stores the resolved workspace and limits on request context.
func WithWorkspace(ctx context.Context, ws Workspace) context.Context {
	ctx = context.WithValue(ctx, ctxWorkspaceKey, ws)
	return context.WithValue(ctx, ctxWorkspaceIDKey, ws.ID)
}

// WorkspaceIDFromContext reads the authenticated workspace id from context.
func WorkspaceIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ws, ok := WorkspaceFromContext(ctx); ok {
		return ws.ID, true
	}

	v := ctx.Value(ctxWorkspaceIDKey)
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// WorkspaceFromContext reads the resolved workspace and limits from context.
func WorkspaceFromContext(ctx context.Context) (Workspace, bool) {
	v := ctx.Value(ctxWorkspaceKey)
	ws, ok := v.(Workspace)
	if !ok || ws.ID == uuid.Nil {
		return Workspace{}, false
	}
	return ws, true
}

func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, ctxIdempotencyKey, key)
}

func IdempotencyKeyFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(ctxIdempotencyKey)
	key, ok := v.(string)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
