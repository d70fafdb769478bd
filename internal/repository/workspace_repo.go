// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vqtrack/vqtrack/internal/auth"
	"github.com/vqtrack/vqtrack/internal/domain"
)

type WorkspaceRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewWorkspaceRepository(pool *pgxpool.Pool, logger *slog.Logger) *WorkspaceRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &WorkspaceRepository{
		pool:   pool,
		logger: logger,
	}
}

func (r *WorkspaceRepository) ResolveToken(ctx context.Context, bearerToken string) (auth.Workspace, bool, error) {
	if bearerToken == "" {
		return auth.Workspace{}, false, nil
	}
	tokenHash := sha256Hex(bearerToken)

	var ws auth.Workspace
	err := r.pool.QueryRow(ctx,
		`SELECT id, max_requests_per_min
		 FROM workspaces
		 WHERE token_hash=$1 AND revoked_at IS NULL`,
		tokenHash,
	).Scan(&ws.ID, &ws.MaxRequestsPerMin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Workspace{}, false, nil
		}
		r.logger.Error("resolve workspace token failed", "error", err)
		return auth.Workspace{}, false, err
	}

	if ws.MaxRequestsPerMin <= 0 {
		ws.MaxRequestsPerMin = domain.DefaultMaxRequestsPerMin
	}

	return ws, true, nil
}

func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, params domain.CreateWorkspaceParams) (domain.CreatedWorkspace, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return domain.CreatedWorkspace{}, domain.ErrInvalidWorkspaceName
	}

	maxRequestsPerMin := params.MaxRequestsPerMin
	if maxRequestsPerMin <= 0 {
		maxRequestsPerMin = domain.DefaultMaxRequestsPerMin
	}

	token, tokenHash, err := generateWorkspaceToken()
	if err != nil {
		r.logger.Error("generate workspace token failed", "error", err)
		return domain.CreatedWorkspace{}, err
	}

	workspaceID := uuid.New()
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO workspaces (id, name, token_hash, max_requests_per_min)
		VALUES ($1, $2, $3, $4)
	`,
		workspaceID,
		name,
		tokenHash,
		maxRequestsPerMin,
	); err != nil {
		r.logger.Error("create workspace failed", "name", name, "error", err)
		return domain.CreatedWorkspace{}, err
	}

	return domain.CreatedWorkspace{
		ID:    workspaceID,
		Token: token,
	}, nil
}

func (r *WorkspaceRepository) ListWorkspaces(ctx context.Context) ([]domain.WorkspaceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, max_requests_per_min, created_at
		FROM workspaces
		WHERE revoked_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		r.logger.Error("list workspaces query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	workspaces := make([]domain.WorkspaceRecord, 0, 32)
	for rows.Next() {
		var record domain.WorkspaceRecord
		if err := rows.Scan(
			&record.ID,
			&record.Name,
			&record.MaxRequestsPerMin,
			&record.CreatedAt,
		); err != nil {
			return nil, err
		}
		workspaces = append(workspaces, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return workspaces, nil
}

func (r *WorkspaceRepository) RevokeWorkspace(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE workspaces
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		r.logger.Error("revoke workspace failed", "workspace_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func generateWorkspaceToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := "ws_live_" + hex.EncodeToString(raw)
	return token, sha256Hex(token), nil
}

func sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
