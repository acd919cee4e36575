package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"betting-model-service/internal/core/domain"
	ports "betting-model-service/internal/core/ports/output"
)

type auditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepository(pool *pgxpool.Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	detailJSON, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}

	query := `
		INSERT INTO lifecycle_audit
			(id, occurred_at, action, model_name, version, alias, detail, request_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`
	_, err = r.pool.Exec(ctx, query,
		entry.ID, entry.OccurredAt, entry.Action, entry.ModelName,
		entry.Version, entry.Alias, detailJSON, entry.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *auditRepo) List(ctx context.Context, filter ports.AuditFilter) ([]*domain.AuditEntry, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	argn := 0

	if filter.ModelName != "" {
		argn++
		where += fmt.Sprintf(" AND model_name = $%d", argn)
		args = append(args, filter.ModelName)
	}
	if filter.Action != "" {
		argn++
		where += fmt.Sprintf(" AND action = $%d", argn)
		args = append(args, filter.Action)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM lifecycle_audit " + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, occurred_at, action, model_name, version, alias, detail, request_id
		FROM lifecycle_audit %s
		ORDER BY occurred_at DESC
		LIMIT $%d OFFSET $%d
	`, where, argn+1, argn+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e          domain.AuditEntry
			detailJSON []byte
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &e.Action, &e.ModelName, &e.Version, &e.Alias, &detailJSON, &e.RequestID); err != nil {
			return nil, 0, fmt.Errorf("scan audit entry: %w", err)
		}
		if len(detailJSON) > 0 {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				return nil, 0, fmt.Errorf("unmarshal detail: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, total, nil
}
