package db

import (
	"context"
	"fmt"

	"github.com/vidtube/backend/internal/model"
)

const (
	defaultRelationLimit = 20
	maxRelationLimit     = 100
)

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultRelationLimit
	}
	if limit > maxRelationLimit {
		return maxRelationLimit
	}
	return limit
}

// DeleteRelation removes the row for key and reports whether one existed.
func (db *Postgres) DeleteRelation(ctx context.Context, key model.RelationKey) (bool, error) {
	result, err := db.Pool.Exec(ctx, `
		DELETE FROM relations
		WHERE actor_id = $1::uuid AND target_id = $2::uuid AND kind = $3
	`, key.ActorID, key.TargetID, string(key.Kind))
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

// InsertRelation creates rel unless a row with the same key exists.
// It reports whether this call created the row.
func (db *Postgres) InsertRelation(ctx context.Context, rel model.Relation) (bool, error) {
	result, err := db.Pool.Exec(ctx, `
		INSERT INTO relations (id, actor_id, target_id, kind, created_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, NOW())
		ON CONFLICT (actor_id, target_id, kind) DO NOTHING
	`, rel.ID, rel.ActorID, rel.TargetID, string(rel.Kind))
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

func (db *Postgres) ListRelations(ctx context.Context, q model.RelationQuery) ([]model.Relation, error) {
	column := "actor_id"
	owner := q.ActorID
	if q.TargetID != "" {
		column = "target_id"
		owner = q.TargetID
	}
	if owner == "" {
		return nil, fmt.Errorf("relation query requires actor or target")
	}

	var afterAt, afterID any
	if q.After != nil {
		afterAt = q.After.CreatedAt
		afterID = q.After.ID
	}

	query := fmt.Sprintf(`
		SELECT id::text, actor_id::text, target_id::text, kind, created_at
		FROM relations
		WHERE kind = $1 AND %s = $2::uuid
			AND ($3::timestamptz IS NULL OR (created_at, id) < ($3::timestamptz, $4::uuid))
		ORDER BY created_at DESC, id DESC
		LIMIT $5
	`, column)

	rows, err := db.Pool.Query(ctx, query, string(q.Kind), owner, afterAt, afterID, normalizeLimit(q.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	relations := make([]model.Relation, 0)
	for rows.Next() {
		var (
			r    model.Relation
			kind string
		)
		if err := rows.Scan(&r.ID, &r.ActorID, &r.TargetID, &kind, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Kind = model.RelationKind(kind)
		relations = append(relations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return relations, nil
}
