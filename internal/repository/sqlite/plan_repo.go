package sqlite

import (
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/repository"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type sqlitePlanRepository struct {
	db *sql.DB
}

// NewSQLitePlanRepository creates a plan repository on an opened database.
func NewSQLitePlanRepository(db *sql.DB) repository.PlanRepository {
	return &sqlitePlanRepository{db: db}
}

// planRecord is the stored JSON document. Owner and ExportKey are not part of
// the public JSON view of a SavedPlan, so they are carried explicitly.
type planRecord struct {
	domain.SavedPlan
	Owner     string `json:"owner"`
	ExportKey string `json:"exportKey,omitempty"`
}

func encodePlan(plan *domain.SavedPlan) (string, error) {
	raw, err := json.Marshal(planRecord{SavedPlan: *plan, Owner: plan.Owner, ExportKey: plan.ExportKey})
	if err != nil {
		return "", fmt.Errorf("encode plan %s: %w", plan.ID, err)
	}
	return string(raw), nil
}

func decodePlan(doc string) (domain.SavedPlan, error) {
	var rec planRecord
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return domain.SavedPlan{}, fmt.Errorf("decode plan: %w", err)
	}
	plan := rec.SavedPlan
	plan.Owner = rec.Owner
	plan.ExportKey = rec.ExportKey
	return plan, nil
}

// ListByOwner returns the owner's plans newest first. Plans saved in the same
// millisecond keep insertion order through the rowid.
func (r *sqlitePlanRepository) ListByOwner(ctx context.Context, owner string) ([]domain.SavedPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT doc FROM plans WHERE owner = ? ORDER BY start_date DESC, rowid DESC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []domain.SavedPlan{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		plan, err := decodePlan(doc)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func (r *sqlitePlanRepository) Insert(ctx context.Context, plan *domain.SavedPlan) error {
	if plan.ID == "" || plan.Owner == "" {
		return repository.ErrMissingFields
	}
	doc, err := encodePlan(plan)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO plans (id, owner, start_date, previous_id, doc) VALUES (?, ?, ?, ?, ?)`,
		plan.ID, plan.Owner, plan.StartDate, plan.PreviousID, doc)
	if isUniqueViolation(err) {
		return repository.ErrDuplicateKey
	}
	return err
}

func (r *sqlitePlanRepository) Replace(ctx context.Context, plan *domain.SavedPlan) error {
	if plan.ID == "" || plan.Owner == "" {
		return repository.ErrMissingFields
	}
	doc, err := encodePlan(plan)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE plans SET start_date = ?, previous_id = ?, doc = ? WHERE id = ? AND owner = ?`,
		plan.StartDate, plan.PreviousID, doc, plan.ID, plan.Owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *sqlitePlanRepository) Delete(ctx context.Context, owner, id string) error {
	if owner == "" || id == "" {
		return repository.ErrMissingFields
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ? AND owner = ?`, id, owner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
