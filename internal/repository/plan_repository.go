package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
)

// PlanRepo provides access to the `membership_plans` table.
type PlanRepo struct {
	db *sql.DB
}

// NewPlanRepo returns a PlanRepo bound to the given database.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

// GetOrCreateTx resolves a plan by name inside an existing
// transaction, creating it with the given price when missing. The
// registration commit uses this so a missing seed row never fails a
// paid registration. A concurrent insert of the same name loses to
// the UNIQUE key and falls back to the select.
func (r *PlanRepo) GetOrCreateTx(ctx context.Context, tx *sql.Tx, name string, priceMinor int64, description string) (model.MembershipPlan, error) {
	p, err := r.getByNameTx(ctx, tx, name)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return model.MembershipPlan{}, err
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO membership_plans (name, price_minor, description, is_active) VALUES (?,?,?,1)",
		name, priceMinor, description)
	if err != nil {
		if isDuplicateKey(err) {
			return r.getByNameTx(ctx, tx, name)
		}
		return model.MembershipPlan{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.MembershipPlan{}, err
	}
	return model.MembershipPlan{ID: uint64(id), Name: name, PriceMinor: priceMinor, Description: description, IsActive: true}, nil
}

func (r *PlanRepo) getByNameTx(ctx context.Context, tx *sql.Tx, name string) (model.MembershipPlan, error) {
	var p model.MembershipPlan
	err := tx.QueryRowContext(ctx,
		"SELECT id,name,price_minor,description,is_active FROM membership_plans WHERE name=? LIMIT 1",
		name).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.IsActive)
	return p, err
}

// ListActive returns the purchasable plans, cheapest first, for the
// public plans listing.
func (r *PlanRepo) ListActive(ctx context.Context) ([]model.MembershipPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id,name,price_minor,description,is_active FROM membership_plans WHERE is_active=1 ORDER BY price_minor")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := make([]model.MembershipPlan, 0)
	for rows.Next() {
		var p model.MembershipPlan
		if err := rows.Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.IsActive); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// GetByName fetches a plan outside a transaction, for price lookups
// at intent time.
func (r *PlanRepo) GetByName(ctx context.Context, name string) (model.MembershipPlan, error) {
	var p model.MembershipPlan
	err := r.db.QueryRowContext(ctx,
		"SELECT id,name,price_minor,description,is_active FROM membership_plans WHERE name=? AND is_active=1 LIMIT 1",
		name).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Description, &p.IsActive)
	return p, err
}
