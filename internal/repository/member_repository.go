package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/gym-course-enrollment/internal/model"
)

// MemberRepo provides access to the `members` table. A member row is
// the gym profile attached one-to-one to a user; it is created by the
// registration commit transaction.
type MemberRepo struct {
	db *sql.DB
}

// NewMemberRepo returns a MemberRepo bound to the given database.
func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = "id,user_id,plan_id,phone,alternative_contact,date_of_birth,address,membership_purchase_date,membership_end_date,is_active"

func scanMember(row *sql.Row) (model.Member, error) {
	var (
		m   model.Member
		dob sql.NullTime
		end sql.NullTime
	)
	err := row.Scan(&m.ID, &m.UserID, &m.PlanID, &m.Phone, &m.AlternativeContact,
		&dob, &m.Address, &m.MembershipPurchaseDate, &end, &m.IsActive)
	if err != nil {
		return model.Member{}, err
	}
	if dob.Valid {
		d := dob.Time
		m.DateOfBirth = &d
	}
	if end.Valid {
		e := end.Time
		m.MembershipEndDate = &e
	}
	return m, nil
}

// GetByUserID loads the member profile of a user. ErrMemberNotFound
// signals that the user has not completed the paid registration.
func (r *MemberRepo) GetByUserID(ctx context.Context, userID uint64) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE user_id=? LIMIT 1", userID))
	if err == sql.ErrNoRows {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// GetByID loads a member by primary key.
func (r *MemberRepo) GetByID(ctx context.Context, id uint64) (model.Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Member{}, ErrMemberNotFound
	}
	return m, err
}

// CreateTx inserts a member within an existing transaction and
// returns the new id. dateOfBirth may be nil.
func (r *MemberRepo) CreateTx(ctx context.Context, tx *sql.Tx, userID, planID uint64, phone, altContact, address string, dateOfBirth *time.Time, purchaseDate time.Time) (uint64, error) {
	var dob interface{}
	if dateOfBirth != nil {
		dob = *dateOfBirth
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO members (user_id, plan_id, phone, alternative_contact, date_of_birth, address, membership_purchase_date, is_active)
		 VALUES (?,?,?,?,?,?,?,1)`,
		userID, planID, phone, altContact, dob, address, purchaseDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}
