package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"foodloop/internal/domain"
)

const userCols = `id,name,email,phone,password_hash,role,organization,latitude,longitude,address,verified,created_at,updated_at`

type UserRepo struct{ db sqlx.ExtContext }

func NewUserRepo(db sqlx.ExtContext) *UserRepo { return &UserRepo{db: db} }

// ByEmail returns sql.ErrNoRows when no user has this email.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, r.db.Rebind(`SELECT `+userCols+` FROM users WHERE email = ?`), email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.db, &u, r.db.Rebind(`SELECT `+userCols+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO users(`+userCols+`)
		VALUES(:id,:name,:email,:phone,:password_hash,:role,:organization,:latitude,:longitude,:address,:verified,:created_at,:updated_at)
	`, u)
	return err
}

// InLatitudeBand returns users with one of roles whose latitude lies in
// [minLat, maxLat], excluding excludeID. Callers refine with a real distance check.
func (r *UserRepo) InLatitudeBand(ctx context.Context, roles []string, minLat, maxLat float64, excludeID string) ([]domain.User, error) {
	query, args, err := sqlx.In(`
		SELECT `+userCols+` FROM users
		WHERE role IN (?) AND latitude BETWEEN ? AND ? AND id <> ?
	`, roles, minLat, maxLat, excludeID)
	if err != nil {
		return nil, err
	}
	var out []domain.User
	err = sqlx.SelectContext(ctx, r.db, &out, r.db.Rebind(query), args...)
	return out, err
}
