package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"vintagestore/internal/domain"
)

type UserRepo struct{ db *DB }

func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(ctx, &u, `SELECT id,email,name,password_hash,role FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(ctx, &u, `SELECT id,email,name,password_hash,role FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureAdmin creates the back-office account on first boot. An existing
// account keeps its password.
func (r *UserRepo) EnsureAdmin(ctx context.Context, email, password string) (created bool, err error) {
	_, err = r.ByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO users(id,email,name,password_hash,role) VALUES(?,?,?,?,?)`,
		uuid.NewString(), email, "Admin", string(hash), domain.RoleAdmin)
	return err == nil, err
}

// BindSession attaches the user to the sid, creating the session row if needed.
func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	var n int
	if err := r.db.Get(ctx, &n, `SELECT COUNT(*) FROM sessions WHERE id=?`, sid); err != nil {
		return err
	}
	if n > 0 {
		_, err := r.db.Exec(ctx, `UPDATE sessions SET user_id=?, last_seen=CURRENT_TIMESTAMP WHERE id=?`, userID, sid)
		return err
	}
	_, err := r.db.Exec(ctx, `INSERT INTO sessions(id,user_id,last_seen) VALUES(?,?,CURRENT_TIMESTAMP)`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	var u domain.User
	err := r.db.Get(ctx, &u, `
      SELECT u.id,u.email,u.name,u.password_hash,u.role
      FROM sessions s
      JOIN users u ON u.id=s.user_id
      WHERE s.id=?`, sid)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
