package domain

type User struct {
	ID    string `db:"id"`
	Email string `db:"email"`
	Name  string `db:"name"`
	Hash  string `db:"password_hash"`
	Role  string `db:"role"`
}

const RoleAdmin = "ADMIN"

func (u *User) GetID() string { return u.ID }
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
