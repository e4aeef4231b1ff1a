package domain

type User struct {
	UserID       string  `db:"user_id" json:"user_id"`
	PasswordHash string  `db:"password_hash" json:"-"`
	UserName     string  `db:"user_name" json:"user_name"`
	Email        *string `db:"email" json:"email,omitempty"`
	Role         string  `db:"role" json:"role"`
	IsActive     bool    `db:"is_active" json:"is_active"`
	LastLogin    *string `db:"last_login" json:"last_login,omitempty"`
	Audit
}
