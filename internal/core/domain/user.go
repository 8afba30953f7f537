package domain

// User is an account holder. Authentication is handled at the edge; services
// receive the verified UserID only.
type User struct {
	UserID       string `json:"userID" db:"user_id"`
	Email        string `json:"email" db:"email"`
	Name         string `json:"name" db:"name"`
	PasswordHash string `json:"-" db:"password_hash"`
	AuditFields
}
