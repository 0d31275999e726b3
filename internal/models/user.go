package models

import "time"

// DefaultImageFile is the avatar every account starts with.
const DefaultImageFile = "default.jpg"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Password     string    `json:"-"` // never serialize
	ImageFile    string    `json:"image_file"`
	RegisterDate time.Time `json:"register_date"`
}

// Identity is the authenticated principal of a request.
type Identity struct {
	UserID   int64
	Username string
}

// Identity returns the principal for u.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Username: u.Username}
}

// RegisterForm is the form body for POST /register.
type RegisterForm struct {
	Username        string `schema:"username" validate:"required,min=2,max=20"`
	Email           string `schema:"email" validate:"required,email"`
	Password        string `schema:"password" validate:"required"`
	ConfirmPassword string `schema:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is the form body for POST /login.
type LoginForm struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required"`
	Remember bool   `schema:"remember"`
}
