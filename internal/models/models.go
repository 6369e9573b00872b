package models

import "time"

const (
	RoleSubscriber = "subscriber"
	RoleAdmin      = "admin"
)

type User struct {
	ID                int64
	Username          string
	Name              string
	Email             string
	HashedPassword    string
	Salt              string
	Role              string
	ResetPasswordLink string
	Categories        []int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// PublicUser is the projection sent to clients. The hashed password, the salt
// and the outstanding reset link never leave the server.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}

type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	ImageKey  string    `json:"-"`
	PostedBy  int64     `json:"posted_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Link struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Slug       string    `json:"slug"`
	PostedBy   int64     `json:"posted_by"`
	Categories []int64   `json:"categories"`
	Type       string    `json:"type"`
	Medium     string    `json:"medium"`
	Clicks     int64     `json:"clicks"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// EmailMessage is the payload published to the email queue and consumed by
// the mail sender binary.
type EmailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
