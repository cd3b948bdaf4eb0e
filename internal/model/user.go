package model

import "time"

type User struct {
	ID               string
	Username         string
	Email            string
	FullName         string
	PasswordHash     string
	RefreshTokenHash *string
	AvatarRef        string
	CoverRef         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PublicUser is a User without credential material.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullname"`
	AvatarRef string    `json:"avatar,omitempty"`
	CoverRef  string    `json:"coverImage,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarRef: u.AvatarRef,
		CoverRef:  u.CoverRef,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
