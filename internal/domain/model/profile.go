package model

import (
	"time"

	"github.com/Asibe-Cheta/soundbridge-sub008/internal/domain/enums"
)

type Profile struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	PushToken string     `json:"push_token"`
	Role      enums.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
