package model

import (
	"time"

	"github.com/google/uuid"
)

// 選手カテゴリ
const (
	CategoryCadete  = "cadete"
	CategoryJuvenil = "juvenil"
	CategoryJunior  = "junior"
	CategorySenior  = "senior"
)

// Player は所属選手。OwnerID のユーザーだけが参照・更新できる。
type Player struct {
	PlayerID  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"player_id"`
	OwnerID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	Name      string     `gorm:"not null" json:"name"`
	LastName  string     `gorm:"not null" json:"last_name"`
	Category  string     `gorm:"not null;index" json:"category"`
	Phone     string     `json:"phone"`
	Position  string     `json:"position"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Player) TableName() string {
	return "players"
}

// 選手作成リクエストDTO
type PostPlayerRequest struct {
	Name      string  `json:"name" validate:"required,min=1,max=100"`
	LastName  string  `json:"last_name" validate:"required,min=1,max=100"`
	Category  string  `json:"category" validate:"required,oneof=cadete juvenil junior senior"`
	Phone     *string `json:"phone,omitempty"`
	Position  *string `json:"position,omitempty"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// 選手更新（部分）リクエストDTO
type UpdatePlayerRequest struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Category  *string `json:"category,omitempty" validate:"omitempty,oneof=cadete juvenil junior senior"`
	Phone     *string `json:"phone,omitempty"`
	Position  *string `json:"position,omitempty"`
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// ListPlayersFilter は選手一覧の絞り込み条件
type ListPlayersFilter struct {
	Active   *bool
	Category *string
}
