package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	UserName string `gorm:"column:user_name;type:varchar(50);not null;unique" json:"user_name"`

	Administrator bool `gorm:"column:administrator;not null;default:false" json:"administrator"`

	// Domains the user serves uploads from. Stored as a JSON array.
	Domains []string `gorm:"column:domains;type:text;serializer:json" json:"domains"`

	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "user_db"
}
