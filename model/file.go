package model

import (
	"errors"
	"time"
)

// ErrNameTaken is returned by the metadata store when a file name is already in use.
var ErrNameTaken = errors.New("file name already in use")

type File struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Name     string `gorm:"column:name;size:255;not null;uniqueIndex" json:"name"`
	Mimetype string `gorm:"column:mimetype;size:255;not null;default:'application/octet-stream'" json:"mimetype"`

	UserID uint64 `gorm:"column:user_id;not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`

	Password     *string    `gorm:"column:password;size:255" json:"-"`
	ExpiresAt    *time.Time `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	MaxViews     *int       `gorm:"column:max_views" json:"max_views,omitempty"`
	Views        int        `gorm:"column:views;not null;default:0" json:"views"`
	OriginalName *string    `gorm:"column:original_name;size:255" json:"original_name,omitempty"`
	Size         int64      `gorm:"column:size;not null;default:0" json:"size"`

	FolderID *uint64 `gorm:"column:folder_id;index" json:"folder_id,omitempty"`
	Folder   *Folder `gorm:"foreignKey:FolderID;references:ID;constraint:OnDelete:SET NULL" json:"-"`

	Embed bool `gorm:"column:embed;not null;default:false" json:"embed"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (File) TableName() string {
	return "file"
}
