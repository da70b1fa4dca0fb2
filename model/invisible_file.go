package model

// InvisibleFile maps a zero-width token to exactly one file.
type InvisibleFile struct {
	ID uint64 `gorm:"primaryKey"`

	Invis string `gorm:"column:invis;size:255;not null;uniqueIndex"`

	FileID uint64 `gorm:"column:file_id;not null;uniqueIndex"`
	File   File   `gorm:"foreignKey:FileID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the database table name.
func (InvisibleFile) TableName() string {
	return "invisible_file"
}
