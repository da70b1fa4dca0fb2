package repo

import (
	"Go_Share/model"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrDuplicate is returned when a unique column other than the file name collides.
var ErrDuplicate = errors.New("duplicate key")

// MetadataStore persists users, folders, files and invisible aliases with gorm.
type MetadataStore struct {
	db *gorm.DB
}

func NewMetadataStore(db *gorm.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// FindUserByID loads a user.
func (s *MetadataStore) FindUserByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// NameExists reports whether a file already uses the public name.
func (s *MetadataStore) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.File{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

// CreateFile inserts the record. The unique name index makes this an insert-if-absent;
// a lost race returns model.ErrNameTaken.
func (s *MetadataStore) CreateFile(ctx context.Context, file *model.File) error {
	err := s.db.WithContext(ctx).Omit("User", "Folder").Create(file).Error
	if isDuplicateKey(err) {
		return fmt.Errorf("%w: %s", model.ErrNameTaken, file.Name)
	}
	return err
}

// DeleteFile removes a record and its alias.
func (s *MetadataStore) DeleteFile(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", id).Delete(&model.InvisibleFile{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.File{}).Error
	})
}

// CreateInvisible inserts an alias. A token collision returns ErrDuplicate.
func (s *MetadataStore) CreateInvisible(ctx context.Context, inv *model.InvisibleFile) error {
	err := s.db.WithContext(ctx).Omit("File").Create(inv).Error
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// FolderOwnedBy reports whether the folder exists and belongs to the user.
func (s *MetadataStore) FolderOwnedBy(ctx context.Context, folderID, userID uint64) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Folder{}).
		Where("id = ? AND user_id = ?", folderID, userID).
		Count(&count).Error
	return count > 0, err
}
