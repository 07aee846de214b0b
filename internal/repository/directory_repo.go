package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/eventverse/chat-api/internal/models"
)

// DirectoryRepository reads the platform's relational user and committee
// tables. The chat service treats that schema as an external source of truth
// and never writes to it.
type DirectoryRepository interface {
	FindUser(ctx context.Context, id int64) (models.User, error)
	FindUsers(ctx context.Context, ids []int64) ([]models.User, error)
	SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.User, error)
	CommitteeMembers(ctx context.Context, committeeID int64) ([]models.User, error)
	CommitteeHead(ctx context.Context, committeeID int64) (models.User, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository constructs a directory reader backed by GORM.
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindUser(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "user_id = ?", id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *directoryRepository) FindUsers(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *directoryRepository) SearchUsers(ctx context.Context, query string, excludeID int64, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pattern := fmt.Sprintf("%%%s%%", query)

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("(name LIKE ? OR email LIKE ?) AND user_id <> ?", pattern, pattern, excludeID).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *directoryRepository) CommitteeMembers(ctx context.Context, committeeID int64) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN committee_members ON committee_members.user_id = users.user_id").
		Where("committee_members.committee_id = ?", committeeID).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *directoryRepository) CommitteeHead(ctx context.Context, committeeID int64) (models.User, error) {
	var committee models.Committee
	if err := r.db.WithContext(ctx).First(&committee, "committee_id = ?", committeeID).Error; err != nil {
		return models.User{}, err
	}
	return r.FindUser(ctx, committee.HeadID)
}
