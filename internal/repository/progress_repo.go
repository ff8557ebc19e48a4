package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

// ProgressRepository 里程碑与进度更新数据访问接口
type ProgressRepository interface {
	CreateMilestone(ctx context.Context, m *model.Milestone) error
	GetMilestone(ctx context.Context, id uint) (*model.Milestone, error)
	UpdateMilestone(ctx context.Context, m *model.Milestone) error
	ListMilestones(ctx context.Context, projectIDs []uint) ([]model.Milestone, error)
	CreateUpdate(ctx context.Context, u *model.ProgressUpdate) error
	ListUpdates(ctx context.Context, projectIDs []uint, limit int) ([]model.ProgressUpdate, error)
}

type progressRepo struct {
	db *gorm.DB
}

// NewProgressRepo 创建 ProgressRepository 实例
func NewProgressRepo(db *gorm.DB) ProgressRepository {
	return &progressRepo{db: db}
}

func (r *progressRepo) CreateMilestone(ctx context.Context, m *model.Milestone) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *progressRepo) GetMilestone(ctx context.Context, id uint) (*model.Milestone, error) {
	var m model.Milestone
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *progressRepo) UpdateMilestone(ctx context.Context, m *model.Milestone) error {
	return r.db.WithContext(ctx).
		Model(&model.Milestone{}).
		Where("id = ?", m.ID).
		Updates(map[string]interface{}{
			"title":    m.Title,
			"due_date": m.DueDate,
			"status":   m.Status,
		}).Error
}

func (r *progressRepo) ListMilestones(ctx context.Context, projectIDs []uint) ([]model.Milestone, error) {
	var ms []model.Milestone
	if len(projectIDs) == 0 {
		return ms, nil
	}
	err := r.db.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	return ms, err
}

func (r *progressRepo) CreateUpdate(ctx context.Context, u *model.ProgressUpdate) error {
	return r.db.WithContext(ctx).Omit("Author").Create(u).Error
}

func (r *progressRepo) ListUpdates(ctx context.Context, projectIDs []uint, limit int) ([]model.ProgressUpdate, error) {
	var ups []model.ProgressUpdate
	if len(projectIDs) == 0 {
		return ups, nil
	}
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("project_id IN ?", projectIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&ups).Error
	return ups, err
}
