package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

// ProjectRepository 合作项目数据访问接口
type ProjectRepository interface {
	Create(ctx context.Context, project *model.CooperationProject) error
	GetByID(ctx context.Context, id uint) (*model.CooperationProject, error)
	GetByRequestID(ctx context.Context, requestID uint) (*model.CooperationProject, error)
	ListByRequestIDs(ctx context.Context, requestIDs []uint) ([]model.CooperationProject, error)
	// DeleteByRequestID 删除请求对应的合作项目及其里程碑、进度更新
	DeleteByRequestID(ctx context.Context, requestID uint) error
}

type projectRepo struct {
	db *gorm.DB
}

// NewProjectRepo 创建 ProjectRepository 实例
func NewProjectRepo(db *gorm.DB) ProjectRepository {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, project *model.CooperationProject) error {
	return r.db.WithContext(ctx).Omit("Request").Create(project).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id uint) (*model.CooperationProject, error) {
	var project model.CooperationProject
	err := r.db.WithContext(ctx).
		Preload("Request").
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) GetByRequestID(ctx context.Context, requestID uint) (*model.CooperationProject, error) {
	var project model.CooperationProject
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepo) ListByRequestIDs(ctx context.Context, requestIDs []uint) ([]model.CooperationProject, error) {
	var projects []model.CooperationProject
	if len(requestIDs) == 0 {
		return projects, nil
	}
	err := r.db.WithContext(ctx).
		Where("request_id IN ?", requestIDs).
		Order("id ASC").
		Find(&projects).Error
	return projects, err
}

func (r *projectRepo) DeleteByRequestID(ctx context.Context, requestID uint) error {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&model.CooperationProject{}).
		Where("request_id = ?", requestID).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Where("project_id IN ?", ids).Delete(&model.Milestone{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("project_id IN ?", ids).Delete(&model.ProgressUpdate{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.CooperationProject{}).Error
}
