package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

// ProfileRepository 师生画像数据访问接口
type ProfileRepository interface {
	GetStudent(ctx context.Context, userID uint) (*model.StudentProfile, error)
	ListActiveStudents(ctx context.Context, limit int) ([]model.StudentProfile, error)
	UpsertStudent(ctx context.Context, profile *model.StudentProfile) error
	GetTeacher(ctx context.Context, userID uint) (*model.TeacherProfile, error)
	UpsertTeacher(ctx context.Context, profile *model.TeacherProfile) error
}

type profileRepo struct {
	db *gorm.DB
}

// NewProfileRepo 创建 ProfileRepository 实例
func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetStudent(ctx context.Context, userID uint) (*model.StudentProfile, error) {
	var profile model.StudentProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListActiveStudents 列出启用中的学生账号画像，按用户 ID 倒序截取 limit 条
func (r *profileRepo) ListActiveStudents(ctx context.Context, limit int) ([]model.StudentProfile, error) {
	var profiles []model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = student_profiles.user_id").
		Where("users.is_active = ? AND users.role = ?", true, model.RoleStudent).
		Order("student_profiles.user_id DESC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *profileRepo) UpsertStudent(ctx context.Context, profile *model.StudentProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Omit("User").
		Create(profile).Error
}

func (r *profileRepo) GetTeacher(ctx context.Context, userID uint) (*model.TeacherProfile, error) {
	var profile model.TeacherProfile
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepo) UpsertTeacher(ctx context.Context, profile *model.TeacherProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(profile).Error
}
