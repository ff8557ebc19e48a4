package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

// ── 招募准入错误 ──

var (
	ErrPostNotRecruiting = errors.New("项目当前不在招募中")
	ErrPostExpired       = errors.New("项目已过截止时间")
	ErrCapacityFull      = errors.New("项目招募人数已满")
)

// CapacityFullError 人数已满，携带已确认人数与上限。errors.Is(err, ErrCapacityFull) 成立。
type CapacityFullError struct {
	Confirmed int64
	Target    int
}

func (e *CapacityFullError) Error() string {
	return fmt.Sprintf("%s（%d/%d）", ErrCapacityFull.Error(), e.Confirmed, e.Target)
}

// Is 使 errors.Is 与 ErrCapacityFull 匹配
func (e *CapacityFullError) Is(target error) bool {
	return target == ErrCapacityFull
}

// CanApply 判断是否允许向项目发起新申请：须在招募中、未过截止时间、人数未满
func CanApply(post *model.Post, confirmed int64, now time.Time) error {
	if post.ProjectStatus != model.ProjectRecruiting {
		return ErrPostNotRecruiting
	}
	if post.Deadline != nil && post.Deadline.Before(now) {
		return ErrPostExpired
	}
	return CanAccept(post, confirmed)
}

// CanAccept 判断是否还能再确认一名学生；未设置人数上限时总是允许
func CanAccept(post *model.Post, confirmed int64) error {
	target, bounded := post.CapacityTarget()
	if !bounded {
		return nil
	}
	if confirmed >= int64(target) {
		return &CapacityFullError{Confirmed: confirmed, Target: target}
	}
	return nil
}
