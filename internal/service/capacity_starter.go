package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

// confirmedCounts 单次调用内缓存各项目的已确认人数，首次读取发生在事务内
type confirmedCounts struct {
	repo   repository.CooperationRepository
	counts map[uint]int64
}

func newConfirmedCounts(repo repository.CooperationRepository) *confirmedCounts {
	return &confirmedCounts{repo: repo, counts: make(map[uint]int64)}
}

func (c *confirmedCounts) get(ctx context.Context, postID uint) (int64, error) {
	if n, ok := c.counts[postID]; ok {
		return n, nil
	}
	n, err := c.repo.CountConfirmedByPost(ctx, postID)
	if err != nil {
		return 0, err
	}
	c.counts[postID] = n
	return n, nil
}

// bump 本次调用新确认了一条请求；未缓存时下次 get 会重新读取
func (c *confirmedCounts) bump(postID uint) {
	if n, ok := c.counts[postID]; ok {
		c.counts[postID] = n + 1
	}
}

// capacityStarter 项目满员自动开始
type capacityStarter struct {
	logger *zap.Logger
}

// checkAndStart 已确认人数达到招募上限时，将项目由 recruiting 切换为 in_progress，
// 并通知教师、已确认学生与仍在等待的申请者。必须在 WithTx 事务内调用。
// 项目已离开招募状态时不做任何事，返回是否发生了切换。
func (s *capacityStarter) checkAndStart(
	ctx context.Context,
	tx *repository.Repository,
	postID uint,
	counts *confirmedCounts,
	out *outbox,
) (bool, error) {
	post, err := tx.Post.GetByIDForUpdate(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		s.logger.Error("查询项目失败", zap.Uint("post_id", postID), zap.Error(err))
		return false, err
	}

	target, bounded := post.CapacityTarget()
	if post.ProjectStatus != model.ProjectRecruiting || !bounded || target <= 0 {
		return false, nil
	}

	confirmed, err := counts.get(ctx, postID)
	if err != nil {
		s.logger.Error("统计已确认人数失败", zap.Uint("post_id", postID), zap.Error(err))
		return false, err
	}
	if confirmed < int64(target) {
		return false, nil
	}

	started, err := tx.Post.TransitionStatus(ctx, postID, model.ProjectRecruiting, model.ProjectInProgress)
	if err != nil {
		s.logger.Error("更新项目状态失败", zap.Uint("post_id", postID), zap.Error(err))
		return false, err
	}
	if !started {
		return false, nil
	}

	ownerPayload := summaryPayload(
		fmt.Sprintf("项目《%s》已确认 %d/%d 人，已自动开始", post.Title, confirmed, target),
		&postID,
	)
	ownerPayload["confirmed"] = confirmed
	ownerPayload["target"] = target
	out.add(post.TeacherUserID, model.NotifProjectStarted, "项目已满员并开始", ownerPayload)

	members, err := tx.Cooperation.ListByPostAndStatus(ctx, postID, model.CoopConfirmed)
	if err != nil {
		s.logger.Error("查询已确认成员失败", zap.Uint("post_id", postID), zap.Error(err))
		return false, err
	}
	for _, r := range members {
		out.add(r.StudentUserID, model.NotifProjectStarted, "项目已开始",
			summaryPayload(fmt.Sprintf("你参与的项目《%s》已满员并开始", post.Title), &postID))
	}

	// 待处理的申请不会被自动拒绝，只告知已满员
	waiting, err := tx.Cooperation.ListByPostAndStatus(ctx, postID, model.CoopPending)
	if err != nil {
		s.logger.Error("查询待处理申请失败", zap.Uint("post_id", postID), zap.Error(err))
		return false, err
	}
	for _, r := range waiting {
		out.add(r.StudentUserID, model.NotifProjectFull, "项目已满员",
			summaryPayload(fmt.Sprintf("你申请的项目《%s》已招满", post.Title), &postID))
	}

	s.logger.Info("项目满员自动开始",
		zap.Uint("post_id", postID),
		zap.Int64("confirmed", confirmed),
		zap.Int("target", target),
	)
	return true, nil
}
