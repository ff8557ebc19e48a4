package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
)

// ── 合作协商模块业务错误 ──

var (
	ErrRequestNotFound = errors.New("合作请求不存在")
	ErrRequestClosed   = errors.New("合作请求已结束，不能再处理")
	ErrPostNotFound    = errors.New("项目不存在")
)

// 响应动作
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// participantFieldMaxRunes 学生角色/自定义状态最大字符数
const participantFieldMaxRunes = 64

// CooperationService 合作协商业务接口
type CooperationService interface {
	CreateRequest(ctx context.Context, actorID uint, actorRole string, req *dto.CreateCooperationRequest) (*dto.CreateCooperationResponse, error)
	Respond(ctx context.Context, requestID, actorID uint, action string) (*dto.RespondCooperationResponse, error)
	Delete(ctx context.Context, requestID, actorID uint) error
	UpdateParticipantInfo(ctx context.Context, requestID, actorID uint, req *dto.UpdateParticipantRequest) (*dto.CooperationResponse, error)
	ListByViewer(ctx context.Context, actorID uint, actorRole string, req *dto.CooperationListRequest) (*dto.CooperationListResponse, error)
	ListProjects(ctx context.Context, actorID uint, actorRole string) ([]dto.ProjectResponse, error)
	HasBlockingPendingSelection(ctx context.Context, userID uint) (bool, error)
}

type cooperationService struct {
	repo    *repository.Repository
	sink    NotificationSink
	starter *capacityStarter
	logger  *zap.Logger
	now     func() time.Time
}

// NewCooperationService 创建 CooperationService 实例
func NewCooperationService(repo *repository.Repository, sink NotificationSink, logger *zap.Logger) CooperationService {
	return &cooperationService{
		repo:    repo,
		sink:    sink,
		starter: &capacityStarter{logger: logger},
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── CreateRequest ──────────────────────

// CreateRequest 学生申请或教师邀请。同一 (教师, 学生, 项目) 已有请求时返回已有 ID，Created=false。
func (s *cooperationService) CreateRequest(ctx context.Context, actorID uint, actorRole string, req *dto.CreateCooperationRequest) (*dto.CreateCooperationResponse, error) {
	if actorRole != model.RoleTeacher && actorRole != model.RoleStudent {
		return nil, ErrForbidden
	}

	var (
		result    *dto.CreateCooperationResponse
		out       outbox
		teacherID = req.TeacherUserID
		studentID = req.StudentUserID
	)

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		// 1. 指定项目时教师以项目发布者为准
		var post *model.Post
		if req.PostID != nil {
			p, err := tx.Post.GetByIDForUpdate(ctx, *req.PostID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPostNotFound
				}
				s.logger.Error("查询项目失败", zap.Uint("post_id", *req.PostID), zap.Error(err))
				return err
			}
			post = p
			teacherID = p.TeacherUserID
		}
		if teacherID == 0 || studentID == 0 {
			return ErrValidation
		}

		// 2. 发起人必须是其中一方
		if (actorRole == model.RoleTeacher && actorID != teacherID) ||
			(actorRole == model.RoleStudent && actorID != studentID) {
			return ErrForbidden
		}

		// 3. 幂等：已存在则直接返回
		existing, err := tx.Cooperation.FindByTriple(ctx, teacherID, studentID, req.PostID)
		if err == nil {
			result = &dto.CreateCooperationResponse{ID: existing.ID, Created: false}
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询合作请求失败", zap.Error(err))
			return err
		}

		// 4. 项目准入
		if post != nil {
			confirmed, err := tx.Cooperation.CountConfirmedByPost(ctx, post.ID)
			if err != nil {
				s.logger.Error("统计已确认人数失败", zap.Uint("post_id", post.ID), zap.Error(err))
				return err
			}
			if err := CanApply(post, confirmed, s.now()); err != nil {
				return err
			}
		}

		teacher, student, err := s.loadParties(ctx, tx, teacherID, studentID)
		if err != nil {
			return err
		}

		// 5. 创建，发起方视为已同意
		teacherStatus, studentStatus := initialSides(actorRole)
		now := s.now()
		cr := &model.CooperationRequest{
			TeacherUserID: teacherID,
			StudentUserID: studentID,
			PostID:        req.PostID,
			InitiatedBy:   actorRole,
			TeacherStatus: teacherStatus,
			StudentStatus: studentStatus,
			FinalStatus:   model.CoopPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Cooperation.Create(ctx, cr); err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				s.logger.Error("创建合作请求失败", zap.Error(err))
			}
			return err
		}

		result = &dto.CreateCooperationResponse{ID: cr.ID, Created: true}
		s.notifyCreated(&out, cr, teacher, student, post)
		return nil
	})
	if err != nil {
		// 并发创建同一请求时唯一索引冲突，按已存在处理
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			existing, findErr := s.repo.Cooperation.FindByTriple(ctx, teacherID, studentID, req.PostID)
			if findErr == nil {
				return &dto.CreateCooperationResponse{ID: existing.ID, Created: false}, nil
			}
			s.logger.Error("查询合作请求失败", zap.Error(findErr))
		}
		return nil, err
	}

	out.flush(ctx, s.sink, s.logger)
	return result, nil
}

func (s *cooperationService) loadParties(ctx context.Context, tx *repository.Repository, teacherID, studentID uint) (*model.User, *model.User, error) {
	teacher, err := tx.User.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		s.logger.Error("查询教师失败", zap.Uint("user_id", teacherID), zap.Error(err))
		return nil, nil, err
	}
	student, err := tx.User.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrUserNotFound
		}
		s.logger.Error("查询学生失败", zap.Uint("user_id", studentID), zap.Error(err))
		return nil, nil, err
	}
	if teacher.Role != model.RoleTeacher || student.Role != model.RoleStudent {
		return nil, nil, ErrValidation
	}
	return teacher, student, nil
}

func (s *cooperationService) notifyCreated(out *outbox, cr *model.CooperationRequest, teacher, student *model.User, post *model.Post) {
	var title, summary string
	var target uint
	if cr.InitiatedBy == model.PartyStudent {
		title = student.DisplayName + " 申请加入项目"
		summary = "有新的合作申请"
		target = teacher.ID
	} else {
		title = teacher.DisplayName + " 发出合作邀请"
		summary = "有新的合作邀请"
		target = student.ID
	}
	if post != nil {
		summary = "项目：" + post.Title
	}
	payload := summaryPayload(summary, cr.PostID)
	payload["request_id"] = cr.ID
	out.add(target, model.NotifCooperationRequest, title, payload)
}

// ────────────────────── Respond ──────────────────────

// Respond 一方接受或拒绝。接受时若项目有人数上限，在锁定项目行后重新校验人数。
func (s *cooperationService) Respond(ctx context.Context, requestID, actorID uint, action string) (*dto.RespondCooperationResponse, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, ErrValidation
	}
	accept := action == ActionAccept

	var (
		out         outbox
		finalStatus string
	)

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		// 先锁请求行再锁项目行，同一请求的双方响应串行执行
		cr, err := tx.Cooperation.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			s.logger.Error("查询合作请求失败", zap.Uint("id", requestID), zap.Error(err))
			return err
		}

		party := partyOf(cr, actorID)
		if party == "" {
			return ErrForbidden
		}
		if StateOfRequest(cr).Terminal() {
			return ErrRequestClosed
		}

		// 锁定项目行，使并发的接受操作串行化
		var post *model.Post
		if cr.PostID != nil {
			post, err = tx.Post.GetByIDForUpdate(ctx, *cr.PostID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPostNotFound
				}
				s.logger.Error("查询项目失败", zap.Uint("post_id", *cr.PostID), zap.Error(err))
				return err
			}
		}

		counts := newConfirmedCounts(tx.Cooperation)
		next := *cr
		state := applyResponse(&next, party, accept)

		if accept && post != nil {
			if _, bounded := post.CapacityTarget(); bounded &&
				(party == model.PartyTeacher || state.Phase == PhaseConfirmed) {
				confirmed, err := counts.get(ctx, post.ID)
				if err != nil {
					s.logger.Error("统计已确认人数失败", zap.Uint("post_id", post.ID), zap.Error(err))
					return err
				}
				if err := CanAccept(post, confirmed); err != nil {
					return err
				}
			}
		}

		cr = &next
		cr.UpdatedAt = s.now()
		if err := tx.Cooperation.UpdateStatus(ctx, cr); err != nil {
			s.logger.Error("更新合作请求失败", zap.Uint("id", requestID), zap.Error(err))
			return err
		}
		finalStatus = cr.FinalStatus

		s.notifyResponded(&out, cr, actorID, accept, post)

		if state.Phase != PhaseConfirmed {
			return nil
		}

		// 新确认：保证有且仅有一条合作项目记录
		if err := s.ensureProject(ctx, tx, cr, post); err != nil {
			return err
		}
		confirmedPayload := summaryPayload(confirmedSummary(post), cr.PostID)
		confirmedPayload["request_id"] = cr.ID
		out.add(cr.TeacherUserID, model.NotifCooperationConfirmed, "合作已确认", confirmedPayload)
		out.add(cr.StudentUserID, model.NotifCooperationConfirmed, "合作已确认", confirmedPayload)

		if post == nil {
			return nil
		}
		counts.bump(post.ID)
		_, err = s.starter.checkAndStart(ctx, tx, post.ID, counts, &out)
		return err
	})
	if err != nil {
		return nil, err
	}

	out.flush(ctx, s.sink, s.logger)
	return &dto.RespondCooperationResponse{FinalStatus: finalStatus}, nil
}

func (s *cooperationService) ensureProject(ctx context.Context, tx *repository.Repository, cr *model.CooperationRequest, post *model.Post) error {
	_, err := tx.Project.GetByRequestID(ctx, cr.ID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询合作项目失败", zap.Uint("request_id", cr.ID), zap.Error(err))
		return err
	}

	title := model.DefaultProjectTitle
	if post != nil && post.Title != "" {
		title = post.Title
	}
	project := &model.CooperationProject{
		RequestID: cr.ID,
		Title:     title,
		CreatedAt: s.now(),
	}
	if err := tx.Project.Create(ctx, project); err != nil {
		s.logger.Error("创建合作项目失败", zap.Uint("request_id", cr.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *cooperationService) notifyResponded(out *outbox, cr *model.CooperationRequest, actorID uint, accept bool, post *model.Post) {
	status := "已拒绝"
	if accept {
		status = "已接受"
	}
	summary := status
	if post != nil {
		summary = fmt.Sprintf("项目：%s（%s）", post.Title, status)
	}
	payload := summaryPayload(summary, cr.PostID)
	payload["request_id"] = cr.ID
	payload["final_status"] = cr.FinalStatus
	out.add(cr.Counterparty(actorID), model.NotifCooperationRespond, "合作申请已处理", payload)
}

func confirmedSummary(post *model.Post) string {
	if post == nil {
		return "双方已确认合作"
	}
	return fmt.Sprintf("项目《%s》双方已确认合作", post.Title)
}

// ────────────────────── Delete ──────────────────────

// Delete 任一方可删除请求，连同合作项目及其里程碑、进度更新
func (s *cooperationService) Delete(ctx context.Context, requestID, actorID uint) error {
	var out outbox

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		cr, err := tx.Cooperation.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			s.logger.Error("查询合作请求失败", zap.Uint("id", requestID), zap.Error(err))
			return err
		}
		if !cr.IsParty(actorID) {
			return ErrForbidden
		}

		if err := tx.Project.DeleteByRequestID(ctx, cr.ID); err != nil {
			s.logger.Error("删除合作项目失败", zap.Uint("request_id", cr.ID), zap.Error(err))
			return err
		}
		if err := tx.Cooperation.Delete(ctx, cr.ID); err != nil {
			s.logger.Error("删除合作请求失败", zap.Uint("id", cr.ID), zap.Error(err))
			return err
		}

		summary := "对方取消了合作"
		if cr.PostID != nil {
			if post, err := tx.Post.GetByID(ctx, *cr.PostID); err == nil {
				summary = fmt.Sprintf("项目《%s》的合作已被对方取消", post.Title)
			}
		}
		out.add(cr.Counterparty(actorID), model.NotifCooperationCancelled, "合作已取消", summaryPayload(summary, cr.PostID))
		return nil
	})
	if err != nil {
		return err
	}

	out.flush(ctx, s.sink, s.logger)
	return nil
}

// ────────────────────── UpdateParticipantInfo ──────────────────────

// UpdateParticipantInfo 教师可编辑自己的请求；学生只能在合作确认后编辑自己的请求
func (s *cooperationService) UpdateParticipantInfo(ctx context.Context, requestID, actorID uint, req *dto.UpdateParticipantRequest) (*dto.CooperationResponse, error) {
	var resp dto.CooperationResponse

	err := s.repo.WithTx(ctx, func(tx *repository.Repository) error {
		cr, err := tx.Cooperation.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRequestNotFound
			}
			s.logger.Error("查询合作请求失败", zap.Uint("id", requestID), zap.Error(err))
			return err
		}

		switch partyOf(cr, actorID) {
		case model.PartyTeacher:
		case model.PartyStudent:
			if cr.FinalStatus != model.CoopConfirmed {
				return ErrForbidden
			}
		default:
			return ErrForbidden
		}

		if req.StudentRole != nil {
			v, err := participantField(*req.StudentRole)
			if err != nil {
				return err
			}
			cr.StudentRole = v
		}
		if req.CustomStatus != nil {
			v, err := participantField(*req.CustomStatus)
			if err != nil {
				return err
			}
			cr.CustomStatus = v
		}

		// 只写参与者字段，状态列不随这次编辑回写
		cr.UpdatedAt = s.now()
		if err := tx.Cooperation.UpdateParticipant(ctx, cr.ID, cr.StudentRole, cr.CustomStatus, cr.UpdatedAt); err != nil {
			s.logger.Error("更新参与者信息失败", zap.Uint("id", requestID), zap.Error(err))
			return err
		}
		resp = toCooperationResponse(cr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// participantField 去除首尾空白，空串表示清除
func participantField(v string) (*string, error) {
	v = strings.TrimSpace(v)
	if utf8.RuneCountInString(v) > participantFieldMaxRunes {
		return nil, ErrValidation
	}
	if v == "" {
		return nil, nil
	}
	return &v, nil
}

// ────────────────────── 列表 ──────────────────────

// ListByViewer 教师看自己作为教师的请求，学生看自己作为学生的请求，其他角色为空
func (s *cooperationService) ListByViewer(ctx context.Context, actorID uint, actorRole string, req *dto.CooperationListRequest) (*dto.CooperationListResponse, error) {
	resp := &dto.CooperationListResponse{Items: []dto.CooperationResponse{}}

	filter := repository.CooperationFilter{}
	switch actorRole {
	case model.RoleTeacher:
		filter.TeacherUserID = actorID
	case model.RoleStudent:
		filter.StudentUserID = actorID
	default:
		return resp, nil
	}
	if req != nil {
		filter.PostID = req.PostID
	}

	reqs, err := s.repo.Cooperation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询合作请求列表失败", zap.Uint("user_id", actorID), zap.Error(err))
		return nil, err
	}
	for i := range reqs {
		resp.Items = append(resp.Items, toCooperationResponse(&reqs[i]))
	}

	blocking, err := s.HasBlockingPendingSelection(ctx, actorID)
	if err != nil {
		return nil, err
	}
	resp.HasBlockingPending = blocking
	return resp, nil
}

// ListProjects 当前用户已确认的合作项目
func (s *cooperationService) ListProjects(ctx context.Context, actorID uint, actorRole string) ([]dto.ProjectResponse, error) {
	result := []dto.ProjectResponse{}

	filter := repository.CooperationFilter{FinalStatus: model.CoopConfirmed}
	switch actorRole {
	case model.RoleTeacher:
		filter.TeacherUserID = actorID
	case model.RoleStudent:
		filter.StudentUserID = actorID
	default:
		return result, nil
	}

	reqs, err := s.repo.Cooperation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询已确认合作失败", zap.Uint("user_id", actorID), zap.Error(err))
		return nil, err
	}
	if len(reqs) == 0 {
		return result, nil
	}

	ids := make([]uint, 0, len(reqs))
	byID := make(map[uint]*model.CooperationRequest, len(reqs))
	for i := range reqs {
		ids = append(ids, reqs[i].ID)
		byID[reqs[i].ID] = &reqs[i]
	}
	projects, err := s.repo.Project.ListByRequestIDs(ctx, ids)
	if err != nil {
		s.logger.Error("查询合作项目失败", zap.Error(err))
		return nil, err
	}

	for _, p := range projects {
		item := dto.ProjectResponse{
			ID:        p.ID,
			Title:     p.Title,
			RequestID: p.RequestID,
			CreatedAt: formatTime(p.CreatedAt),
		}
		if r, ok := byID[p.RequestID]; ok {
			item.PostID = r.PostID
		}
		result = append(result, item)
	}
	return result, nil
}

// HasBlockingPendingSelection 用户是否已在某个仍待定的请求中表示同意
func (s *cooperationService) HasBlockingPendingSelection(ctx context.Context, userID uint) (bool, error) {
	reqs, err := s.repo.Cooperation.ListPendingForUser(ctx, userID)
	if err != nil {
		s.logger.Error("查询待定合作请求失败", zap.Uint("user_id", userID), zap.Error(err))
		return false, err
	}
	for _, r := range reqs {
		if r.TeacherUserID == userID && r.TeacherStatus == model.CoopAccepted {
			return true, nil
		}
		if r.StudentUserID == userID && r.StudentStatus == model.CoopAccepted {
			return true, nil
		}
	}
	return false, nil
}

// ── 内部辅助方法 ──

func toCooperationResponse(r *model.CooperationRequest) dto.CooperationResponse {
	resp := dto.CooperationResponse{
		ID:            r.ID,
		InitiatedBy:   r.InitiatedBy,
		TeacherStatus: r.TeacherStatus,
		StudentStatus: r.StudentStatus,
		FinalStatus:   r.FinalStatus,
		StudentRole:   r.StudentRole,
		CustomStatus:  r.CustomStatus,
		CreatedAt:     formatTime(r.CreatedAt),
		UpdatedAt:     formatTime(r.UpdatedAt),
	}
	if r.Teacher != nil {
		resp.Teacher = &dto.UserBrief{ID: r.Teacher.ID, DisplayName: r.Teacher.DisplayName}
	}
	if r.Student != nil {
		resp.Student = &dto.UserBrief{ID: r.Student.ID, DisplayName: r.Student.DisplayName}
	}
	if r.Post != nil {
		resp.Post = &dto.PostBrief{ID: r.Post.ID, Title: r.Post.Title}
	}
	return resp
}
