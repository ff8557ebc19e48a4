package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	pkgerrors "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/errors"
)

func setupTestPostService() (PostService, *testFixture) {
	f := newTestFixture()
	f.addUser(teacherID, model.RoleTeacher, "Teacher")
	f.addUser(studentA, model.RoleStudent, "Alice")
	return NewPostService(f.repo, zap.NewNop()), f
}

func TestPostCreate_Defaults(t *testing.T) {
	svc, _ := setupTestPostService()

	resp, err := svc.Create(context.Background(), &dto.CreatePostRequest{
		Title:     "  图像识别 ",
		Content:   "招募学生",
		Tags:      []string{" ai ", "", "cv"},
		TechStack: []string{"python"},
		Deadline:  strPtr("2030-06-30"),
	}, teacherID)
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if resp.Title != "图像识别" {
		t.Errorf("标题应去空白，实际=%q", resp.Title)
	}
	if resp.PostType != model.PostTypeProject || resp.Visibility != model.VisibilityPublic {
		t.Errorf("默认类型/可见性不符: %s/%s", resp.PostType, resp.Visibility)
	}
	if resp.ProjectStatus != model.ProjectRecruiting || resp.Version != 1 {
		t.Errorf("新项目应为 recruiting 且版本 1，实际=%s/%d", resp.ProjectStatus, resp.Version)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "ai" {
		t.Errorf("标签应清洗空白项，实际=%v", resp.Tags)
	}
	if resp.Deadline == nil {
		t.Error("应返回截止时间")
	}
}

func TestPostCreate_Validation(t *testing.T) {
	svc, _ := setupTestPostService()

	tests := []struct {
		name string
		req  dto.CreatePostRequest
	}{
		{"空标题", dto.CreatePostRequest{Title: "  ", Content: "x"}},
		{"空内容", dto.CreatePostRequest{Title: "x", Content: " "}},
		{"截止日期格式错误", dto.CreatePostRequest{Title: "x", Content: "y", Deadline: strPtr("明天")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), &tt.req, teacherID); !errors.Is(err, ErrValidation) {
				t.Errorf("期望 ErrValidation，实际=%v", err)
			}
		})
	}
}

func TestPostGetByID_VisibilityAndCount(t *testing.T) {
	svc, f := setupTestPostService()
	f.addPost(1, teacherID, "仅教师可见", intPtr(3))
	f.posts.posts[1].Visibility = model.VisibilityTeacherOnly
	_ = f.cooperation.Create(context.Background(), &model.CooperationRequest{
		TeacherUserID: teacherID, StudentUserID: studentA, PostID: uintPtr(1),
		TeacherStatus: model.CoopAccepted, StudentStatus: model.CoopAccepted, FinalStatus: model.CoopConfirmed,
	})

	if _, err := svc.GetByID(context.Background(), 1, model.RoleStudent); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("学生不可见时期望 ErrPostNotFound，实际=%v", err)
	}

	resp, err := svc.GetByID(context.Background(), 1, model.RoleTeacher)
	if err != nil {
		t.Fatalf("GetByID 应成功: %v", err)
	}
	if resp.ConfirmedCount != 1 {
		t.Errorf("期望已确认 1 人，实际=%d", resp.ConfirmedCount)
	}

	if _, err := svc.GetByID(context.Background(), 404, model.RoleAdmin); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("期望 ErrPostNotFound，实际=%v", err)
	}
}

func TestPostList_Filters(t *testing.T) {
	svc, f := setupTestPostService()
	f.addPost(1, teacherID, "图像识别", nil)
	f.posts.posts[1].Tags = model.StringList{"ai"}
	f.addPost(2, teacherID, "数学建模", nil)
	f.posts.posts[2].TechStack = model.StringList{"matlab"}
	f.addPost(3, teacherID, "待审核", nil)
	f.posts.posts[3].ReviewStatus = model.ReviewPending
	f.addPost(4, 2, "仅学生可见", nil)
	f.posts.posts[4].Visibility = model.VisibilityStudentOnly

	tests := []struct {
		name   string
		req    dto.PostListRequest
		viewer uint
		role   string
		want   []uint
	}{
		{"学生默认", dto.PostListRequest{}, studentA, model.RoleStudent, []uint{4, 2, 1}},
		{"教师看不到仅学生可见", dto.PostListRequest{}, teacherID, model.RoleTeacher, []uint{2, 1}},
		{"管理员看到全部", dto.PostListRequest{}, 500, model.RoleAdmin, []uint{4, 3, 2, 1}},
		{"按标签", dto.PostListRequest{Tag: "ai"}, studentA, model.RoleStudent, []uint{1}},
		{"按技术栈", dto.PostListRequest{Tech: "matlab"}, studentA, model.RoleStudent, []uint{2}},
		{"关键字", dto.PostListRequest{Keyword: "建模"}, studentA, model.RoleStudent, []uint{2}},
		{"我的项目", dto.PostListRequest{Mine: true}, teacherID, model.RoleTeacher, []uint{2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := svc.List(context.Background(), &tt.req, tt.viewer, tt.role)
			if err != nil {
				t.Fatalf("List 应成功: %v", err)
			}
			got := make([]uint, 0, len(list))
			for _, p := range list {
				got = append(got, p.ID)
			}
			if !sameIDs(got, tt.want) {
				t.Errorf("期望 %v，实际=%v", tt.want, got)
			}
		})
	}
}

func TestPostUpdate(t *testing.T) {
	svc, f := setupTestPostService()
	f.addPost(1, teacherID, "图像识别", intPtr(2))

	title := "图像识别二期"
	resp, err := svc.Update(context.Background(), 1, &dto.UpdatePostRequest{Title: &title, ClearRecruit: true, Version: 1}, teacherID)
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if resp.Title != title || resp.RecruitCount != nil {
		t.Errorf("更新结果不符: %+v", resp)
	}
	if resp.Version != 2 {
		t.Errorf("版本号应递增为 2，实际=%d", resp.Version)
	}

	// 旧版本号提交
	_, err = svc.Update(context.Background(), 1, &dto.UpdatePostRequest{Title: &title, Version: 1}, teacherID)
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际=%v", err)
	}

	_, err = svc.Update(context.Background(), 1, &dto.UpdatePostRequest{Title: &title, Version: 2}, studentA)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("非发布者期望 ErrForbidden，实际=%v", err)
	}
}

func TestPostUpdateStatus(t *testing.T) {
	svc, f := setupTestPostService()
	f.addPost(1, teacherID, "图像识别", nil)

	resp, err := svc.UpdateStatus(context.Background(), 1, model.ProjectClosed, teacherID, model.RoleTeacher)
	if err != nil {
		t.Fatalf("UpdateStatus 应成功: %v", err)
	}
	if resp.ProjectStatus != model.ProjectClosed {
		t.Errorf("期望 closed，实际=%s", resp.ProjectStatus)
	}

	// 相同状态为幂等操作
	if _, err := svc.UpdateStatus(context.Background(), 1, model.ProjectClosed, teacherID, model.RoleTeacher); err != nil {
		t.Errorf("重复设置相同状态应成功: %v", err)
	}

	if _, err := svc.UpdateStatus(context.Background(), 1, model.ProjectRecruiting, 500, model.RoleAdmin); err != nil {
		t.Errorf("管理员应可变更状态: %v", err)
	}

	tests := []struct {
		name   string
		status string
		caller uint
		role   string
		want   error
	}{
		{"in_progress 不可手动设置", model.ProjectInProgress, teacherID, model.RoleTeacher, ErrValidation},
		{"非发布者", model.ProjectClosed, studentA, model.RoleStudent, ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateStatus(context.Background(), 1, tt.status, tt.caller, tt.role)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际=%v", tt.want, err)
			}
		})
	}
}
