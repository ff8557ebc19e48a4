package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/config"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/dto"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/jwt"
)

type fakeBlacklist struct {
	tokens map[string]time.Duration
}

func (b *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if b.tokens == nil {
		b.tokens = make(map[string]time.Duration)
	}
	b.tokens[jti] = ttl
	return nil
}

func setupTestAuthService() (AuthService, *testFixture, *fakeBlacklist) {
	f := newTestFixture()
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:      "test-secret-key-for-unit-tests",
			AccessTokenTTL: 2 * time.Hour,
		},
	}
	bl := &fakeBlacklist{}
	svc := NewAuthService(cfg, f.repo, jwt.NewManager(&cfg.Auth), bl, zap.NewNop())
	return svc, f, bl
}

func addUserWithPassword(f *testFixture, id uint, role, name, password string) *model.User {
	u := f.addUser(id, role, name)
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	f.users.users[id].PasswordHash = string(hash)
	return u
}

func TestLogin_Success(t *testing.T) {
	svc, f, _ := setupTestAuthService()
	addUserWithPassword(f, studentA, model.RoleStudent, "Alice", "secret123")

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "alice", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login 应成功: %v", err)
	}
	if resp.AccessToken == "" {
		t.Error("应返回 AccessToken")
	}
	if resp.ExpiresIn != 7200 {
		t.Errorf("期望 ExpiresIn=7200，实际=%d", resp.ExpiresIn)
	}
	if resp.User.ID != studentA || resp.User.Role != model.RoleStudent {
		t.Errorf("用户信息不符: %+v", resp.User)
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, f, _ := setupTestAuthService()
	addUserWithPassword(f, studentA, model.RoleStudent, "Alice", "secret123")
	addUserWithPassword(f, studentB, model.RoleStudent, "Bob", "secret123")
	f.users.users[studentB].IsActive = false

	tests := []struct {
		name string
		req  dto.LoginRequest
		want error
	}{
		{"用户不存在", dto.LoginRequest{Username: "nobody", Password: "x"}, ErrInvalidCredentials},
		{"密码错误", dto.LoginRequest{Username: "alice", Password: "wrong"}, ErrInvalidCredentials},
		{"角色不匹配", dto.LoginRequest{Username: "alice", Password: "secret123", Role: model.RoleTeacher}, ErrRoleMismatch},
		{"账号停用", dto.LoginRequest{Username: "bob", Password: "secret123"}, ErrUserInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际=%v", tt.want, err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	svc, f, _ := setupTestAuthService()

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Username:    "newstudent",
		Password:    "secret123",
		Role:        model.RoleStudent,
		DisplayName: "新同学",
	})
	if err != nil {
		t.Fatalf("Register 应成功: %v", err)
	}
	if !resp.IsActive {
		t.Error("新账号应为启用状态")
	}
	if _, ok := f.profiles.students[resp.ID]; !ok {
		t.Error("注册学生应同时创建空画像")
	}

	_, err = svc.Register(context.Background(), &dto.RegisterRequest{Username: "newstudent", Password: "x", Role: model.RoleStudent})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("重复账号期望 ErrUsernameTaken，实际=%v", err)
	}

	login, err := svc.Login(context.Background(), &dto.LoginRequest{Username: "newstudent", Password: "secret123"})
	if err != nil {
		t.Fatalf("注册后应能登录: %v", err)
	}
	if login.User.DisplayName != "新同学" {
		t.Errorf("期望显示名=新同学，实际=%q", login.User.DisplayName)
	}
}

func TestMe(t *testing.T) {
	svc, f, _ := setupTestAuthService()
	f.addUser(teacherID, model.RoleTeacher, "Teacher")

	me, err := svc.Me(context.Background(), teacherID)
	if err != nil {
		t.Fatalf("Me 应成功: %v", err)
	}
	if me.DisplayName != "Teacher" {
		t.Errorf("期望 Teacher，实际=%q", me.DisplayName)
	}
	if _, err := svc.Me(context.Background(), 404); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际=%v", err)
	}
}

func TestLogout_Blacklists(t *testing.T) {
	svc, _, bl := setupTestAuthService()

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Logout 应成功: %v", err)
	}
	ttl, ok := bl.tokens["jti-1"]
	if !ok {
		t.Fatal("jti 应写入黑名单")
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Errorf("黑名单 TTL 应为剩余有效期，实际=%v", ttl)
	}
}
