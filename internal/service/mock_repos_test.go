package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/repository"
	pkgerrors "github.com/Isaaaaaaaaaaaaaa/NetEngCollab/pkg/errors"
)

// mock 均返回副本，模拟数据库读写语义：未调用 Update 的修改不会生效

// ── Mock UserRepository ──

type mockUserRepo struct {
	users  map[uint]*model.User
	nextID uint
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uint]*model.User), nextID: 1}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == 0 {
		user.ID = m.nextID
		m.nextID++
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []uint) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

// ── Mock ProfileRepository ──

type mockProfileRepo struct {
	users    *mockUserRepo
	students map[uint]*model.StudentProfile
	teachers map[uint]*model.TeacherProfile
}

func newMockProfileRepo(users *mockUserRepo) *mockProfileRepo {
	return &mockProfileRepo{
		users:    users,
		students: make(map[uint]*model.StudentProfile),
		teachers: make(map[uint]*model.TeacherProfile),
	}
}

func (m *mockProfileRepo) GetStudent(_ context.Context, userID uint) (*model.StudentProfile, error) {
	if p, ok := m.students[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) ListActiveStudents(_ context.Context, limit int) ([]model.StudentProfile, error) {
	var result []model.StudentProfile
	for _, p := range m.students {
		u, ok := m.users.users[p.UserID]
		if !ok || !u.IsActive || u.Role != model.RoleStudent {
			continue
		}
		cp := *p
		uc := *u
		cp.User = &uc
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID > result[j].UserID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockProfileRepo) UpsertStudent(_ context.Context, profile *model.StudentProfile) error {
	cp := *profile
	m.students[profile.UserID] = &cp
	return nil
}

func (m *mockProfileRepo) GetTeacher(_ context.Context, userID uint) (*model.TeacherProfile, error) {
	if p, ok := m.teachers[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) UpsertTeacher(_ context.Context, profile *model.TeacherProfile) error {
	cp := *profile
	m.teachers[profile.UserID] = &cp
	return nil
}

// ── Mock PostRepository ──

type mockPostRepo struct {
	posts  map[uint]*model.Post
	nextID uint
}

func newMockPostRepo() *mockPostRepo {
	return &mockPostRepo{posts: make(map[uint]*model.Post), nextID: 1}
}

func (m *mockPostRepo) Create(_ context.Context, post *model.Post) error {
	if post.ID == 0 {
		post.ID = m.nextID
		m.nextID++
	} else if post.ID >= m.nextID {
		m.nextID = post.ID + 1
	}
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockPostRepo) GetByID(_ context.Context, id uint) (*model.Post, error) {
	if p, ok := m.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPostRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.Post, error) {
	return m.GetByID(ctx, id)
}

func (m *mockPostRepo) Update(_ context.Context, post *model.Post) error {
	stored, ok := m.posts[post.ID]
	if !ok || stored.Version != post.Version {
		return pkgerrors.ErrOptimisticLock
	}
	post.Version++
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *mockPostRepo) TransitionStatus(_ context.Context, id uint, from, to string) (bool, error) {
	p, ok := m.posts[id]
	if !ok || p.ProjectStatus != from {
		return false, nil
	}
	p.ProjectStatus = to
	p.Version++
	return true, nil
}

func (m *mockPostRepo) sorted(keep func(p *model.Post) bool, limit int) []model.Post {
	var result []model.Post
	for _, p := range m.posts {
		if keep(p) {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func (m *mockPostRepo) List(_ context.Context, filter repository.PostFilter) ([]model.Post, error) {
	return m.sorted(func(p *model.Post) bool {
		if filter.PostType != "" && p.PostType != filter.PostType {
			return false
		}
		if filter.Keyword != "" && !strings.Contains(p.Title, filter.Keyword) && !strings.Contains(p.Content, filter.Keyword) {
			return false
		}
		if filter.TeacherUserID != 0 && p.TeacherUserID != filter.TeacherUserID {
			return false
		}
		if filter.ApprovedOnly && p.ReviewStatus != model.ReviewApproved {
			return false
		}
		return true
	}, filter.Limit), nil
}

func (m *mockPostRepo) ListRecruiting(_ context.Context, limit int) ([]model.Post, error) {
	return m.sorted(func(p *model.Post) bool {
		return p.ReviewStatus == model.ReviewApproved && p.ProjectStatus == model.ProjectRecruiting
	}, limit), nil
}

func (m *mockPostRepo) ListApprovedByTeacher(_ context.Context, teacherID uint, limit int) ([]model.Post, error) {
	return m.sorted(func(p *model.Post) bool {
		return p.TeacherUserID == teacherID && p.ReviewStatus == model.ReviewApproved
	}, limit), nil
}

// ── Mock CooperationRepository ──

type mockCooperationRepo struct {
	reqs   map[uint]*model.CooperationRequest
	nextID uint
	// lockedReads 记录 GetByIDForUpdate 读取过的请求
	lockedReads []uint
	// afterLockedRead 在一次加锁读取返回前调用，调用后清空
	afterLockedRead func(id uint)
}

func newMockCooperationRepo() *mockCooperationRepo {
	return &mockCooperationRepo{reqs: make(map[uint]*model.CooperationRequest), nextID: 1}
}

func samePost(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockCooperationRepo) Create(_ context.Context, req *model.CooperationRequest) error {
	for _, r := range m.reqs {
		if r.TeacherUserID == req.TeacherUserID && r.StudentUserID == req.StudentUserID && samePost(r.PostID, req.PostID) {
			return gorm.ErrDuplicatedKey
		}
	}
	req.ID = m.nextID
	m.nextID++
	cp := *req
	m.reqs[req.ID] = &cp
	return nil
}

func (m *mockCooperationRepo) GetByID(_ context.Context, id uint) (*model.CooperationRequest, error) {
	if r, ok := m.reqs[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCooperationRepo) FindByTriple(_ context.Context, teacherID, studentID uint, postID *uint) (*model.CooperationRequest, error) {
	for _, r := range m.reqs {
		if r.TeacherUserID == teacherID && r.StudentUserID == studentID && samePost(r.PostID, postID) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCooperationRepo) GetByIDForUpdate(ctx context.Context, id uint) (*model.CooperationRequest, error) {
	r, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	m.lockedReads = append(m.lockedReads, id)
	if hook := m.afterLockedRead; hook != nil {
		m.afterLockedRead = nil
		hook(id)
	}
	return r, nil
}

func (m *mockCooperationRepo) UpdateStatus(_ context.Context, req *model.CooperationRequest) error {
	stored, ok := m.reqs[req.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.TeacherStatus = req.TeacherStatus
	stored.StudentStatus = req.StudentStatus
	stored.FinalStatus = req.FinalStatus
	stored.UpdatedAt = req.UpdatedAt
	return nil
}

func (m *mockCooperationRepo) UpdateParticipant(_ context.Context, id uint, studentRole, customStatus *string, updatedAt time.Time) error {
	stored, ok := m.reqs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.StudentRole = studentRole
	stored.CustomStatus = customStatus
	stored.UpdatedAt = updatedAt
	return nil
}

func (m *mockCooperationRepo) Delete(_ context.Context, id uint) error {
	delete(m.reqs, id)
	return nil
}

func (m *mockCooperationRepo) CountConfirmedByPost(_ context.Context, postID uint) (int64, error) {
	var n int64
	for _, r := range m.reqs {
		if r.PostID != nil && *r.PostID == postID && r.FinalStatus == model.CoopConfirmed {
			n++
		}
	}
	return n, nil
}

func (m *mockCooperationRepo) CountConfirmedByPosts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	for _, id := range postIDs {
		n, _ := m.CountConfirmedByPost(ctx, id)
		if n > 0 {
			counts[id] = n
		}
	}
	return counts, nil
}

func (m *mockCooperationRepo) sorted(keep func(r *model.CooperationRequest) bool) []model.CooperationRequest {
	var result []model.CooperationRequest
	for _, r := range m.reqs {
		if keep(r) {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func (m *mockCooperationRepo) ListByPostAndStatus(_ context.Context, postID uint, finalStatus string) ([]model.CooperationRequest, error) {
	result := m.sorted(func(r *model.CooperationRequest) bool {
		return r.PostID != nil && *r.PostID == postID && r.FinalStatus == finalStatus
	})
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockCooperationRepo) List(_ context.Context, filter repository.CooperationFilter) ([]model.CooperationRequest, error) {
	return m.sorted(func(r *model.CooperationRequest) bool {
		if filter.TeacherUserID != 0 && r.TeacherUserID != filter.TeacherUserID {
			return false
		}
		if filter.StudentUserID != 0 && r.StudentUserID != filter.StudentUserID {
			return false
		}
		if filter.PostID != nil && !samePost(r.PostID, filter.PostID) {
			return false
		}
		if filter.FinalStatus != "" && r.FinalStatus != filter.FinalStatus {
			return false
		}
		return true
	}), nil
}

func (m *mockCooperationRepo) ListPendingForUser(_ context.Context, userID uint) ([]model.CooperationRequest, error) {
	return m.sorted(func(r *model.CooperationRequest) bool {
		return (r.TeacherUserID == userID || r.StudentUserID == userID) && r.FinalStatus == model.CoopPending
	}), nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[uint]*model.CooperationProject
	progress *mockProgressRepo
	nextID   uint
}

func newMockProjectRepo(progress *mockProgressRepo) *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[uint]*model.CooperationProject), progress: progress, nextID: 1}
}

func (m *mockProjectRepo) Create(_ context.Context, project *model.CooperationProject) error {
	for _, p := range m.projects {
		if p.RequestID == project.RequestID {
			return gorm.ErrDuplicatedKey
		}
	}
	project.ID = m.nextID
	m.nextID++
	cp := *project
	m.projects[project.ID] = &cp
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id uint) (*model.CooperationProject, error) {
	if p, ok := m.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) GetByRequestID(_ context.Context, requestID uint) (*model.CooperationProject, error) {
	for _, p := range m.projects {
		if p.RequestID == requestID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) ListByRequestIDs(_ context.Context, requestIDs []uint) ([]model.CooperationProject, error) {
	want := make(map[uint]bool, len(requestIDs))
	for _, id := range requestIDs {
		want[id] = true
	}
	var result []model.CooperationProject
	for _, p := range m.projects {
		if want[p.RequestID] {
			result = append(result, *p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockProjectRepo) DeleteByRequestID(_ context.Context, requestID uint) error {
	for id, p := range m.projects {
		if p.RequestID != requestID {
			continue
		}
		if m.progress != nil {
			m.progress.deleteProject(id)
		}
		delete(m.projects, id)
	}
	return nil
}

func (m *mockProjectRepo) count() int {
	return len(m.projects)
}

// ── Mock ProgressRepository ──

type mockProgressRepo struct {
	milestones map[uint]*model.Milestone
	updates    map[uint]*model.ProgressUpdate
	users      *mockUserRepo
	nextID     uint
}

func newMockProgressRepo(users *mockUserRepo) *mockProgressRepo {
	return &mockProgressRepo{
		milestones: make(map[uint]*model.Milestone),
		updates:    make(map[uint]*model.ProgressUpdate),
		users:      users,
		nextID:     1,
	}
}

func (m *mockProgressRepo) deleteProject(projectID uint) {
	for id, ms := range m.milestones {
		if ms.ProjectID == projectID {
			delete(m.milestones, id)
		}
	}
	for id, u := range m.updates {
		if u.ProjectID == projectID {
			delete(m.updates, id)
		}
	}
}

func (m *mockProgressRepo) CreateMilestone(_ context.Context, ms *model.Milestone) error {
	ms.ID = m.nextID
	m.nextID++
	cp := *ms
	m.milestones[ms.ID] = &cp
	return nil
}

func (m *mockProgressRepo) GetMilestone(_ context.Context, id uint) (*model.Milestone, error) {
	if ms, ok := m.milestones[id]; ok {
		cp := *ms
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProgressRepo) UpdateMilestone(_ context.Context, ms *model.Milestone) error {
	cp := *ms
	m.milestones[ms.ID] = &cp
	return nil
}

func (m *mockProgressRepo) ListMilestones(_ context.Context, projectIDs []uint) ([]model.Milestone, error) {
	var result []model.Milestone
	for _, pid := range projectIDs {
		for _, ms := range m.milestones {
			if ms.ProjectID == pid {
				result = append(result, *ms)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockProgressRepo) CreateUpdate(_ context.Context, u *model.ProgressUpdate) error {
	u.ID = m.nextID
	m.nextID++
	cp := *u
	m.updates[u.ID] = &cp
	return nil
}

func (m *mockProgressRepo) ListUpdates(_ context.Context, projectIDs []uint, limit int) ([]model.ProgressUpdate, error) {
	var result []model.ProgressUpdate
	for _, pid := range projectIDs {
		for _, u := range m.updates {
			if u.ProjectID == pid {
				cp := *u
				if author, ok := m.users.users[u.AuthorUserID]; ok {
					a := *author
					cp.Author = &a
				}
				result = append(result, cp)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	items  map[uint]*model.Notification
	nextID uint
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{items: make(map[uint]*model.Notification), nextID: 1}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	n.ID = m.nextID
	m.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	cp := *n
	m.items[n.ID] = &cp
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id uint) (*model.Notification, error) {
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) byUser(userID uint, notifType string) []model.Notification {
	var result []model.Notification
	for _, n := range m.items {
		if n.UserID == userID && (notifType == "" || n.NotifType == notifType) {
			result = append(result, *n)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID uint, limit int) ([]model.Notification, error) {
	result := m.byUser(userID, "")
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockNotificationRepo) LatestByType(_ context.Context, userID uint, notifType string) (*model.Notification, error) {
	result := m.byUser(userID, notifType)
	if len(result) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &result[0], nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id uint) error {
	if n, ok := m.items[id]; ok {
		n.IsRead = true
	}
	return nil
}

// ── 记录型通知出口 ──

type pushedNotification struct {
	UserID    uint
	NotifType string
	Title     string
	Payload   map[string]interface{}
}

type recordingSink struct {
	pushed []pushedNotification
	err    error
}

func (s *recordingSink) Push(_ context.Context, userID uint, notifType, title string, payload map[string]interface{}) error {
	s.pushed = append(s.pushed, pushedNotification{UserID: userID, NotifType: notifType, Title: title, Payload: payload})
	return s.err
}

func (s *recordingSink) ofType(notifType string) []pushedNotification {
	var result []pushedNotification
	for _, p := range s.pushed {
		if p.NotifType == notifType {
			result = append(result, p)
		}
	}
	return result
}

func (s *recordingSink) receivedBy(userID uint, notifType string) bool {
	for _, p := range s.pushed {
		if p.UserID == userID && p.NotifType == notifType {
			return true
		}
	}
	return false
}

var errSinkDown = errors.New("sink down")

// ── 测试夹具 ──

type testFixture struct {
	repo          *repository.Repository
	users         *mockUserRepo
	profiles      *mockProfileRepo
	posts         *mockPostRepo
	cooperation   *mockCooperationRepo
	projects      *mockProjectRepo
	progress      *mockProgressRepo
	notifications *mockNotificationRepo
	sink          *recordingSink
}

func newTestFixture() *testFixture {
	users := newMockUserRepo()
	progress := newMockProgressRepo(users)
	f := &testFixture{
		users:         users,
		profiles:      newMockProfileRepo(users),
		posts:         newMockPostRepo(),
		cooperation:   newMockCooperationRepo(),
		projects:      newMockProjectRepo(progress),
		progress:      progress,
		notifications: newMockNotificationRepo(),
		sink:          &recordingSink{},
	}
	f.repo = &repository.Repository{
		User:         f.users,
		Profile:      f.profiles,
		Post:         f.posts,
		Cooperation:  f.cooperation,
		Project:      f.projects,
		Progress:     f.progress,
		Notification: f.notifications,
	}
	return f
}

func (f *testFixture) addUser(id uint, role, name string) *model.User {
	u := &model.User{
		ID:          id,
		Username:    strings.ToLower(name),
		Role:        role,
		DisplayName: name,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}
	_ = f.users.Create(context.Background(), u)
	if id >= f.users.nextID {
		f.users.nextID = id + 1
	}
	return u
}

func (f *testFixture) addPost(id, teacherID uint, title string, capacity *int) *model.Post {
	now := time.Now()
	p := &model.Post{
		ID:            id,
		TeacherUserID: teacherID,
		PostType:      model.PostTypeProject,
		Title:         title,
		Content:       title + " 内容",
		TechStack:     model.StringList{},
		Tags:          model.StringList{},
		RecruitCount:  capacity,
		Visibility:    model.VisibilityPublic,
		ReviewStatus:  model.ReviewApproved,
		ProjectStatus: model.ProjectRecruiting,
		Version:       1,
		CreatedAt:     now.Add(time.Duration(id) * time.Second),
		UpdatedAt:     now,
	}
	_ = f.posts.Create(context.Background(), p)
	return p
}

func intPtr(v int) *int    { return &v }
func uintPtr(v uint) *uint { return &v }
