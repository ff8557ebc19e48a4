package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Isaaaaaaaaaaaaaa/NetEngCollab/internal/model"
)

type fakePublisher struct {
	published map[uint][]interface{}
	err       error
}

func (p *fakePublisher) PublishNotification(_ context.Context, userID uint, message interface{}) error {
	if p.err != nil {
		return p.err
	}
	if p.published == nil {
		p.published = make(map[uint][]interface{})
	}
	p.published[userID] = append(p.published[userID], message)
	return nil
}

type fakeTelegram struct {
	sent map[int64]string
}

func (s *fakeTelegram) Send(_ context.Context, chatID int64, title, summary string) error {
	if s.sent == nil {
		s.sent = make(map[int64]string)
	}
	s.sent[chatID] = title + "|" + summary
	return nil
}

func TestFanOutNotificationSink(t *testing.T) {
	f := newTestFixture()
	f.addUser(studentA, model.RoleStudent, "Alice")
	chatID := int64(777)
	f.users.users[studentA].TelegramChatID = &chatID
	f.addUser(studentB, model.RoleStudent, "Bob")

	pub := &fakePublisher{}
	tg := &fakeTelegram{}
	sink := NewFanOutNotificationSink(zap.NewNop(),
		NewDBNotificationSink(f.notifications),
		NewRedisNotificationSink(pub),
		NewTelegramNotificationSink(f.users, tg),
	)

	ctx := context.Background()
	if err := sink.Push(ctx, studentA, model.NotifProjectFull, "项目已满员", summaryPayload("已招满", uintPtr(1))); err != nil {
		t.Fatalf("Push 应成功: %v", err)
	}
	if err := sink.Push(ctx, studentB, model.NotifProjectFull, "项目已满员", nil); err != nil {
		t.Fatalf("Push 应成功: %v", err)
	}

	if len(f.notifications.items) != 2 {
		t.Errorf("期望写入 2 条站内通知，实际=%d", len(f.notifications.items))
	}
	if len(pub.published[studentA]) != 1 || len(pub.published[studentB]) != 1 {
		t.Error("每个用户都应发布到 Redis 频道")
	}
	if got := tg.sent[chatID]; got != "项目已满员|已招满" {
		t.Errorf("Telegram 消息不符，实际=%q", got)
	}
	if len(tg.sent) != 1 {
		t.Error("未绑定 Telegram 的用户应被跳过")
	}
}

func TestFanOutNotificationSink_ExtraFailureIgnored(t *testing.T) {
	f := newTestFixture()
	pub := &fakePublisher{err: errSinkDown}
	sink := NewFanOutNotificationSink(zap.NewNop(), NewDBNotificationSink(f.notifications), NewRedisNotificationSink(pub))

	if err := sink.Push(context.Background(), studentA, model.NotifMatchRefresh, "匹配推荐已更新", nil); err != nil {
		t.Errorf("附加渠道失败不应返回错误: %v", err)
	}
	if len(f.notifications.items) != 1 {
		t.Error("站内通知仍应写入")
	}

	failing := NewFanOutNotificationSink(zap.NewNop(), &recordingSink{err: errSinkDown})
	if err := failing.Push(context.Background(), studentA, model.NotifMatchRefresh, "t", nil); !errors.Is(err, errSinkDown) {
		t.Errorf("主渠道失败应返回错误，实际=%v", err)
	}
}

func TestOutbox_FlushLogsFailures(t *testing.T) {
	sink := &recordingSink{err: errSinkDown}
	var out outbox
	out.add(studentA, model.NotifCooperationRequest, "a", nil)
	out.add(studentB, model.NotifCooperationRequest, "b", nil)

	out.flush(context.Background(), sink, zap.NewNop())
	if len(sink.pushed) != 2 {
		t.Errorf("单条失败不应中断其余推送，实际推送=%d", len(sink.pushed))
	}
	if len(out.items) != 0 {
		t.Error("flush 后应清空")
	}

	// 未配置出口时直接丢弃
	out.add(studentA, model.NotifCooperationRequest, "a", nil)
	out.flush(context.Background(), nil, zap.NewNop())
}

func TestNotificationService_ListAndMarkRead(t *testing.T) {
	f := newTestFixture()
	svc := NewNotificationService(f.repo, zap.NewNop())
	dbSink := NewDBNotificationSink(f.notifications)

	ctx := context.Background()
	_ = dbSink.Push(ctx, studentA, model.NotifCooperationRequest, "第一条", summaryPayload("s1", nil))
	_ = dbSink.Push(ctx, studentA, model.NotifCooperationRespond, "第二条", summaryPayload("s2", uintPtr(3)))
	_ = dbSink.Push(ctx, studentB, model.NotifCooperationRequest, "别人的", nil)

	list, err := svc.List(ctx, studentA)
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 条，实际=%d", len(list))
	}
	if list[0].Title != "第二条" {
		t.Errorf("应按时间倒序，实际首条=%q", list[0].Title)
	}
	if list[0].Payload["summary"] != "s2" {
		t.Errorf("载荷应包含 summary，实际=%v", list[0].Payload)
	}

	if err := svc.MarkRead(ctx, studentA, list[0].ID); err != nil {
		t.Fatalf("MarkRead 应成功: %v", err)
	}
	if !f.notifications.items[list[0].ID].IsRead {
		t.Error("通知应已标记为已读")
	}

	var othersID uint
	for id, n := range f.notifications.items {
		if n.UserID == studentB {
			othersID = id
		}
	}
	if err := svc.MarkRead(ctx, studentA, othersID); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("他人通知期望 ErrNotificationNotFound，实际=%v", err)
	}
	if err := svc.MarkRead(ctx, studentA, 404); !errors.Is(err, ErrNotificationNotFound) {
		t.Errorf("期望 ErrNotificationNotFound，实际=%v", err)
	}
}
