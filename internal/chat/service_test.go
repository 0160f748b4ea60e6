package chat

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"sudooom.im.hub/internal/errors"
	"sudooom.im.hub/internal/model"
	"sudooom.im.hub/internal/proto"
)

type fakeMessages struct {
	rows   map[int64]*model.Message
	nextID int64
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{rows: make(map[int64]*model.Message)}
}

func (f *fakeMessages) Create(_ context.Context, msg *model.Message) error {
	f.nextID++
	msg.ID = f.nextID
	stored := *msg
	f.rows[msg.ID] = &stored
	return nil
}

func (f *fakeMessages) FindByID(_ context.Context, id int64) (*model.Message, error) {
	msg, ok := f.rows[id]
	if !ok {
		return nil, errors.ErrMessageNotFound
	}
	out := *msg
	return &out, nil
}

func (f *fakeMessages) ListConversation(_ context.Context, userA, userB string, _, _ int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range f.rows {
		if msg.ReceiverID == nil {
			continue
		}
		if (msg.SenderID == userA && *msg.ReceiverID == userB) ||
			(msg.SenderID == userB && *msg.ReceiverID == userA) {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeMessages) ListGroupMessages(_ context.Context, groupID int64, _, _ int) ([]model.Message, error) {
	var out []model.Message
	for _, msg := range f.rows {
		if msg.GroupID != nil && *msg.GroupID == groupID {
			out = append(out, *msg)
		}
	}
	return out, nil
}

func (f *fakeMessages) Update(_ context.Context, id int64, content string, editedAt time.Time) error {
	msg, ok := f.rows[id]
	if !ok {
		return errors.ErrMessageNotFound
	}
	msg.Content = content
	msg.IsEdited = true
	msg.EditedAt = &editedAt
	return nil
}

func (f *fakeMessages) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return errors.ErrMessageNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	out := *user
	return &out, nil
}

type fakeGroups struct {
	groups  map[int64]*model.Group
	members map[int64][]string
}

func (f *fakeGroups) FindByID(_ context.Context, id int64) (*model.Group, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, errors.ErrGroupNotFound
	}
	return group, nil
}

func (f *fakeGroups) ListMemberIDs(_ context.Context, groupID int64) ([]string, error) {
	return f.members[groupID], nil
}

type fakeGate struct {
	members map[int64]map[string]bool
}

func (f *fakeGate) RequireMember(_ context.Context, groupID int64, userID string) (*model.GroupMember, error) {
	if !f.members[groupID][userID] {
		return nil, errors.ErrNotGroupMember
	}
	return &model.GroupMember{GroupID: groupID, UserID: userID, Role: model.RoleMember}, nil
}

type fakeChannels struct {
	subscribers map[int64][]string
}

func (f *fakeChannels) Subscribers(groupID int64) []string { return f.subscribers[groupID] }

type fakePusher struct {
	pushes []pushed
}

type pushed struct {
	userID  string
	event   string
	payload interface{}
}

func (f *fakePusher) Push(userID string, event string, payload interface{}) int {
	f.pushes = append(f.pushes, pushed{userID, event, payload})
	return 1
}

func (f *fakePusher) byEvent(event string) []pushed {
	var out []pushed
	for _, p := range f.pushes {
		if p.event == event {
			out = append(out, p)
		}
	}
	return out
}

type fakeNotifier struct {
	created   []model.Notification
	createErr error
}

func (f *fakeNotifier) Create(_ context.Context, userID, title, content string, notificationType model.NotificationType, relatedEntityID string) (*model.Notification, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	n := model.Notification{
		ID:              int64(len(f.created) + 1),
		Title:           title,
		Content:         content,
		UserID:          userID,
		Type:            notificationType,
		RelatedEntityID: relatedEntityID,
	}
	f.created = append(f.created, n)
	return &n, nil
}

type fixture struct {
	messages *fakeMessages
	users    *fakeUsers
	groups   *fakeGroups
	gate     *fakeGate
	channels *fakeChannels
	pusher   *fakePusher
	notifier *fakeNotifier
	service  *Service
}

func newFixture() *fixture {
	f := &fixture{
		messages: newFakeMessages(),
		users: &fakeUsers{users: map[string]*model.User{
			"user-a": {ID: "user-a", FirstName: "Alice", LastName: "Adams", IsOnline: true},
			"user-b": {ID: "user-b", FirstName: "Bob", LastName: "Brown"},
			"user-c": {ID: "user-c", FirstName: "Carol", LastName: "Clark"},
		}},
		groups: &fakeGroups{
			groups:  map[int64]*model.Group{10: {ID: 10, Name: "gophers"}},
			members: map[int64][]string{10: {"user-a", "user-b", "user-c"}},
		},
		gate: &fakeGate{members: map[int64]map[string]bool{
			10: {"user-a": true, "user-b": true, "user-c": true},
		}},
		channels: &fakeChannels{subscribers: map[int64][]string{
			10: {"user-a", "user-b"},
		}},
		pusher:   &fakePusher{},
		notifier: &fakeNotifier{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(f.messages, f.users, f.groups, f.gate, f.channels, f.pusher, f.notifier, logger)
	return f
}

func TestService_SendPrivate(t *testing.T) {
	f := newFixture()

	message, err := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hello", model.MessageTypeText, "")
	if err != nil {
		t.Fatalf("SendPrivate failed: %v", err)
	}

	stored, ok := f.messages.rows[message.ID]
	if !ok {
		t.Fatal("Expected message persisted")
	}
	if stored.SenderName != "Alice Adams" {
		t.Errorf("Expected sender name snapshot, got %q", stored.SenderName)
	}
	if stored.ReceiverID == nil || *stored.ReceiverID != "user-b" {
		t.Error("Expected receiver id set")
	}

	if got := f.pusher.byEvent(proto.EventReceivePrivateMessage); len(got) != 1 || got[0].userID != "user-b" {
		t.Errorf("Expected delivery to user-b, got %+v", got)
	}
	if got := f.pusher.byEvent(proto.EventMessageSent); len(got) != 1 || got[0].userID != "user-a" {
		t.Errorf("Expected MessageSent to sender, got %+v", got)
	}

	if len(f.notifier.created) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(f.notifier.created))
	}
	n := f.notifier.created[0]
	if n.UserID != "user-b" || n.Title != "New Message" {
		t.Errorf("Unexpected notification %+v", n)
	}
}

func TestService_SendPrivateSenderNameIsSnapshot(t *testing.T) {
	f := newFixture()

	first, err := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hi", model.MessageTypeText, "")
	if err != nil {
		t.Fatalf("SendPrivate failed: %v", err)
	}

	// 改名后旧消息的 SenderName 不变
	f.users.users["user-a"].LastName = "Archer"
	second, err := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hi again", model.MessageTypeText, "")
	if err != nil {
		t.Fatalf("SendPrivate failed: %v", err)
	}

	if got := f.messages.rows[first.ID].SenderName; got != "Alice Adams" {
		t.Errorf("Expected old snapshot unchanged, got %q", got)
	}
	if got := f.messages.rows[second.ID].SenderName; got != "Alice Archer" {
		t.Errorf("Expected new snapshot, got %q", got)
	}
}

func TestService_SendPrivateValidation(t *testing.T) {
	f := newFixture()

	_, err := f.service.SendPrivate(context.Background(), "user-a", "user-b", "", model.MessageTypeText, "")
	if !errors.Is(err, errors.ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}

	_, err = f.service.SendPrivate(context.Background(), "user-a", "ghost", "hi", model.MessageTypeText, "")
	if !errors.Is(err, errors.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	if len(f.messages.rows) != 0 {
		t.Errorf("Expected no persisted messages, got %d", len(f.messages.rows))
	}
}

func TestService_SendGroup(t *testing.T) {
	f := newFixture()

	message, err := f.service.SendGroup(context.Background(), "user-a", 10, "hello group", model.MessageTypeText, "")
	if err != nil {
		t.Fatalf("SendGroup failed: %v", err)
	}

	if len(f.messages.rows) != 1 {
		t.Fatalf("Expected exactly 1 persisted message, got %d", len(f.messages.rows))
	}
	if message.GroupID == nil || *message.GroupID != 10 {
		t.Error("Expected group id set")
	}

	// 投递给频道订阅者（含发送者），user-c 未订阅收不到实时消息
	deliveries := f.pusher.byEvent(proto.EventReceiveGroupMessage)
	if len(deliveries) != 2 {
		t.Fatalf("Expected 2 deliveries, got %d", len(deliveries))
	}
	targets := map[string]bool{}
	for _, d := range deliveries {
		targets[d.userID] = true
	}
	if !targets["user-a"] || !targets["user-b"] || targets["user-c"] {
		t.Errorf("Unexpected delivery targets %v", targets)
	}

	// 除发送者外每个持久化成员一条通知
	if len(f.notifier.created) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(f.notifier.created))
	}
	for _, n := range f.notifier.created {
		if n.UserID == "user-a" {
			t.Error("Sender must not be notified")
		}
		if n.Title != "New Group Message" {
			t.Errorf("Unexpected title %q", n.Title)
		}
	}
}

func TestService_SendGroupNonMember(t *testing.T) {
	f := newFixture()

	_, err := f.service.SendGroup(context.Background(), "ghost", 10, "hi", model.MessageTypeText, "")
	if !errors.Is(err, errors.ErrNotGroupMember) {
		t.Errorf("Expected ErrNotGroupMember, got %v", err)
	}
	if len(f.messages.rows) != 0 {
		t.Error("Expected no persisted message for non-member send")
	}
	if len(f.pusher.pushes) != 0 {
		t.Error("Expected no deliveries for non-member send")
	}
}

func TestService_UpdateMessage(t *testing.T) {
	f := newFixture()
	message, _ := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hello", model.MessageTypeText, "")

	updated, err := f.service.UpdateMessage(context.Background(), message.ID, "user-a", "hello edited")
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if !updated.IsEdited || updated.EditedAt == nil {
		t.Error("Expected edit metadata set")
	}
	if f.messages.rows[message.ID].Content != "hello edited" {
		t.Error("Expected content persisted")
	}

	edits := f.pusher.byEvent(proto.EventMessageEdited)
	if len(edits) != 2 {
		t.Fatalf("Expected MessageEdited pushed to both parties, got %d", len(edits))
	}
	payload := edits[0].payload.(proto.MessageEdited)
	if payload.MessageID != message.ID || payload.Content != "hello edited" {
		t.Errorf("Unexpected payload %+v", payload)
	}
}

func TestService_UpdateMessageForeignSender(t *testing.T) {
	f := newFixture()
	message, _ := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hello", model.MessageTypeText, "")

	_, err := f.service.UpdateMessage(context.Background(), message.ID, "user-b", "hacked")
	if !errors.Is(err, errors.ErrNotMessageSender) {
		t.Errorf("Expected ErrNotMessageSender, got %v", err)
	}
	if got := f.messages.rows[message.ID]; got.Content != "hello" || got.IsEdited {
		t.Errorf("Expected message unchanged, got %+v", got)
	}
}

func TestService_DeleteMessage(t *testing.T) {
	f := newFixture()
	message, _ := f.service.SendGroup(context.Background(), "user-a", 10, "hello", model.MessageTypeText, "")

	if err := f.service.DeleteMessage(context.Background(), message.ID, "user-a"); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if _, ok := f.messages.rows[message.ID]; ok {
		t.Error("Expected message removed")
	}

	deletes := f.pusher.byEvent(proto.EventMessageDeleted)
	if len(deletes) != 2 {
		t.Errorf("Expected MessageDeleted pushed to subscribers, got %d", len(deletes))
	}
}

func TestService_DeleteMessageForeignSender(t *testing.T) {
	f := newFixture()
	message, _ := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hello", model.MessageTypeText, "")

	err := f.service.DeleteMessage(context.Background(), message.ID, "user-b")
	if !errors.Is(err, errors.ErrNotMessageSender) {
		t.Errorf("Expected ErrNotMessageSender, got %v", err)
	}
	if _, ok := f.messages.rows[message.ID]; !ok {
		t.Error("Expected message untouched")
	}
}

func TestService_GetGroupMessagesGated(t *testing.T) {
	f := newFixture()
	f.service.SendGroup(context.Background(), "user-a", 10, "hello", model.MessageTypeText, "")

	messages, err := f.service.GetGroupMessages(context.Background(), "user-b", 10, 1, 50)
	if err != nil {
		t.Fatalf("GetGroupMessages failed: %v", err)
	}
	if len(messages) != 1 {
		t.Errorf("Expected 1 message, got %d", len(messages))
	}

	_, err = f.service.GetGroupMessages(context.Background(), "ghost", 10, 1, 50)
	if !errors.Is(err, errors.ErrNotGroupMember) {
		t.Errorf("Expected ErrNotGroupMember, got %v", err)
	}
}

func TestService_NotificationFailureAfterPersist(t *testing.T) {
	f := newFixture()
	f.notifier.createErr = errors.ErrDBError

	message, err := f.service.SendPrivate(context.Background(), "user-a", "user-b", "hello", model.MessageTypeText, "")
	if !errors.Is(err, errors.ErrDBError) {
		t.Fatalf("Expected ErrDBError, got %v", err)
	}
	// 发送非原子：通知失败时消息已持久化
	if message == nil {
		t.Fatal("Expected persisted message returned alongside error")
	}
	if _, ok := f.messages.rows[message.ID]; !ok {
		t.Error("Expected message persisted despite notification failure")
	}
}
