package typing

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"sudooom.im.hub/internal/proto"
	"sudooom.im.hub/internal/workerpool"
)

type fakeChannels struct {
	subscribers map[int64][]string
}

func (f *fakeChannels) Subscribers(groupID int64) []string { return f.subscribers[groupID] }

type fakePusher struct {
	mu     sync.Mutex
	pushes []pushed
}

type pushed struct {
	userID  string
	event   string
	payload interface{}
}

func (f *fakePusher) Push(userID string, event string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, pushed{userID, event, payload})
	return 1
}

type inlinePool struct{}

func (inlinePool) TrySubmit(task workerpool.Task) bool {
	task()
	return true
}

func newRelay(channels *fakeChannels, pusher *fakePusher) *Relay {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRelay(channels, pusher, inlinePool{}, logger)
}

func TestRelay_Private(t *testing.T) {
	pusher := &fakePusher{}
	relay := newRelay(&fakeChannels{}, pusher)

	relay.RelayPrivate("user-a", "Alice Adams", "user-b", true)
	relay.RelayPrivate("user-a", "Alice Adams", "user-b", false)

	if len(pusher.pushes) != 2 {
		t.Fatalf("Expected 2 pushes, got %d", len(pusher.pushes))
	}
	first := pusher.pushes[0]
	if first.userID != "user-b" || first.event != proto.EventUserTyping {
		t.Errorf("Unexpected push %+v", first)
	}
	payload := first.payload.(proto.UserTyping)
	if payload.UserID != "user-a" || payload.UserName != "Alice Adams" || !payload.IsTyping {
		t.Errorf("Unexpected payload %+v", payload)
	}
	if stop := pusher.pushes[1].payload.(proto.UserTyping); stop.IsTyping {
		t.Error("Expected stop payload IsTyping=false")
	}
}

func TestRelay_GroupExcludesSender(t *testing.T) {
	pusher := &fakePusher{}
	relay := newRelay(&fakeChannels{subscribers: map[int64][]string{
		10: {"user-a", "user-b", "user-c"},
	}}, pusher)

	relay.RelayGroup("user-a", "Alice Adams", 10, true)

	if len(pusher.pushes) != 2 {
		t.Fatalf("Expected 2 pushes, got %d", len(pusher.pushes))
	}
	var targets []string
	for _, p := range pusher.pushes {
		targets = append(targets, p.userID)
		if p.event != proto.EventUserTypingInGroup {
			t.Errorf("Unexpected event %s", p.event)
		}
		payload := p.payload.(proto.UserTypingInGroup)
		if payload.GroupID != 10 || payload.UserID != "user-a" {
			t.Errorf("Unexpected payload %+v", payload)
		}
	}
	sort.Strings(targets)
	if targets[0] != "user-b" || targets[1] != "user-c" {
		t.Errorf("Unexpected targets %v", targets)
	}
}

func TestRelay_GroupNoSubscribers(t *testing.T) {
	pusher := &fakePusher{}
	relay := newRelay(&fakeChannels{}, pusher)

	relay.RelayGroup("user-a", "Alice Adams", 99, true)

	if len(pusher.pushes) != 0 {
		t.Errorf("Expected no pushes, got %d", len(pusher.pushes))
	}
}
