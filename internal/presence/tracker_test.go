package presence

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"sudooom.im.hub/internal/proto"
	"sudooom.im.hub/internal/workerpool"
)

type fakeStore struct {
	mu      sync.Mutex
	states  map[string]bool
	touched map[string]time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{states: make(map[string]bool), touched: make(map[string]time.Time)}
}

func (f *fakeStore) SetPresence(_ context.Context, userID string, isOnline bool, lastSeen time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[userID] = isOnline
	f.touched[userID] = lastSeen
	return nil
}

type fakeGroups struct {
	coMembers map[string][]string
}

func (f *fakeGroups) ListCoMemberIDs(_ context.Context, userID string) ([]string, error) {
	return f.coMembers[userID], nil
}

type fakeMirror struct {
	mu        sync.Mutex
	registers int
	removes   int
	refreshes int
}

func (f *fakeMirror) RegisterPresence(_ context.Context, _, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registers++
	return nil
}

func (f *fakeMirror) RemovePresence(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removes++
	return nil
}

func (f *fakeMirror) RefreshPresence(_ context.Context, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	return nil
}

type fakeRegistry struct {
	online map[string]bool
}

func (f *fakeRegistry) IsOnline(userID string) bool { return f.online[userID] }

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

// inlinePool 同步执行任务，便于断言广播结果
type inlinePool struct{}

func (inlinePool) TrySubmit(task workerpool.Task) bool {
	task()
	return true
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTracker(store *fakeStore, groups *fakeGroups, mirror *fakeMirror, registry *fakeRegistry, pusher *fakePusher) *Tracker {
	return NewTracker(store, groups, mirror, registry, pusher, inlinePool{}, testLogger())
}

func TestTracker_MarkOnlineBroadcastsToCoMembers(t *testing.T) {
	store := newFakeStore()
	groups := &fakeGroups{coMembers: map[string][]string{
		"user-a": {"user-b", "user-c"},
	}}
	mirror := &fakeMirror{}
	pusher := &fakePusher{}
	tracker := newTracker(store, groups, mirror, &fakeRegistry{online: map[string]bool{}}, pusher)

	if err := tracker.MarkOnline(context.Background(), "user-a", "dev-1", "web"); err != nil {
		t.Fatalf("MarkOnline failed: %v", err)
	}

	if !store.states["user-a"] {
		t.Error("Expected persisted state online")
	}
	if mirror.registers != 1 {
		t.Errorf("Expected 1 redis register, got %d", mirror.registers)
	}
	if len(pusher.pushes) != 2 {
		t.Fatalf("Expected 2 status pushes, got %d", len(pusher.pushes))
	}
	for _, p := range pusher.pushes {
		if p.event != proto.EventUserStatusChanged {
			t.Errorf("Unexpected event %s", p.event)
		}
		payload := p.payload.(proto.UserStatusChanged)
		if payload.UserID != "user-a" || !payload.IsOnline {
			t.Errorf("Unexpected payload %+v", payload)
		}
		if p.userID == "user-a" {
			t.Error("Subject must not receive own status broadcast")
		}
	}
}

func TestTracker_MarkOfflineSkippedWhileHandlesRemain(t *testing.T) {
	store := newFakeStore()
	store.states["user-a"] = true
	mirror := &fakeMirror{}
	pusher := &fakePusher{}
	tracker := newTracker(store, &fakeGroups{}, mirror, &fakeRegistry{online: map[string]bool{"user-a": true}}, pusher)

	if err := tracker.MarkOffline(context.Background(), "user-a", "dev-1"); err != nil {
		t.Fatalf("MarkOffline failed: %v", err)
	}

	if !store.states["user-a"] {
		t.Error("Expected user to stay online while another handle remains")
	}
	if mirror.removes != 1 {
		t.Errorf("Expected device mirror removed, got %d removes", mirror.removes)
	}
	if len(pusher.pushes) != 0 {
		t.Errorf("Expected no broadcast, got %d", len(pusher.pushes))
	}
}

func TestTracker_MarkOfflineLastHandle(t *testing.T) {
	store := newFakeStore()
	store.states["user-a"] = true
	groups := &fakeGroups{coMembers: map[string][]string{"user-a": {"user-b"}}}
	pusher := &fakePusher{}
	tracker := newTracker(store, groups, &fakeMirror{}, &fakeRegistry{online: map[string]bool{}}, pusher)

	if err := tracker.MarkOffline(context.Background(), "user-a", "dev-1"); err != nil {
		t.Fatalf("MarkOffline failed: %v", err)
	}

	if store.states["user-a"] {
		t.Error("Expected persisted state offline")
	}
	if store.touched["user-a"].IsZero() {
		t.Error("Expected lastSeen stamped")
	}
	if len(pusher.pushes) != 1 {
		t.Fatalf("Expected 1 push, got %d", len(pusher.pushes))
	}
	payload := pusher.pushes[0].payload.(proto.UserStatusChanged)
	if payload.IsOnline {
		t.Error("Expected offline broadcast")
	}
}

func TestTracker_Touch(t *testing.T) {
	mirror := &fakeMirror{}
	tracker := newTracker(newFakeStore(), &fakeGroups{}, mirror, &fakeRegistry{}, &fakePusher{})

	tracker.Touch(context.Background(), "user-a", "dev-1")

	if mirror.refreshes != 1 {
		t.Errorf("Expected 1 TTL refresh, got %d", mirror.refreshes)
	}
}
