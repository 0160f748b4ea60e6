package channel

import (
	"sort"
	"sync"
	"testing"
)

func TestManager_SubscribeAndSubscribers(t *testing.T) {
	m := NewManager()

	m.Subscribe(10, "user-a")
	m.Subscribe(10, "user-b")
	m.Subscribe(20, "user-a")
	// 重复订阅幂等
	m.Subscribe(10, "user-a")

	subs := m.Subscribers(10)
	sort.Strings(subs)
	if len(subs) != 2 || subs[0] != "user-a" || subs[1] != "user-b" {
		t.Errorf("Unexpected subscribers for group 10: %v", subs)
	}

	groups := m.SubscribedGroups("user-a")
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })
	if len(groups) != 2 || groups[0] != 10 || groups[1] != 20 {
		t.Errorf("Unexpected groups for user-a: %v", groups)
	}

	if !m.IsSubscribed(10, "user-b") {
		t.Error("Expected user-b subscribed to group 10")
	}
	if m.IsSubscribed(20, "user-b") {
		t.Error("Expected user-b not subscribed to group 20")
	}
}

func TestManager_Unsubscribe(t *testing.T) {
	m := NewManager()

	m.Subscribe(10, "user-a")
	m.Unsubscribe(10, "user-a")

	if m.IsSubscribed(10, "user-a") {
		t.Error("Expected subscription removed")
	}
	if got := m.Subscribers(10); got != nil {
		t.Errorf("Expected no subscribers, got %v", got)
	}

	// 未订阅时无操作
	m.Unsubscribe(10, "user-x")
	m.Unsubscribe(99, "user-a")
}

func TestManager_UnsubscribeAll(t *testing.T) {
	m := NewManager()

	m.Subscribe(10, "user-a")
	m.Subscribe(20, "user-a")
	m.Subscribe(10, "user-b")

	removed := m.UnsubscribeAll("user-a")
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	if len(removed) != 2 || removed[0] != 10 || removed[1] != 20 {
		t.Errorf("Unexpected removed groups: %v", removed)
	}

	if m.SubscribedGroups("user-a") != nil {
		t.Error("Expected user-a to have no subscriptions")
	}
	if subs := m.Subscribers(10); len(subs) != 1 || subs[0] != "user-b" {
		t.Errorf("Expected user-b to stay subscribed, got %v", subs)
	}

	if got := m.UnsubscribeAll("user-x"); got != nil {
		t.Errorf("Expected nil for unknown user, got %v", got)
	}
}

func TestManager_RevokeGroup(t *testing.T) {
	m := NewManager()

	m.Subscribe(10, "user-a")
	m.Subscribe(10, "user-b")
	m.Subscribe(20, "user-a")

	removed := m.RevokeGroup(10)
	sort.Strings(removed)
	if len(removed) != 2 || removed[0] != "user-a" || removed[1] != "user-b" {
		t.Errorf("Unexpected revoked users: %v", removed)
	}

	if m.Subscribers(10) != nil {
		t.Error("Expected group 10 channel empty")
	}
	if !m.IsSubscribed(20, "user-a") {
		t.Error("Expected other subscriptions untouched")
	}
}

func TestManager_ConcurrentChurn(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			groupID := int64(n % 5)
			m.Subscribe(groupID, "user-a")
			m.Subscribers(groupID)
			m.SubscribedGroups("user-a")
			m.Unsubscribe(groupID, "user-a")
		}(i)
	}
	wg.Wait()
}
