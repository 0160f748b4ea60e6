package connection

import (
	"sync"
	"sync/atomic"
	"testing"
)

// fakeConn 测试用连接
type fakeConn struct {
	id     int64
	userID string
	sent   [][]byte
	mu     sync.Mutex
}

func (f *fakeConn) ID() int64      { return f.id }
func (f *fakeConn) UserID() string { return f.userID }
func (f *fakeConn) Close()         {}

func (f *fakeConn) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, frame)
	return nil
}

func TestManager_RegisterAndLookup(t *testing.T) {
	m := NewManager()

	conn := &fakeConn{id: 1, userID: "user-a"}
	m.Add(conn)
	m.BindUser(conn.ID(), "user-a")

	conns := m.GetByUserID("user-a")
	if len(conns) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(conns))
	}
	if conns[0].ID() != 1 {
		t.Errorf("Expected conn id 1, got %d", conns[0].ID())
	}
	if got := m.Get(conn.ID()); got == nil || got.ID() != 1 {
		t.Error("Expected lookup by conn id to return the registered handle")
	}
	if !m.IsOnline("user-a") {
		t.Error("Expected user-a to be online")
	}

	m.Remove(conn.ID())

	if got := m.GetByUserID("user-a"); got != nil {
		t.Errorf("Expected no connections after remove, got %d", len(got))
	}
	if m.Get(conn.ID()) != nil {
		t.Error("Expected lookup by conn id to return nil after remove")
	}
	if m.IsOnline("user-a") {
		t.Error("Expected user-a to be offline after remove")
	}
}

func TestManager_MultipleHandlesPerUser(t *testing.T) {
	m := NewManager()

	first := &fakeConn{id: 1, userID: "user-a"}
	second := &fakeConn{id: 2, userID: "user-a"}
	m.Add(first)
	m.BindUser(first.ID(), "user-a")
	m.Add(second)
	m.BindUser(second.ID(), "user-a")

	if got := len(m.GetByUserID("user-a")); got != 2 {
		t.Fatalf("Expected 2 connections, got %d", got)
	}

	// 移除一个设备后仍然在线
	if remaining := m.Remove(first.ID()); remaining != 1 {
		t.Errorf("Expected 1 remaining connection, got %d", remaining)
	}
	if !m.IsOnline("user-a") {
		t.Error("Expected user-a to stay online with one handle left")
	}

	// 移除最后一个设备后离线
	if remaining := m.Remove(second.ID()); remaining != 0 {
		t.Errorf("Expected 0 remaining connections, got %d", remaining)
	}
	if m.IsOnline("user-a") {
		t.Error("Expected user-a to be offline after last handle removed")
	}
}

func TestManager_RemoveUnboundConnection(t *testing.T) {
	m := NewManager()

	conn := &fakeConn{id: 7}
	m.Add(conn)

	if remaining := m.Remove(conn.ID()); remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", remaining)
	}
	if m.Count() != 0 {
		t.Errorf("Expected empty registry, got %d connections", m.Count())
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	var nextID int64

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := atomic.AddInt64(&nextID, 1)
			conn := &fakeConn{id: id, userID: "user-a"}
			m.Add(conn)
			m.BindUser(id, "user-a")
			m.GetByUserID("user-a")
			m.IsOnline("user-a")
			m.Remove(id)
		}()
	}
	wg.Wait()

	if m.Count() != 0 {
		t.Errorf("Expected empty registry after concurrent churn, got %d", m.Count())
	}
	if m.IsOnline("user-a") {
		t.Error("Expected user-a offline after all connections removed")
	}
}
