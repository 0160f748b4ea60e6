package connection

import "sync"

// Manager 连接注册表
// 一个用户可以同时持有多个连接（多设备），广播遍历句柄集合；
// 在服务启动时显式构造并注入各会话处理器，不使用包级状态
type Manager struct {
	connections map[int64]Conn            // connID -> Conn
	userConns   map[string]map[int64]Conn // userID -> connID -> Conn
	mu          sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[int64]Conn),
		userConns:   make(map[string]map[int64]Conn),
	}
}

// Add 注册连接（认证前，尚未绑定用户）
func (m *Manager) Add(conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connections[conn.ID()] = conn
}

// Remove 移除连接
// 返回该用户移除后是否还有存活连接
func (m *Manager) Remove(connID int64) (remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[connID]
	if !ok {
		return 0
	}

	delete(m.connections, connID)

	userID := conn.UserID()
	if userID == "" {
		return 0
	}

	if userConns, ok := m.userConns[userID]; ok {
		delete(userConns, connID)
		if len(userConns) == 0 {
			delete(m.userConns, userID)
			return 0
		}
		return len(userConns)
	}
	return 0
}

// Get 根据连接 ID 查找连接
func (m *Manager) Get(connID int64) Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[connID]
}

// BindUser 将连接绑定到用户（认证成功后调用）
func (m *Manager) BindUser(connID int64, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.connections[connID]
	if !ok {
		return
	}

	if _, ok := m.userConns[userID]; !ok {
		m.userConns[userID] = make(map[int64]Conn)
	}
	m.userConns[userID][connID] = conn
}

// GetByUserID 获取用户的所有存活连接
func (m *Manager) GetByUserID(userID string) []Conn {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userConns, ok := m.userConns[userID]
	if !ok {
		return nil
	}

	conns := make([]Conn, 0, len(userConns))
	for _, conn := range userConns {
		conns = append(conns, conn)
	}
	return conns
}

// IsOnline 用户是否在线（句柄集合非空）
func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.userConns[userID]) > 0
}

// Count 存活连接总数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}
