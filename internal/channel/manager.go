package channel

import (
	"sync"
)

// Manager 群频道订阅管理，双向索引：群 -> 用户集合、用户 -> 群集合
// 仅维护内存中的订阅关系，成员资格由 Gate 校验
type Manager struct {
	groupSubs map[int64]map[string]struct{}
	userSubs  map[string]map[int64]struct{}
	mu        sync.RWMutex
}

// NewManager 创建频道管理器
func NewManager() *Manager {
	return &Manager{
		groupSubs: make(map[int64]map[string]struct{}),
		userSubs:  make(map[string]map[int64]struct{}),
	}
}

// Subscribe 将用户加入群频道，幂等
func (m *Manager) Subscribe(groupID int64, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs, ok := m.groupSubs[groupID]
	if !ok {
		subs = make(map[string]struct{})
		m.groupSubs[groupID] = subs
	}
	subs[userID] = struct{}{}

	groups, ok := m.userSubs[userID]
	if !ok {
		groups = make(map[int64]struct{})
		m.userSubs[userID] = groups
	}
	groups[groupID] = struct{}{}
}

// Unsubscribe 将用户移出群频道，未订阅时无操作
func (m *Manager) Unsubscribe(groupID int64, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(groupID, userID)
}

// UnsubscribeAll 移除用户的所有订阅，返回之前订阅的群列表
// 连接全部断开时调用
func (m *Manager) UnsubscribeAll(userID string) []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := m.userSubs[userID]
	if len(groups) == 0 {
		delete(m.userSubs, userID)
		return nil
	}

	removed := make([]int64, 0, len(groups))
	for groupID := range groups {
		removed = append(removed, groupID)
		m.removeLocked(groupID, userID)
	}
	return removed
}

// Subscribers 返回群频道当前的订阅用户
func (m *Manager) Subscribers(groupID int64) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs := m.groupSubs[groupID]
	if len(subs) == 0 {
		return nil
	}
	userIDs := make([]string, 0, len(subs))
	for userID := range subs {
		userIDs = append(userIDs, userID)
	}
	return userIDs
}

// SubscribedGroups 返回用户当前订阅的群
func (m *Manager) SubscribedGroups(userID string) []int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := m.userSubs[userID]
	if len(groups) == 0 {
		return nil
	}
	groupIDs := make([]int64, 0, len(groups))
	for groupID := range groups {
		groupIDs = append(groupIDs, groupID)
	}
	return groupIDs
}

// IsSubscribed 判断用户是否订阅了群频道
func (m *Manager) IsSubscribed(groupID int64, userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	subs, ok := m.groupSubs[groupID]
	if !ok {
		return false
	}
	_, ok = subs[userID]
	return ok
}

// RevokeGroup 解散群时清空频道，返回之前的订阅用户
func (m *Manager) RevokeGroup(groupID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.groupSubs[groupID]
	if len(subs) == 0 {
		delete(m.groupSubs, groupID)
		return nil
	}

	removed := make([]string, 0, len(subs))
	for userID := range subs {
		removed = append(removed, userID)
	}
	for _, userID := range removed {
		m.removeLocked(groupID, userID)
	}
	return removed
}

func (m *Manager) removeLocked(groupID int64, userID string) {
	if subs, ok := m.groupSubs[groupID]; ok {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(m.groupSubs, groupID)
		}
	}
	if groups, ok := m.userSubs[userID]; ok {
		delete(groups, groupID)
		if len(groups) == 0 {
			delete(m.userSubs, userID)
		}
	}
}
