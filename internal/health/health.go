package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Status 健康状态
type Status struct {
	Service     string `json:"service"`
	Database    string `json:"database"`
	Redis       string `json:"redis"`
	Connections int    `json:"connections"`
}

// ConnectionCounter 连接计数器接口，由 connection.Manager 实现
type ConnectionCounter interface {
	Count() int
}

// Pinger Redis 连通性检查，由 redis.Client 实现
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker 健康检查器
type Checker struct {
	db          *pgxpool.Pool
	redisClient Pinger
	connCounter ConnectionCounter
}

// NewChecker 创建健康检查器
func NewChecker(db *pgxpool.Pool, redisClient Pinger, connCounter ConnectionCounter) *Checker {
	return &Checker{
		db:          db,
		redisClient: redisClient,
		connCounter: connCounter,
	}
}

// Check 执行健康检查
func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Service: "im-hub",
	}

	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(checkCtx); err == nil {
			status.Database = "connected"
		} else {
			status.Database = "disconnected"
		}
	} else {
		status.Database = "not configured"
	}

	if h.redisClient != nil {
		if err := h.redisClient.Ping(checkCtx); err == nil {
			status.Redis = "connected"
		} else {
			status.Redis = "disconnected"
		}
	} else {
		status.Redis = "not configured"
	}

	if h.connCounter != nil {
		status.Connections = h.connCounter.Count()
	}

	return status
}

// IsHealthy 检查是否健康
// 数据库是消息收发的硬依赖，不可达即不健康
func (h *Checker) IsHealthy(ctx context.Context) bool {
	return h.Check(ctx).Database == "connected"
}

// ServeHTTP HTTP 健康检查端点
func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if status.Database != "connected" {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(status)
}
