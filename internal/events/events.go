package events

import (
	"time"

	"github.com/betbot/roadbot/internal/domain"
)

// RoadReportEvent 上游推送的全量路单快照
type RoadReportEvent struct {
	Type      string             `json:"type"` // "road"
	Table     string             `json:"table"`
	Results   []domain.RawResult `json:"results"`
	Timestamp time.Time          `json:"timestamp"`
}

// ShoeChangedEvent 换鞋事件（快照长度回退触发）
type ShoeChangedEvent struct {
	Table     string        `json:"table"`
	OldShoeID string        `json:"oldShoeId"`
	NewShoeID string        `json:"newShoeId"`
	Prior     domain.Counts `json:"prior"`
	Timestamp time.Time     `json:"timestamp"`
}

// DecisionEvent 一条决策日志的事件包装（广播给显示端）
type DecisionEvent struct {
	Type string              `json:"type"` // "decision"
	Log  *domain.DecisionLog `json:"log"`
}

// CriticalErrorEvent 严重错误事件（触发机器人停止）
type CriticalErrorEvent struct {
	Module    string    `json:"module"`
	Error     string    `json:"error"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}
