package domain

import "time"

// Decision 单轮下注决定
// BetOn 为空字符串表示本轮不下注；Units 为 0-4 的离散档位
type Decision struct {
	BetOn  Outcome `json:"betOn,omitempty"`
	Units  int     `json:"units"`
	Reason string  `json:"reason"`
}

// SPRTDecision 序贯似然比检验的三态结论
type SPRTDecision string

const (
	SPRTInconclusive SPRTDecision = "inconclusive"
	SPRTAcceptAlt    SPRTDecision = "accept_alt"
	SPRTAcceptNull   SPRTDecision = "accept_null"
)

// Analysis 每轮的分析附件（仅供离线校准对比，不参与下注门控）
type Analysis struct {
	RawConfidence        float64      `json:"rawConfidence"`
	CalibratedConfidence float64      `json:"calibratedConfidence"`
	EVPerUnit            float64      `json:"evPerUnit"`
	EnsembleAgree        bool         `json:"ensembleAgree"`
	ChangePoint          bool         `json:"changePoint"`
	CusumStat            float64      `json:"cusumStat"`
	SPRTLogLR            float64      `json:"sprtLogLR"`
	SPRT                 SPRTDecision `json:"sprt"`
	StrictSignal         bool         `json:"strictSignal"`
	CumulativeUnits      int          `json:"cumulativeUnits"`
}

// DecisionLog 每接受一个结果产生一条的不可变快照
// 由产生它的引擎独占所有权，下游只读消费
type DecisionLog struct {
	Table     string    `json:"table"`
	ShoeID    string    `json:"shoeId"`
	Round     int       `json:"round"`
	Outcome   Outcome   `json:"outcome"`
	Counts    Counts    `json:"counts"`
	Posterior Posterior `json:"posterior"`
	BreakEven float64   `json:"breakEven"`

	// Confidence 最终置信度（校准 + 变点惩罚 + EV 归零之后）
	Confidence float64 `json:"confidence"`
	NetProfit  float64 `json:"netProfit"`

	Decision Decision `json:"decision"`
	Analysis Analysis `json:"analysis"`

	Timestamp time.Time `json:"timestamp"`
}
