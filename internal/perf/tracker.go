// Package perf 累计真实下注表现并生成汇总报告。
// 只做聚合，不参与任何门控；金额用 decimal 精确累计。
package perf

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/betbot/roadbot/internal/domain"
)

// Tracker 单鞋表现统计
// 宽松口径（实际下注）与严格信号口径分开累计，用于离线校准对比。
type Tracker struct {
	rounds      int
	bets        int
	wins        int
	losses      int
	unitsStaked int
	netProfit   decimal.Decimal
	payout      decimal.Decimal

	// 严格信号混淆计数（仅分析）
	strictTruePos  int
	strictFalsePos int
	strictFalseNeg int
	strictTrueNeg  int
}

// NewTracker 创建统计器
func NewTracker(payoutFactor float64) *Tracker {
	return &Tracker{payout: decimal.NewFromFloat(payoutFactor)}
}

// Reset 清零所有计数
func (t *Tracker) Reset() {
	payout := t.payout
	*t = Tracker{payout: payout}
}

// RecordDecision 记录一条决策日志和对应的真实结果
func (t *Tracker) RecordDecision(dlog *domain.DecisionLog, actual domain.Outcome) {
	if t == nil || dlog == nil || !actual.Valid() {
		return
	}
	t.rounds++

	if dlog.Decision.Units > 0 {
		stake := decimal.NewFromInt(int64(dlog.Decision.Units))
		t.bets++
		t.unitsStaked += dlog.Decision.Units
		if actual == dlog.Decision.BetOn {
			t.wins++
			t.netProfit = t.netProfit.Add(stake.Mul(t.payout))
		} else {
			t.losses++
			t.netProfit = t.netProfit.Sub(stake)
		}
	}

	// 严格信号口径：信号 vs 结果是否为目标类别
	favoredWon := actual == dlog.Decision.BetOn && dlog.Decision.Units > 0
	if dlog.Decision.Units == 0 {
		favoredWon = actual == domain.OutcomeBanker
	}
	switch {
	case dlog.Analysis.StrictSignal && favoredWon:
		t.strictTruePos++
	case dlog.Analysis.StrictSignal && !favoredWon:
		t.strictFalsePos++
	case !dlog.Analysis.StrictSignal && favoredWon:
		t.strictFalseNeg++
	default:
		t.strictTrueNeg++
	}
}

// Rounds 已观测局数
func (t *Tracker) Rounds() int { return t.rounds }

// Bets 实际下注次数
func (t *Tracker) Bets() int { return t.bets }

// NetProfit 净利（单位）
func (t *Tracker) NetProfit() decimal.Decimal { return t.netProfit }

// UnitsStaked 累计投注单位
func (t *Tracker) UnitsStaked() int { return t.unitsStaked }

// relaxedWinRate 宽松口径胜率
func (t *Tracker) relaxedWinRate() float64 {
	if t.bets == 0 {
		return 0
	}
	return float64(t.wins) / float64(t.bets)
}

// strictWinRate 严格信号口径胜率
func (t *Tracker) strictWinRate() float64 {
	n := t.strictTruePos + t.strictFalsePos
	if n == 0 {
		return 0
	}
	return float64(t.strictTruePos) / float64(n)
}

// evPerBet 每注期望收益
func (t *Tracker) evPerBet() decimal.Decimal {
	if t.bets == 0 {
		return decimal.Zero
	}
	return t.netProfit.Div(decimal.NewFromInt(int64(t.bets)))
}

// Summary 生成文本汇总报告
func (t *Tracker) Summary() string {
	return fmt.Sprintf(
		"rounds=%d bets=%d wins=%d losses=%d staked=%du net=%s ev/bet=%s | winrate relaxed=%.1f%% strict=%.1f%% (tp=%d fp=%d fn=%d tn=%d)",
		t.rounds, t.bets, t.wins, t.losses, t.unitsStaked,
		t.netProfit.StringFixed(2), t.evPerBet().StringFixed(3),
		t.relaxedWinRate()*100, t.strictWinRate()*100,
		t.strictTruePos, t.strictFalsePos, t.strictFalseNeg, t.strictTrueNeg,
	)
}
