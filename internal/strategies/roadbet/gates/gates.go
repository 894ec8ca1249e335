// Package gates 实现单鞋内的单调停止条件：净利止损与累计投注上限。
// 一旦触发，bettingDisabled 在本鞋内不可逆（one-way latch），
// 直到会话边界整体重建。
package gates

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "roadbet.gates")

// Config 是 roadbet.Config 的最小子集（避免循环依赖）
type Config interface {
	GetStopLossUnits() float64 // 负数
	GetMaxExposureUnits() int
	GetAdaptiveEnabled() bool
	GetAdaptiveStreak() int
	GetAdaptiveTighten() float64
}

// Gates 停止条件状态机
// 自适应模式下，连输会把止损线和投注上限向 0 收紧；
// 连赢恢复到配置值。阈值只在两个值之间切换，不无限漂移。
type Gates struct {
	cfg Config

	stopLoss    float64
	maxExposure float64

	disabled bool
	reason   string

	winStreak  int
	lossStreak int
}

// New 创建 Gates 并从配置装载阈值
func New(cfg Config) *Gates {
	g := &Gates{cfg: cfg}
	g.Reset()
	return g
}

// Reset 恢复配置阈值并清空闭锁（换鞋时调用）
func (g *Gates) Reset() {
	if g == nil || g.cfg == nil {
		return
	}
	g.stopLoss = g.cfg.GetStopLossUnits()
	g.maxExposure = float64(g.cfg.GetMaxExposureUnits())
	g.disabled = false
	g.reason = ""
	g.winStreak = 0
	g.lossStreak = 0
}

// OnSettlement 每次结算后更新输赢连串，并按需收紧/放松阈值
func (g *Gates) OnSettlement(win bool) {
	if g == nil {
		return
	}
	if win {
		g.winStreak++
		g.lossStreak = 0
	} else {
		g.lossStreak++
		g.winStreak = 0
	}

	if g.cfg == nil || !g.cfg.GetAdaptiveEnabled() {
		return
	}
	streak := g.cfg.GetAdaptiveStreak()
	tighten := g.cfg.GetAdaptiveTighten()

	if g.lossStreak >= streak {
		tightStop := g.cfg.GetStopLossUnits() * tighten
		tightExp := float64(g.cfg.GetMaxExposureUnits()) * tighten
		if tightExp < 1 {
			tightExp = 1
		}
		if g.stopLoss != tightStop || g.maxExposure != tightExp {
			log.Debugf("🔒 连输 %d 局，收紧阈值: stopLoss=%.2f exposure=%.0f", g.lossStreak, tightStop, tightExp)
		}
		g.stopLoss = tightStop
		g.maxExposure = tightExp
	} else if g.winStreak >= streak {
		g.stopLoss = g.cfg.GetStopLossUnits()
		g.maxExposure = float64(g.cfg.GetMaxExposureUnits())
	}
}

// Evaluate 判定停止条件并闭锁
// 返回 (是否禁止下注, 原因)；闭锁后原因保持首次触发时的记录
func (g *Gates) Evaluate(netProfit float64, cumulativeUnits int) (bool, string) {
	if g == nil {
		return false, ""
	}
	if g.disabled {
		return true, g.reason
	}

	if netProfit <= g.stopLoss {
		g.disabled = true
		g.reason = fmt.Sprintf("stop-loss reached (net=%.2f <= %.2f)", netProfit, g.stopLoss)
		log.Warnf("⛔ %s", g.reason)
		return true, g.reason
	}
	if float64(cumulativeUnits) >= g.maxExposure {
		g.disabled = true
		g.reason = fmt.Sprintf("max exposure reached (staked=%d >= %.0f units)", cumulativeUnits, g.maxExposure)
		log.Warnf("⛔ %s", g.reason)
		return true, g.reason
	}
	return false, ""
}

// Disabled 返回当前闭锁状态
func (g *Gates) Disabled() bool {
	if g == nil {
		return false
	}
	return g.disabled
}

// Reason 返回首次触发的原因
func (g *Gates) Reason() string {
	if g == nil {
		return ""
	}
	return g.reason
}
