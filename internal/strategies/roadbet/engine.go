package roadbet

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/roadbot/internal/domain"
	"github.com/betbot/roadbot/internal/numerics"
	"github.com/betbot/roadbot/internal/strategies/roadbet/capital"
	"github.com/betbot/roadbot/internal/strategies/roadbet/gates"
)

var log = logrus.WithField("strategy", ID)

// ErrUnknownOutcome 无法识别的结果类别：不改变状态，不产生决策日志
var ErrUnknownOutcome = fmt.Errorf("roadbet: unknown outcome category")

// Favored 模型评估的目标类别
// 置信度、盈亏平衡概率、EV 公式都是针对庄侧（payout 0.95 即庄赢抽水）
// 推导的，所以引擎只评估"下庄或不下"。
const Favored = domain.OutcomeBanker

// Engine 单鞋序贯决策引擎
// 每接受一个结果走一遍完整决策管线并产出一条 DecisionLog。
// 引擎本身不做并发保护：同一张桌的报告由 session.Manager 串行喂入。
type Engine struct {
	cfg    *Config
	table  string
	shoeID string

	counts    domain.Counts
	round     int
	netProfit float64
	cumUnits  int
	history   []domain.Outcome
	pending   *domain.Decision

	gates *gates.Gates
	cusum *cusumDetector
	sprt  *sprtDetector

	lastLog *domain.DecisionLog
}

// NewEngine 创建引擎并按配置先验初始化
// 调用前 cfg 必须已经 Defaults()+Validate()
func NewEngine(cfg *Config, table, shoeID string) *Engine {
	e := &Engine{
		cfg:    cfg,
		table:  table,
		shoeID: shoeID,
		gates:  gates.New(cfg),
	}
	e.Reset(cfg.Prior)
	return e
}

// Reset 重置到给定先验：清零轮次/净利/投注/闭锁，清空历史和检测器状态
// 构造时以及会话边界替换时调用
func (e *Engine) Reset(prior domain.Counts) {
	e.counts = prior
	e.round = 0
	e.netProfit = 0
	e.cumUnits = 0
	e.history = e.history[:0]
	e.pending = nil
	e.gates.Reset()
	e.cusum = newCusumDetector(e.cfg.CusumDrift, e.cfg.CusumThreshold)
	e.sprt = newSprtDetector(e.cfg.SPRTAlpha, e.cfg.SPRTBeta, e.cfg.SPRTEpsilon)
	e.lastLog = nil
}

// Round 当前轮次（等于本鞋已接受的结果数）
func (e *Engine) Round() int { return e.round }

// Counts 当前伪计数快照
func (e *Engine) Counts() domain.Counts { return e.counts }

// NetProfit 当前净利（单位）
func (e *Engine) NetProfit() float64 { return e.netProfit }

// LastLog 最近一条决策日志（没有则为 nil）
func (e *Engine) LastLog() *domain.DecisionLog { return e.lastLog }

// shrunkCounts 按基线频率加权的附加伪计数实现收缩
func (e *Engine) shrunkCounts() domain.Counts {
	k := e.cfg.ShrinkageStrength
	return domain.Counts{
		B: e.counts.B + k*e.cfg.Baseline.B,
		P: e.counts.P + k*e.cfg.Baseline.P,
		T: e.counts.T + k*e.cfg.Baseline.T,
	}
}

// calibrate 单调阶梯查找：取不超过 raw 的最高断点
func (e *Engine) calibrate(raw float64) float64 {
	out := 0.0
	for _, p := range e.cfg.Calibration {
		if p.Raw <= raw {
			out = p.Calibrated
		} else {
			break
		}
	}
	return out
}

// AddOutcome 喂入一个结果，返回本轮决策日志
// 无法识别的类别不改变任何状态并返回 ErrUnknownOutcome。
func (e *Engine) AddOutcome(outcome domain.Outcome) (*domain.DecisionLog, error) {
	if !outcome.Valid() {
		return nil, ErrUnknownOutcome
	}

	// 1. 结算上一轮挂起的决定
	if e.pending != nil && e.pending.Units > 0 {
		win := outcome == e.pending.BetOn
		stake := float64(e.pending.Units)
		if win {
			e.netProfit += stake * e.cfg.PayoutFactor
		} else {
			e.netProfit -= stake
		}
		e.gates.OnSettlement(win)
		log.Debugf("💰 [%s] 结算: betOn=%s outcome=%s stake=%d net=%.2f",
			e.table, e.pending.BetOn, outcome, e.pending.Units, e.netProfit)
	}
	e.pending = nil

	// 2. 计数 + 有界历史
	e.counts = e.counts.Add(outcome)
	e.round++
	e.history = append(e.history, outcome)
	if len(e.history) > e.cfg.HistorySize {
		e.history = e.history[len(e.history)-e.cfg.HistorySize:]
	}

	// 3. 收缩后验
	shrunk := e.shrunkCounts()
	total := shrunk.Total()
	posterior := domain.Posterior{
		B: shrunk.B / total,
		P: shrunk.P / total,
		T: shrunk.T / total,
	}

	// 4. 盈亏平衡概率（扣除和局、考虑抽水赔付）
	pBreakEven := (1 - posterior.T) / (1 + e.cfg.PayoutFactor)

	// 5. 原始置信度 = P(p_B > p*)，NaN 一律视为无置信度
	rawConf := 1 - numerics.RegIncompleteBeta(pBreakEven, shrunk.B, shrunk.P+shrunk.T)
	if math.IsNaN(rawConf) {
		rawConf = 0
	} else if rawConf < 0 {
		rawConf = 0
	} else if rawConf > 1 {
		rawConf = 1
	}

	// 6. 旧版检测器（仅记录）；变点触发后惩罚置信度
	favored := outcome == Favored
	e.cusum.update(favored)
	e.sprt.update(favored, pBreakEven)
	if e.cusum.tripped {
		rawConf *= e.cfg.ChangePointPenalty
	}

	// 7. 校准
	calibrated := e.calibrate(rawConf)

	// 8. 单位期望收益；EV≤0 时强制最终置信度为 0（绝不对负 EV 下注）
	ev := posterior.B*e.cfg.PayoutFactor - posterior.P
	finalConf := calibrated
	if ev <= 0 {
		finalConf = 0
	}

	// 9. 窗口启发式合成
	agree := ensembleAgrees(e.history, Favored, e.cfg.EnsembleMode)

	// 10. 单调停止条件（闭锁）
	disabled, stopReason := e.gates.Evaluate(e.netProfit, e.cumUnits)

	// 11. 分数 Kelly 档位
	units := capital.Units(posterior.B, posterior.P, e.cfg.PayoutFactor, e.cfg.KellyFraction)

	// 12. 决定（先到先得）
	var decision domain.Decision
	switch {
	case e.round <= e.cfg.WarmupRounds:
		decision = domain.Decision{Reason: fmt.Sprintf("warm-up (%d/%d)", e.round, e.cfg.WarmupRounds)}
	case disabled:
		decision = domain.Decision{Reason: "stop: " + stopReason}
	case !e.cfg.DisableEnsembleGate && !agree:
		decision = domain.Decision{Reason: "ensemble disagreement"}
	case units == 0:
		decision = domain.Decision{Reason: "EV/Kelly non-positive"}
	default:
		decision = domain.Decision{
			BetOn:  Favored,
			Units:  units,
			Reason: fmt.Sprintf("bet %s @%du (conf=%.2f ev=%.3f)", Favored, units, finalConf, ev),
		}
		e.cumUnits += units
		e.pending = &decision
	}

	// 严格信号（仅分析用）：检测器未触发 + 后验超盈亏平衡 + 2.5% 可信下界
	// 也超盈亏平衡 + SPRT 已接受备择
	lowerBound := numerics.BetaCdfInv(0.025, shrunk.B, shrunk.P+shrunk.T)
	strict := !e.cusum.tripped &&
		posterior.B > pBreakEven &&
		!math.IsNaN(lowerBound) && lowerBound > pBreakEven &&
		e.sprt.decision == domain.SPRTAcceptAlt

	// 13. 汇总日志
	dlog := &domain.DecisionLog{
		Table:      e.table,
		ShoeID:     e.shoeID,
		Round:      e.round,
		Outcome:    outcome,
		Counts:     e.counts,
		Posterior:  posterior,
		BreakEven:  pBreakEven,
		Confidence: finalConf,
		NetProfit:  e.netProfit,
		Decision:   decision,
		Analysis: domain.Analysis{
			RawConfidence:        rawConf,
			CalibratedConfidence: calibrated,
			EVPerUnit:            ev,
			EnsembleAgree:        agree,
			ChangePoint:          e.cusum.tripped,
			CusumStat:            e.cusum.stat,
			SPRTLogLR:            e.sprt.logLR,
			SPRT:                 e.sprt.decision,
			StrictSignal:         strict,
			CumulativeUnits:      e.cumUnits,
		},
		Timestamp: time.Now(),
	}
	e.lastLog = dlog

	if decision.Units > 0 {
		log.Infof("🎯 [%s] 第%d轮: %s conf=%.2f ev=%.3f -> 下 %s %d 单位",
			e.table, e.round, outcome, finalConf, ev, decision.BetOn, decision.Units)
	} else {
		log.Debugf("⏸️ [%s] 第%d轮: %s -> 不下注 (%s)", e.table, e.round, outcome, decision.Reason)
	}

	return dlog, nil
}
