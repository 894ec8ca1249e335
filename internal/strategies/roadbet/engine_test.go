package roadbet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/roadbot/internal/domain"
)

func newTestConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	require.NoError(t, cfg.Defaults())
	require.NoError(t, cfg.Validate())
	return cfg
}

// TestWarmupRounds 默认配置下前 12 局全部为预热，不下注
func TestWarmupRounds(t *testing.T) {
	cfg := newTestConfig(t)
	e := NewEngine(cfg, "t1", "shoe-1")

	outcomes := []domain.Outcome{
		domain.OutcomeBanker, domain.OutcomePlayer, domain.OutcomeTie,
		domain.OutcomeBanker, domain.OutcomeBanker, domain.OutcomePlayer,
		domain.OutcomeBanker, domain.OutcomePlayer, domain.OutcomeBanker,
		domain.OutcomeBanker, domain.OutcomePlayer, domain.OutcomeTie,
	}
	require.Len(t, outcomes, 12)

	for i, o := range outcomes {
		dlog, err := e.AddOutcome(o)
		require.NoError(t, err)
		require.NotNil(t, dlog)
		assert.Equal(t, i+1, dlog.Round)
		assert.Equal(t, 0, dlog.Decision.Units, "第 %d 局应为预热", i+1)
		assert.Contains(t, dlog.Decision.Reason, "warm-up")
	}
}

// TestExposureCapLatch 连续喂庄直到累计投注达到上限后，闭锁且对后续所有局保持
func TestExposureCapLatch(t *testing.T) {
	cfg := newTestConfig(t)
	e := NewEngine(cfg, "t1", "shoe-1")

	latched := false
	for i := 0; i < 60; i++ {
		dlog, err := e.AddOutcome(domain.OutcomeBanker)
		require.NoError(t, err)

		if latched {
			// 闭锁单向：之后每一局都必须维持禁止下注
			assert.Equal(t, 0, dlog.Decision.Units)
			assert.Contains(t, dlog.Decision.Reason, "exposure")
			continue
		}
		if strings.Contains(dlog.Decision.Reason, "exposure") {
			latched = true
			assert.Equal(t, 0, dlog.Decision.Units)
			assert.GreaterOrEqual(t, dlog.Analysis.CumulativeUnits, cfg.MaxExposureUnits)
		}
	}
	assert.True(t, latched, "60 局连庄后必须触发投注上限闭锁")
}

// TestSettlementArithmetic 结算算术：下庄 2 单位，庄赢 +1.9，闲赢 −2
func TestSettlementArithmetic(t *testing.T) {
	cfg := newTestConfig(t)

	t.Run("win", func(t *testing.T) {
		e := NewEngine(cfg, "t1", "shoe-1")
		e.pending = &domain.Decision{BetOn: domain.OutcomeBanker, Units: 2}
		_, err := e.AddOutcome(domain.OutcomeBanker)
		require.NoError(t, err)
		assert.InDelta(t, 2*0.95, e.NetProfit(), 1e-12)
	})

	t.Run("loss", func(t *testing.T) {
		e := NewEngine(cfg, "t1", "shoe-1")
		e.pending = &domain.Decision{BetOn: domain.OutcomeBanker, Units: 2}
		_, err := e.AddOutcome(domain.OutcomePlayer)
		require.NoError(t, err)
		assert.InDelta(t, -2, e.NetProfit(), 1e-12)
	})

	t.Run("tie-counts-as-loss", func(t *testing.T) {
		e := NewEngine(cfg, "t1", "shoe-1")
		e.pending = &domain.Decision{BetOn: domain.OutcomeBanker, Units: 2}
		_, err := e.AddOutcome(domain.OutcomeTie)
		require.NoError(t, err)
		assert.InDelta(t, -2, e.NetProfit(), 1e-12)
	})
}

// TestUnknownOutcomeRejected 非法类别不改变状态、不产生日志
func TestUnknownOutcomeRejected(t *testing.T) {
	cfg := newTestConfig(t)
	e := NewEngine(cfg, "t1", "shoe-1")

	_, err := e.AddOutcome(domain.Outcome("X"))
	assert.ErrorIs(t, err, ErrUnknownOutcome)
	assert.Equal(t, 0, e.Round())
	assert.Equal(t, cfg.Prior, e.Counts())
	assert.Nil(t, e.LastLog())
}

// TestStopLossLatchMonotone 止损触发后闭锁，即使之后置信度走高也不恢复
func TestStopLossLatchMonotone(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.WarmupRounds = 1
	e := NewEngine(cfg, "t1", "shoe-1")

	// 手工制造巨亏，强制跌破止损线
	e.netProfit = cfg.StopLossUnits - 1

	seen := false
	for i := 0; i < 30; i++ {
		dlog, err := e.AddOutcome(domain.OutcomeBanker)
		require.NoError(t, err)
		if dlog.Round <= cfg.WarmupRounds {
			continue
		}
		seen = true
		assert.Equal(t, 0, dlog.Decision.Units, "第 %d 局", dlog.Round)
		assert.Contains(t, dlog.Decision.Reason, "stop")
	}
	assert.True(t, seen)
}

// TestEVZeroForcesNoConfidence 负 EV 时最终置信度必须为 0
func TestEVZeroForcesNoConfidence(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.WarmupRounds = 1
	e := NewEngine(cfg, "t1", "shoe-1")

	// 连闲把后验压向闲侧，EV 转负
	var last *domain.DecisionLog
	for i := 0; i < 20; i++ {
		dlog, err := e.AddOutcome(domain.OutcomePlayer)
		require.NoError(t, err)
		last = dlog
	}
	require.NotNil(t, last)
	assert.LessOrEqual(t, last.Analysis.EVPerUnit, 0.0)
	assert.Equal(t, 0.0, last.Confidence)
	assert.Equal(t, 0, last.Decision.Units)
}

// TestCalibrationStepLookup 校准表取不超过原始值的最高断点
func TestCalibrationStepLookup(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Calibration = []CalibrationPoint{
		{Raw: 0.0, Calibrated: 0.0},
		{Raw: 0.5, Calibrated: 0.3},
		{Raw: 0.8, Calibrated: 0.7},
	}
	e := NewEngine(cfg, "t1", "shoe-1")

	assert.Equal(t, 0.0, e.calibrate(0.49))
	assert.Equal(t, 0.3, e.calibrate(0.5))
	assert.Equal(t, 0.3, e.calibrate(0.79))
	assert.Equal(t, 0.7, e.calibrate(0.8))
	assert.Equal(t, 0.7, e.calibrate(1.0))
}

// TestResetClearsEverything Reset 后轮次/净利/闭锁/历史/检测器全部归零
func TestResetClearsEverything(t *testing.T) {
	cfg := newTestConfig(t)
	e := NewEngine(cfg, "t1", "shoe-1")

	for i := 0; i < 40; i++ {
		_, err := e.AddOutcome(domain.OutcomeBanker)
		require.NoError(t, err)
	}
	require.Greater(t, e.Round(), 0)

	newPrior := domain.Counts{B: 2, P: 3, T: 1}
	e.Reset(newPrior)

	assert.Equal(t, 0, e.Round())
	assert.Equal(t, newPrior, e.Counts())
	assert.Equal(t, 0.0, e.NetProfit())
	assert.Equal(t, 0, e.cumUnits)
	assert.Empty(t, e.history)
	assert.Nil(t, e.LastLog())
	assert.False(t, e.gates.Disabled())
	assert.False(t, e.cusum.tripped)
	assert.Equal(t, domain.SPRTInconclusive, e.sprt.decision)
}

// TestSPRTTerminal SPRT 结论一旦非 inconclusive 即为终态
func TestSPRTTerminal(t *testing.T) {
	cfg := newTestConfig(t)
	e := NewEngine(cfg, "t1", "shoe-1")

	var terminal domain.SPRTDecision
	for i := 0; i < 200; i++ {
		dlog, err := e.AddOutcome(domain.OutcomeBanker)
		require.NoError(t, err)
		if terminal != "" {
			assert.Equal(t, terminal, dlog.Analysis.SPRT)
			continue
		}
		if dlog.Analysis.SPRT != domain.SPRTInconclusive {
			terminal = dlog.Analysis.SPRT
		}
	}
	assert.Equal(t, domain.SPRTAcceptAlt, terminal, "200 局连庄应接受备择假设")
}
