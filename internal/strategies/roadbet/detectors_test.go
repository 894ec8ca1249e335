package roadbet

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/roadbot/internal/domain"
)

// TestCusumLatchPermanent CUSUM 超阈值后永久闭锁
func TestCusumLatchPermanent(t *testing.T) {
	c := newCusumDetector(0.5, 2)

	for i := 0; i < 6; i++ {
		c.update(true) // 每步 +0.5
	}
	assert.True(t, c.tripped)

	// 之后连喂反向样本，统计量会回落但闭锁保持
	for i := 0; i < 20; i++ {
		c.update(false)
	}
	assert.Equal(t, 0.0, c.stat)
	assert.True(t, c.tripped)
}

// TestCusumNonNegative 统计量不为负
func TestCusumNonNegative(t *testing.T) {
	c := newCusumDetector(0.6, 5)
	for i := 0; i < 50; i++ {
		c.update(false)
		assert.GreaterOrEqual(t, c.stat, 0.0)
	}
	assert.False(t, c.tripped)
}

// TestSprtBoundaries Wald 边界：连续有利样本接受备择，连续不利接受原假设
func TestSprtBoundaries(t *testing.T) {
	t.Run("accept-alt", func(t *testing.T) {
		s := newSprtDetector(0.05, 0.2, 0.05)
		for i := 0; i < 100 && s.decision == domain.SPRTInconclusive; i++ {
			s.update(true, 0.48)
		}
		assert.Equal(t, domain.SPRTAcceptAlt, s.decision)
		assert.GreaterOrEqual(t, s.logLR, math.Log((1-0.2)/0.05))
	})

	t.Run("accept-null", func(t *testing.T) {
		s := newSprtDetector(0.05, 0.2, 0.05)
		for i := 0; i < 100 && s.decision == domain.SPRTInconclusive; i++ {
			s.update(false, 0.48)
		}
		assert.Equal(t, domain.SPRTAcceptNull, s.decision)
		assert.LessOrEqual(t, s.logLR, math.Log(0.2/(1-0.05)))
	})

	t.Run("terminal", func(t *testing.T) {
		s := newSprtDetector(0.05, 0.2, 0.05)
		for i := 0; i < 100; i++ {
			s.update(true, 0.48)
		}
		final := s.decision
		llr := s.logLR
		// 终态后继续 update 完全不动
		s.update(false, 0.48)
		assert.Equal(t, final, s.decision)
		assert.Equal(t, llr, s.logLR)
	})
}

// TestSprtDegenerateP0 p0 越界时跳过更新而不是产出 NaN
func TestSprtDegenerateP0(t *testing.T) {
	s := newSprtDetector(0.05, 0.2, 0.05)
	s.update(true, 0)
	s.update(true, 1)
	assert.Equal(t, 0.0, s.logLR)
	assert.Equal(t, domain.SPRTInconclusive, s.decision)
}
