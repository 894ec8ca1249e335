package roadbet

import (
	"math"

	"github.com/betbot/roadbot/internal/domain"
)

// cusumDetector 单边 CUSUM 累加器，监测庄侧出现率的上漂
// s = max(0, s + (x − drift))，x 为 outcome==庄 的指示变量。
// 超过阈值后永久闭锁为"变点"状态，本鞋内不再复位。
type cusumDetector struct {
	drift     float64
	threshold float64

	stat    float64
	tripped bool
}

func newCusumDetector(drift, threshold float64) *cusumDetector {
	return &cusumDetector{drift: drift, threshold: threshold}
}

func (c *cusumDetector) update(favored bool) {
	x := 0.0
	if favored {
		x = 1
	}
	c.stat = math.Max(0, c.stat+(x-c.drift))
	if c.stat > c.threshold {
		c.tripped = true
	}
}

// sprtDetector 序贯似然比检验（Wald）
// 原假设 p0 = 当轮盈亏平衡概率，备择 p1 = p0 + epsilon。
// 边界：上界 ln((1−β)/α) 接受备择，下界 ln(β/(1−α)) 接受原假设。
// 结论一旦非 inconclusive 即为终态。
type sprtDetector struct {
	alpha   float64
	beta    float64
	epsilon float64

	logLR    float64
	decision domain.SPRTDecision
}

func newSprtDetector(alpha, beta, epsilon float64) *sprtDetector {
	return &sprtDetector{
		alpha:    alpha,
		beta:     beta,
		epsilon:  epsilon,
		decision: domain.SPRTInconclusive,
	}
}

func (s *sprtDetector) update(favored bool, p0 float64) {
	if s.decision != domain.SPRTInconclusive {
		return
	}
	if p0 <= 0 || p0 >= 1 {
		return
	}
	p1 := p0 + s.epsilon
	if p1 >= 1 {
		p1 = 1 - 1e-9
	}

	if favored {
		s.logLR += math.Log(p1 / p0)
	} else {
		s.logLR += math.Log((1 - p1) / (1 - p0))
	}

	upper := math.Log((1 - s.beta) / s.alpha)
	lower := math.Log(s.beta / (1 - s.alpha))
	if s.logLR >= upper {
		s.decision = domain.SPRTAcceptAlt
	} else if s.logLR <= lower {
		s.decision = domain.SPRTAcceptNull
	}
}
