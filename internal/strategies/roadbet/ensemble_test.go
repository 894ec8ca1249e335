package roadbet

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/betbot/roadbot/internal/domain"
)

func road(s string) []domain.Outcome {
	out := make([]domain.Outcome, 0, len(s))
	for _, r := range s {
		out = append(out, domain.Outcome(string(r)))
	}
	return out
}

func TestMomentumAgrees(t *testing.T) {
	// 不足 10 个样本不触发
	assert.False(t, momentumAgrees(road("BBBBBBBBB"), domain.OutcomeBanker))
	// 10 个样本、庄占多数
	assert.True(t, momentumAgrees(road("BBBBBBBPPP"), domain.OutcomeBanker))
	// 窗口只看最近 15 局
	assert.True(t, momentumAgrees(road("PPPPPPPPPPBBBBBBBBBBBBBBB"), domain.OutcomeBanker))
	// 刚好一半不算多数
	assert.False(t, momentumAgrees(road("BBBBBPPPPP"), domain.OutcomeBanker))
}

func TestStreakAgrees(t *testing.T) {
	assert.True(t, streakAgrees(road("PPBBB"), domain.OutcomeBanker))
	assert.False(t, streakAgrees(road("PBBT"), domain.OutcomeBanker))
	assert.False(t, streakAgrees(road("BB"), domain.OutcomeBanker))
}

func TestChopAgrees(t *testing.T) {
	// 严格交替且最后一局非庄：下一局轮到庄
	assert.True(t, chopAgrees(road("BPBP"), domain.OutcomeBanker))
	assert.True(t, chopAgrees(road("TTTBPBP"), domain.OutcomeBanker))
	// 最后一局是庄，交替意味着下一局非庄
	assert.False(t, chopAgrees(road("PBPB"), domain.OutcomeBanker))
	// 非交替
	assert.False(t, chopAgrees(road("BPPB"), domain.OutcomeBanker))
	assert.False(t, chopAgrees(road("BPB"), domain.OutcomeBanker))
}

func TestEnsembleModes(t *testing.T) {
	// streak 同意、momentum 不足样本、chop 不同意
	h := road("PPBBB")
	assert.True(t, ensembleAgrees(h, domain.OutcomeBanker, EnsembleAnyAgrees))
	assert.False(t, ensembleAgrees(h, domain.OutcomeBanker, EnsembleAllAgree))
}
