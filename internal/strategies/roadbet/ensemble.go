package roadbet

import "github.com/betbot/roadbot/internal/domain"

// 窗口启发式参数（与原模型保持一致的固定值）
const (
	momentumWindow     = 15 // 动量窗口长度
	momentumMinSamples = 10 // 动量启发式的最小样本数
	streakLength       = 3  // 连串启发式长度
	chopLength         = 4  // 单跳启发式长度
)

// momentumAgrees 动量：最近 15 局中庄占多数（至少 10 个样本）
func momentumAgrees(history []domain.Outcome, favored domain.Outcome) bool {
	n := len(history)
	if n < momentumMinSamples {
		return false
	}
	start := n - momentumWindow
	if start < 0 {
		start = 0
	}
	window := history[start:]
	count := 0
	for _, o := range window {
		if o == favored {
			count++
		}
	}
	return count*2 > len(window)
}

// streakAgrees 连串：最近 3 局全是庄
func streakAgrees(history []domain.Outcome, favored domain.Outcome) bool {
	n := len(history)
	if n < streakLength {
		return false
	}
	for _, o := range history[n-streakLength:] {
		if o != favored {
			return false
		}
	}
	return true
}

// chopAgrees 单跳：最近 4 局严格庄/非庄交替，且最后一局非庄
// （交替延续则下一局轮到庄）
func chopAgrees(history []domain.Outcome, favored domain.Outcome) bool {
	n := len(history)
	if n < chopLength {
		return false
	}
	window := history[n-chopLength:]
	for i := 1; i < chopLength; i++ {
		if (window[i] == favored) == (window[i-1] == favored) {
			return false
		}
	}
	return window[chopLength-1] != favored
}

// ensembleAgrees 按配置的模式合成三个启发式
func ensembleAgrees(history []domain.Outcome, favored domain.Outcome, mode EnsembleMode) bool {
	m := momentumAgrees(history, favored)
	s := streakAgrees(history, favored)
	c := chopAgrees(history, favored)
	if mode == EnsembleAllAgree {
		return m && s && c
	}
	return m || s || c
}
