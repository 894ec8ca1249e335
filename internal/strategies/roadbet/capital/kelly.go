// Package capital 实现分数 Kelly 仓位折算。
// f = (p_win·payout − p_lose) / payout；f≤0 不下注，
// 否则乘以安全系数后按固定阈值离散成 0-4 个单位档。
package capital

// KellyFraction 计算原始 Kelly 比例（未乘安全系数）
func KellyFraction(pWin, pLose, payout float64) float64 {
	if payout <= 0 {
		return 0
	}
	return (pWin*payout - pLose) / payout
}

// Units 离散化为单位档
// 阈值：>0.15→4，>0.10→3，>0.05→2，>0.02→1，否则 0
func Units(pWin, pLose, payout, fraction float64) int {
	f := KellyFraction(pWin, pLose, payout)
	if f <= 0 {
		return 0
	}
	scaled := f * fraction
	switch {
	case scaled > 0.15:
		return 4
	case scaled > 0.10:
		return 3
	case scaled > 0.05:
		return 2
	case scaled > 0.02:
		return 1
	}
	return 0
}
