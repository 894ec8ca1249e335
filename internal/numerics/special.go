// Package numerics 提供策略引擎依赖的特殊函数：
// 正则化不完全 Beta 函数及其反函数、对数 Gamma 函数。
// 纯函数、无状态、无依赖。
package numerics

import "math"

// lanczos 9 项 Lanczos 系数（g=7）
var lanczos = [9]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

// Gammaln 计算 ln Γ(x)
// x < 0.5 时使用反射公式；对 (0, 1e6) 区间内的 x 与参考值至少 10 位有效数字一致
func Gammaln(x float64) float64 {
	if x < 0.5 {
		// 反射公式: Γ(x)Γ(1-x) = π / sin(πx)
		return math.Log(math.Pi/math.Sin(math.Pi*x)) - Gammaln(1-x)
	}
	x -= 1
	a := lanczos[0]
	t := x + 7.5
	for i := 1; i < 9; i++ {
		a += lanczos[i] / (x + float64(i))
	}
	return 0.5*math.Log(2*math.Pi) + (x+0.5)*math.Log(t) - t + math.Log(a)
}

const (
	betacfMaxIter = 200
	betacfEps     = 1e-13
	betacfTiny    = 1e-30
)

// betacf 不完全 Beta 连分式尾部（modified Lentz 算法）
func betacf(x, a, b float64) float64 {
	qab := a + b
	qap := a + 1
	qam := a - 1

	c := 1.0
	d := 1 - qab*x/qap
	if math.Abs(d) < betacfTiny {
		d = betacfTiny
	}
	d = 1 / d
	h := d

	for m := 1; m <= betacfMaxIter; m++ {
		fm := float64(m)
		m2 := 2 * fm

		// 偶数项
		aa := fm * (b - fm) * x / ((qam + m2) * (a + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfTiny {
			d = betacfTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfTiny {
			c = betacfTiny
		}
		d = 1 / d
		h *= d * c

		// 奇数项
		aa = -(a + fm) * (qab + fm) * x / ((a + m2) * (qap + m2))
		d = 1 + aa*d
		if math.Abs(d) < betacfTiny {
			d = betacfTiny
		}
		c = 1 + aa/c
		if math.Abs(c) < betacfTiny {
			c = betacfTiny
		}
		d = 1 / d
		del := d * c
		h *= del

		if math.Abs(del-1) < betacfEps {
			break
		}
	}
	return h
}

// RegIncompleteBeta 正则化不完全 Beta 函数 I_x(a,b)，即 Beta(a,b) 分布在 x 处的 CDF
// 契约：x∈[0,1]、a,b>0；x=0 返回 0，x=1 返回 1；x 越界返回 NaN，
// 调用方必须把 NaN 当作"无置信度"处理，绝不能当作 0 参与下注判断。
//
// 已知精度边界：没有对 x 靠近 1 做互补对称变换，偏斜的 (a,b) 组合在尾部
// 精度会退化。与原始模型保持行为一致，不做"修正"。
func RegIncompleteBeta(x, a, b float64) float64 {
	if x < 0 || x > 1 || math.IsNaN(x) {
		return math.NaN()
	}
	if a <= 0 || b <= 0 {
		return math.NaN()
	}
	if x == 0 {
		return 0
	}
	if x == 1 {
		return 1
	}

	// 前置因子 x^a (1-x)^b / (a·B(a,b))，对数空间求值避免上溢/下溢
	lnFront := Gammaln(a+b) - Gammaln(a) - Gammaln(b) +
		a*math.Log(x) + b*math.Log(1-x)
	front := math.Exp(lnFront) / a

	return front * betacf(x, a, b)
}

// betaPdf Beta(a,b) 概率密度（Newton 迭代的导数）
func betaPdf(x, a, b float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	lnPdf := Gammaln(a+b) - Gammaln(a) - Gammaln(b) +
		(a-1)*math.Log(x) + (b-1)*math.Log(1-x)
	return math.Exp(lnPdf)
}

const (
	invNewtonMaxIter    = 20
	invNewtonTol        = 1e-8
	invBisectMaxIter    = 50
	invBisectBracketTol = 1e-10
)

// BetaCdfInv 求 x 使得 I_x(a,b) = p
// 契约：p∈[0,1]（0↦0，1↦1），越界返回 NaN。
// 算法：a,b>1 时用分布均值做种子，否则 p^(1/a)；最多 20 步 Newton-Raphson
// （导数为 Beta PDF），任一步跳出 (0,1) 或未收敛到 |step|<1e-8 则退到
// [0,1] 上的 50 步二分，区间宽度 <1e-10 为止。
func BetaCdfInv(p, a, b float64) float64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return math.NaN()
	}
	if a <= 0 || b <= 0 {
		return math.NaN()
	}
	if p == 0 {
		return 0
	}
	if p == 1 {
		return 1
	}

	// 种子
	var x float64
	if a > 1 && b > 1 {
		x = a / (a + b)
	} else {
		x = math.Pow(p, 1/a)
	}
	if x <= 0 || x >= 1 {
		x = 0.5
	}

	// Newton-Raphson
	converged := false
	for i := 0; i < invNewtonMaxIter; i++ {
		fx := RegIncompleteBeta(x, a, b) - p
		dfx := betaPdf(x, a, b)
		if dfx == 0 || math.IsNaN(fx) {
			break
		}
		step := fx / dfx
		next := x - step
		if next <= 0 || next >= 1 {
			break
		}
		x = next
		if math.Abs(step) < invNewtonTol {
			converged = true
			break
		}
	}
	if converged {
		return x
	}

	// 二分兜底
	lo, hi := 0.0, 1.0
	for i := 0; i < invBisectMaxIter; i++ {
		mid := (lo + hi) / 2
		if RegIncompleteBeta(mid, a, b) < p {
			lo = mid
		} else {
			hi = mid
		}
		if hi-lo < invBisectBracketTol {
			break
		}
	}
	return (lo + hi) / 2
}
