package domain

// Outcome 路单结果类别（三分类）
// B=庄（Banker），P=闲（Player），T=和（Tie）
type Outcome string

const (
	OutcomeBanker Outcome = "B"
	OutcomePlayer Outcome = "P"
	OutcomeTie    Outcome = "T"
)

// Valid 判断是否为合法类别
func (o Outcome) Valid() bool {
	switch o {
	case OutcomeBanker, OutcomePlayer, OutcomeTie:
		return true
	}
	return false
}

// RawResult 上游抓包层转发的原始结果记录
// 两种形态：纯字符串标签（Tag）或紧凑对象（Ties / C）
// 注意：C 字段的线上标签和类别字母是两个命名空间：
//
//	c:'R' -> 类别 B（庄），c:'B' -> 类别 P（闲）
//
// 这个映射来自上游渲染层的颜色编码（R=红=庄），必须原样保留。
type RawResult struct {
	Tag  string `json:"tag,omitempty"`
	Ties bool   `json:"ties,omitempty"`
	C    string `json:"c,omitempty"`
}

// ClassifyTag 字符串标签分类
// "Player"->P，"Banker"->B，其它任意字符串->T
func ClassifyTag(tag string) Outcome {
	switch tag {
	case "Player":
		return OutcomePlayer
	case "Banker":
		return OutcomeBanker
	default:
		return OutcomeTie
	}
}

// ClassifyRecord 紧凑对象分类
// ties:true -> T；c:'R' -> B；c:'B' -> P；其它无法分类（ok=false，调用方应丢弃）
func ClassifyRecord(r RawResult) (Outcome, bool) {
	if r.Ties {
		return OutcomeTie, true
	}
	switch r.C {
	case "R":
		return OutcomeBanker, true
	case "B":
		return OutcomePlayer, true
	}
	if r.Tag != "" {
		return ClassifyTag(r.Tag), true
	}
	return "", false
}

// Counts B/P/T 三类的伪计数（先验 + 观测累计）
// 会话内只增不减
type Counts struct {
	B float64 `json:"b"`
	P float64 `json:"p"`
	T float64 `json:"t"`
}

// DefaultPrior 默认均匀先验 {1,1,1}
func DefaultPrior() Counts {
	return Counts{B: 1, P: 1, T: 1}
}

// Add 返回对指定类别加一后的副本
func (c Counts) Add(o Outcome) Counts {
	switch o {
	case OutcomeBanker:
		c.B++
	case OutcomePlayer:
		c.P++
	case OutcomeTie:
		c.T++
	}
	return c
}

// Total 伪计数总和
func (c Counts) Total() float64 {
	return c.B + c.P + c.T
}

// Get 按类别取计数
func (c Counts) Get(o Outcome) float64 {
	switch o {
	case OutcomeBanker:
		return c.B
	case OutcomePlayer:
		return c.P
	case OutcomeTie:
		return c.T
	}
	return 0
}

// Posterior 归一化后的后验均值（每轮重新计算，不落盘）
type Posterior struct {
	B float64 `json:"b"`
	P float64 `json:"p"`
	T float64 `json:"t"`
}

// BaselineRates 全局基线频率（收缩目标）
// 标准八副牌百家乐的长期频率，作为配置输入而非模型推导结果
type BaselineRates struct {
	B float64 `json:"b"`
	P float64 `json:"p"`
	T float64 `json:"t"`
}

// DefaultBaselineRates 默认全局基线
func DefaultBaselineRates() BaselineRates {
	return BaselineRates{B: 0.4585, P: 0.4462, T: 0.0953}
}
