package roadbet

import (
	"fmt"
	"sort"

	"github.com/betbot/roadbot/internal/domain"
)

const ID = "roadbet"

// EnsembleMode 窗口启发式的合成方式
type EnsembleMode string

const (
	EnsembleAnyAgrees EnsembleMode = "any"
	EnsembleAllAgree  EnsembleMode = "all"
)

// CalibrationPoint 置信度校准表断点（raw -> calibrated）
type CalibrationPoint struct {
	Raw        float64 `yaml:"raw" json:"raw"`
	Calibrated float64 `yaml:"calibrated" json:"calibrated"`
}

// Config RoadBet 策略配置
// 逐局贝叶斯收缩模型 + 变点/序贯检验交叉验证 + 分数 Kelly 仓位
type Config struct {
	// ====== 先验与收缩 ======
	Prior             domain.Counts        `yaml:"prior" json:"prior"`                         // 初始伪计数先验
	ShrinkageStrength float64              `yaml:"shrinkageStrength" json:"shrinkageStrength"` // 收缩强度 k（按基线频率加权的附加伪计数）
	Baseline          domain.BaselineRates `yaml:"baseline" json:"baseline"`                   // 全局基线频率（收缩目标）

	// ====== 下注节奏与风险 ======
	WarmupRounds     int     `yaml:"warmupRounds" json:"warmupRounds"`         // 预热局数（不下注）
	MaxExposureUnits int     `yaml:"maxExposureUnits" json:"maxExposureUnits"` // 累计投注上限（单位）
	StopLossUnits    float64 `yaml:"stopLossUnits" json:"stopLossUnits"`       // 净利止损线（单位，负数）
	AdaptiveGates    bool    `yaml:"adaptiveGates" json:"adaptiveGates"`       // 是否按输赢连串自适应收紧/放松阈值
	AdaptiveStreak   int     `yaml:"adaptiveStreak" json:"adaptiveStreak"`     // 触发自适应的连串长度
	AdaptiveTighten  float64 `yaml:"adaptiveTighten" json:"adaptiveTighten"`   // 收紧系数（0-1）

	// ====== 置信度处理 ======
	Calibration        []CalibrationPoint `yaml:"calibration" json:"calibration"`               // 校准断点表（单调阶梯查找）
	ChangePointPenalty float64            `yaml:"changePointPenalty" json:"changePointPenalty"` // 变点触发后的置信度惩罚系数（<1）

	// ====== 窗口启发式合成 ======
	EnsembleMode        EnsembleMode `yaml:"ensembleMode" json:"ensembleMode"`               // any=任一同意，all=全部同意
	DisableEnsembleGate bool         `yaml:"disableEnsembleGate" json:"disableEnsembleGate"` // true=启发式不同意也允许下注

	// ====== 仓位 ======
	KellyFraction float64 `yaml:"kellyFraction" json:"kellyFraction"` // 分数 Kelly 安全系数（0-1）
	PayoutFactor  float64 `yaml:"payoutFactor" json:"payoutFactor"`   // 庄赢赔付系数（抽水后，默认 0.95）

	// ====== 旧版检测器（仅记录，不参与门控） ======
	CusumDrift     float64 `yaml:"cusumDrift" json:"cusumDrift"`         // CUSUM 漂移项
	CusumThreshold float64 `yaml:"cusumThreshold" json:"cusumThreshold"` // CUSUM 触发阈值
	SPRTAlpha      float64 `yaml:"sprtAlpha" json:"sprtAlpha"`           // SPRT 第一类错误率
	SPRTBeta       float64 `yaml:"sprtBeta" json:"sprtBeta"`             // SPRT 第二类错误率
	SPRTEpsilon    float64 `yaml:"sprtEpsilon" json:"sprtEpsilon"`       // 备择假设偏移量

	// ====== 其它 ======
	HistorySize     int     `yaml:"historySize" json:"historySize"`         // 最近结果窗口上限
	ShrinkageFactor float64 `yaml:"shrinkageFactor" json:"shrinkageFactor"` // 跨鞋先验折算系数（1 + factor×count）
}

// Defaults 填充零值字段
func (c *Config) Defaults() error {
	if c == nil {
		return fmt.Errorf("config 不能为空")
	}

	if c.Prior.Total() <= 0 {
		c.Prior = domain.DefaultPrior()
	}
	if c.ShrinkageStrength <= 0 {
		c.ShrinkageStrength = 20
	}
	if c.Baseline.B <= 0 || c.Baseline.P <= 0 || c.Baseline.T <= 0 {
		c.Baseline = domain.DefaultBaselineRates()
	}

	if c.WarmupRounds <= 0 {
		c.WarmupRounds = 12
	}
	if c.MaxExposureUnits <= 0 {
		c.MaxExposureUnits = 10
	}
	if c.StopLossUnits >= 0 {
		c.StopLossUnits = -10
	}
	if c.AdaptiveStreak <= 0 {
		c.AdaptiveStreak = 3
	}
	if c.AdaptiveTighten <= 0 || c.AdaptiveTighten >= 1 {
		c.AdaptiveTighten = 0.8
	}

	if len(c.Calibration) == 0 {
		c.Calibration = []CalibrationPoint{
			{Raw: 0.00, Calibrated: 0.00},
			{Raw: 0.50, Calibrated: 0.25},
			{Raw: 0.60, Calibrated: 0.40},
			{Raw: 0.70, Calibrated: 0.55},
			{Raw: 0.80, Calibrated: 0.70},
			{Raw: 0.90, Calibrated: 0.85},
		}
	}
	// 阶梯查找要求断点按 raw 升序
	sort.Slice(c.Calibration, func(i, j int) bool {
		return c.Calibration[i].Raw < c.Calibration[j].Raw
	})

	if c.ChangePointPenalty <= 0 || c.ChangePointPenalty >= 1 {
		c.ChangePointPenalty = 0.5
	}

	if c.EnsembleMode == "" {
		c.EnsembleMode = EnsembleAnyAgrees
	}

	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		c.KellyFraction = 0.25
	}
	if c.PayoutFactor <= 0 {
		c.PayoutFactor = 0.95
	}

	if c.CusumDrift <= 0 {
		c.CusumDrift = 0.6
	}
	if c.CusumThreshold <= 0 {
		c.CusumThreshold = 5
	}
	if c.SPRTAlpha <= 0 {
		c.SPRTAlpha = 0.05
	}
	if c.SPRTBeta <= 0 {
		c.SPRTBeta = 0.2
	}
	if c.SPRTEpsilon <= 0 {
		c.SPRTEpsilon = 0.05
	}

	if c.HistorySize <= 0 {
		c.HistorySize = 32
	}
	if c.ShrinkageFactor <= 0 {
		c.ShrinkageFactor = 0.2
	}

	return nil
}

// Validate 校验配置合法性
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config 不能为空")
	}
	if c.Prior.B < 0 || c.Prior.P < 0 || c.Prior.T < 0 {
		return fmt.Errorf("prior 伪计数不能为负: %+v", c.Prior)
	}
	if c.StopLossUnits >= 0 {
		return fmt.Errorf("stopLossUnits 必须为负数: %v", c.StopLossUnits)
	}
	if c.EnsembleMode != EnsembleAnyAgrees && c.EnsembleMode != EnsembleAllAgree {
		return fmt.Errorf("ensembleMode 必须是 any 或 all: %q", c.EnsembleMode)
	}
	if c.ChangePointPenalty <= 0 || c.ChangePointPenalty >= 1 {
		return fmt.Errorf("changePointPenalty 必须在 (0,1): %v", c.ChangePointPenalty)
	}
	if c.KellyFraction <= 0 || c.KellyFraction > 1 {
		return fmt.Errorf("kellyFraction 必须在 (0,1]: %v", c.KellyFraction)
	}
	if c.SPRTAlpha <= 0 || c.SPRTAlpha >= 1 || c.SPRTBeta <= 0 || c.SPRTBeta >= 1 {
		return fmt.Errorf("SPRT alpha/beta 必须在 (0,1): alpha=%v beta=%v", c.SPRTAlpha, c.SPRTBeta)
	}
	for i := 1; i < len(c.Calibration); i++ {
		if c.Calibration[i].Calibrated < c.Calibration[i-1].Calibrated {
			return fmt.Errorf("校准表必须单调不减: 第 %d 个断点", i)
		}
	}
	return nil
}

// GetStopLossUnits 实现 gates.Config
func (c *Config) GetStopLossUnits() float64 { return c.StopLossUnits }

// GetMaxExposureUnits 实现 gates.Config
func (c *Config) GetMaxExposureUnits() int { return c.MaxExposureUnits }

// GetAdaptiveEnabled 实现 gates.Config
func (c *Config) GetAdaptiveEnabled() bool { return c.AdaptiveGates }

// GetAdaptiveStreak 实现 gates.Config
func (c *Config) GetAdaptiveStreak() int { return c.AdaptiveStreak }

// GetAdaptiveTighten 实现 gates.Config
func (c *Config) GetAdaptiveTighten() float64 { return c.AdaptiveTighten }
