// Package session 维护每张桌的会话状态：
// 全量路单快照的长度差分重放、换鞋边界识别、跨鞋先验折算。
package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/betbot/roadbot/internal/domain"
	"github.com/betbot/roadbot/internal/metrics"
	"github.com/betbot/roadbot/internal/perf"
	"github.com/betbot/roadbot/internal/strategies/roadbet"
	"github.com/betbot/roadbot/pkg/sigchan"
)

var log = logrus.WithField("module", "session")

// Report 一张桌的一次全量路单快照（上游每次全量推送，不推增量）
type Report struct {
	Table   string             `json:"table"`
	Results []domain.RawResult `json:"results"`
}

// tableState 单桌会话状态，engine/tracker 同生共死
type tableState struct {
	engine  *roadbet.Engine
	tracker *perf.Tracker
	shoeID  string
	lastLen int
	prevLog *domain.DecisionLog
}

// TableStatus 控制面板用的只读快照
type TableStatus struct {
	Table     string             `json:"table"`
	ShoeID    string             `json:"shoeId"`
	Round     int                `json:"round"`
	NetProfit float64            `json:"netProfit"`
	Counts    domain.Counts      `json:"counts"`
	Summary   string             `json:"summary"`
	LastLog   *domain.DecisionLog `json:"lastLog,omitempty"`
}

// Manager 多桌会话管理器
// Apply 串行处理单个快照；Submit/Run 提供每桌"最新覆盖"的异步入口：
// 同一张桌积压的旧快照会被新快照直接顶掉，反正都是全量。
type Manager struct {
	cfg    *roadbet.Config
	priors PriorStore
	onLog  func(*domain.DecisionLog)

	mu     sync.Mutex
	tables map[string]*tableState

	droppedRecords atomic.Int64

	pendMu  sync.Mutex
	pending map[string]Report
	notify  *sigchan.Chan
}

// NewManager 创建管理器
// onLog 每产生一条决策日志回调一次（可为 nil），在 Apply 的调用栈里同步执行。
func NewManager(cfg *roadbet.Config, priors PriorStore, onLog func(*domain.DecisionLog)) *Manager {
	return &Manager{
		cfg:     cfg,
		priors:  priors,
		onLog:   onLog,
		tables:  make(map[string]*tableState),
		pending: make(map[string]Report),
		notify:  sigchan.New(1),
	}
}

// DroppedRecords 累计丢弃的无法分类记录数
func (m *Manager) DroppedRecords() int64 {
	return m.droppedRecords.Load()
}

// Submit 异步提交快照，同桌后到覆盖先到，永不阻塞
func (m *Manager) Submit(r Report) {
	if r.Table == "" {
		return
	}
	m.pendMu.Lock()
	m.pending[r.Table] = r
	m.pendMu.Unlock()
	m.notify.Emit()
}

// Run 消费 Submit 队列直到 ctx 取消
func (m *Manager) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.notify.C():
		}
		for {
			m.pendMu.Lock()
			var r Report
			for k, v := range m.pending {
				r = v
				delete(m.pending, k)
				break
			}
			m.pendMu.Unlock()
			if r.Table == "" {
				break
			}
			if err := m.Apply(r); err != nil {
				log.Errorf("❌ [%s] 处理快照失败: %v", r.Table, err)
			}
		}
	}
}

// classify 原始记录转类别，无法分类的丢弃并计数
func (m *Manager) classify(raws []domain.RawResult) []domain.Outcome {
	out := make([]domain.Outcome, 0, len(raws))
	for _, r := range raws {
		o, ok := domain.ClassifyRecord(r)
		if !ok {
			m.droppedRecords.Add(1)
			metrics.DroppedRecords.Add(1)
			continue
		}
		out = append(out, o)
	}
	return out
}

// Apply 同步处理一个全量快照
// 对比上次快照长度：相等=重复推送直接忽略；变长=重放新增后缀；
// 变短=换鞋（折算先验、重建会话、整表重放）。只比长度不比内容，
// 上游偶发的原地改写历史会被当作重复推送吞掉，靠 DroppedRecords
// 之外的离线对账兜底。
func (m *Manager) Apply(r Report) error {
	outcomes := m.classify(r.Results)
	metrics.ReportsApplied.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.tables[r.Table]
	if !ok {
		st = m.newSession(r.Table)
		m.tables[r.Table] = st
	}

	n := len(outcomes)
	switch {
	case n == st.lastLen:
		log.Debugf("🔁 [%s] 快照长度未变 (%d)，忽略", r.Table, n)
		return nil

	case n < st.lastLen:
		// 换鞋：上一鞋的计数折算成下一鞋的先验
		folded := m.foldPrior(st.engine.Counts())
		if err := m.priors.Put(r.Table, folded); err != nil {
			log.Warnf("⚠️ [%s] 先验落盘失败: %v", r.Table, err)
		}
		old := st.shoeID
		st.shoeID = uuid.NewString()
		st.engine = roadbet.NewEngine(m.cfg, r.Table, st.shoeID)
		st.engine.Reset(folded)
		st.tracker.Reset()
		st.prevLog = nil
		st.lastLen = 0
		metrics.ShoeChanges.Add(1)
		log.Infof("🆕 [%s] 换鞋 %s -> %s，先验 %+v，重放 %d 局", r.Table, old, st.shoeID, folded, n)
		return m.replay(st, outcomes)

	default:
		return m.replay(st, outcomes[st.lastLen:])
	}
}

// newSession 建桌：优先用落盘先验，否则用配置先验
func (m *Manager) newSession(table string) *tableState {
	prior := m.cfg.Prior
	if saved, ok, err := m.priors.Get(table); err != nil {
		log.Warnf("⚠️ [%s] 读取先验失败，用配置先验: %v", table, err)
	} else if ok {
		prior = saved
	}
	shoeID := uuid.NewString()
	eng := roadbet.NewEngine(m.cfg, table, shoeID)
	eng.Reset(prior)
	log.Infof("🪑 [%s] 建桌 shoe=%s prior=%+v", table, shoeID, prior)
	return &tableState{
		engine:  eng,
		tracker: perf.NewTracker(m.cfg.PayoutFactor),
		shoeID:  shoeID,
	}
}

// foldPrior 跨鞋先验折算：每类 1 + factor×上一鞋终值
// 保留方向性但压掉绝对量，避免上一鞋的偶然偏态主导下一鞋
func (m *Manager) foldPrior(final domain.Counts) domain.Counts {
	f := m.cfg.ShrinkageFactor
	return domain.Counts{
		B: 1 + f*final.B,
		P: 1 + f*final.P,
		T: 1 + f*final.T,
	}
}

// replay 把新增结果按序喂给引擎，并用下一局结果给上一局决策记账
func (m *Manager) replay(st *tableState, outcomes []domain.Outcome) error {
	for _, o := range outcomes {
		dlog, err := st.engine.AddOutcome(o)
		if err != nil {
			// 分类层已过滤，这里只可能是编程错误
			return err
		}
		if st.prevLog != nil {
			st.tracker.RecordDecision(st.prevLog, o)
		}
		st.prevLog = dlog
		st.lastLen++
		metrics.DecisionsMade.Add(1)
		if dlog.Decision.Units > 0 {
			metrics.BetsPlaced.Add(1)
		}
		if m.onLog != nil {
			m.onLog(dlog)
		}
	}
	return nil
}

// Snapshot 所有桌的只读状态（排序交给调用方）
func (m *Manager) Snapshot() []TableStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TableStatus, 0, len(m.tables))
	for table, st := range m.tables {
		out = append(out, TableStatus{
			Table:     table,
			ShoeID:    st.shoeID,
			Round:     st.engine.Round(),
			NetProfit: st.engine.NetProfit(),
			Counts:    st.engine.Counts(),
			Summary:   st.tracker.Summary(),
			LastLog:   st.engine.LastLog(),
		})
	}
	return out
}

// FlushPriors 把所有在场会话的当前计数折算落盘（优雅停机时调用）
func (m *Manager) FlushPriors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for table, st := range m.tables {
		if err := m.priors.Put(table, m.foldPrior(st.engine.Counts())); err != nil {
			log.Warnf("⚠️ [%s] 停机先验落盘失败: %v", table, err)
		}
	}
}
