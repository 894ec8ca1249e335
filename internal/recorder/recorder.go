// Package recorder 决策日志落盘（SQLite），供离线校准和复盘查询。
package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/betbot/roadbot/internal/domain"
)

// Recorder 决策日志记录器
type Recorder struct {
	db *sql.DB
}

// Open 打开（或创建）记录库
func Open(dbPath string) (*Recorder, error) {
	if dbPath == "" {
		return nil, errors.New("recorder: db path is required")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "recorder: mkdir db dir")
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "recorder: open sqlite")
	}
	db.SetMaxOpenConns(1) // SQLite：单连接更稳定
	db.SetMaxIdleConns(1)

	r := &Recorder{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Recorder) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS decisions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  table_name TEXT NOT NULL,
  shoe_id TEXT NOT NULL,
  round INTEGER NOT NULL,
  outcome TEXT NOT NULL,
  bet_on TEXT,
  units INTEGER NOT NULL,
  reason TEXT NOT NULL,
  confidence REAL NOT NULL,
  net_profit REAL NOT NULL,
  strict_signal INTEGER NOT NULL,
  analysis_json TEXT NOT NULL,
  ts TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_table_ts ON decisions(table_name, ts DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_shoe_round ON decisions(shoe_id, round);`,
	}
	for _, q := range stmts {
		if _, err := r.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "recorder: migrate exec")
		}
	}
	return nil
}

// Record 落一条决策日志
func (r *Recorder) Record(dlog *domain.DecisionLog) error {
	if dlog == nil {
		return nil
	}
	analysis, err := json.Marshal(dlog.Analysis)
	if err != nil {
		return errors.Wrap(err, "recorder: marshal analysis")
	}
	strict := 0
	if dlog.Analysis.StrictSignal {
		strict = 1
	}
	_, err = r.db.Exec(`
INSERT INTO decisions
  (table_name, shoe_id, round, outcome, bet_on, units, reason,
   confidence, net_profit, strict_signal, analysis_json, ts)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		dlog.Table, dlog.ShoeID, dlog.Round, string(dlog.Outcome),
		string(dlog.Decision.BetOn), dlog.Decision.Units, dlog.Decision.Reason,
		dlog.Confidence, dlog.NetProfit, strict, string(analysis),
		dlog.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	return errors.Wrap(err, "recorder: insert decision")
}

// Row 查询结果行
type Row struct {
	Table      string          `json:"table"`
	ShoeID     string          `json:"shoeId"`
	Round      int             `json:"round"`
	Outcome    domain.Outcome  `json:"outcome"`
	BetOn      domain.Outcome  `json:"betOn,omitempty"`
	Units      int             `json:"units"`
	Reason     string          `json:"reason"`
	Confidence float64         `json:"confidence"`
	NetProfit  float64         `json:"netProfit"`
	Analysis   domain.Analysis `json:"analysis"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Recent 最近 limit 条（按写入倒序），table 为空查所有桌
func (r *Recorder) Recent(table string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
SELECT table_name, shoe_id, round, outcome, bet_on, units, reason,
       confidence, net_profit, analysis_json, ts
FROM decisions`
	args := []any{}
	if table != "" {
		q += ` WHERE table_name = ?`
		args = append(args, table)
	}
	q += ` ORDER BY id DESC LIMIT ?;`
	args = append(args, limit)

	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "recorder: query decisions")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row          Row
			analysisJSON string
			ts           string
		)
		if err := rows.Scan(&row.Table, &row.ShoeID, &row.Round, &row.Outcome,
			&row.BetOn, &row.Units, &row.Reason, &row.Confidence,
			&row.NetProfit, &analysisJSON, &ts); err != nil {
			return nil, errors.Wrap(err, "recorder: scan row")
		}
		if err := json.Unmarshal([]byte(analysisJSON), &row.Analysis); err != nil {
			return nil, errors.Wrap(err, "recorder: unmarshal analysis")
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			row.Timestamp = t
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close 关闭数据库
func (r *Recorder) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
