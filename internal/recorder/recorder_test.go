package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/roadbot/internal/domain"
)

func testLog(table string, round int) *domain.DecisionLog {
	return &domain.DecisionLog{
		Table:      table,
		ShoeID:     "shoe-1",
		Round:      round,
		Outcome:    domain.OutcomeBanker,
		Confidence: 0.42,
		NetProfit:  1.9,
		Decision: domain.Decision{
			BetOn:  domain.OutcomeBanker,
			Units:  2,
			Reason: "bet B @2u",
		},
		Analysis:  domain.Analysis{StrictSignal: true, SPRT: domain.SPRTAcceptAlt},
		Timestamp: time.Now(),
	}
}

func TestRecordAndRecent(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer r.Close()

	for i := 1; i <= 3; i++ {
		require.NoError(t, r.Record(testLog("t1", i)))
	}
	require.NoError(t, r.Record(testLog("t2", 1)))

	rows, err := r.Recent("t1", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// 倒序：最新的在前
	assert.Equal(t, 3, rows[0].Round)
	assert.Equal(t, domain.OutcomeBanker, rows[0].BetOn)
	assert.Equal(t, 2, rows[0].Units)
	assert.True(t, rows[0].Analysis.StrictSignal)
	assert.Equal(t, domain.SPRTAcceptAlt, rows[0].Analysis.SPRT)

	all, err := r.Recent("", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	capped, err := r.Recent("", 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestRecordNilIsNoop(t *testing.T) {
	r, err := Open(filepath.Join(t.TempDir(), "decisions.db"))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Record(nil))
	rows, err := r.Recent("", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
