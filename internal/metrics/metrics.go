package metrics

import "expvar"

var (
	ReportsApplied = expvar.NewInt("reports_applied")
	ShoeChanges    = expvar.NewInt("shoe_changes")
	DroppedRecords = expvar.NewInt("dropped_records")
	DecisionsMade  = expvar.NewInt("decisions_made")
	BetsPlaced     = expvar.NewInt("bets_placed")
)
