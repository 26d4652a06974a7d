package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordOperation verifies the counter is incremented per operation and result.
func TestRecordOperation(t *testing.T) {
	counter := operationsTotal.WithLabelValues("upsert", ResultInvalid)
	before := testutil.ToFloat64(counter)

	RecordOperation("upsert", ResultInvalid, time.Now())
	RecordOperation("upsert", ResultInvalid, time.Now())

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("upsert/invalid delta = %v, want 2", got)
	}
}

// TestRecordPlanCount verifies the gauge tracks the last reported size.
func TestRecordPlanCount(t *testing.T) {
	RecordPlanCount(7)
	if got := testutil.ToFloat64(plansStored); got != 7 {
		t.Errorf("plans_stored = %v, want 7", got)
	}
	RecordPlanCount(0)
	if got := testutil.ToFloat64(plansStored); got != 0 {
		t.Errorf("plans_stored = %v, want 0", got)
	}
}
