package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterMetricsIsIdempotent(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()
}

func TestRecordTick(t *testing.T) {
	before := testutil.ToFloat64(ticks)
	RecordTick(200*time.Microsecond, []float64{0.25, 0.75})

	if got := testutil.ToFloat64(ticks) - before; got != 1 {
		t.Errorf("ticks delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(layerWeight.WithLabelValues("1")); got != 0.75 {
		t.Errorf("layer 1 weight = %v, want 0.75", got)
	}

	ForgetLayer(1)
	if n := testutil.CollectAndCount(layerWeight); n != 1 {
		t.Errorf("weight series = %d, want 1", n)
	}
}

func TestRecordCommandAndFrame(t *testing.T) {
	RecordCommand("mqtt", "scrub", true)
	RecordCommand("mqtt", "scrub", true)
	RecordCommand("http", "bogus", false)
	RecordFrame(true)
	RecordFrame(false)

	if got := testutil.ToFloat64(commands.WithLabelValues("mqtt", "scrub", "true")); got != 2 {
		t.Errorf("mqtt scrub commands = %v, want 2", got)
	}
	if got := testutil.ToFloat64(commands.WithLabelValues("http", "bogus", "false")); got != 1 {
		t.Errorf("failed http commands = %v, want 1", got)
	}
	if got := testutil.ToFloat64(frames.WithLabelValues("false")); got != 1 {
		t.Errorf("failed frames = %v, want 1", got)
	}
}
