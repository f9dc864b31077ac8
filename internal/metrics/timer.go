package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveMS records the elapsed milliseconds on o.
func (t *Timer) ObserveMS(o prometheus.Observer) {
	o.Observe(float64(t.Duration().Microseconds()) / 1000)
}
