package safetyrules

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"
)

// Metric names follow the go-ethereum registry convention:
//   safetyrules/<operation>/<outcome>   request/success/error counters
//   safetyrules/<operation>/duration    latency timer
//   safetyrules/state/<field>           persisted voting-state gauges

func incQuery(entry LogEntry, outcome string) {
	metrics.GetOrRegisterCounter("safetyrules/"+string(entry)+"/"+outcome, nil).Inc(1)
}

func opTimer(entry LogEntry) func() {
	start := time.Now()
	timer := metrics.GetOrRegisterTimer("safetyrules/"+string(entry)+"/duration", nil)
	return func() {
		timer.UpdateSince(start)
	}
}

func updateStateGauge(field string, value uint64) {
	metrics.GetOrRegisterGauge("safetyrules/state/"+field, nil).Update(int64(value))
}
