package output

import "time"

type MetricsPort interface {
	ObserveToolCall(tool, outcome string, elapsed time.Duration)
	SetSessionOpen(open bool)
}

type NopMetrics struct{}

func (NopMetrics) ObserveToolCall(string, string, time.Duration) {}
func (NopMetrics) SetSessionOpen(bool)                          {}
