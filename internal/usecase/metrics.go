package usecase

import drepo "StockPull/internal/domain/repository"

type nopMetrics struct{}

func (nopMetrics) RecordBarsWritten(string, int) {}
func (nopMetrics) RecordCommit(string) {}
func (nopMetrics) RecordRollback(string) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordTicker(string, string) {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordLatency(string, float64) {}

func orNop(m drepo.Metrics) drepo.Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
