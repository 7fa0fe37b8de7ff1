package service

// Metrics доменные счётчики. Вызываются только после коммита.
type Metrics interface {
	BidCreated()
	ProposalUnlocked()
	DirectConnectionCreated()
	TokensMoved(transactionType string, amount int64)
}

type noopMetrics struct{}

func (noopMetrics) BidCreated()               {}
func (noopMetrics) ProposalUnlocked()         {}
func (noopMetrics) DirectConnectionCreated()  {}
func (noopMetrics) TokensMoved(string, int64) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
