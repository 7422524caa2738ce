package journal

// Memory keeps records in slices. It is handy in tests and for callers
// that analyze a run without touching disk.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
	Closed bool
}

func (m *Memory) RecordTrade(t TradeRecord) error {
	m.Trades = append(m.Trades, t)
	return nil
}

func (m *Memory) RecordEquity(e EquitySnapshot) error {
	m.Equity = append(m.Equity, e)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
