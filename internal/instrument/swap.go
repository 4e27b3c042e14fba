package instrument

import "time"

// FloorSwapRate is the minimum swap rate the simulator allows.
const FloorSwapRate = 0.001

// SwapFields holds the payload specific to an interest-rate swap.
type SwapFields struct {
	SwapRate      float64
	BidRate       float64
	AskRate       float64
	FixedDV01     float64
	FloatingDV01  float64
	Notional      float64
	LastTradePrice float64
	LastTradeSize  float64
	LastTradeTime  time.Time
	Tenor         string
	FloatingIndex string
}

func (f *SwapFields) fieldMap(m map[string]FieldValue) {
	m["swapRate"] = NumberValue(f.SwapRate)
	m["bidRate"] = NumberValue(f.BidRate)
	m["askRate"] = NumberValue(f.AskRate)
	m["fixedDV01"] = NumberValue(f.FixedDV01)
	m["floatingDV01"] = NumberValue(f.FloatingDV01)
	m["notional"] = NumberValue(f.Notional)
	m["tenor"] = StringValue(f.Tenor)
	m["floatingIndex"] = StringValue(f.FloatingIndex)
	if !f.LastTradeTime.IsZero() {
		m["lastTradePrice"] = NumberValue(f.LastTradePrice)
		m["lastTradeSize"] = NumberValue(f.LastTradeSize)
		m["lastTradeTime"] = TimestampValue(f.LastTradeTime)
	}
}
