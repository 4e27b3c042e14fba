package instrument

import "time"

// FloorFuturePrice is the minimum price a future can settle to.
const FloorFuturePrice = 0.01

// FutureFields holds the payload specific to a futures contract.
type FutureFields struct {
	Price          float64
	ImpliedRate    float64
	BidPrice       float64
	AskPrice       float64
	OpenInterest   float64
	LastTradePrice float64
	LastTradeSize  float64
	LastTradeTime  time.Time
	ContractMonth  string
	TickValue      float64
}

func (f *FutureFields) fieldMap(m map[string]FieldValue) {
	m["price"] = NumberValue(f.Price)
	m["impliedRate"] = NumberValue(f.ImpliedRate)
	m["bidPrice"] = NumberValue(f.BidPrice)
	m["askPrice"] = NumberValue(f.AskPrice)
	m["openInterest"] = NumberValue(f.OpenInterest)
	m["contractMonth"] = StringValue(f.ContractMonth)
	m["tickValue"] = NumberValue(f.TickValue)
	if !f.LastTradeTime.IsZero() {
		m["lastTradePrice"] = NumberValue(f.LastTradePrice)
		m["lastTradeSize"] = NumberValue(f.LastTradeSize)
		m["lastTradeTime"] = TimestampValue(f.LastTradeTime)
	}
}
