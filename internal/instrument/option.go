package instrument

import "time"

// FloorOptionPremium is the minimum premium an option can settle to.
const FloorOptionPremium = 0.001

// OptionType enumerates call/put.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// OptionFields holds the payload specific to a listed option.
type OptionFields struct {
	UnderlyingID   string
	Strike         float64
	OptionType     OptionType
	Premium        float64
	IntrinsicValue float64
	TimeValue      float64
	ImpliedVol     float64
	Delta          float64
	Gamma          float64
	Theta          float64
	Vega           float64
	Rho            float64
	LastTradePrice float64
	LastTradeSize  float64
	LastTradeTime  time.Time
	Expiry         time.Time
}

func (f *OptionFields) fieldMap(m map[string]FieldValue) {
	m["underlyingId"] = StringValue(f.UnderlyingID)
	m["strike"] = NumberValue(f.Strike)
	m["optionType"] = EnumValue(string(f.OptionType))
	m["premium"] = NumberValue(f.Premium)
	m["intrinsicValue"] = NumberValue(f.IntrinsicValue)
	m["timeValue"] = NumberValue(f.TimeValue)
	m["impliedVol"] = NumberValue(f.ImpliedVol)
	m["delta"] = NumberValue(f.Delta)
	m["gamma"] = NumberValue(f.Gamma)
	m["theta"] = NumberValue(f.Theta)
	m["vega"] = NumberValue(f.Vega)
	m["rho"] = NumberValue(f.Rho)
	m["expiry"] = TimestampValue(f.Expiry)
	if !f.LastTradeTime.IsZero() {
		m["lastTradePrice"] = NumberValue(f.LastTradePrice)
		m["lastTradeSize"] = NumberValue(f.LastTradeSize)
		m["lastTradeTime"] = TimestampValue(f.LastTradeTime)
	}
}
