package instrument

import "time"

// PriceFloorBond is the minimum price a bond price can settle to.
const PriceFloorBond = 0.1

// BondFields holds the payload specific to a fixed-coupon bond.
type BondFields struct {
	Price                float64
	Yield                float64
	BidPrice             float64
	AskPrice             float64
	DurationSensitivity  float64
	ConvexitySensitivity float64
	BidAskSpreadBp       float64
	LastTradePrice       float64
	LastTradeSize        float64
	LastTradeTime        time.Time
	CouponRate           float64
	Maturity             time.Time
	FaceValue            float64
}

func (f *BondFields) fieldMap(m map[string]FieldValue) {
	m["price"] = NumberValue(f.Price)
	m["yield"] = NumberValue(f.Yield)
	m["bidPrice"] = NumberValue(f.BidPrice)
	m["askPrice"] = NumberValue(f.AskPrice)
	m["durationSensitivity"] = NumberValue(f.DurationSensitivity)
	m["convexitySensitivity"] = NumberValue(f.ConvexitySensitivity)
	m["bidAskSpreadBp"] = NumberValue(f.BidAskSpreadBp)
	m["couponRate"] = NumberValue(f.CouponRate)
	m["maturity"] = TimestampValue(f.Maturity)
	m["faceValue"] = NumberValue(f.FaceValue)
	if !f.LastTradeTime.IsZero() {
		m["lastTradePrice"] = NumberValue(f.LastTradePrice)
		m["lastTradeSize"] = NumberValue(f.LastTradeSize)
		m["lastTradeTime"] = TimestampValue(f.LastTradeTime)
	}
}
