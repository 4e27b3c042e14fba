package adminapi

import (
	"time"

	"github.com/deltafeed/deltafeed/internal/instrument"
)

// createInstrumentRequest is the POST /instruments body. Exactly one of
// Bond/Swap/Future/Option should be populated, selected by Kind.
type createInstrumentRequest struct {
	ID       string `json:"id" binding:"required"`
	Kind     string `json:"kind" binding:"required,oneof=Bond Swap Future Option"`
	Sector   string `json:"sector" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Rating   string `json:"rating"`
	Status   string `json:"status" binding:"omitempty,oneof=ACTIVE HALTED CLOSED"`

	Bond   *bondDTO   `json:"bond,omitempty"`
	Swap   *swapDTO   `json:"swap,omitempty"`
	Future *futureDTO `json:"future,omitempty"`
	Option *optionDTO `json:"option,omitempty"`
}

type bondDTO struct {
	Price      float64   `json:"price"`
	Yield      float64   `json:"yield"`
	BidPrice   float64   `json:"bidPrice"`
	AskPrice   float64   `json:"askPrice"`
	CouponRate float64   `json:"couponRate"`
	Maturity   time.Time `json:"maturity"`
	FaceValue  float64   `json:"faceValue" binding:"required,gt=0"`
}

type swapDTO struct {
	SwapRate      float64 `json:"swapRate" binding:"required,gt=0"`
	Notional      float64 `json:"notional"`
	Tenor         string  `json:"tenor"`
	FloatingIndex string  `json:"floatingIndex"`
}

type futureDTO struct {
	Price         float64 `json:"price" binding:"required,gt=0"`
	ContractMonth string  `json:"contractMonth"`
	TickValue     float64 `json:"tickValue"`
}

type optionDTO struct {
	UnderlyingID string    `json:"underlyingId" binding:"required"`
	Strike       float64   `json:"strike" binding:"required,gt=0"`
	OptionType   string    `json:"optionType" binding:"required,oneof=call put"`
	Premium      float64   `json:"premium" binding:"required,gt=0"`
	ImpliedVol   float64   `json:"impliedVol" binding:"required,gt=0"`
	Delta        float64   `json:"delta"`
	Gamma        float64   `json:"gamma"`
	Theta        float64   `json:"theta"`
	Vega         float64   `json:"vega"`
	Rho          float64   `json:"rho"`
	Expiry       time.Time `json:"expiry"`
}

func (req *createInstrumentRequest) toInstrument() *instrument.Instrument {
	in := &instrument.Instrument{
		ID:         req.ID,
		Kind:       instrument.Kind(req.Kind),
		Sector:     req.Sector,
		Currency:   req.Currency,
		Rating:     req.Rating,
		Status:     instrument.StatusActive,
		LastUpdate: time.Now(),
	}
	if req.Status != "" {
		in.Status = instrument.Status(req.Status)
	}

	switch in.Kind {
	case instrument.KindBond:
		if req.Bond != nil {
			in.Bond = &instrument.BondFields{
				Price: req.Bond.Price, Yield: req.Bond.Yield,
				BidPrice: req.Bond.BidPrice, AskPrice: req.Bond.AskPrice,
				CouponRate: req.Bond.CouponRate, Maturity: req.Bond.Maturity,
				FaceValue: req.Bond.FaceValue,
			}
		} else {
			in.Bond = &instrument.BondFields{}
		}
	case instrument.KindSwap:
		if req.Swap != nil {
			in.Swap = &instrument.SwapFields{
				SwapRate: req.Swap.SwapRate, Notional: req.Swap.Notional,
				Tenor: req.Swap.Tenor, FloatingIndex: req.Swap.FloatingIndex,
			}
		} else {
			in.Swap = &instrument.SwapFields{}
		}
	case instrument.KindFuture:
		if req.Future != nil {
			in.Future = &instrument.FutureFields{
				Price: req.Future.Price, ContractMonth: req.Future.ContractMonth,
				TickValue: req.Future.TickValue,
			}
		} else {
			in.Future = &instrument.FutureFields{}
		}
	case instrument.KindOption:
		if req.Option != nil {
			in.Option = &instrument.OptionFields{
				UnderlyingID: req.Option.UnderlyingID, Strike: req.Option.Strike,
				OptionType: instrument.OptionType(req.Option.OptionType),
				Premium:    req.Option.Premium, ImpliedVol: req.Option.ImpliedVol,
				Delta: req.Option.Delta, Gamma: req.Option.Gamma,
				Theta: req.Option.Theta, Vega: req.Option.Vega, Rho: req.Option.Rho,
				Expiry: req.Option.Expiry,
			}
		} else {
			in.Option = &instrument.OptionFields{}
		}
	}
	return in
}

// patchInstrumentRequest is the PATCH /instruments/:id body: any set field
// is merged into the existing instrument.
type patchInstrumentRequest struct {
	Sector   *string `json:"sector,omitempty"`
	Currency *string `json:"currency,omitempty"`
	Rating   *string `json:"rating,omitempty"`
	Status   *string `json:"status,omitempty" binding:"omitempty,oneof=ACTIVE HALTED CLOSED"`
}

func (req *patchInstrumentRequest) apply(in *instrument.Instrument) {
	if req.Sector != nil {
		in.Sector = *req.Sector
	}
	if req.Currency != nil {
		in.Currency = *req.Currency
	}
	if req.Rating != nil {
		in.Rating = *req.Rating
	}
	if req.Status != nil {
		in.Status = instrument.Status(*req.Status)
	}
	in.LastUpdate = time.Now()
}

// runtimeConfigRequest is the PATCH /config/runtime body.
type runtimeConfigRequest struct {
	MaxUpdatesPerSecond *float64 `json:"maxUpdatesPerSecond,omitempty" binding:"omitempty,gt=0"`
	BucketSize          *float64 `json:"bucketSize,omitempty" binding:"omitempty,gt=0"`
}
