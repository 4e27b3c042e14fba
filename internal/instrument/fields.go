package instrument

import (
	"encoding/json"
	"time"
)

// FieldKind tags the type of a FieldValue so the Delta Engine can apply the
// matching equality rule from the field comparison contract.
type FieldKind int

const (
	FieldNumber FieldKind = iota
	FieldString
	FieldBool
	FieldTimestamp
	FieldEnum
)

// FieldValue is a typed value in an instrument's uniform field-map view.
type FieldValue struct {
	Kind FieldKind
	num  float64
	str  string
	b    bool
	ts   time.Time
}

func NumberValue(v float64) FieldValue    { return FieldValue{Kind: FieldNumber, num: v} }
func StringValue(v string) FieldValue     { return FieldValue{Kind: FieldString, str: v} }
func BoolValue(v bool) FieldValue         { return FieldValue{Kind: FieldBool, b: v} }
func TimestampValue(v time.Time) FieldValue { return FieldValue{Kind: FieldTimestamp, ts: v} }
func EnumValue(v string) FieldValue       { return FieldValue{Kind: FieldEnum, str: v} }

// Number returns the underlying float64, valid when Kind == FieldNumber.
func (v FieldValue) Number() float64 { return v.num }

// String returns the underlying string, valid when Kind is FieldString or FieldEnum.
func (v FieldValue) String() string { return v.str }

// Bool returns the underlying bool, valid when Kind == FieldBool.
func (v FieldValue) Bool() bool { return v.b }

// Time returns the underlying timestamp, valid when Kind == FieldTimestamp.
func (v FieldValue) Time() time.Time { return v.ts }

// Equal applies the equality rule appropriate to the value's kind: epoch-ms
// comparison for timestamps, plain == for every other primitive kind.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case FieldNumber:
		return v.num == other.num
	case FieldString, FieldEnum:
		return v.str == other.str
	case FieldBool:
		return v.b == other.b
	case FieldTimestamp:
		return v.ts.UnixMilli() == other.ts.UnixMilli()
	default:
		return false
	}
}

// MarshalJSON renders the value the way it appears on the wire: timestamps
// as epoch-ms integers, enumerations and strings as their string tag.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldNumber:
		return json.Marshal(v.num)
	case FieldString, FieldEnum:
		return json.Marshal(v.str)
	case FieldBool:
		return json.Marshal(v.b)
	case FieldTimestamp:
		return json.Marshal(v.ts.UnixMilli())
	default:
		return json.Marshal(nil)
	}
}

// FieldMap is the uniform field-name-to-value view the Delta Engine and
// Filter Evaluator operate on.
type FieldMap map[string]FieldValue

// FieldMap derives the uniform view of the instrument's header and
// kind-specific payload.
func (in *Instrument) FieldMap() FieldMap {
	m := make(FieldMap, 20)
	m["id"] = StringValue(in.ID)
	m["securityType"] = EnumValue(string(in.Kind))
	m["sector"] = StringValue(in.Sector)
	m["currency"] = StringValue(in.Currency)
	m["rating"] = StringValue(in.Rating)
	m["status"] = EnumValue(string(in.Status))
	m["lastUpdate"] = TimestampValue(in.LastUpdate)

	switch in.Kind {
	case KindBond:
		if in.Bond != nil {
			in.Bond.fieldMap(m)
		}
	case KindSwap:
		if in.Swap != nil {
			in.Swap.fieldMap(m)
		}
	case KindFuture:
		if in.Future != nil {
			in.Future.fieldMap(m)
		}
	case KindOption:
		if in.Option != nil {
			in.Option.fieldMap(m)
		}
	}
	return m
}
