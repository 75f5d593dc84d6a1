package codec

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/vpetersson/ipgeolocation/pkg/lookup"
)

// Hand-rolled protobuf wire encoding for the response records. Field
// numbers are part of the public contract and must not be renumbered.
//
// GeoRecord:
//	1 ip, 2 city, 3 state_prov, 4 country_name, 5 country_code2,
//	6 latitude (fixed64), 7 longitude (fixed64), 8 time_zone, 9 languages
//
// GeoRecordFull:
//	1 ip, 2 continent_code, 3 continent_name, 4 country_code2,
//	5 country_code3, 6 country_name, 7 country_capital, 8 state_prov,
//	9 city, 10 zipcode, 11 latitude (fixed64), 12 longitude (fixed64),
//	13 is_eu (varint), 14 calling_code, 15 country_tld, 16 languages,
//	17 country_flag, 18 currency (message), 19 time_zone (message)
//
// Currency: 1 code, 2 name, 3 symbol
//
// TimezoneInfo:
//	1 name, 2 abbreviation, 3 offset (sint), 4 offset_string,
//	5 is_dst (varint), 6 dst_exists (varint), 7 dst_savings (varint),
//	8 current_time, 9 current_time_unix (sint)
//
// TimezoneRecord: 1 latitude (fixed64), 2 longitude (fixed64), 3 timezone (message)
//
// ErrorBody: 1 error, 2 code
//
// Zero values are omitted, proto3 style. Floats ride as raw IEEE-754
// bits so decode reproduces them exactly.

func appendBinary(b []byte, v any) ([]byte, bool) {
	switch rec := v.(type) {
	case *lookup.GeoRecord:
		return AppendGeoRecord(b, rec), true
	case *lookup.GeoRecordFull:
		return AppendGeoRecordFull(b, rec), true
	case *lookup.TimezoneRecord:
		return AppendTimezoneRecord(b, rec), true
	case *ErrorBody:
		return AppendErrorBody(b, rec), true
	}
	return nil, false
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if len(s) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendDouble(b []byte, num protowire.Number, f float64) []byte {
	if f == 0 && !math.Signbit(f) {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(f))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

func AppendGeoRecord(b []byte, rec *lookup.GeoRecord) []byte {
	b = appendString(b, 1, rec.IP)
	b = appendString(b, 2, rec.City)
	b = appendString(b, 3, rec.StateProv)
	b = appendString(b, 4, rec.CountryName)
	b = appendString(b, 5, rec.CountryCode)
	b = appendDouble(b, 6, rec.Latitude)
	b = appendDouble(b, 7, rec.Longitude)
	b = appendString(b, 8, rec.TimeZone)
	b = appendString(b, 9, rec.Languages)
	return b
}

func AppendGeoRecordFull(b []byte, rec *lookup.GeoRecordFull) []byte {
	b = appendString(b, 1, rec.IP)
	b = appendString(b, 2, rec.ContinentCode)
	b = appendString(b, 3, rec.ContinentName)
	b = appendString(b, 4, rec.CountryCode2)
	b = appendString(b, 5, rec.CountryCode3)
	b = appendString(b, 6, rec.CountryName)
	b = appendString(b, 7, rec.CountryCapital)
	b = appendString(b, 8, rec.StateProv)
	b = appendString(b, 9, rec.City)
	b = appendString(b, 10, rec.Zipcode)
	b = appendDouble(b, 11, rec.Latitude)
	b = appendDouble(b, 12, rec.Longitude)
	b = appendBool(b, 13, rec.IsEU)
	b = appendString(b, 14, rec.CallingCode)
	b = appendString(b, 15, rec.CountryTLD)
	b = appendString(b, 16, rec.Languages)
	b = appendString(b, 17, rec.CountryFlag)
	if c := rec.Currency; c != nil {
		b = appendMessage(b, 18, appendCurrency(nil, c))
	}
	if tz := rec.TimeZone; tz != nil {
		b = appendMessage(b, 19, appendTimezoneInfo(nil, tz))
	}
	return b
}

func appendCurrency(b []byte, c *lookup.Currency) []byte {
	b = appendString(b, 1, c.Code)
	b = appendString(b, 2, c.Name)
	b = appendString(b, 3, c.Symbol)
	return b
}

func appendTimezoneInfo(b []byte, tz *lookup.TimezoneInfo) []byte {
	b = appendString(b, 1, tz.Name)
	b = appendString(b, 2, tz.Abbreviation)
	b = appendSint(b, 3, int64(tz.Offset))
	b = appendString(b, 4, tz.OffsetString)
	b = appendBool(b, 5, tz.IsDST)
	b = appendBool(b, 6, tz.DSTExists)
	b = appendSint(b, 7, int64(tz.DSTSavings))
	b = appendString(b, 8, tz.CurrentTime)
	b = appendSint(b, 9, tz.CurrentTimeUnix)
	return b
}

func AppendTimezoneRecord(b []byte, rec *lookup.TimezoneRecord) []byte {
	b = appendDouble(b, 1, rec.Latitude)
	b = appendDouble(b, 2, rec.Longitude)
	if rec.TimeZone != nil {
		b = appendMessage(b, 3, appendTimezoneInfo(nil, rec.TimeZone))
	}
	return b
}

func AppendErrorBody(b []byte, e *ErrorBody) []byte {
	b = appendString(b, 1, e.Error)
	b = appendString(b, 2, e.Code)
	return b
}

// fieldVisitor consumes one field value; it is handed the wire type so
// mismatched fields fail decoding instead of being silently misread.
type fieldVisitor func(num protowire.Number, typ protowire.Type, b []byte) (int, error)

func walkFields(b []byte, visit fieldVisitor) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n, err := visit(num, typ, b)
		if err != nil {
			return err
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
	}
	return nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, fmt.Errorf("expected bytes wire type, got %d", typ)
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return n, nil
	}
	*dst = v
	return n, nil
}

func consumeDouble(typ protowire.Type, b []byte, dst *float64) (int, error) {
	if typ != protowire.Fixed64Type {
		return 0, fmt.Errorf("expected fixed64 wire type, got %d", typ)
	}
	v, n := protowire.ConsumeFixed64(b)
	if n < 0 {
		return n, nil
	}
	*dst = math.Float64frombits(v)
	return n, nil
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("expected varint wire type, got %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = v != 0
	return n, nil
}

func consumeSint(typ protowire.Type, b []byte, dst *int64) (int, error) {
	if typ != protowire.VarintType {
		return 0, fmt.Errorf("expected varint wire type, got %d", typ)
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return n, nil
	}
	*dst = protowire.DecodeZigZag(v)
	return n, nil
}

func ParseGeoRecord(b []byte) (*lookup.GeoRecord, error) {
	rec := new(lookup.GeoRecord)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &rec.IP)
		case 2:
			return consumeString(typ, b, &rec.City)
		case 3:
			return consumeString(typ, b, &rec.StateProv)
		case 4:
			return consumeString(typ, b, &rec.CountryName)
		case 5:
			return consumeString(typ, b, &rec.CountryCode)
		case 6:
			return consumeDouble(typ, b, &rec.Latitude)
		case 7:
			return consumeDouble(typ, b, &rec.Longitude)
		case 8:
			return consumeString(typ, b, &rec.TimeZone)
		case 9:
			return consumeString(typ, b, &rec.Languages)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func ParseGeoRecordFull(b []byte) (*lookup.GeoRecordFull, error) {
	rec := new(lookup.GeoRecordFull)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &rec.IP)
		case 2:
			return consumeString(typ, b, &rec.ContinentCode)
		case 3:
			return consumeString(typ, b, &rec.ContinentName)
		case 4:
			return consumeString(typ, b, &rec.CountryCode2)
		case 5:
			return consumeString(typ, b, &rec.CountryCode3)
		case 6:
			return consumeString(typ, b, &rec.CountryName)
		case 7:
			return consumeString(typ, b, &rec.CountryCapital)
		case 8:
			return consumeString(typ, b, &rec.StateProv)
		case 9:
			return consumeString(typ, b, &rec.City)
		case 10:
			return consumeString(typ, b, &rec.Zipcode)
		case 11:
			return consumeDouble(typ, b, &rec.Latitude)
		case 12:
			return consumeDouble(typ, b, &rec.Longitude)
		case 13:
			return consumeBool(typ, b, &rec.IsEU)
		case 14:
			return consumeString(typ, b, &rec.CallingCode)
		case 15:
			return consumeString(typ, b, &rec.CountryTLD)
		case 16:
			return consumeString(typ, b, &rec.Languages)
		case 17:
			return consumeString(typ, b, &rec.CountryFlag)
		case 18:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			c, err := parseCurrency(v)
			if err != nil {
				return 0, err
			}
			rec.Currency = c
			return n, nil
		case 19:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			tz, err := parseTimezoneInfo(v)
			if err != nil {
				return 0, err
			}
			rec.TimeZone = tz
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func parseCurrency(b []byte) (*lookup.Currency, error) {
	c := new(lookup.Currency)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &c.Code)
		case 2:
			return consumeString(typ, b, &c.Name)
		case 3:
			return consumeString(typ, b, &c.Symbol)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func parseTimezoneInfo(b []byte) (*lookup.TimezoneInfo, error) {
	tz := new(lookup.TimezoneInfo)
	var offset, savings int64
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &tz.Name)
		case 2:
			return consumeString(typ, b, &tz.Abbreviation)
		case 3:
			return consumeSint(typ, b, &offset)
		case 4:
			return consumeString(typ, b, &tz.OffsetString)
		case 5:
			return consumeBool(typ, b, &tz.IsDST)
		case 6:
			return consumeBool(typ, b, &tz.DSTExists)
		case 7:
			return consumeSint(typ, b, &savings)
		case 8:
			return consumeString(typ, b, &tz.CurrentTime)
		case 9:
			return consumeSint(typ, b, &tz.CurrentTimeUnix)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	tz.Offset = int(offset)
	tz.DSTSavings = int(savings)
	return tz, nil
}

func ParseTimezoneRecord(b []byte) (*lookup.TimezoneRecord, error) {
	rec := new(lookup.TimezoneRecord)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeDouble(typ, b, &rec.Latitude)
		case 2:
			return consumeDouble(typ, b, &rec.Longitude)
		case 3:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n, nil
			}
			tz, err := parseTimezoneInfo(v)
			if err != nil {
				return 0, err
			}
			rec.TimeZone = tz
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func ParseErrorBody(b []byte) (*ErrorBody, error) {
	e := new(ErrorBody)
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			return consumeString(typ, b, &e.Error)
		case 2:
			return consumeString(typ, b, &e.Code)
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}
