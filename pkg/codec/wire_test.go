package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vpetersson/ipgeolocation/pkg/lookup"
)

func TestGeoRecord_round_trip(t *testing.T) {
	r := require.New(t)
	in := &lookup.GeoRecord{
		IP:          "8.8.8.8",
		City:        "Mountain View",
		StateProv:   "California",
		CountryName: "United States",
		CountryCode: "US",
		Latitude:    37.422,
		Longitude:   -122.085,
		TimeZone:    "America/Los_Angeles",
		Languages:   "en",
	}
	out, err := ParseGeoRecord(AppendGeoRecord(nil, in))
	r.NoError(err)
	r.Equal(in, out)
}

func TestGeoRecord_round_trip_sparse(t *testing.T) {
	r := require.New(t)
	in := &lookup.GeoRecord{IP: "1.1.1.1"}
	out, err := ParseGeoRecord(AppendGeoRecord(nil, in))
	r.NoError(err)
	r.Equal(in, out)
}

func TestGeoRecordFull_round_trip(t *testing.T) {
	r := require.New(t)
	in := &lookup.GeoRecordFull{
		IP:             "8.8.8.8",
		ContinentCode:  "NA",
		ContinentName:  "North America",
		CountryCode2:   "US",
		CountryCode3:   "USA",
		CountryName:    "United States",
		CountryCapital: "Washington, D.C.",
		StateProv:      "California",
		City:           "Mountain View",
		Zipcode:        "94043",
		Latitude:       37.422,
		Longitude:      -122.085,
		IsEU:           false,
		CallingCode:    "+1",
		CountryTLD:     ".us",
		Languages:      "en",
		CountryFlag:    "🇺🇸",
		Currency:       &lookup.Currency{Code: "USD", Name: "US Dollar", Symbol: "$"},
		TimeZone: &lookup.TimezoneInfo{
			Name:            "America/Los_Angeles",
			Abbreviation:    "PST",
			Offset:          -8 * 3600,
			OffsetString:    "-08:00",
			IsDST:           false,
			DSTExists:       true,
			DSTSavings:      3600,
			CurrentTime:     "2026-01-10 04:00:00",
			CurrentTimeUnix: 1768046400,
		},
	}
	out, err := ParseGeoRecordFull(AppendGeoRecordFull(nil, in))
	r.NoError(err)
	r.Equal(in, out)
}

func TestTimezoneRecord_round_trip(t *testing.T) {
	r := require.New(t)
	in := &lookup.TimezoneRecord{
		Latitude:  -33.8688,
		Longitude: 151.2093,
		TimeZone: &lookup.TimezoneInfo{
			Name:            "Australia/Sydney",
			Abbreviation:    "AEDT",
			Offset:          11 * 3600,
			OffsetString:    "+11:00",
			IsDST:           true,
			DSTExists:       true,
			DSTSavings:      3600,
			CurrentTime:     "2026-01-10 23:00:00",
			CurrentTimeUnix: 1768046400,
		},
	}
	out, err := ParseTimezoneRecord(AppendTimezoneRecord(nil, in))
	r.NoError(err)
	r.Equal(in, out)
}

func TestErrorBody_round_trip(t *testing.T) {
	r := require.New(t)
	in := &ErrorBody{Error: "Invalid IP address format", Code: "INVALID_IP"}
	out, err := ParseErrorBody(AppendErrorBody(nil, in))
	r.NoError(err)
	r.Equal(in, out)
}

func TestDouble_exact_bits(t *testing.T) {
	r := require.New(t)
	values := []float64{
		0.1 + 0.2, // not representable exactly in decimal
		math.Nextafter(37.422, 38),
		-math.MaxFloat64,
		math.SmallestNonzeroFloat64,
	}
	for _, f := range values {
		in := &lookup.TimezoneRecord{Latitude: f, Longitude: -f}
		out, err := ParseTimezoneRecord(AppendTimezoneRecord(nil, in))
		r.NoError(err)
		r.Equal(math.Float64bits(in.Latitude), math.Float64bits(out.Latitude))
		r.Equal(math.Float64bits(in.Longitude), math.Float64bits(out.Longitude))
	}
}

func TestParse_truncated(t *testing.T) {
	r := require.New(t)
	b := AppendGeoRecord(nil, &lookup.GeoRecord{IP: "8.8.8.8", City: "x"})
	_, err := ParseGeoRecord(b[:len(b)-1])
	r.Error(err)
}
