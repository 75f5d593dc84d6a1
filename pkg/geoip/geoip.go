package geoip

import (
	"errors"
	"net/netip"
)

// ErrNotFound is returned when the database has no record for an address.
var ErrNotFound = errors.New("no record for address")

// Record is the database view of one address. Fields the database does
// not know are left zero.
type Record struct {
	Latitude        float64
	Longitude       float64
	AccuracyRadius  uint16
	City            string
	Continent       string
	ContinentCode   string
	Country         string
	CountryISO      string
	IsEU            bool
	Postal          string
	Subdivision     string
	SubdivisionCode string
	TimeZone        string
}

// Lookup resolves an address to its Record.
// Implementations must be safe for concurrent use.
type Lookup interface {
	Lookup(addr netip.Addr) (*Record, error)
}
