package lookup

// GeoRecord is the compact answer for an address.
type GeoRecord struct {
	IP          string  `json:"ip"`
	City        string  `json:"city,omitempty"`
	StateProv   string  `json:"state_prov,omitempty"`
	CountryName string  `json:"country_name,omitempty"`
	CountryCode string  `json:"country_code2,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	TimeZone    string  `json:"time_zone,omitempty"`
	Languages   string  `json:"languages,omitempty"`
}

// GeoRecordFull is the v1 answer for an address, enriched with country
// metadata and the full timezone descriptor.
type GeoRecordFull struct {
	IP             string        `json:"ip"`
	ContinentCode  string        `json:"continent_code,omitempty"`
	ContinentName  string        `json:"continent_name,omitempty"`
	CountryCode2   string        `json:"country_code2,omitempty"`
	CountryCode3   string        `json:"country_code3,omitempty"`
	CountryName    string        `json:"country_name,omitempty"`
	CountryCapital string        `json:"country_capital,omitempty"`
	StateProv      string        `json:"state_prov,omitempty"`
	City           string        `json:"city,omitempty"`
	Zipcode        string        `json:"zipcode,omitempty"`
	Latitude       float64       `json:"latitude"`
	Longitude      float64       `json:"longitude"`
	IsEU           bool          `json:"is_eu"`
	CallingCode    string        `json:"calling_code,omitempty"`
	CountryTLD     string        `json:"country_tld,omitempty"`
	Languages      string        `json:"languages,omitempty"`
	CountryFlag    string        `json:"country_flag,omitempty"`
	Currency       *Currency     `json:"currency,omitempty"`
	TimeZone       *TimezoneInfo `json:"time_zone,omitempty"`
}

type Currency struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// TimezoneInfo describes a zone at the moment the response was built.
type TimezoneInfo struct {
	Name            string `json:"name"`
	Abbreviation    string `json:"abbreviation,omitempty"`
	Offset          int    `json:"offset"`
	OffsetString    string `json:"offset_string,omitempty"`
	IsDST           bool   `json:"is_dst"`
	DSTExists       bool   `json:"dst_exists"`
	DSTSavings      int    `json:"dst_savings,omitempty"`
	CurrentTime     string `json:"current_time,omitempty"`
	CurrentTimeUnix int64  `json:"current_time_unix,omitempty"`
}

// TimezoneRecord is the answer for a coordinate query.
type TimezoneRecord struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	TimeZone  *TimezoneInfo `json:"timezone"`
}
