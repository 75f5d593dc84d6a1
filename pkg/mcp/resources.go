package mcp

import (
	"encoding/json"
	"fmt"
)

// RegisterResources adds the static discovery resources to reg.
func RegisterResources(reg *Registry) {
	reg.RegisterResource(&Resource{
		URI:         "geoip://schema",
		Name:        "Response schema",
		Description: "Field reference for lookup responses.",
		MIMEType:    "application/json",
		Read: func() string {
			return mustJSON(map[string]any{
				"simple": []string{
					"ip", "city", "state_prov", "country_name", "country_code2",
					"latitude", "longitude", "time_zone", "languages",
				},
				"full": []string{
					"ip", "continent_code", "continent_name", "country_code2",
					"country_code3", "country_name", "country_capital", "state_prov",
					"city", "zipcode", "latitude", "longitude", "is_eu",
					"calling_code", "country_tld", "languages", "country_flag",
					"currency", "time_zone",
				},
			})
		},
	})

	reg.RegisterResource(&Resource{
		URI:         "geoip://data-source",
		Name:        "Data source",
		Description: "Where the location data comes from.",
		MIMEType:    "application/json",
		Read: func() string {
			return mustJSON(map[string]string{
				"database":  "MaxMind GeoLite2 City",
				"timezones": "IANA tzdata via embedded boundary polygons",
				"license":   "https://www.maxmind.com/en/geolite2/eula",
			})
		},
	})

	reg.RegisterResource(&Resource{
		URI:         "geoip://limits",
		Name:        "Limits",
		Description: "Operational limits of the lookup tools.",
		MIMEType:    "application/json",
		Read: func() string {
			return mustJSON(map[string]any{
				"bulk_lookup_max": BulkLimit,
				"note":            fmt.Sprintf("geoip_bulk_lookup rejects batches larger than %d addresses", BulkLimit),
			})
		},
	})

	reg.RegisterResource(&Resource{
		URI:         "geoip://privacy",
		Name:        "Privacy",
		Description: "What the server retains about queries.",
		MIMEType:    "application/json",
		Read: func() string {
			return mustJSON(map[string]string{
				"retention": "Lookup results are cached in memory with a bounded TTL and never persisted.",
				"logging":   "Request logs carry addresses only at debug level.",
			})
		},
	})
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
