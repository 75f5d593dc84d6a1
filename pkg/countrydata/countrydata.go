package countrydata

import "strings"

// Country is static ISO-3166 metadata keyed by the two-letter code.
type Country struct {
	ISO2           string
	ISO3           string
	Name           string
	Capital        string
	ContinentCode  string
	Continent      string
	CurrencyCode   string
	CurrencyName   string
	CurrencySymbol string
	CallingCode    string
	TLD            string
	Languages      []string
	EU             bool
}

// Get returns the metadata for a two-letter country code.
// The lookup is case-insensitive.
func Get(iso2 string) (*Country, bool) {
	c, ok := countries[strings.ToUpper(iso2)]
	return c, ok
}

// Languages returns the language codes spoken in a country, or nil for
// an unknown code.
func Languages(iso2 string) []string {
	c, ok := Get(iso2)
	if !ok {
		return nil
	}
	return c.Languages
}

// Flag returns the regional-indicator emoji for a two-letter code, or
// "" for malformed input.
func Flag(iso2 string) string {
	iso2 = strings.ToUpper(iso2)
	if len(iso2) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range iso2 {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + c - 'A')
	}
	return b.String()
}

var countries = map[string]*Country{
	"US": {"US", "USA", "United States", "Washington, D.C.", "NA", "North America", "USD", "US Dollar", "$", "+1", ".us", []string{"en"}, false},
	"CA": {"CA", "CAN", "Canada", "Ottawa", "NA", "North America", "CAD", "Canadian Dollar", "$", "+1", ".ca", []string{"en", "fr"}, false},
	"MX": {"MX", "MEX", "Mexico", "Mexico City", "NA", "North America", "MXN", "Mexican Peso", "$", "+52", ".mx", []string{"es"}, false},
	"BR": {"BR", "BRA", "Brazil", "Brasília", "SA", "South America", "BRL", "Brazilian Real", "R$", "+55", ".br", []string{"pt"}, false},
	"AR": {"AR", "ARG", "Argentina", "Buenos Aires", "SA", "South America", "ARS", "Argentine Peso", "$", "+54", ".ar", []string{"es"}, false},
	"CL": {"CL", "CHL", "Chile", "Santiago", "SA", "South America", "CLP", "Chilean Peso", "$", "+56", ".cl", []string{"es"}, false},
	"CO": {"CO", "COL", "Colombia", "Bogotá", "SA", "South America", "COP", "Colombian Peso", "$", "+57", ".co", []string{"es"}, false},
	"GB": {"GB", "GBR", "United Kingdom", "London", "EU", "Europe", "GBP", "Pound Sterling", "£", "+44", ".uk", []string{"en"}, false},
	"IE": {"IE", "IRL", "Ireland", "Dublin", "EU", "Europe", "EUR", "Euro", "€", "+353", ".ie", []string{"en", "ga"}, true},
	"FR": {"FR", "FRA", "France", "Paris", "EU", "Europe", "EUR", "Euro", "€", "+33", ".fr", []string{"fr"}, true},
	"DE": {"DE", "DEU", "Germany", "Berlin", "EU", "Europe", "EUR", "Euro", "€", "+49", ".de", []string{"de"}, true},
	"ES": {"ES", "ESP", "Spain", "Madrid", "EU", "Europe", "EUR", "Euro", "€", "+34", ".es", []string{"es"}, true},
	"PT": {"PT", "PRT", "Portugal", "Lisbon", "EU", "Europe", "EUR", "Euro", "€", "+351", ".pt", []string{"pt"}, true},
	"IT": {"IT", "ITA", "Italy", "Rome", "EU", "Europe", "EUR", "Euro", "€", "+39", ".it", []string{"it"}, true},
	"NL": {"NL", "NLD", "Netherlands", "Amsterdam", "EU", "Europe", "EUR", "Euro", "€", "+31", ".nl", []string{"nl"}, true},
	"BE": {"BE", "BEL", "Belgium", "Brussels", "EU", "Europe", "EUR", "Euro", "€", "+32", ".be", []string{"nl", "fr", "de"}, true},
	"CH": {"CH", "CHE", "Switzerland", "Bern", "EU", "Europe", "CHF", "Swiss Franc", "Fr", "+41", ".ch", []string{"de", "fr", "it", "rm"}, false},
	"AT": {"AT", "AUT", "Austria", "Vienna", "EU", "Europe", "EUR", "Euro", "€", "+43", ".at", []string{"de"}, true},
	"SE": {"SE", "SWE", "Sweden", "Stockholm", "EU", "Europe", "SEK", "Swedish Krona", "kr", "+46", ".se", []string{"sv"}, true},
	"NO": {"NO", "NOR", "Norway", "Oslo", "EU", "Europe", "NOK", "Norwegian Krone", "kr", "+47", ".no", []string{"no"}, false},
	"DK": {"DK", "DNK", "Denmark", "Copenhagen", "EU", "Europe", "DKK", "Danish Krone", "kr", "+45", ".dk", []string{"da"}, true},
	"FI": {"FI", "FIN", "Finland", "Helsinki", "EU", "Europe", "EUR", "Euro", "€", "+358", ".fi", []string{"fi", "sv"}, true},
	"PL": {"PL", "POL", "Poland", "Warsaw", "EU", "Europe", "PLN", "Polish Złoty", "zł", "+48", ".pl", []string{"pl"}, true},
	"CZ": {"CZ", "CZE", "Czechia", "Prague", "EU", "Europe", "CZK", "Czech Koruna", "Kč", "+420", ".cz", []string{"cs"}, true},
	"GR": {"GR", "GRC", "Greece", "Athens", "EU", "Europe", "EUR", "Euro", "€", "+30", ".gr", []string{"el"}, true},
	"RO": {"RO", "ROU", "Romania", "Bucharest", "EU", "Europe", "RON", "Romanian Leu", "lei", "+40", ".ro", []string{"ro"}, true},
	"UA": {"UA", "UKR", "Ukraine", "Kyiv", "EU", "Europe", "UAH", "Hryvnia", "₴", "+380", ".ua", []string{"uk"}, false},
	"RU": {"RU", "RUS", "Russia", "Moscow", "EU", "Europe", "RUB", "Russian Ruble", "₽", "+7", ".ru", []string{"ru"}, false},
	"TR": {"TR", "TUR", "Turkey", "Ankara", "AS", "Asia", "TRY", "Turkish Lira", "₺", "+90", ".tr", []string{"tr"}, false},
	"IL": {"IL", "ISR", "Israel", "Jerusalem", "AS", "Asia", "ILS", "New Israeli Shekel", "₪", "+972", ".il", []string{"he", "ar"}, false},
	"SA": {"SA", "SAU", "Saudi Arabia", "Riyadh", "AS", "Asia", "SAR", "Saudi Riyal", "﷼", "+966", ".sa", []string{"ar"}, false},
	"AE": {"AE", "ARE", "United Arab Emirates", "Abu Dhabi", "AS", "Asia", "AED", "UAE Dirham", "د.إ", "+971", ".ae", []string{"ar"}, false},
	"IN": {"IN", "IND", "India", "New Delhi", "AS", "Asia", "INR", "Indian Rupee", "₹", "+91", ".in", []string{"hi", "en"}, false},
	"PK": {"PK", "PAK", "Pakistan", "Islamabad", "AS", "Asia", "PKR", "Pakistani Rupee", "₨", "+92", ".pk", []string{"ur", "en"}, false},
	"BD": {"BD", "BGD", "Bangladesh", "Dhaka", "AS", "Asia", "BDT", "Taka", "৳", "+880", ".bd", []string{"bn"}, false},
	"CN": {"CN", "CHN", "China", "Beijing", "AS", "Asia", "CNY", "Yuan Renminbi", "¥", "+86", ".cn", []string{"zh"}, false},
	"JP": {"JP", "JPN", "Japan", "Tokyo", "AS", "Asia", "JPY", "Yen", "¥", "+81", ".jp", []string{"ja"}, false},
	"KR": {"KR", "KOR", "South Korea", "Seoul", "AS", "Asia", "KRW", "Won", "₩", "+82", ".kr", []string{"ko"}, false},
	"TW": {"TW", "TWN", "Taiwan", "Taipei", "AS", "Asia", "TWD", "New Taiwan Dollar", "NT$", "+886", ".tw", []string{"zh"}, false},
	"HK": {"HK", "HKG", "Hong Kong", "Hong Kong", "AS", "Asia", "HKD", "Hong Kong Dollar", "HK$", "+852", ".hk", []string{"zh", "en"}, false},
	"SG": {"SG", "SGP", "Singapore", "Singapore", "AS", "Asia", "SGD", "Singapore Dollar", "S$", "+65", ".sg", []string{"en", "ms", "ta", "zh"}, false},
	"MY": {"MY", "MYS", "Malaysia", "Kuala Lumpur", "AS", "Asia", "MYR", "Malaysian Ringgit", "RM", "+60", ".my", []string{"ms"}, false},
	"TH": {"TH", "THA", "Thailand", "Bangkok", "AS", "Asia", "THB", "Baht", "฿", "+66", ".th", []string{"th"}, false},
	"VN": {"VN", "VNM", "Vietnam", "Hanoi", "AS", "Asia", "VND", "Dong", "₫", "+84", ".vn", []string{"vi"}, false},
	"ID": {"ID", "IDN", "Indonesia", "Jakarta", "AS", "Asia", "IDR", "Rupiah", "Rp", "+62", ".id", []string{"id"}, false},
	"PH": {"PH", "PHL", "Philippines", "Manila", "AS", "Asia", "PHP", "Philippine Peso", "₱", "+63", ".ph", []string{"fil", "en"}, false},
	"AU": {"AU", "AUS", "Australia", "Canberra", "OC", "Oceania", "AUD", "Australian Dollar", "$", "+61", ".au", []string{"en"}, false},
	"NZ": {"NZ", "NZL", "New Zealand", "Wellington", "OC", "Oceania", "NZD", "New Zealand Dollar", "$", "+64", ".nz", []string{"en", "mi"}, false},
	"ZA": {"ZA", "ZAF", "South Africa", "Pretoria", "AF", "Africa", "ZAR", "Rand", "R", "+27", ".za", []string{"af", "en", "zu", "xh"}, false},
	"NG": {"NG", "NGA", "Nigeria", "Abuja", "AF", "Africa", "NGN", "Naira", "₦", "+234", ".ng", []string{"en"}, false},
	"EG": {"EG", "EGY", "Egypt", "Cairo", "AF", "Africa", "EGP", "Egyptian Pound", "£", "+20", ".eg", []string{"ar"}, false},
	"KE": {"KE", "KEN", "Kenya", "Nairobi", "AF", "Africa", "KES", "Kenyan Shilling", "Sh", "+254", ".ke", []string{"sw", "en"}, false},
	"MA": {"MA", "MAR", "Morocco", "Rabat", "AF", "Africa", "MAD", "Moroccan Dirham", "د.م.", "+212", ".ma", []string{"ar"}, false},
}
