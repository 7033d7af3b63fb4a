package fulfillment

import "regexp"

// stateCodes — таблица «название штата → код провайдера».
var stateCodes = map[string]string{
	"Alabama":        "AL",
	"Alaska":         "AK",
	"Arizona":        "AZ",
	"Arkansas":       "AR",
	"California":     "CA",
	"Colorado":       "CO",
	"Connecticut":    "CT",
	"Delaware":       "DE",
	"Florida":        "FL",
	"Georgia":        "GA",
	"Hawaii":         "HI",
	"Idaho":          "ID",
	"Illinois":       "IL",
	"Indiana":        "IN",
	"Iowa":           "IA",
	"Kansas":         "KS",
	"Kentucky":       "KY",
	"Louisiana":      "LA",
	"Maine":          "ME",
	"Maryland":       "MD",
	"Massachusetts":  "MA",
	"Michigan":       "MI",
	"Minnesota":      "MN",
	"Mississippi":    "MS",
	"Missouri":       "MO",
	"Montana":        "MT",
	"Nebraska":       "NE",
	"Nevada":         "NV",
	"New Hampshire":  "NH",
	"New Jersey":     "NJ",
	"New Mexico":     "NM",
	"New York":       "NY",
	"North Carolina": "NC",
	"North Dakota":   "ND",
	"Ohio":           "OH",
	"Oklahoma":       "OK",
	"Oregon":         "OR",
	"Pennsylvania":   "PA",
	"Rhode Island":   "RI",
	"South Carolina": "SC",
	"South Dakota":   "SD",
	"Tennessee":      "TN",
	"Texas":          "TX",
	"Utah":           "UT",
	"Vermont":        "VT",
	"Virginia":       "VA",
	"Washington":     "WA",
	"West Virginia":  "WV",
	"Wisconsin":      "WI",
	"Wyoming":        "WY",
}

// countryCodes — таблица «название страны → ISO-код».
var countryCodes = map[string]string{
	"United States":            "US",
	"United States of America": "US",
	"USA":                      "US",
	"Canada":                   "CA",
	"United Kingdom":           "GB",
	"Australia":                "AU",
	"New Zealand":              "NZ",
	"Germany":                  "DE",
	"France":                   "FR",
	"Italy":                    "IT",
	"Spain":                    "ES",
	"Netherlands":              "NL",
	"Belgium":                  "BE",
	"Switzerland":              "CH",
	"Austria":                  "AT",
	"Sweden":                   "SE",
	"Norway":                   "NO",
	"Denmark":                  "DK",
	"Finland":                  "FI",
	"Ireland":                  "IE",
	"Portugal":                 "PT",
}

var twoLetterCode = regexp.MustCompile(`^[A-Z]{2}$`)

// StateCode переводит название штата в код провайдера.
// Готовый двухбуквенный код проходит без изменений; неизвестное название
// возвращается как есть — решение о валидности остаётся за провайдером.
// Второе возвращаемое значение — нашлось ли соответствие.
func StateCode(state string) (string, bool) {
	if twoLetterCode.MatchString(state) {
		return state, true
	}
	if code, ok := stateCodes[state]; ok {
		return code, true
	}
	return state, false
}

// CountryCode переводит название страны в ISO-код; неизвестные значения
// проходят без изменений.
func CountryCode(country string) string {
	if code, ok := countryCodes[country]; ok {
		return code
	}
	return country
}
