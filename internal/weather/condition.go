package weather

// Condition ids follow the OpenWeatherMap taxonomy:
// 2xx thunderstorm, 3xx drizzle, 5xx rain, 6xx snow, 7xx atmosphere,
// 800 clear, 80x clouds. 0 means unknown.

// ConditionUnknownID is stored when the provider code is outside the taxonomy.
const ConditionUnknownID = 0

// ConditionID maps a provider condition code onto the internal id taxonomy.
func ConditionID(code int) int {
	switch {
	case code >= 200 && code <= 232,
		code >= 300 && code <= 321,
		code >= 500 && code <= 531,
		code >= 600 && code <= 622,
		code >= 701 && code <= 781,
		code >= 800 && code <= 804:
		return code
	default:
		return ConditionUnknownID
	}
}

// ConditionFor groups a condition id into a high-level category.
func ConditionFor(id int) Condition {
	switch {
	case id >= 200 && id <= 232:
		return ConditionStorm
	case id >= 300 && id <= 531:
		return ConditionRain
	case id >= 600 && id <= 622:
		return ConditionSnow
	case id >= 701 && id <= 781:
		return ConditionMist
	case id == 800:
		return ConditionClear
	case id >= 801 && id <= 804:
		return ConditionCloudy
	default:
		return ConditionUnknown
	}
}

var conditionText = map[int]string{
	200: "Thunderstorm with light rain",
	201: "Thunderstorm with rain",
	202: "Thunderstorm with heavy rain",
	210: "Light thunderstorm",
	211: "Thunderstorm",
	212: "Heavy thunderstorm",
	300: "Light drizzle",
	301: "Drizzle",
	302: "Heavy drizzle",
	500: "Light rain",
	501: "Moderate rain",
	502: "Heavy rain",
	503: "Intense rain",
	504: "Extreme rain",
	511: "Freezing rain",
	520: "Light shower rain",
	521: "Shower rain",
	522: "Heavy shower rain",
	600: "Light snow",
	601: "Snow",
	602: "Heavy snow",
	611: "Sleet",
	615: "Light rain and snow",
	616: "Rain and snow",
	620: "Light shower snow",
	621: "Shower snow",
	622: "Heavy shower snow",
	701: "Mist",
	711: "Smoke",
	721: "Haze",
	731: "Sand, dust whirls",
	741: "Fog",
	751: "Sand",
	761: "Dust",
	762: "Volcanic ash",
	771: "Squalls",
	781: "Tornado",
	800: "Clear",
	801: "Mostly clear",
	802: "Scattered clouds",
	803: "Broken clouds",
	804: "Overcast clouds",
}

var categoryText = map[Condition]string{
	ConditionStorm:  "Storm",
	ConditionRain:   "Rain",
	ConditionSnow:   "Snow",
	ConditionMist:   "Fog",
	ConditionClear:  "Clear",
	ConditionCloudy: "Clouds",
}

// DescribeCondition returns display text for a condition id, falling back to
// the category name for ids without a specific description.
func DescribeCondition(id int) string {
	if s, ok := conditionText[id]; ok {
		return s
	}
	if s, ok := categoryText[ConditionFor(id)]; ok {
		return s
	}
	return "Unknown"
}

// ConditionIcon returns the icon name used by notification and device sinks.
func ConditionIcon(id int) string {
	return "ic_" + string(ConditionFor(id))
}
