package service

import "time"

// SeasonName labels a travel date with its northern-hemisphere season.
func SeasonName(day time.Time) string {
	switch day.UTC().Month() {
	case time.December, time.January, time.February:
		return "Winter"
	case time.March, time.April, time.May:
		return "Spring"
	case time.June, time.July, time.August:
		return "Summer"
	default:
		return "Autumn"
	}
}
