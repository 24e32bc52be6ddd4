package models

// DailyStats is one day's worth of a counted metric (registrations, exports)
// for the admin dashboard charts.
type DailyStats struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
