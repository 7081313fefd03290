package domain

// DateFormat is the layout used for calendar-day keys. All day boundaries
// are computed in UTC.
const DateFormat = "2006-01-02"

// QuotaSnapshot is a read-only view of the daily surfacing log. Reading a
// snapshot triggers the rollover transition first, so Date always equals the
// current UTC day.
type QuotaSnapshot struct {
	Date                string `json:"date"`
	SurfacedCount       int    `json:"surfaced_count"`
	LastSurfacedMatchID string `json:"last_surfaced_match_id,omitempty"`
	Limit               int    `json:"limit"`
}

// Exhausted reports whether the daily surfacing limit has been reached.
func (s QuotaSnapshot) Exhausted() bool {
	return s.SurfacedCount >= s.Limit
}
