package holiday

import "time"

// Holiday is one entry of the workplace holiday calendar.
type Holiday struct {
	ID   string
	Name string
	Date time.Time
}
