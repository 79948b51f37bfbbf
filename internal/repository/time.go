package repository

import "time"

// dbTimeLayout is the format used when writing DATETIME columns.
// Values are always stored in UTC.  Reads do not need the layout: both
// drivers hand timestamps back as time.Time, the MySQL driver through
// parseTime=true in the DSN and the SQLite driver by converting
// DATETIME-declared columns itself.
const dbTimeLayout = "2006-01-02 15:04:05"

// formatTime renders a timestamp into DB form, normalising to UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(dbTimeLayout)
}
