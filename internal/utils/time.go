package utils

import (
	"time"

	_ "time/tzdata"
)

var klLoc *time.Location

func init() {
	loc, err := time.LoadLocation("Asia/Kuala_Lumpur")
	if err != nil {
		// tzdata is linked in, so this only happens with a corrupted build.
		loc = time.FixedZone("MYT", 8*60*60)
	}
	klLoc = loc
}

// KLLoc returns the Kuala Lumpur time zone location. The embedded tzdata
// keeps behavior consistent even on minimal systems.
func KLLoc() *time.Location {
	return klLoc
}

func NowKL() time.Time {
	return time.Now().In(klLoc)
}

// DateTimeKL returns a string like "2025/08/31 16:40" (in KL time).
func DateTimeKL(t time.Time) string {
	return t.In(klLoc).Format("2006/01/02 15:04")
}

// DateKL formats the date part only, in ledger entry_date form.
func DateKL(t time.Time) string {
	return t.In(klLoc).Format("2006-01-02")
}
