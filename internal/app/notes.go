package app

import (
	"alcyxob/totalfit/internal/domain"
	"time"
)

// StampNotes appends a dated entry header, e.g. "\n[19/10/2026]: ", to notes.
func StampNotes(notes string, now time.Time) string {
	stamp := "\n[" + now.Format(domain.DisplayDateLayout) + "]: "
	if notes != "" {
		return notes + "\n" + stamp
	}
	return stamp
}
