// Package models describes the content printed on a completion certificate.
package models

import (
	"fmt"
	"time"
)

const dateLayout = "02/01/2006"

// Certificate is everything a renderer needs; it carries no storage ids.
type Certificate struct {
	VolunteerName   string
	OpportunityName string
	Hours           int
	Start           time.Time
	End             time.Time
	GeneratedAt     time.Time
}

// DatePhrase reads "on 02/01/2026" for a single-day opportunity and
// "from 02/01/2026 to 04/01/2026" otherwise. Dates are taken in loc.
func (c Certificate) DatePhrase(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	start := c.Start.In(loc).Format(dateLayout)
	end := c.End.In(loc).Format(dateLayout)
	if start == end {
		return "on " + start
	}
	return fmt.Sprintf("from %s to %s", start, end)
}

// HoursPhrase is singular for exactly one hour.
func (c Certificate) HoursPhrase() string {
	if c.Hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", c.Hours)
}
