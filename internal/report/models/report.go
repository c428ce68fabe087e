// Package models aggregates the admin report from a snapshot of volunteers,
// opportunities and enrollments. Aggregate is pure: the same snapshot and
// clock always give the same report.
package models

import (
	"fmt"
	"slices"
	"time"

	enrollment "volunteerhub/internal/enrollment/models"
	opportunity "volunteerhub/internal/opportunity/models"
	user "volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
)

const (
	// SeriesMonths is the length of both time series, current month included.
	SeriesMonths = 6

	minAge     = 10
	maxAge     = 80
	bucketSize = 10
)

// Snapshot is the raw data the report is computed from. The three lists are
// loaded independently and need not be mutually consistent.
type Snapshot struct {
	Volunteers    []*user.Profile            `json:"volunteers"`
	Opportunities []*opportunity.Opportunity `json:"opportunities"`
	Enrollments   []*enrollment.Enrollment   `json:"enrollments"`
}

type Count struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Report struct {
	Gender            []Count   `json:"gender"`
	Age               []Count   `json:"age"`
	ResidentialStatus []Count   `json:"residential_status"`
	Preferences       []Count   `json:"preferences"`
	Opportunities     []Count   `json:"opportunities"`
	Attendance        []Count   `json:"attendance"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Aggregate computes the report as of now. Calendar arithmetic (ages and
// months) happens in now's location.
func Aggregate(s Snapshot, now time.Time) Report {
	return Report{
		Gender:            genders(s.Volunteers),
		Age:               ages(s.Volunteers, now),
		ResidentialStatus: statuses(s.Volunteers),
		Preferences:       preferences(s.Volunteers),
		Opportunities:     opportunitySeries(s.Opportunities, now),
		Attendance:        attendanceSeries(s.Opportunities, s.Enrollments, now),
		GeneratedAt:       now,
	}
}

func genders(volunteers []*user.Profile) []Count {
	out := []Count{
		{Key: string(user.GenderMale), Label: "Male"},
		{Key: string(user.GenderFemale), Label: "Female"},
	}
	for _, v := range volunteers {
		switch v.Gender {
		case user.GenderMale:
			out[0].Count++
		case user.GenderFemale:
			out[1].Count++
		}
	}
	return out
}

// ages buckets into [10,20) ... [70,80); ages outside [10,80) are dropped.
func ages(volunteers []*user.Profile, now time.Time) []Count {
	out := make([]Count, 0, (maxAge-minAge)/bucketSize)
	for lo := minAge; lo < maxAge; lo += bucketSize {
		label := fmt.Sprintf("%d-%d", lo, lo+bucketSize)
		out = append(out, Count{Key: label, Label: label})
	}
	for _, v := range volunteers {
		age := user.AgeAt(v.DateOfBirth, now)
		if age < minAge || age >= maxAge {
			continue
		}
		out[(age-minAge)/bucketSize].Count++
	}
	return out
}

// statuses counts per residential status code, ordered by code.
func statuses(volunteers []*user.Profile) []Count {
	counts := make(map[user.ResidentialStatus]int)
	for _, v := range volunteers {
		if v.ResidentialStatus != "" {
			counts[v.ResidentialStatus]++
		}
	}
	out := make([]Count, 0, len(counts))
	for status, n := range counts {
		out = append(out, Count{Key: string(status), Label: status.Label(), Count: n})
	}
	slices.SortFunc(out, func(a, b Count) int {
		switch {
		case a.Key < b.Key:
			return -1
		case a.Key > b.Key:
			return 1
		}
		return 0
	})
	return out
}

// preferences counts every occurrence; all known tags are listed, zero or not.
func preferences(volunteers []*user.Profile) []Count {
	index := make(map[user.Preference]int, len(user.AllPreferences))
	out := make([]Count, len(user.AllPreferences))
	for i, p := range user.AllPreferences {
		index[p] = i
		out[i] = Count{Key: string(p), Label: p.Label()}
	}
	for _, v := range volunteers {
		for _, p := range v.Preferences {
			if i, ok := index[p]; ok {
				out[i].Count++
			}
		}
	}
	return out
}

// MonthsBetween is (ny-ty)*12 + (nm-tm) with both instants in now's location.
// Zero is the current month; negative values are in the future.
func MonthsBetween(t, now time.Time) int {
	t = t.In(now.Location())
	return (now.Year()-t.Year())*12 + int(now.Month()) - int(t.Month())
}

// emptySeries labels the trailing months oldest first, e.g. "January 2026".
func emptySeries(now time.Time) []Count {
	out := make([]Count, SeriesMonths)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := range out {
		m := first.AddDate(0, i-(SeriesMonths-1), 0)
		out[i] = Count{Key: m.Format("2006-01"), Label: m.Format("January 2006")}
	}
	return out
}

func bump(series []Count, start, now time.Time) {
	diff := MonthsBetween(start, now)
	if diff < 0 || diff >= SeriesMonths {
		return
	}
	series[SeriesMonths-1-diff].Count++
}

func opportunitySeries(opps []*opportunity.Opportunity, now time.Time) []Count {
	out := emptySeries(now)
	for _, o := range opps {
		bump(out, o.Start, now)
	}
	return out
}

// attendanceSeries counts attended enrollments by their opportunity's start
// month. Enrollments whose opportunity is missing from the snapshot are skipped.
func attendanceSeries(opps []*opportunity.Opportunity, enrollments []*enrollment.Enrollment, now time.Time) []Count {
	starts := make(map[id.OpportunityID]time.Time, len(opps))
	for _, o := range opps {
		starts[o.ID] = o.Start
	}
	out := emptySeries(now)
	for _, e := range enrollments {
		if !e.DidAttend {
			continue
		}
		if start, ok := starts[e.OpportunityID]; ok {
			bump(out, start, now)
		}
	}
	return out
}
