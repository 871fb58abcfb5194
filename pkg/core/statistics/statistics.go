// Package statistics summarises the outcome of an enrollment run held in a CourseSystem.
package statistics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// SectionCount pairs a section with a count (waitlist length or request count)
type SectionCount struct {
	Section *model.Section
	Count   int
}

// CountUnderEnrolledStudents returns the number of students holding fewer than minCredits
func CountUnderEnrolledStudents(cs *coursesystem.CourseSystem, minCredits float64) int {
	count := 0
	for _, student := range cs.Students() {
		if cs.EnrolledCredits(student) < minCredits {
			count++
		}
	}
	return count
}

// CountSectionsWithLongWaitlist returns the number of sections whose waitlist has at least size entries
func CountSectionsWithLongWaitlist(cs *coursesystem.CourseSystem, size int) int {
	return len(FindLongestWaitlists(cs, size))
}

// FindLongestWaitlists returns the sections whose waitlist has at least size entries,
// longest first and then by section id
func FindLongestWaitlists(cs *coursesystem.CourseSystem, size int) []SectionCount {
	var long []SectionCount
	for _, section := range cs.Sections() {
		if len(section.Waitlist) >= size {
			long = append(long, SectionCount{Section: section, Count: len(section.Waitlist)})
		}
	}

	sortByCountDesc(long)
	return long
}

// MostRequestedSections returns up to n sections ranked by how many preference lists
// name them, ties broken by section id. Sections nobody asked for are left out.
func MostRequestedSections(cs *coursesystem.CourseSystem, n int) []SectionCount {
	requests := make(map[int]int)
	for _, student := range cs.Students() {
		for _, pref := range student.Preferences {
			if pref.Section != nil {
				requests[pref.Section.ID]++
			}
		}
	}

	var ranked []SectionCount
	for _, section := range cs.Sections() {
		if requests[section.ID] > 0 {
			ranked = append(ranked, SectionCount{Section: section, Count: requests[section.ID]})
		}
	}

	sortByCountDesc(ranked)
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func sortByCountDesc(counts []SectionCount) {
	slices.SortStableFunc(counts, func(a, b SectionCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Section.ID, b.Section.ID)
	})
}

// Thresholds parameterise a Report
type Thresholds struct {
	MinCredits         float64
	LargeWaitlistSize  int
	MostRequestedCount int
}

// Report is the summary shown after a run
type Report struct {
	Thresholds

	Students          int
	Sections          int
	Enrolled          int
	Waitlisted        int
	UnplacedStudents  int
	UnderEnrolled     int
	LongWaitlistCount int
	LongestWaitlists  []SectionCount
	MostRequested     []SectionCount
	SectionsWithSpace int
	AverageCreditLoad float64
}

// BuildReport gathers every statistic for the course system
func BuildReport(cs *coursesystem.CourseSystem, thresholds Thresholds) *Report {
	report := &Report{
		Thresholds: thresholds,
		Students:   len(cs.Students()),
		Sections:   len(cs.Sections()),
	}

	// Seat counts
	for _, section := range cs.Sections() {
		report.Enrolled += len(section.Enrolled)
		report.Waitlisted += len(section.Waitlist)
		if section.HasOpenSeat() {
			report.SectionsWithSpace++
		}
	}

	// Student loads
	totalCredits := 0.0
	for _, student := range cs.Students() {
		credits := cs.EnrolledCredits(student)
		totalCredits += credits
		if credits == 0 {
			report.UnplacedStudents++
		}
	}
	if report.Students > 0 {
		report.AverageCreditLoad = totalCredits / float64(report.Students)
	}

	report.UnderEnrolled = CountUnderEnrolledStudents(cs, thresholds.MinCredits)
	report.LongestWaitlists = FindLongestWaitlists(cs, thresholds.LargeWaitlistSize)
	report.LongWaitlistCount = len(report.LongestWaitlists)
	report.MostRequested = MostRequestedSections(cs, thresholds.MostRequestedCount)

	return report
}

// String renders the report for the terminal
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Students: %d, sections: %d\n", r.Students, r.Sections)
	fmt.Fprintf(&b, "Seats granted: %d, waitlist entries: %d\n", r.Enrolled, r.Waitlisted)
	fmt.Fprintf(&b, "Average credit load: %.2f\n", r.AverageCreditLoad)
	fmt.Fprintf(&b, "Students with no seat: %d\n", r.UnplacedStudents)
	fmt.Fprintf(&b, "Students enrolled in fewer than %.2f credits: %d\n", r.MinCredits, r.UnderEnrolled)
	fmt.Fprintf(&b, "Sections with open seats: %d\n", r.SectionsWithSpace)
	fmt.Fprintf(&b, "Sections with a waitlist of %d or more: %d\n", r.LargeWaitlistSize, r.LongWaitlistCount)

	if len(r.MostRequested) > 0 {
		b.WriteString("\nMost requested sections:\n")
		for _, sc := range r.MostRequested {
			fmt.Fprintf(&b, "  %d %s (%d requests)\n", sc.Section.ID, sc.Section.Title, sc.Count)
		}
	}

	if len(r.LongestWaitlists) > 0 {
		b.WriteString("\nSections with long waitlists:\n")
		for _, sc := range r.LongestWaitlists {
			fmt.Fprintf(&b, "  %d %s has a waitlist of %d\n", sc.Section.ID, sc.Section.Title, sc.Count)
		}
	}

	return b.String()
}
