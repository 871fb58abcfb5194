package db

import "time"

// Student represents a database student record
type Student struct {
	ID        int
	Name      string
	Email     string
	Seniority string
}

// Section represents a database section record
type Section struct {
	ID           int
	Title        string
	Capacity     int
	CreditWeight float64
}

// Preference represents a student's ranked request for a section
type Preference struct {
	StudentID int
	SectionID int
	Rank      int // 0 is the most wanted
	Required  bool
}

// Enrollment represents a seat granted by an enrollment run
type Enrollment struct {
	RunID     string
	SectionID int
	StudentID int
}

// WaitlistEntry represents a waitlist position recorded by an enrollment run
type WaitlistEntry struct {
	RunID     string
	SectionID int
	StudentID int
	Position  int // 0 is first in line
}

// EnrollmentRun represents a database enrollment run record
type EnrollmentRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Policy          string
	Seed            *int64
	EnrolledCount   int
	WaitlistedCount int
	UnplacedCount   int
	LookupMisses    int
}
