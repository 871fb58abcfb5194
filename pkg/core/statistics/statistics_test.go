package statistics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
)

// buildSystem creates three sections and four students:
// Ada holds Algebra+Biology (2 credits), Alan holds Algebra (1), Grace and Edsger hold nothing.
// Chemistry has a waitlist of three, Biology a waitlist of one.
func buildSystem(t *testing.T) (*coursesystem.CourseSystem, map[string]*model.Section) {
	t.Helper()

	cs := coursesystem.New()
	algebra := model.NewSection(1, "Algebra", 2, 1)
	biology := model.NewSection(2, "Biology", 1, 1)
	chemistry := model.NewSection(3, "Chemistry", 0, 1)
	for _, s := range []*model.Section{algebra, biology, chemistry} {
		require.NoError(t, cs.AddSection(s))
	}

	ada := model.NewStudent(10, "Ada", model.Senior)
	ada.AddPreference(algebra, true)
	ada.AddPreference(biology, false)
	alan := model.NewStudent(11, "Alan", model.Junior)
	alan.AddPreference(algebra, false)
	alan.AddPreference(chemistry, false)
	grace := model.NewStudent(12, "Grace", model.Freshman)
	grace.AddPreference(chemistry, false)
	grace.AddPreference(biology, false)
	edsger := model.NewStudent(13, "Edsger", model.Freshman)
	edsger.AddPreference(chemistry, false)
	for _, s := range []*model.Student{ada, alan, grace, edsger} {
		require.NoError(t, cs.AddStudent(s))
	}

	require.True(t, cs.Enroll(ada, algebra))
	require.True(t, cs.Enroll(ada, biology))
	require.True(t, cs.Enroll(alan, algebra))
	cs.AddToWaitlist(grace, biology)
	cs.AddToWaitlist(alan, chemistry)
	cs.AddToWaitlist(grace, chemistry)
	cs.AddToWaitlist(edsger, chemistry)

	return cs, map[string]*model.Section{"algebra": algebra, "biology": biology, "chemistry": chemistry}
}

func TestCountUnderEnrolledStudents(t *testing.T) {
	cs, _ := buildSystem(t)

	assert.Equal(t, 3, CountUnderEnrolledStudents(cs, 2))
	assert.Equal(t, 2, CountUnderEnrolledStudents(cs, 1))
	assert.Equal(t, 0, CountUnderEnrolledStudents(cs, 0))
}

func TestFindLongestWaitlists(t *testing.T) {
	cs, sections := buildSystem(t)

	long := FindLongestWaitlists(cs, 1)
	require.Len(t, long, 2)
	assert.Equal(t, sections["chemistry"], long[0].Section)
	assert.Equal(t, 3, long[0].Count)
	assert.Equal(t, sections["biology"], long[1].Section)
	assert.Equal(t, 1, long[1].Count)

	assert.Len(t, FindLongestWaitlists(cs, 3), 1)
	assert.Empty(t, FindLongestWaitlists(cs, 4))
}

func TestCountSectionsWithLongWaitlist(t *testing.T) {
	cs, _ := buildSystem(t)

	assert.Equal(t, 2, CountSectionsWithLongWaitlist(cs, 1))
	assert.Equal(t, 1, CountSectionsWithLongWaitlist(cs, 2))
	assert.Equal(t, 0, CountSectionsWithLongWaitlist(cs, 5))
}

func TestMostRequestedSections(t *testing.T) {
	cs, sections := buildSystem(t)

	ranked := MostRequestedSections(cs, 2)
	require.Len(t, ranked, 2)
	assert.Equal(t, sections["chemistry"], ranked[0].Section)
	assert.Equal(t, 3, ranked[0].Count)
	// Algebra and Biology tie on two requests; lower id wins
	assert.Equal(t, sections["algebra"], ranked[1].Section)
	assert.Equal(t, 2, ranked[1].Count)
}

func TestMostRequestedSections_SkipsUnrequested(t *testing.T) {
	cs := coursesystem.New()
	require.NoError(t, cs.AddSection(model.NewSection(1, "Algebra", 1, 1)))
	require.NoError(t, cs.AddStudent(model.NewStudent(1, "Ada", model.Senior)))

	assert.Empty(t, MostRequestedSections(cs, 3))
}

func TestBuildReport(t *testing.T) {
	cs, _ := buildSystem(t)

	report := BuildReport(cs, Thresholds{MinCredits: 2, LargeWaitlistSize: 3, MostRequestedCount: 1})

	assert.Equal(t, 4, report.Students)
	assert.Equal(t, 3, report.Sections)
	assert.Equal(t, 3, report.Enrolled)
	assert.Equal(t, 4, report.Waitlisted)
	assert.Equal(t, 2, report.UnplacedStudents)
	assert.Equal(t, 3, report.UnderEnrolled)
	assert.Equal(t, 1, report.LongWaitlistCount)
	assert.Equal(t, 0, report.SectionsWithSpace)
	assert.InDelta(t, 0.75, report.AverageCreditLoad, 1e-9)
	require.Len(t, report.MostRequested, 1)
	assert.Equal(t, "Chemistry", report.MostRequested[0].Section.Title)

	text := report.String()
	assert.Contains(t, text, "Students enrolled in fewer than 2.00 credits: 3")
	assert.Contains(t, text, "Sections with a waitlist of 3 or more: 1")
	assert.Contains(t, text, "3 Chemistry (3 requests)")
	assert.Contains(t, text, "3 Chemistry has a waitlist of 3")
}

func TestBuildReport_Empty(t *testing.T) {
	report := BuildReport(coursesystem.New(), Thresholds{MinCredits: 4, LargeWaitlistSize: 5, MostRequestedCount: 3})

	assert.Zero(t, report.Students)
	assert.Zero(t, report.AverageCreditLoad)
	assert.NotContains(t, report.String(), "Most requested")
}
