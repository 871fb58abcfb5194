package coursesystem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/section-allocator/pkg/core/model"
)

func TestAddStudent_Duplicate(t *testing.T) {
	cs := New()
	require.NoError(t, cs.AddStudent(model.NewStudent(1, "Alice", model.Junior)))

	err := cs.AddStudent(model.NewStudent(1, "Alice again", model.Senior))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEntity))
	assert.Contains(t, err.Error(), "student 1")
	assert.Len(t, cs.Students(), 1)
}

func TestAddSection_Duplicate(t *testing.T) {
	cs := New()
	require.NoError(t, cs.AddSection(model.NewSection(7, "Math", 10, 1)))

	err := cs.AddSection(model.NewSection(7, "Art", 10, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateEntity))
	assert.Contains(t, err.Error(), "section 7")
	assert.Len(t, cs.Sections(), 1)
}

func TestLookups(t *testing.T) {
	cs := New(WithMaxCredits(3))
	alice := model.NewStudent(1, "Alice", model.Junior)
	math := model.NewSection(2, "Math", 10, 1)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddSection(math))

	found, ok := cs.Student(1)
	assert.True(t, ok)
	assert.Same(t, alice, found)

	section, ok := cs.Section(2)
	assert.True(t, ok)
	assert.Same(t, math, section)

	_, ok = cs.Section(99)
	assert.False(t, ok)
	assert.Equal(t, 3.0, cs.MaxCredits())
}

func TestEnroll_Success(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	math := model.NewSection(1, "Math", 2, 1.5)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddSection(math))

	assert.True(t, cs.Enroll(alice, math))
	assert.True(t, cs.IsEnrolled(alice, math))
	assert.Equal(t, 1.5, cs.EnrolledCredits(alice))
	assert.Equal(t, []*model.Section{math}, cs.EnrolledSections(alice))
}

func TestEnroll_AlreadyEnrolled(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	math := model.NewSection(1, "Math", 2, 1)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddSection(math))

	require.True(t, cs.Enroll(alice, math))
	assert.False(t, cs.Enroll(alice, math))
	assert.Len(t, math.Enrolled, 1)
	assert.Equal(t, 1.0, cs.EnrolledCredits(alice))
}

func TestEnroll_SectionFull(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	bob := model.NewStudent(2, "Bob", model.Junior)
	math := model.NewSection(1, "Math", 1, 1)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddStudent(bob))
	require.NoError(t, cs.AddSection(math))

	require.True(t, cs.Enroll(alice, math))
	assert.False(t, cs.SectionHasSpace(math))
	assert.False(t, cs.Enroll(bob, math))
	assert.Equal(t, 0.0, cs.EnrolledCredits(bob))
}

func TestEnroll_ZeroCapacity(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	closed := model.NewSection(1, "Closed", 0, 1)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddSection(closed))

	assert.False(t, cs.Enroll(alice, closed))
	assert.Empty(t, closed.Enrolled)
}

func TestEnroll_Unregistered(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	math := model.NewSection(1, "Math", 5, 1)
	require.NoError(t, cs.AddSection(math))

	// Alice was never added
	assert.False(t, cs.Enroll(alice, math))
	assert.Empty(t, math.Enrolled)

	require.NoError(t, cs.AddStudent(alice))
	art := model.NewSection(2, "Art", 5, 1)
	assert.False(t, cs.Enroll(alice, art))
	assert.False(t, cs.Enroll(alice, nil))
}

func TestEnroll_CreditCap(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	require.NoError(t, cs.AddStudent(alice))

	sections := []*model.Section{
		model.NewSection(1, "A", 5, 2),
		model.NewSection(2, "B", 5, 2),
		model.NewSection(3, "C", 5, 2),
		model.NewSection(4, "D", 5, 1),
	}
	for _, s := range sections {
		require.NoError(t, cs.AddSection(s))
	}

	assert.True(t, cs.Enroll(alice, sections[0]))
	assert.True(t, cs.Enroll(alice, sections[1]))

	// 4 + 2 would exceed the cap of 5
	assert.False(t, cs.Enroll(alice, sections[2]))
	assert.True(t, cs.StudentHasSpace(alice))

	// 4 + 1 lands exactly on the cap
	assert.True(t, cs.Enroll(alice, sections[3]))
	assert.Equal(t, 5.0, cs.EnrolledCredits(alice))
	assert.True(t, cs.HasMaxCredits(alice))
	assert.False(t, cs.StudentHasSpace(alice))
}

func TestEnroll_FractionalCreditsReachCap(t *testing.T) {
	cs := New(WithMaxCredits(1))
	alice := model.NewStudent(1, "Alice", model.Junior)
	require.NoError(t, cs.AddStudent(alice))

	// 0.1 summed ten times is not exactly 1.0 in floating point
	for i := 0; i < 10; i++ {
		section := model.NewSection(i, "Lab", 1, 0.1)
		require.NoError(t, cs.AddSection(section))
		require.True(t, cs.Enroll(alice, section), "lab %d", i)
	}
	assert.True(t, cs.HasMaxCredits(alice))
}

func TestAddToWaitlist_Idempotent(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	bob := model.NewStudent(2, "Bob", model.Junior)
	math := model.NewSection(1, "Math", 0, 1)
	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddStudent(bob))
	require.NoError(t, cs.AddSection(math))

	cs.AddToWaitlist(alice, math)
	cs.AddToWaitlist(bob, math)
	cs.AddToWaitlist(alice, math)

	assert.Equal(t, []*model.Student{alice, bob}, math.Waitlist)
	assert.Equal(t, []*model.Section{math}, cs.WaitlistedSections(bob))
}

func TestAddSection_CountsExistingEnrollment(t *testing.T) {
	cs := New()
	alice := model.NewStudent(1, "Alice", model.Junior)
	math := model.NewSection(1, "Math", 5, 2.5)
	math.Enrolled = append(math.Enrolled, alice)

	require.NoError(t, cs.AddStudent(alice))
	require.NoError(t, cs.AddSection(math))

	assert.Equal(t, 2.5, cs.EnrolledCredits(alice))
}
