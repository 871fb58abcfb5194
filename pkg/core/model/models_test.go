package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeniority(t *testing.T) {
	tests := []struct {
		input    string
		expected Seniority
	}{
		{"Freshman", Freshman},
		{"sophomore", Sophomore},
		{" JUNIOR ", Junior},
		{"Senior", Senior},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			seniority, err := ParseSeniority(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seniority)
		})
	}
}

func TestParseSeniority_Unknown(t *testing.T) {
	_, err := ParseSeniority("Graduate")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownSeniority))
	assert.Contains(t, err.Error(), "Graduate")
}

func TestSeniority_RankFollowsClassYear(t *testing.T) {
	assert.Equal(t, 0, Freshman.Rank())
	assert.Equal(t, 3, Senior.Rank())
	assert.Less(t, Sophomore.Rank(), Junior.Rank())
	assert.Equal(t, "Junior", Junior.String())
	assert.False(t, Seniority(7).IsValid())
}

func TestStudent_PreferenceRank(t *testing.T) {
	math := NewSection(1, "Math", 10, 1)
	art := NewSection(2, "Art", 10, 1)
	history := NewSection(3, "History", 10, 1)

	student := NewStudent(1, "Alice", Junior)
	student.AddPreference(math, true)
	student.AddPreference(art, false)

	assert.Equal(t, 0, student.PreferenceRank(math))
	assert.Equal(t, 1, student.PreferenceRank(art))
	assert.Equal(t, -1, student.PreferenceRank(history))
	assert.Equal(t, -1, student.PreferenceRank(nil))
}

func TestStudent_PreferenceRankMatchesByID(t *testing.T) {
	math := NewSection(1, "Math", 10, 1)
	student := NewStudent(1, "Alice", Junior)
	student.AddPreference(math, true)

	// A distinct value with the same id is the same section
	sameMath := NewSection(1, "Math (copy)", 10, 1)
	assert.Equal(t, 0, student.PreferenceRank(sameMath))
}

func TestStudent_PreferenceRankOf(t *testing.T) {
	math := NewSection(1, "Math", 10, 1)
	art := NewSection(2, "Art", 10, 1)
	history := NewSection(3, "History", 10, 1)

	student := NewStudent(1, "Alice", Junior)
	student.AddPreference(math, true)
	student.AddPreference(art, false)

	assert.Equal(t, 1, student.PreferenceRankOf(Preference{Section: art, Required: false}))
	// Required flag differs, falls back to the section's rank
	assert.Equal(t, 1, student.PreferenceRankOf(Preference{Section: art, Required: true}))
	// Not a preference at all
	assert.Equal(t, -1, student.PreferenceRankOf(Preference{Section: history}))
	assert.Equal(t, -1, student.PreferenceRankOf(Preference{}))
}

func TestStudent_IsRequired(t *testing.T) {
	math := NewSection(1, "Math", 10, 1)
	art := NewSection(2, "Art", 10, 1)
	history := NewSection(3, "History", 10, 1)

	student := NewStudent(1, "Alice", Junior)
	student.AddPreference(math, true)
	student.AddPreference(art, false)

	assert.True(t, student.IsRequired(math))
	assert.False(t, student.IsRequired(art))
	assert.False(t, student.IsRequired(history))
}

func TestSection_Seats(t *testing.T) {
	section := NewSection(1, "Math", 2, 1)
	alice := NewStudent(1, "Alice", Junior)
	bob := NewStudent(2, "Bob", Senior)

	assert.Equal(t, 2, section.OpenSeats())
	section.Enrolled = append(section.Enrolled, alice)
	assert.True(t, section.HasOpenSeat())
	assert.True(t, section.IsEnrolled(alice))
	assert.False(t, section.IsEnrolled(bob))

	section.Enrolled = append(section.Enrolled, bob)
	assert.Equal(t, 0, section.OpenSeats())
	assert.False(t, section.HasOpenSeat())
}

func TestSection_NegativeCapacityHasNoSeats(t *testing.T) {
	section := NewSection(1, "Closed", -3, 1)
	assert.Equal(t, 0, section.OpenSeats())
	assert.False(t, section.HasOpenSeat())
}

func TestSection_WaitlistPosition(t *testing.T) {
	section := NewSection(1, "Math", 1, 1)
	alice := NewStudent(1, "Alice", Junior)
	bob := NewStudent(2, "Bob", Senior)
	section.Waitlist = append(section.Waitlist, bob, alice)

	assert.Equal(t, 0, section.WaitlistPosition(bob))
	assert.Equal(t, 1, section.WaitlistPosition(alice))
	assert.True(t, section.IsWaitlisted(alice))
	assert.Equal(t, "1:Math", section.String())
}
