package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/section-allocator/pkg/core/coursesystem"
	"github.com/jakechorley/section-allocator/pkg/core/model"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// mockRosterReader implements RosterReader
type mockRosterReader struct {
	roster *sheetsclient.Roster
	err    error
}

func (m *mockRosterReader) ReadRoster(ctx context.Context, cfg *config.Config) (*sheetsclient.Roster, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.roster, nil
}

func validRoster() *sheetsclient.Roster {
	return &sheetsclient.Roster{
		Sections: []db.Section{
			{ID: 1, Title: "Algebra", Capacity: 1, CreditWeight: 1},
			{ID: 2, Title: "Biology", Capacity: 2, CreditWeight: 1},
		},
		Students: []db.Student{
			{ID: 10, Name: "Ada", Seniority: "senior"},
			{ID: 11, Name: "Alan", Seniority: " Freshman "},
		},
		Preferences: []db.Preference{
			{StudentID: 10, SectionID: 1, Rank: 0},
			{StudentID: 10, SectionID: 2, Rank: 1},
			{StudentID: 11, SectionID: 2, Rank: 0},
		},
	}
}

func TestImportRoster_ReplacesStore(t *testing.T) {
	store := &mockStore{}
	reader := &mockRosterReader{roster: validRoster()}

	roster, err := ImportRoster(context.Background(), reader, store, &config.Config{}, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, store.replaceCalls)
	assert.Len(t, store.sections, 2)
	assert.Len(t, store.preferences, 3)
	// Seniority normalised
	assert.Equal(t, "Senior", store.students[0].Seniority)
	assert.Equal(t, "Freshman", store.students[1].Seniority)
	assert.Equal(t, roster.Students, store.students)
}

func TestImportRoster_ReadError(t *testing.T) {
	store := &mockStore{}
	reader := &mockRosterReader{err: errors.New("quota exceeded")}

	_, err := ImportRoster(context.Background(), reader, store, &config.Config{}, zap.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read roster")
	assert.Zero(t, store.replaceCalls)
}

func TestImportRoster_InvalidRosterNotStored(t *testing.T) {
	roster := validRoster()
	roster.Students = append(roster.Students, db.Student{ID: 10, Name: "Ada again", Seniority: "Junior"})
	store := &mockStore{}

	_, err := ImportRoster(context.Background(), &mockRosterReader{roster: roster}, store, &config.Config{}, zap.NewNop())
	assert.ErrorIs(t, err, coursesystem.ErrDuplicateEntity)
	assert.Zero(t, store.replaceCalls)
}

func TestValidateRoster(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *sheetsclient.Roster)
		wantErr error
	}{
		{
			name:    "no sections",
			mutate:  func(r *sheetsclient.Roster) { r.Sections = nil },
			wantErr: ErrNoSections,
		},
		{
			name:    "no students",
			mutate:  func(r *sheetsclient.Roster) { r.Students = nil },
			wantErr: ErrNoStudents,
		},
		{
			name: "duplicate section",
			mutate: func(r *sheetsclient.Roster) {
				r.Sections = append(r.Sections, db.Section{ID: 2, Title: "Chemistry", Capacity: 1, CreditWeight: 1})
			},
			wantErr: coursesystem.ErrDuplicateEntity,
		},
		{
			name:    "unknown seniority",
			mutate:  func(r *sheetsclient.Roster) { r.Students[1].Seniority = "Graduate" },
			wantErr: model.ErrUnknownSeniority,
		},
		{
			name: "preference for unknown student",
			mutate: func(r *sheetsclient.Roster) {
				r.Preferences = append(r.Preferences, db.Preference{StudentID: 99, SectionID: 1, Rank: 0})
			},
			wantErr: ErrUnknownReference,
		},
		{
			name: "preference for unknown section",
			mutate: func(r *sheetsclient.Roster) {
				r.Preferences = append(r.Preferences, db.Preference{StudentID: 11, SectionID: 99, Rank: 1})
			},
			wantErr: ErrUnknownReference,
		},
		{
			name: "repeated rank",
			mutate: func(r *sheetsclient.Roster) {
				r.Preferences = append(r.Preferences, db.Preference{StudentID: 11, SectionID: 1, Rank: 0})
			},
			wantErr: coursesystem.ErrDuplicateEntity,
		},
		{
			name: "repeated section",
			mutate: func(r *sheetsclient.Roster) {
				r.Preferences = append(r.Preferences, db.Preference{StudentID: 11, SectionID: 2, Rank: 1})
			},
			wantErr: coursesystem.ErrDuplicateEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roster := validRoster()
			tt.mutate(roster)

			err := ValidateRoster(roster)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateRoster_StudentWithoutPreferences(t *testing.T) {
	roster := validRoster()
	roster.Students = append(roster.Students, db.Student{ID: 12, Name: "Grace", Seniority: "Junior"})

	assert.NoError(t, ValidateRoster(roster))
}
