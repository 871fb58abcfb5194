package sheetsclient

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jakechorley/section-allocator/internal/config"
	"github.com/jakechorley/section-allocator/pkg/db"
)

// Expected column names in the roster tabs
var (
	sectionFields    = []string{"Section ID", "Title", "Capacity", "Credits"}
	studentFields    = []string{"Student ID", "Name", "Email", "Seniority"}
	preferenceFields = []string{"Student ID", "Section ID", "Rank", "Required"}
)

// Roster is the raw content of the roster spreadsheet
type Roster struct {
	Sections    []db.Section
	Students    []db.Student
	Preferences []db.Preference
}

// ReadRoster retrieves and parses the sections, students and preferences tabs
func (c *Client) ReadRoster(ctx context.Context, cfg *config.Config) (*Roster, error) {
	sectionValues, err := c.GetValues(ctx, cfg.RosterSheetID, cfg.SectionsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get section data: %w", err)
	}
	sections, err := parseSections(sectionValues)
	if err != nil {
		return nil, fmt.Errorf("failed to parse sections: %w", err)
	}

	studentValues, err := c.GetValues(ctx, cfg.RosterSheetID, cfg.StudentsTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get student data: %w", err)
	}
	students, err := parseStudents(studentValues)
	if err != nil {
		return nil, fmt.Errorf("failed to parse students: %w", err)
	}

	preferenceValues, err := c.GetValues(ctx, cfg.RosterSheetID, cfg.PreferencesTab)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference data: %w", err)
	}
	preferences, err := parsePreferences(preferenceValues)
	if err != nil {
		return nil, fmt.Errorf("failed to parse preferences: %w", err)
	}

	return &Roster{
		Sections:    sections,
		Students:    students,
		Preferences: preferences,
	}, nil
}

// rowReader resolves named columns against a header row
type rowReader struct {
	fieldIndexes map[string]int
}

func newRowReader(raw [][]interface{}, fields []string) (*rowReader, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("no header row found")
	}

	fieldIndexes := make(map[string]int, len(fields))
	for _, field := range fields {
		index := findColumnIndex(raw[0], field)
		if index == -1 {
			return nil, fmt.Errorf("missing required field in header: %s", field)
		}
		fieldIndexes[field] = index
	}

	return &rowReader{fieldIndexes: fieldIndexes}, nil
}

func (r *rowReader) get(field string, row []interface{}) string {
	index, ok := r.fieldIndexes[field]
	if !ok || index >= len(row) {
		return ""
	}
	if str, ok := row[index].(string); ok {
		return strings.TrimSpace(str)
	}
	return strings.TrimSpace(fmt.Sprint(row[index]))
}

func (r *rowReader) getInt(field string, row []interface{}, rowNum int) (int, error) {
	value, err := strconv.Atoi(r.get(field, row))
	if err != nil {
		return 0, fmt.Errorf("invalid %s in row %d: %w", field, rowNum, err)
	}
	return value, nil
}

// parseSections converts raw spreadsheet data into section records
func parseSections(raw [][]interface{}) ([]db.Section, error) {
	reader, err := newRowReader(raw, sectionFields)
	if err != nil {
		return nil, err
	}

	sections := make([]db.Section, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		// Skip empty rows
		if reader.get("Section ID", row) == "" {
			continue
		}

		id, err := reader.getInt("Section ID", row, i+1)
		if err != nil {
			return nil, err
		}
		capacity, err := reader.getInt("Capacity", row, i+1)
		if err != nil {
			return nil, err
		}
		if capacity < 0 {
			return nil, fmt.Errorf("negative capacity in row %d", i+1)
		}
		credits, err := strconv.ParseFloat(reader.get("Credits", row), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid Credits in row %d: %w", i+1, err)
		}
		if credits <= 0 {
			return nil, fmt.Errorf("credits must be positive in row %d", i+1)
		}

		sections = append(sections, db.Section{
			ID:           id,
			Title:        reader.get("Title", row),
			Capacity:     capacity,
			CreditWeight: credits,
		})
	}

	return sections, nil
}

// parseStudents converts raw spreadsheet data into student records
func parseStudents(raw [][]interface{}) ([]db.Student, error) {
	reader, err := newRowReader(raw, studentFields)
	if err != nil {
		return nil, err
	}

	students := make([]db.Student, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		if reader.get("Student ID", row) == "" {
			continue
		}

		id, err := reader.getInt("Student ID", row, i+1)
		if err != nil {
			return nil, err
		}

		students = append(students, db.Student{
			ID:        id,
			Name:      reader.get("Name", row),
			Email:     reader.get("Email", row),
			Seniority: reader.get("Seniority", row),
		})
	}

	return students, nil
}

// parsePreferences converts raw spreadsheet data into preference records
// Ranks are 1-based in the sheet and stored 0-based
func parsePreferences(raw [][]interface{}) ([]db.Preference, error) {
	reader, err := newRowReader(raw, preferenceFields)
	if err != nil {
		return nil, err
	}

	preferences := make([]db.Preference, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		if reader.get("Student ID", row) == "" {
			continue
		}

		studentID, err := reader.getInt("Student ID", row, i+1)
		if err != nil {
			return nil, err
		}
		sectionID, err := reader.getInt("Section ID", row, i+1)
		if err != nil {
			return nil, err
		}
		rank, err := reader.getInt("Rank", row, i+1)
		if err != nil {
			return nil, err
		}
		if rank < 1 {
			return nil, fmt.Errorf("rank must be at least 1 in row %d", i+1)
		}

		preferences = append(preferences, db.Preference{
			StudentID: studentID,
			SectionID: sectionID,
			Rank:      rank - 1,
			Required:  parseFlag(reader.get("Required", row)),
		})
	}

	return preferences, nil
}

// parseFlag treats TRUE, yes, y and x (any case) as set
func parseFlag(value string) bool {
	switch strings.ToLower(value) {
	case "true", "yes", "y", "x", "1":
		return true
	}
	return false
}

// findColumnIndex finds the index of a column by its header name
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && strings.TrimSpace(str) == columnName {
			return i
		}
	}
	return -1
}
