package sheetsclient

import (
	"context"
	"fmt"
	"strings"
)

// SectionRoster is one section's published enrollment outcome
type SectionRoster struct {
	SectionID int
	Title     string
	Capacity  int
	Enrolled  []string // Student names in enrollment order
	Waitlist  []string // Student names in waitlist order
}

// PublishedRosters represents the complete published roster for an enrollment run
type PublishedRosters struct {
	TabTitle string
	Sections []SectionRoster
}

var rosterHeader = []interface{}{"Section", "Title", "Capacity", "Enrolled", "Waitlist"}

// PublishRosters writes the rosters to their own tab, creating it if missing and
// replacing its contents otherwise
func (c *Client) PublishRosters(ctx context.Context, spreadsheetID string, rosters *PublishedRosters) error {
	exists, err := c.TabExists(ctx, spreadsheetID, rosters.TabTitle)
	if err != nil {
		return err
	}

	if exists {
		if err := c.ClearTab(ctx, spreadsheetID, rosters.TabTitle); err != nil {
			return err
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, rosters.TabTitle); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.WriteValues(ctx, spreadsheetID, fmt.Sprintf("%s!A1", rosters.TabTitle), buildRosterValues(rosters)); err != nil {
		return fmt.Errorf("failed to write rosters: %w", err)
	}

	return nil
}

// buildRosterValues lays out one row per section; waitlisted names are numbered by position
func buildRosterValues(rosters *PublishedRosters) [][]interface{} {
	values := make([][]interface{}, 0, len(rosters.Sections)+1)
	values = append(values, rosterHeader)

	for _, section := range rosters.Sections {
		waitlist := make([]string, len(section.Waitlist))
		for i, name := range section.Waitlist {
			waitlist[i] = fmt.Sprintf("%d. %s", i+1, name)
		}

		values = append(values, []interface{}{
			section.SectionID,
			section.Title,
			section.Capacity,
			strings.Join(section.Enrolled, "\n"),
			strings.Join(waitlist, "\n"),
		})
	}

	return values
}
