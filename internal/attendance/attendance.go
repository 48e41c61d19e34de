// Package attendance imports paired-session schedules from CSV files.
//
// Schedule format, one row per member per session:
//
//	date,member,present
//	2026-03-02,alice,yes
//	2026-03-02,bob,no
//
// The member column holds roster member IDs, present accepts
// yes/no/true/false/1/0. A header row is optional.
package attendance

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

const dateLayout = time.DateOnly

// CSVSource reads per-team schedule files referenced by the roster.
// Relative file paths resolve against BaseDir.
type CSVSource struct {
	BaseDir string
}

var _ contract.AttendanceSource = &CSVSource{}

// TeamAttendance loads the team's schedule file. Teams without a schedule
// configured get (nil, nil): pair verification is simply not applicable.
func (s *CSVSource) TeamAttendance(team *schema.Team) (*schema.TeamAttendance, error) {
	if team.AttendanceFile == "" {
		return nil, nil
	}
	path := team.AttendanceFile
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.BaseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open attendance file: %w", err)
	}
	defer func() { _ = f.Close() }()

	attendance, err := ParseSchedule(f, team.ID)
	if err != nil {
		return nil, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return attendance, nil
}

// ParseSchedule reads date,member,present rows into a TeamAttendance with
// sessions grouped by date and sorted chronologically.
func ParseSchedule(r io.Reader, teamID string) (*schema.TeamAttendance, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	byDate := make(map[time.Time]*schema.PairSession)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && strings.EqualFold(record[0], "date") {
			continue // header row
		}

		date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(record[0]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q (expected YYYY-MM-DD)", line, record[0])
		}
		member := strings.TrimSpace(record[1])
		if member == "" {
			return nil, fmt.Errorf("row %d: empty member ID", line)
		}
		present, err := contract.ParseBoolString(strings.TrimSpace(record[2]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		session := byDate[date]
		if session == nil {
			session = &schema.PairSession{Date: date, Attended: make(map[string]bool)}
			byDate[date] = session
		}
		session.Attended[member] = present
	}

	attendance := &schema.TeamAttendance{TeamID: teamID}
	for _, session := range byDate {
		attendance.Sessions = append(attendance.Sessions, *session)
	}
	sort.Slice(attendance.Sessions, func(i, j int) bool {
		return attendance.Sessions[i].Date.Before(attendance.Sessions[j].Date)
	})
	return attendance, nil
}
