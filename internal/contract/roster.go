package contract

import (
	"fmt"
	"os"
	"strings"

	"github.com/courselab/teamscope/schema"
	"gopkg.in/yaml.v3"
)

// Roster is the course-wide team roster loaded from YAML.
type Roster struct {
	Course string        `yaml:"course"`
	Teams  []schema.Team `yaml:"teams"`
}

// LoadRoster reads and validates a roster file.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return nil, fmt.Errorf("no roster file provided. Pass --roster or set roster in the config file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read roster file %q: %w", path, err)
	}

	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("cannot parse roster file %q: %w", path, err)
	}
	if err := validateRoster(&roster); err != nil {
		return nil, fmt.Errorf("invalid roster file %q: %w", path, err)
	}

	// Normalize all raw emails once so attribution comparisons are exact.
	for i := range roster.Teams {
		normalizeTeamEmails(&roster.Teams[i])
	}
	return &roster, nil
}

// validateRoster checks structural requirements on the roster.
func validateRoster(roster *Roster) error {
	if len(roster.Teams) == 0 {
		return fmt.Errorf("roster has no teams")
	}
	seen := make(map[string]bool)
	for _, team := range roster.Teams {
		if team.ID == "" {
			return fmt.Errorf("team with empty id")
		}
		if seen[team.ID] {
			return fmt.Errorf("duplicate team id %q", team.ID)
		}
		seen[team.ID] = true
		if team.RepoPath == "" {
			return fmt.Errorf("team %q has no repo path", team.ID)
		}
		if len(team.Members) == 0 {
			return fmt.Errorf("team %q has no members", team.ID)
		}
		memberIDs := make(map[string]bool)
		for _, m := range team.Members {
			if m.ID == "" {
				return fmt.Errorf("team %q has a member with empty id", team.ID)
			}
			if memberIDs[m.ID] {
				return fmt.Errorf("team %q has duplicate member id %q", team.ID, m.ID)
			}
			memberIDs[m.ID] = true
		}
		for _, a := range team.Anchors {
			if !memberIDs[a.MemberID] {
				return fmt.Errorf("team %q anchor %s names unknown member %q", team.ID, a.SHA, a.MemberID)
			}
		}
		for _, id := range team.EmailOverrides {
			if !memberIDs[id] {
				return fmt.Errorf("team %q email override names unknown member %q", team.ID, id)
			}
		}
	}
	return nil
}

// normalizeTeamEmails lowercases every raw email in the team definition.
func normalizeTeamEmails(team *schema.Team) {
	for i := range team.Members {
		for j, e := range team.Members[i].Emails {
			team.Members[i].Emails[j] = strings.ToLower(strings.TrimSpace(e))
		}
	}
	if len(team.EmailOverrides) > 0 {
		normalized := make(map[string]string, len(team.EmailOverrides))
		for email, id := range team.EmailOverrides {
			normalized[strings.ToLower(strings.TrimSpace(email))] = id
		}
		team.EmailOverrides = normalized
	}
	for i, e := range team.TemplateEmails {
		team.TemplateEmails[i] = strings.ToLower(strings.TrimSpace(e))
	}
}
