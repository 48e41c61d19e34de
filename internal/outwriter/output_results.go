package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

// WriteTeamResults outputs the run results, dispatching based on the output
// format configured.
func WriteTeamResults(results []schema.TeamResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFloatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeResultsJSON(w, results)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeResultsTable(results, cfg, fmtFloat, duration, w)
		}, "Wrote table")
	}
}

// writeResultsTable generates and writes the human-readable summary table,
// followed by per-team detail sections when detail mode is on.
func writeResultsTable(results []schema.TeamResult, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration, writer io.Writer) error {
	table := tablewriter.NewWriter(writer)

	// 1. Define Headers
	headers := []string{"Rank", "Team", "CQI", "Label", "Note"}
	if cfg.Detail {
		headers = append(headers, "Contrib", "Commits", "Excluded", "Penalties")
	}
	table.Header(headers)

	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	// 2. Populate Rows
	nameWidth := getMaxTableNameWidth(cfg)
	var data [][]string
	for i, r := range results {
		row := []string{
			strconv.Itoa(i + 1),
			truncateName(displayName(&r), nameWidth),
		}
		if r.Score == nil {
			row = append(row, "-", "-", resultNote(&r))
		} else {
			row = append(row,
				fmtFloat(r.Score.Final),
				scoreLabel(r.Score.Final, cfg),
				resultNote(&r),
			)
		}
		if cfg.Detail {
			row = append(row, detailColumns(&r)...)
		}
		data = append(data, row)
	}

	// 3. Render the table
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	scored, failed := 0, 0
	for _, r := range results {
		if r.Err != "" {
			failed++
		} else {
			scored++
		}
	}
	if _, err := fmt.Fprintf(writer, "Scored %d teams, %d failed\n", scored, failed); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(writer, "Analysis completed in %v with %d workers. Result backend: %s\n", duration, cfg.Workers, cfg.Backend); err != nil {
		return err
	}

	if cfg.Detail {
		for i := range results {
			if err := writeTeamDetail(&results[i], cfg, fmtFloat, writer); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeTeamDetail prints the component and penalty breakdown for one team.
func writeTeamDetail(r *schema.TeamResult, cfg *contract.Config, fmtFloat func(float64) string, writer io.Writer) error {
	if _, err := fmt.Fprintf(writer, "\n=== %s ===\n", displayName(r)); err != nil {
		return err
	}
	if r.Err != "" {
		_, err := fmt.Fprintf(writer, "Failed: %s\n", r.Err)
		return err
	}
	if r.Attribution != nil {
		fmt.Fprintf(writer, "Commits: %d member, %d orphan, %d template\n",
			r.Attribution.Members, r.Attribution.Orphans, r.Attribution.Template)
	}
	if r.Score == nil {
		return nil
	}

	if r.Score.Tag != "" {
		fmt.Fprintf(writer, "Outcome: %s\n", r.Score.Tag)
	}
	fmt.Fprintf(writer, "Base score: %s, penalty multiplier: %s\n",
		fmtFloat(r.Score.Base), fmtFloat(r.Score.PenaltyMultiplier))

	active := r.Score.Components.Active()
	for _, component := range schema.AllComponents {
		value, ok := active[component]
		if !ok {
			fmt.Fprintf(writer, "  %-18s not applicable\n", component)
			continue
		}
		fmt.Fprintf(writer, "  %-18s %s\n", component, fmtFloat(value))
	}

	for _, p := range r.Score.Penalties {
		fmt.Fprintf(writer, "  penalty %s x%.2f: %s\n", p.Tag, p.Multiplier, p.Reason)
	}
	for _, a := range r.Anomalies {
		fmt.Fprintf(writer, "  anomaly %s (%.0f%%): %s\n", a.Kind, a.Verified*100, a.Detail)
	}

	filter := r.Score.Filter
	fmt.Fprintf(writer, "Filter: %d total, %d kept, %d reduced, %d excluded\n",
		filter.Total, filter.Kept, filter.Reduced, filter.Excluded)
	return nil
}

// writeResultsJSON writes machine-readable results with rank and label added.
func writeResultsJSON(w io.Writer, results []schema.TeamResult) error {
	type JSONTeamResult struct {
		Rank  int    `json:"rank"`
		Label string `json:"label,omitempty"`
		schema.TeamResult
	}

	output := make([]JSONTeamResult, len(results))
	for i, r := range results {
		output[i] = JSONTeamResult{Rank: i + 1, TeamResult: r}
		if r.Score != nil {
			output[i].Label = contract.GetPlainLabel(r.Score.Final)
		}
	}
	return writeJSON(w, output)
}

func displayName(r *schema.TeamResult) string {
	if r.TeamName != "" {
		return r.TeamName
	}
	return r.TeamID
}

// resultNote summarizes why a team's score is unusual, or "-".
func resultNote(r *schema.TeamResult) string {
	switch {
	case r.Err != "":
		return "analysis failed"
	case r.Score != nil && r.Score.Tag != "":
		return string(r.Score.Tag)
	default:
		return "-"
	}
}

func scoreLabel(score float64, cfg *contract.Config) string {
	if cfg.Color {
		return contract.GetColorLabel(score)
	}
	return contract.GetPlainLabel(score)
}

func detailColumns(r *schema.TeamResult) []string {
	if r.Score == nil || r.Attribution == nil {
		return []string{"-", "-", "-", "-"}
	}
	var tags []string
	for _, p := range r.Score.Penalties {
		tags = append(tags, string(p.Tag))
	}
	penalties := strings.Join(tags, ",")
	if penalties == "" {
		penalties = "-"
	}
	return []string{
		strconv.Itoa(contributorCount(r)),
		strconv.Itoa(r.Attribution.Members),
		strconv.Itoa(r.Score.Filter.Excluded),
		penalties,
	}
}

func contributorCount(r *schema.TeamResult) int {
	seen := make(map[string]bool)
	for _, ac := range r.Attribution.Commits {
		if ac.Resolution == schema.MemberResolution {
			seen[ac.MemberID] = true
		}
	}
	return len(seen)
}
