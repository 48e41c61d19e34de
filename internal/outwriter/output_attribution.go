package outwriter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

const shortSHALen = 8

// WriteAttributionResult outputs the per-commit attribution breakdown for one
// team, dispatching based on the output format configured.
func WriteAttributionResult(result *schema.TeamResult, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result.Attribution)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAttributionTable(result, w)
		}, "Wrote table")
	}
}

func writeAttributionTable(result *schema.TeamResult, writer io.Writer) error {
	attribution := result.Attribution
	if attribution == nil {
		_, err := fmt.Fprintf(writer, "No attribution data for team %s\n", result.TeamID)
		return err
	}

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"SHA", "Date", "Resolution", "Member", "Source", "Message"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, ac := range attribution.Commits {
		member := ac.MemberID
		if member == "" {
			member = "-"
		}
		source := string(ac.Source)
		if source == "" {
			source = "-"
		}
		data = append(data, []string{
			shortSHA(ac.Commit.SHA),
			ac.Commit.Timestamp.Format("2006-01-02 15:04"),
			string(ac.Resolution),
			member,
			source,
			truncateName(ac.Commit.Message, 50),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(writer, "Attributed %d commits: %d member, %d orphan, %d template\n",
		len(attribution.Commits), attribution.Members, attribution.Orphans, attribution.Template)
	return err
}

func shortSHA(sha string) string {
	if len(sha) <= shortSHALen {
		return sha
	}
	return sha[:shortSHALen]
}
