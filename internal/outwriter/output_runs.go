package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/courselab/teamscope/internal/contract"
	"github.com/courselab/teamscope/schema"
)

const runTimeFormat = "2006-01-02 15:04:05"

// WriteRunProgress outputs past run records, dispatching based on the output
// format configured.
func WriteRunProgress(runs []schema.RunProgress, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, runs)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRunsTable(runs, cfg, w)
		}, "Wrote table")
	}
}

func writeRunsTable(runs []schema.RunProgress, cfg *contract.Config, writer io.Writer) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintf(writer, "No runs recorded for course %s\n", cfg.CourseID)
		return err
	}

	table := tablewriter.NewWriter(writer)
	table.Header([]string{"Run", "State", "Teams", "Done", "Failed", "Started", "Finished"})
	table.Configure(func(tcfg *tablewriter.Config) {
		tcfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, run := range runs {
		finished := "-"
		if !run.FinishedAt.IsZero() {
			finished = run.FinishedAt.Format(runTimeFormat)
		}
		data = append(data, []string{
			strconv.FormatInt(run.ID, 10),
			string(run.State),
			strconv.Itoa(run.TeamsTotal),
			strconv.Itoa(run.TeamsCompleted),
			strconv.Itoa(run.TeamsFailed),
			run.StartedAt.Format(runTimeFormat),
			finished,
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
