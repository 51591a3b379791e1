package output

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/placemap/internal/store/sqlite"
	"github.com/agentstation/placemap/pkg/alignment"
	"github.com/agentstation/placemap/pkg/report"
)

// EntriesToTableData converts report entries to table format. The wide
// layout adds authorities and place titles.
func EntriesToTableData(entries []report.Entry, wide bool) Data {
	headers := []string{"Aligned IDs", "Modes", "Proximity", "Distance (m)"}
	align := []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight}
	if wide {
		headers = append(headers, "Authorities", "Titles")
		align = append(align, AlignLeft, AlignLeft)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{
			strings.Join(e.AlignedIDs, " "),
			strings.Join(e.Modes, ","),
			orDash(e.Proximity),
			strconv.FormatFloat(e.CentroidDistance, 'f', 1, 64),
		}
		if wide {
			row = append(row, orDash(strings.Join(e.Authorities, " ")), titles(e))
		}
		rows = append(rows, row)
	}

	return Data{Headers: headers, Rows: rows, ColumnAlignment: align}
}

// RecordsToTableData converts plain alignment records to table format.
func RecordsToTableData(records []alignment.Record) Data {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		distance := "-"
		if r.CentroidDistanceM != nil {
			distance = strconv.FormatFloat(*r.CentroidDistanceM, 'f', 1, 64)
		}
		rows = append(rows, []string{
			strings.Join(r.AlignedIDs, " "),
			strings.Join(r.Modes, ","),
			orDash(strings.Join(r.Authorities, " ")),
			distance,
		})
	}
	return Data{
		Headers:         []string{"Aligned IDs", "Modes", "Authorities", "Distance (m)"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
}

// RunsToTableData converts stored runs to table format.
func RunsToTableData(runs []sqlite.Run) Data {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		total := 0
		for _, n := range r.Places {
			total += n
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
			strings.Join(r.Modes, ","),
			strconv.Itoa(total),
			strconv.Itoa(r.Alignments),
		})
	}
	return Data{
		Headers:         []string{"ID", "Started", "Duration", "Modes", "Places", "Alignments"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignRight, AlignRight},
	}
}

func titles(e report.Entry) string {
	var parts []string
	for _, ns := range slices.Sorted(maps.Keys(e.Places)) {
		parts = append(parts, fmt.Sprintf("%s: %s", ns, e.Places[ns].Title))
	}
	return orDash(strings.Join(parts, "; "))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
