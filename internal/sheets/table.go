package sheets

import (
	"sort"
	"strings"

	"github.com/Veraticus/serena/internal/model"
)

// Header is the first row of every export.
var Header = []string{
	"Service",
	"Action Time",
	"Message Time",
	"Action",
	"Address 1",
	"Address 2",
	"Amount",
	"Items",
	"Mobile Number",
	"Source",
}

// Rows lays records out under Header, ordered by message time and then
// source path so repeated exports of the same cache are stable.
func Rows(records []model.NormalizedRecord) [][]string {
	sorted := make([]model.NormalizedRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].MessageDatetime != sorted[j].MessageDatetime {
			return sorted[i].MessageDatetime < sorted[j].MessageDatetime
		}
		return sorted[i].SourcePath < sorted[j].SourcePath
	})

	rows := make([][]string, 0, len(sorted))
	for _, rec := range sorted {
		rows = append(rows, []string{
			rec.ServiceName,
			rec.ActionDatetime,
			rec.MessageDatetime,
			rec.ActionKeyword,
			rec.Address1,
			rec.Address2,
			rec.Amount,
			strings.Join(rec.ItemNames(), "; "),
			rec.MobileNumber,
			rec.SourcePath,
		})
	}
	return rows
}

func toValues(header []string, rows [][]string) [][]any {
	values := make([][]any, 0, len(rows)+1)
	values = append(values, toAny(header))
	for _, row := range rows {
		values = append(values, toAny(row))
	}
	return values
}

func toAny(row []string) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
