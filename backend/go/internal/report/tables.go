package report

import (
	"RCA_Insights/backend/go/internal/config"
	"RCA_Insights/backend/go/internal/insight"
)

// Output file names.
const (
	RootReasonsFile = "root_reasons.csv"
	ActionablesFile = "actionables.csv"
	WorkbookFile    = "insights.xlsx"
)

// Header names shared by every output format.
const (
	ColumnFile       = "rca_file"
	ColumnRootReason = "root_reason"
	ColumnActionable = "actionable"
)

// Row is one insight of one document, flattened for tabular output.
type Row struct {
	RCAFile string
	Brief   string
	Details string
}

func (r Row) record(variant string) []string {
	if variant == config.VariantSingle {
		return []string{r.RCAFile, r.Brief}
	}
	return []string{r.RCAFile, r.Brief, r.Details}
}

// Tables holds the two accumulated row lists.
type Tables struct {
	RootReasons []Row
	Actionables []Row
}

// Append flattens one document's insights into both tables.
func (t *Tables) Append(documentID string, set *insight.Set) {
	if set == nil {
		return
	}
	for _, i := range set.RootReasons {
		t.RootReasons = append(t.RootReasons, Row{RCAFile: documentID, Brief: i.Brief, Details: i.Details})
	}
	for _, i := range set.Actionables {
		t.Actionables = append(t.Actionables, Row{RCAFile: documentID, Brief: i.Brief, Details: i.Details})
	}
}

// sheet describes one table for the writers.
type sheet struct {
	name   string // sheet name and CSV base name
	column string
	rows   []Row
}

func (t *Tables) sheets() []sheet {
	return []sheet{
		{name: "root_reasons", column: ColumnRootReason, rows: t.RootReasons},
		{name: "actionables", column: ColumnActionable, rows: t.Actionables},
	}
}

// Header returns the column headers of a table for the given variant.
func Header(variant, column string) []string {
	if variant == config.VariantSingle {
		return []string{ColumnFile, column}
	}
	return []string{ColumnFile, column + "_brief", column + "_details"}
}
