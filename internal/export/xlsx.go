// Package export writes filtered job records to spreadsheet files.
package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/jobmarket-cli/internal/dashboard"
	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Sheet names.
const (
	JobsSheet  = "jobs"
	TechSheet  = "tech"
	CloudSheet = "cloud"
)

var jobsHeader = []string{
	"collected_at", "title", "company", "location", "role_category",
	"seniority", "work_arrangement", "tech_stack", "cloud_tools", "link",
}

// Build assembles the workbook: one row per record on the jobs sheet and
// technology and cloud rankings on their own sheets.
func Build(records []model.JobRecord) (*xlsx.File, error) {
	f := xlsx.NewFile()

	jobs, err := f.AddSheet(JobsSheet)
	if err != nil {
		return nil, eris.Wrap(err, "export: add jobs sheet")
	}
	addRow(jobs, jobsHeader...)
	for i := range records {
		r := &records[i]
		addRow(jobs,
			collectedAt(r),
			r.Title,
			r.Company,
			r.Location,
			r.Role.String(),
			r.Seniority.String(),
			r.WorkArrangement.String(),
			strings.Join(r.TechStack.Sorted(), ", "),
			strings.Join(r.CloudTools.Sorted(), ", "),
			r.Link,
		)
	}

	sum := dashboard.Summarize(records)
	if err := addCounts(f, TechSheet, "technology", sum.TechCounts); err != nil {
		return nil, err
	}
	if err := addCounts(f, CloudSheet, "cloud_tool", sum.CloudCounts); err != nil {
		return nil, err
	}
	return f, nil
}

// WriteXLSX saves the workbook for records at path.
func WriteXLSX(path string, records []model.JobRecord) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

// Write encodes the workbook for records to w.
func Write(w io.Writer, records []model.JobRecord) error {
	f, err := Build(records)
	if err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func addCounts(f *xlsx.File, name, label string, counts []dashboard.Count) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add %s sheet", name)
	}
	addRow(sheet, label, "count")
	for _, c := range counts {
		row := sheet.AddRow()
		row.AddCell().SetString(c.Label)
		row.AddCell().SetInt(c.Count)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func collectedAt(r *model.JobRecord) string {
	if !r.CollectedAt.IsZero() {
		return r.CollectedAt.Format("2006-01-02")
	}
	return r.CollectedAtRaw
}
