// Package dataset loads and saves the job-postings file: a flat CSV with
// one row per posting.
package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Column identifies a field of model.JobRecord.
type Column string

// Canonical column names.
const (
	ColCollectedAt     Column = "collected_at"
	ColTitle           Column = "title"
	ColCompany         Column = "company"
	ColLocation        Column = "location"
	ColLink            Column = "link"
	ColDescription     Column = "description"
	ColRole            Column = "role_category"
	ColSeniority       Column = "seniority"
	ColWorkArrangement Column = "work_arrangement"
	ColTechStack       Column = "tech_stack"
	ColCloudTools      Column = "cloud_tools"
	ColSoftSkills      Column = "soft_skills"
	ColLanguages       Column = "languages"
	ColEducation       Column = "education"
)

// Columns lists every owned column in canonical order.
var Columns = []Column{
	ColCollectedAt, ColTitle, ColCompany, ColLocation, ColLink, ColDescription,
	ColRole, ColSeniority, ColWorkArrangement,
	ColTechStack, ColCloudTools, ColSoftSkills, ColLanguages, ColEducation,
}

// aliases maps legacy header names to canonical columns.
var aliases = map[string]Column{
	"data_coleta":              ColCollectedAt,
	"titulo":                   ColTitle,
	"empresa":                  ColCompany,
	"local":                    ColLocation,
	"descricao":                ColDescription,
	"descricao_raw":            ColDescription,
	"cargo_simplificado":       ColRole,
	"senioridade_simplificada": ColSeniority,
	"tipo_padronizado":         ColWorkArrangement,
	"cloud":                    ColCloudTools,
	"educacao":                 ColEducation,
	"linguas":                  ColLanguages,
}

func resolveColumn(header string) (Column, bool) {
	key := strings.ToLower(strings.TrimSpace(header))
	for _, c := range Columns {
		if string(c) == key {
			return c, true
		}
	}
	c, ok := aliases[key]
	return c, ok
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// field is one output column: an owned column or an extra one.
type field struct {
	name   string
	column Column // empty for extra columns
}

// Dataset is a loaded file. It keeps the original header so that a save
// writes the same column names in the same order; owned columns missing
// from the input are appended.
type Dataset struct {
	Path    string
	Records []model.JobRecord

	fields []field
}

// New returns an empty dataset bound to path with the canonical header.
func New(path string) *Dataset {
	ds := &Dataset{Path: path}
	for _, c := range Columns {
		ds.fields = append(ds.fields, field{name: string(c), column: c})
	}
	return ds
}

// Load reads the dataset at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ds, err := Read(f)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", path)
	}
	ds.Path = path
	return ds, nil
}

// Read parses a dataset from r.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: missing header row")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	ds := &Dataset{}
	seen := make(map[Column]bool)
	for _, h := range header {
		c, ok := resolveColumn(h)
		if ok && !seen[c] {
			seen[c] = true
			ds.fields = append(ds.fields, field{name: h, column: c})
			continue
		}
		ds.fields = append(ds.fields, field{name: h})
	}
	for _, c := range Columns {
		if !seen[c] {
			ds.fields = append(ds.fields, field{name: string(c), column: c})
		}
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: read row %d", len(ds.Records)+1)
		}
		ds.Records = append(ds.Records, ds.decode(row))
	}
	return ds, nil
}

func (d *Dataset) decode(row []string) model.JobRecord {
	var rec model.JobRecord
	for i, f := range d.fields {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if f.column == "" {
			if rec.Extra == nil {
				rec.Extra = make(map[string]string)
			}
			rec.Extra[f.name] = cell
			continue
		}
		setColumn(&rec, f.column, cell)
	}
	return rec
}

func setColumn(rec *model.JobRecord, c Column, cell string) {
	switch c {
	case ColCollectedAt:
		rec.CollectedAtRaw = cell
		rec.CollectedAt = parseDate(cell)
	case ColTitle:
		rec.Title = cell
	case ColCompany:
		rec.Company = cell
	case ColLocation:
		rec.Location = cell
	case ColLink:
		rec.Link = cell
	case ColDescription:
		rec.Description = cell
	case ColRole:
		rec.Role = model.ParseRole(cell)
	case ColSeniority:
		rec.Seniority = model.ParseSeniority(cell)
	case ColWorkArrangement:
		rec.WorkArrangement = model.ParseWorkArrangement(cell)
	case ColTechStack:
		rec.TechStack = model.NewLabelSet(ParseList(cell)...)
	case ColCloudTools:
		rec.CloudTools = model.NewLabelSet(ParseList(cell)...)
	case ColSoftSkills:
		rec.SoftSkills = model.NewLabelSet(ParseList(cell)...)
	case ColLanguages:
		rec.Languages = model.NewLabelSet(ParseList(cell)...)
	case ColEducation:
		rec.Education = strings.TrimSpace(cell)
		if nullCells[strings.ToLower(rec.Education)] {
			rec.Education = ""
		}
	}
}

func columnValue(rec *model.JobRecord, c Column) string {
	switch c {
	case ColCollectedAt:
		if rec.CollectedAtRaw != "" || rec.CollectedAt.IsZero() {
			return rec.CollectedAtRaw
		}
		return rec.CollectedAt.Format("2006-01-02")
	case ColTitle:
		return rec.Title
	case ColCompany:
		return rec.Company
	case ColLocation:
		return rec.Location
	case ColLink:
		return rec.Link
	case ColDescription:
		return rec.Description
	case ColRole:
		return rec.Role.String()
	case ColSeniority:
		return rec.Seniority.String()
	case ColWorkArrangement:
		return rec.WorkArrangement.String()
	case ColTechStack:
		return FormatList(rec.TechStack)
	case ColCloudTools:
		return FormatList(rec.CloudTools)
	case ColSoftSkills:
		return FormatList(rec.SoftSkills)
	case ColLanguages:
		return FormatList(rec.Languages)
	case ColEducation:
		return rec.Education
	default:
		return ""
	}
}

// Header returns the column names a save writes.
func (d *Dataset) Header() []string {
	out := make([]string, len(d.fields))
	for i, f := range d.fields {
		out[i] = f.name
	}
	return out
}

// Write encodes records as CSV using the dataset's header.
func (d *Dataset) Write(w io.Writer, records []model.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Header()); err != nil {
		return eris.Wrap(err, "dataset: write header")
	}

	row := make([]string, len(d.fields))
	for i := range records {
		rec := &records[i]
		for j, f := range d.fields {
			if f.column == "" {
				row[j] = rec.Extra[f.name]
				continue
			}
			row[j] = columnValue(rec, f.column)
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "dataset: write row %d", i)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "dataset: flush")
	}
	return nil
}

// Save replaces the file at d.Path with records. The content is written to
// a temporary file in the same directory and renamed over the original, so
// an interrupted save never leaves a partial file.
func (d *Dataset) Save(records []model.JobRecord) error {
	if d.Path == "" {
		return eris.New("dataset: save without path")
	}

	var buf bytes.Buffer
	if err := d.Write(&buf, records); err != nil {
		return err
	}

	dir := filepath.Dir(d.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(d.Path)+".*.tmp")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return eris.Wrap(err, "dataset: write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck
		cleanup()
		return eris.Wrap(err, "dataset: sync temp file")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrap(err, "dataset: close temp file")
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(d.Path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		cleanup()
		return eris.Wrap(err, "dataset: chmod temp file")
	}

	if err := os.Rename(tmpName, d.Path); err != nil {
		cleanup()
		return eris.Wrapf(err, "dataset: replace %s", d.Path)
	}
	return nil
}
