package dashboard

import (
	"sort"
	"strings"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// TopN is how many entries the tech and cloud rankings keep.
const TopN = 10

// Count is one label with its number of records.
type Count struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Summary holds the aggregate figures for a set of records.
type Summary struct {
	Jobs            int     `json:"jobs"`
	UniqueCompanies int     `json:"unique_companies"`
	TopTech         string  `json:"top_tech,omitempty"`
	TopCompany      string  `json:"top_company,omitempty"`
	TopLocation     string  `json:"top_location,omitempty"`
	TopArrangement  string  `json:"top_arrangement,omitempty"`
	TopRole         string  `json:"top_role,omitempty"`
	TopSeniority    string  `json:"top_seniority,omitempty"`
	TechCounts      []Count `json:"tech_counts"`
	CloudCounts     []Count `json:"cloud_counts"`
}

// Summarize computes a Summary from records alone. Ties rank
// alphabetically, and blank values are not counted.
func Summarize(records []model.JobRecord) Summary {
	companies := counter{}
	locations := counter{}
	arrangements := counter{}
	roles := counter{}
	seniorities := counter{}
	tech := counter{}
	cloud := counter{}

	for i := range records {
		r := &records[i]
		companies.add(r.Company)
		locations.add(r.Location)
		arrangements.add(r.WorkArrangement.String())
		roles.add(r.Role.String())
		seniorities.add(r.Seniority.String())
		for _, t := range r.TechStack.Sorted() {
			tech.add(t)
		}
		for _, c := range r.CloudTools.Sorted() {
			cloud.add(c)
		}
	}

	s := Summary{
		Jobs:            len(records),
		UniqueCompanies: len(companies),
		TopCompany:      companies.top(),
		TopLocation:     locations.top(),
		TopArrangement:  arrangements.top(),
		TopRole:         roles.top(),
		TopSeniority:    seniorities.top(),
		TechCounts:      tech.ranked(TopN),
		CloudCounts:     cloud.ranked(TopN),
	}
	if len(s.TechCounts) > 0 {
		s.TopTech = s.TechCounts[0].Label
	}
	return s
}

type counter map[string]int

func (c counter) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		return
	}
	c[v]++
}

// ranked returns up to n entries ordered by count, then label.
func (c counter) ranked(n int) []Count {
	out := make([]Count, 0, len(c))
	for label, count := range c {
		out = append(out, Count{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (c counter) top() string {
	r := c.ranked(1)
	if len(r) == 0 {
		return ""
	}
	return r[0].Label
}
