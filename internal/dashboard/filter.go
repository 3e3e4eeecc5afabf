// Package dashboard computes the read-only views over an enriched dataset:
// cascading filters, aggregate counts, and the HTTP API that serves them.
package dashboard

import (
	"net/url"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Filter selects records by enum fields. Unset fields match everything.
type Filter struct {
	Role        model.RoleCategory    `json:"role,omitempty"`
	Seniority   model.Seniority       `json:"seniority,omitempty"`
	Arrangement model.WorkArrangement `json:"arrangement,omitempty"`
}

var allValues = map[string]bool{"": true, "all": true, "todos": true, "todas": true}

func isAll(v string) bool { return allValues[strings.ToLower(strings.TrimSpace(v))] }

// ParseFilter reads role, seniority and arrangement from query values.
// Empty and "all" leave a field unset; any other unrecognised value is an
// error.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter
	if v := q.Get("role"); !isAll(v) {
		if f.Role = model.ParseRole(v); !f.Role.IsSet() {
			return Filter{}, eris.Errorf("dashboard: unknown role %q", v)
		}
	}
	if v := q.Get("seniority"); !isAll(v) {
		if f.Seniority = model.ParseSeniority(v); !f.Seniority.IsSet() {
			return Filter{}, eris.Errorf("dashboard: unknown seniority %q", v)
		}
	}
	if v := q.Get("arrangement"); !isAll(v) {
		if f.Arrangement = model.ParseWorkArrangement(v); !f.Arrangement.IsSet() {
			return Filter{}, eris.Errorf("dashboard: unknown arrangement %q", v)
		}
	}
	return f, nil
}

func (f Filter) matchRole(r *model.JobRecord) bool {
	return !f.Role.IsSet() || r.Role == f.Role
}

func (f Filter) matchSeniority(r *model.JobRecord) bool {
	return !f.Seniority.IsSet() || r.Seniority == f.Seniority
}

func (f Filter) matchArrangement(r *model.JobRecord) bool {
	return !f.Arrangement.IsSet() || r.WorkArrangement == f.Arrangement
}

// Match reports whether r passes every set field of f.
func (f Filter) Match(r *model.JobRecord) bool {
	return f.matchRole(r) && f.matchSeniority(r) && f.matchArrangement(r)
}

// Apply returns the records that match f, in source order.
func Apply(records []model.JobRecord, f Filter) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(records))
	for i := range records {
		if f.Match(&records[i]) {
			out = append(out, records[i])
		}
	}
	return out
}

// Choices lists the selectable values of each filter.
type Choices struct {
	Roles        []model.RoleCategory    `json:"roles"`
	Seniorities  []model.Seniority       `json:"seniorities"`
	Arrangements []model.WorkArrangement `json:"arrangements"`
}

// Options computes cascading choices: roles come from every record,
// seniorities from records matching the selected role, and arrangements
// from records matching both role and seniority. Roles and arrangements are
// sorted by name, seniorities by level.
func Options(records []model.JobRecord, f Filter) Choices {
	roles := map[model.RoleCategory]bool{}
	seniorities := map[model.Seniority]bool{}
	arrangements := map[model.WorkArrangement]bool{}

	for i := range records {
		r := &records[i]
		if r.Role.IsSet() {
			roles[r.Role] = true
		}
		if !f.matchRole(r) {
			continue
		}
		if r.Seniority.IsSet() {
			seniorities[r.Seniority] = true
		}
		if !f.matchSeniority(r) {
			continue
		}
		if r.WorkArrangement.IsSet() {
			arrangements[r.WorkArrangement] = true
		}
	}

	c := Choices{
		Roles:        make([]model.RoleCategory, 0, len(roles)),
		Seniorities:  make([]model.Seniority, 0, len(seniorities)),
		Arrangements: make([]model.WorkArrangement, 0, len(arrangements)),
	}
	for r := range roles {
		c.Roles = append(c.Roles, r)
	}
	for s := range seniorities {
		c.Seniorities = append(c.Seniorities, s)
	}
	for a := range arrangements {
		c.Arrangements = append(c.Arrangements, a)
	}
	sort.Slice(c.Roles, func(i, j int) bool { return c.Roles[i] < c.Roles[j] })
	sort.Slice(c.Seniorities, func(i, j int) bool { return c.Seniorities[i].Rank() < c.Seniorities[j].Rank() })
	sort.Slice(c.Arrangements, func(i, j int) bool { return c.Arrangements[i] < c.Arrangements[j] })
	return c
}
