package enrich

import (
	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Report counts how much work a run over records would have.
type Report struct {
	Total            int `json:"total"`
	Unclassifiable   int `json:"unclassifiable"`
	Complete         int `json:"complete"`
	NeedsTitle       int `json:"needs_title"`
	NeedsDescription int `json:"needs_description"`
	MissingRole      int `json:"missing_role"`
	MissingSeniority int `json:"missing_seniority"`
	MissingArrange   int `json:"missing_work_arrangement"`
	MissingTech      int `json:"missing_tech"`
}

// Assess computes a Report without changing records.
func Assess(records []model.JobRecord, cfg Config) Report {
	cfg = cfg.withDefaults()
	rep := Report{Total: len(records)}
	for i := range records {
		rec := &records[i]
		if !classifiable(rec, cfg.MinDescriptionChars) {
			rep.Unclassifiable++
			continue
		}
		c := rec.Completeness()
		if c.Complete() {
			rep.Complete++
			continue
		}
		if c.NeedsTitle() {
			rep.NeedsTitle++
		}
		if c.NeedsDescription() {
			rep.NeedsDescription++
		}
		if !c.RoleSet {
			rep.MissingRole++
		}
		if !c.SenioritySet {
			rep.MissingSeniority++
		}
		if !c.ArrangementSet {
			rep.MissingArrange++
		}
		if !c.HasTech {
			rep.MissingTech++
		}
	}
	return rep
}
