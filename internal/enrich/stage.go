package enrich

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/jobmarket-cli/internal/classifier"
	"github.com/sells-group/jobmarket-cli/internal/extract"
	"github.com/sells-group/jobmarket-cli/internal/model"
	"github.com/sells-group/jobmarket-cli/internal/normalize"
)

// Field names a derived column a stage can fill.
type Field string

// Derived fields.
const (
	FieldRole            Field = "role_category"
	FieldSeniority       Field = "seniority"
	FieldWorkArrangement Field = "work_arrangement"
	FieldTechStack       Field = "tech_stack"
	FieldCloudTools      Field = "cloud_tools"
	FieldSoftSkills      Field = "soft_skills"
	FieldLanguages       Field = "languages"
	FieldEducation       Field = "education"
)

// Outcome reports what a stage did to one record.
type Outcome struct {
	// Filled lists the fields the stage changed.
	Filled []Field
	// Mutations counts changes the way the run summary tallies them: one
	// per regex field, one per successful classifier pass.
	Mutations int
	// Call is set when the stage consumed a classifier call.
	Call classifier.Kind
	// Called reports whether Call is meaningful.
	Called bool
	// Pause is the pacing delay owed after the stage.
	Pause time.Duration
}

// Stage is one step of the enrichment pipeline. Stages run in order; each
// fills only fields that are still missing and updates c to match.
type Stage interface {
	Name() string
	Satisfies() []Field
	Needed(c model.Completeness) bool
	Apply(ctx context.Context, rec *model.JobRecord, c *model.Completeness) (Outcome, error)
}

// Classifier is the subset of *classifier.Client the LLM stages use.
type Classifier interface {
	ClassifyTitle(ctx context.Context, title string) *classifier.TitleResult
	ClassifyDescription(ctx context.Context, title, description string) *classifier.DescriptionResult
}

// RegexTitleStage fills role and seniority from the title and the work
// arrangement from the title and location, without any classifier call.
type RegexTitleStage struct{}

func (RegexTitleStage) Name() string { return "regex_title" }

func (RegexTitleStage) Satisfies() []Field {
	return []Field{FieldRole, FieldSeniority, FieldWorkArrangement}
}

func (RegexTitleStage) Needed(c model.Completeness) bool {
	return c.NeedsTitle() || !c.ArrangementSet
}

func (RegexTitleStage) Apply(_ context.Context, rec *model.JobRecord, c *model.Completeness) (Outcome, error) {
	var out Outcome
	if !c.RoleSet {
		if role, ok := extract.ExtractRole(rec.Title); ok {
			rec.Role = role
			c.RoleSet = true
			out.fill(FieldRole)
		}
	}
	if !c.SenioritySet {
		if s, ok := extract.ExtractSeniority(rec.Title); ok {
			rec.Seniority = s
			c.SenioritySet = true
			out.fill(FieldSeniority)
		}
	}
	if !c.ArrangementSet {
		text := strings.TrimSpace(rec.Title + " " + rec.Location)
		if w, ok := extract.ExtractWorkArrangement(text); ok {
			rec.WorkArrangement = w
			c.ArrangementSet = true
			out.fill(FieldWorkArrangement)
		}
	}
	return out, nil
}

// LLMTitleStage asks the classifier for role and seniority when the regex
// stage left either missing.
type LLMTitleStage struct {
	Classifier Classifier
	Pause      time.Duration
}

func (s *LLMTitleStage) Name() string { return "llm_title" }

func (s *LLMTitleStage) Satisfies() []Field { return []Field{FieldRole, FieldSeniority} }

func (s *LLMTitleStage) Needed(c model.Completeness) bool { return c.NeedsTitle() }

func (s *LLMTitleStage) Apply(ctx context.Context, rec *model.JobRecord, c *model.Completeness) (Outcome, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return Outcome{}, nil
	}
	out := Outcome{Call: classifier.KindTitle, Called: true, Pause: s.Pause}
	res := s.Classifier.ClassifyTitle(ctx, rec.Title)
	if res == nil {
		return out, nil
	}

	if !c.RoleSet && res.Role.IsSet() {
		rec.Role = res.Role
		c.RoleSet = true
		out.Filled = append(out.Filled, FieldRole)
	}
	if !c.SenioritySet && res.Seniority.IsSet() {
		rec.Seniority = res.Seniority
		c.SenioritySet = true
		out.Filled = append(out.Filled, FieldSeniority)
	}
	if len(out.Filled) > 0 {
		out.Mutations = 1
	}
	return out, nil
}

// LLMDescriptionStage extracts arrangement and skills from the description.
// Technology and cloud labels are normalized; every cloud label is also
// merged into the technology set.
type LLMDescriptionStage struct {
	Classifier Classifier
	Normalizer *normalize.Normalizer
	Pause      time.Duration
}

func (s *LLMDescriptionStage) Name() string { return "llm_description" }

func (s *LLMDescriptionStage) Satisfies() []Field {
	return []Field{
		FieldWorkArrangement, FieldTechStack, FieldCloudTools,
		FieldSoftSkills, FieldLanguages, FieldEducation,
	}
}

func (s *LLMDescriptionStage) Needed(c model.Completeness) bool { return c.NeedsDescription() }

func (s *LLMDescriptionStage) Apply(ctx context.Context, rec *model.JobRecord, c *model.Completeness) (Outcome, error) {
	out := Outcome{Call: classifier.KindDescription, Called: true, Pause: s.Pause}
	res := s.Classifier.ClassifyDescription(ctx, rec.Title, rec.Description)
	if res == nil {
		return out, nil
	}

	if !c.ArrangementSet && res.WorkArrangement.IsSet() {
		rec.WorkArrangement = res.WorkArrangement
		c.ArrangementSet = true
		out.Filled = append(out.Filled, FieldWorkArrangement)
	}

	tech := s.Normalizer.Normalize(res.TechStack)
	cloud := s.Normalizer.Normalize(res.CloudTools)
	tech.Union(cloud)

	if mergeInto(&rec.TechStack, tech) {
		out.Filled = append(out.Filled, FieldTechStack)
	}
	c.HasTech = rec.TechStack.Len() > 0
	if mergeInto(&rec.CloudTools, cloud) {
		out.Filled = append(out.Filled, FieldCloudTools)
	}
	if mergeInto(&rec.SoftSkills, model.NewLabelSet(res.SoftSkills...)) {
		out.Filled = append(out.Filled, FieldSoftSkills)
	}
	if mergeInto(&rec.Languages, model.NewLabelSet(res.Languages...)) {
		out.Filled = append(out.Filled, FieldLanguages)
	}
	if (rec.Education == "" || rec.Education == model.Unspecified) && res.Education != rec.Education {
		rec.Education = res.Education
		out.Filled = append(out.Filled, FieldEducation)
	}

	if len(out.Filled) > 0 {
		out.Mutations = 1
	}
	return out, nil
}

// mergeInto adds src to dst and reports whether dst grew.
func mergeInto(dst *model.LabelSet, src model.LabelSet) bool {
	before := dst.Len()
	dst.Union(src)
	return dst.Len() > before
}

// DefaultsStage applies the configured fallback seniority to records that
// no earlier stage could place. An unset default leaves seniority Unset.
type DefaultsStage struct {
	Seniority model.Seniority
}

func (s DefaultsStage) Name() string { return "defaults" }

func (s DefaultsStage) Satisfies() []Field { return []Field{FieldSeniority} }

func (s DefaultsStage) Needed(c model.Completeness) bool {
	return s.Seniority.IsSet() && !c.SenioritySet
}

func (s DefaultsStage) Apply(_ context.Context, rec *model.JobRecord, c *model.Completeness) (Outcome, error) {
	var out Outcome
	rec.Seniority = s.Seniority
	c.SenioritySet = true
	out.fill(FieldSeniority)
	return out, nil
}

func (o *Outcome) fill(f Field) {
	o.Filled = append(o.Filled, f)
	o.Mutations++
}

// DefaultStages returns the standard pipeline: regex, title classifier,
// description classifier, defaults.
func DefaultStages(cls Classifier, norm *normalize.Normalizer, cfg Config) []Stage {
	cfg = cfg.withDefaults()
	if norm == nil {
		norm = normalize.Default()
	}
	return []Stage{
		RegexTitleStage{},
		&LLMTitleStage{Classifier: cls, Pause: cfg.TitlePause},
		&LLMDescriptionStage{Classifier: cls, Normalizer: norm, Pause: cfg.DescriptionPause},
		DefaultsStage{Seniority: cfg.DefaultSeniority},
	}
}
