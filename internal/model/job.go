package model

import (
	"strings"
	"time"
)

// Unspecified is the education value written when a posting states no requirement.
const Unspecified = "Unspecified"

// RoleCategory is the simplified role a posting belongs to.
type RoleCategory string

// Role categories. RoleUnset is the empty string so that an unset role
// serializes as an empty cell.
const (
	RoleUnset             RoleCategory = ""
	RoleDataEngineer      RoleCategory = "Data Engineer"
	RoleDataScientist     RoleCategory = "Data Scientist"
	RoleMLEngineer        RoleCategory = "Machine Learning Engineer"
	RoleAnalyticsEngineer RoleCategory = "Analytics Engineer"
	RoleDataAnalyst       RoleCategory = "Data Analyst"
	RoleSoftwareEngineer  RoleCategory = "Software Engineer"
	RoleOther             RoleCategory = "Other"
)

// AllRoles returns every concrete role category in display order.
func AllRoles() []RoleCategory {
	return []RoleCategory{
		RoleDataEngineer,
		RoleDataScientist,
		RoleMLEngineer,
		RoleAnalyticsEngineer,
		RoleDataAnalyst,
		RoleSoftwareEngineer,
		RoleOther,
	}
}

var roleAliases = map[string]RoleCategory{
	"data engineer":             RoleDataEngineer,
	"dataengineer":              RoleDataEngineer,
	"engenheiro de dados":       RoleDataEngineer,
	"data scientist":            RoleDataScientist,
	"datascientist":             RoleDataScientist,
	"cientista de dados":        RoleDataScientist,
	"machine learning engineer": RoleMLEngineer,
	"ml engineer":               RoleMLEngineer,
	"mlengineer":                RoleMLEngineer,
	"analytics engineer":        RoleAnalyticsEngineer,
	"analyticsengineer":         RoleAnalyticsEngineer,
	"data analyst":              RoleDataAnalyst,
	"dataanalyst":               RoleDataAnalyst,
	"analista de dados":         RoleDataAnalyst,
	"software engineer":         RoleSoftwareEngineer,
	"softwareengineer":          RoleSoftwareEngineer,
	"other":                     RoleOther,
	"others":                    RoleOther,
	"outros":                    RoleOther,
	"outro":                     RoleOther,
}

// ParseRole maps a canonical or legacy label to a RoleCategory. Unknown
// and empty labels return RoleUnset.
func ParseRole(s string) RoleCategory {
	return roleAliases[aliasKey(s)]
}

// IsSet reports whether the role holds a concrete value.
func (r RoleCategory) IsSet() bool { return r != RoleUnset }

func (r RoleCategory) String() string { return string(r) }

// Seniority is the experience level of a posting. Values are ordered for
// display only.
type Seniority string

// Seniority levels.
const (
	SeniorityUnset      Seniority = ""
	SeniorityInternship Seniority = "Internship"
	SeniorityJunior     Seniority = "Junior"
	SeniorityMid        Seniority = "Mid"
	SenioritySenior     Seniority = "Senior"
	SenioritySpecialist Seniority = "Specialist"
	SeniorityManagement Seniority = "Management"
)

// AllSeniorities returns every concrete seniority in display order.
func AllSeniorities() []Seniority {
	return []Seniority{
		SeniorityInternship,
		SeniorityJunior,
		SeniorityMid,
		SenioritySenior,
		SenioritySpecialist,
		SeniorityManagement,
	}
}

var seniorityAliases = map[string]Seniority{
	"internship":   SeniorityInternship,
	"intern":       SeniorityInternship,
	"trainee":      SeniorityInternship,
	"estagio":      SeniorityInternship,
	"estágio":      SeniorityInternship,
	"junior":       SeniorityJunior,
	"júnior":       SeniorityJunior,
	"jr":           SeniorityJunior,
	"mid":          SeniorityMid,
	"mid-level":    SeniorityMid,
	"mid level":    SeniorityMid,
	"pleno":        SeniorityMid,
	"senior":       SenioritySenior,
	"sênior":       SenioritySenior,
	"sr":           SenioritySenior,
	"specialist":   SenioritySpecialist,
	"especialista": SenioritySpecialist,
	"staff":        SenioritySpecialist,
	"principal":    SenioritySpecialist,
	"management":   SeniorityManagement,
	"manager":      SeniorityManagement,
	"gestão":       SeniorityManagement,
	"gestao":       SeniorityManagement,
}

// ParseSeniority maps a canonical or legacy label to a Seniority. Unknown
// and empty labels return SeniorityUnset.
func ParseSeniority(s string) Seniority {
	return seniorityAliases[aliasKey(s)]
}

// IsSet reports whether the seniority holds a concrete value.
func (s Seniority) IsSet() bool { return s != SeniorityUnset }

// Rank returns the display position of s. Unset sorts last.
func (s Seniority) Rank() int {
	for i, v := range AllSeniorities() {
		if v == s {
			return i
		}
	}
	return len(AllSeniorities())
}

func (s Seniority) String() string { return string(s) }

// WorkArrangement is where the work happens.
type WorkArrangement string

// Work arrangements.
const (
	ArrangementUnset  WorkArrangement = ""
	ArrangementRemote WorkArrangement = "Remote"
	ArrangementHybrid WorkArrangement = "Hybrid"
	ArrangementOnSite WorkArrangement = "On-site"
)

// AllArrangements returns every concrete work arrangement.
func AllArrangements() []WorkArrangement {
	return []WorkArrangement{ArrangementRemote, ArrangementHybrid, ArrangementOnSite}
}

var arrangementAliases = map[string]WorkArrangement{
	"remote":     ArrangementRemote,
	"remoto":     ArrangementRemote,
	"hybrid":     ArrangementHybrid,
	"híbrido":    ArrangementHybrid,
	"hibrido":    ArrangementHybrid,
	"on-site":    ArrangementOnSite,
	"onsite":     ArrangementOnSite,
	"on site":    ArrangementOnSite,
	"presencial": ArrangementOnSite,
	"in-office":  ArrangementOnSite,
}

// ParseWorkArrangement maps a canonical or legacy label to a
// WorkArrangement. Unknown and empty labels return ArrangementUnset.
func ParseWorkArrangement(s string) WorkArrangement {
	return arrangementAliases[aliasKey(s)]
}

// IsSet reports whether the arrangement holds a concrete value.
func (w WorkArrangement) IsSet() bool { return w != ArrangementUnset }

func (w WorkArrangement) String() string { return string(w) }

func aliasKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// JobRecord is one row of the job-postings dataset.
type JobRecord struct {
	CollectedAt time.Time `json:"collected_at"`
	// CollectedAtRaw keeps the original cell so unparseable dates survive a save.
	CollectedAtRaw string `json:"-"`

	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`

	Role            RoleCategory    `json:"role_category"`
	Seniority       Seniority       `json:"seniority"`
	WorkArrangement WorkArrangement `json:"work_arrangement"`
	TechStack       LabelSet        `json:"tech_stack"`
	CloudTools      LabelSet        `json:"cloud_tools"`
	SoftSkills      LabelSet        `json:"soft_skills"`
	Languages       LabelSet        `json:"languages"`
	Education       string          `json:"education"`

	// Extra holds columns this program does not own, keyed by header name.
	Extra map[string]string `json:"-"`
}

// Completeness records which derived fields of a record are satisfied.
type Completeness struct {
	RoleSet        bool
	SenioritySet   bool
	ArrangementSet bool
	HasTech        bool
}

// Completeness computes the field completeness flags for r.
func (r *JobRecord) Completeness() Completeness {
	return Completeness{
		RoleSet:        r.Role.IsSet(),
		SenioritySet:   r.Seniority.IsSet(),
		ArrangementSet: r.WorkArrangement.IsSet(),
		HasTech:        r.TechStack.Len() > 0,
	}
}

// Complete reports whether every derived field is satisfied.
func (c Completeness) Complete() bool {
	return c.RoleSet && c.SenioritySet && c.ArrangementSet && c.HasTech
}

// NeedsTitle reports whether role or seniority is still missing.
func (c Completeness) NeedsTitle() bool {
	return !c.RoleSet || !c.SenioritySet
}

// NeedsDescription reports whether the description pass has work to do.
func (c Completeness) NeedsDescription() bool {
	return !c.ArrangementSet || !c.HasTech
}
