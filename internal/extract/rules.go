// Package extract derives role, seniority, and work arrangement from short
// free text using ordered pattern tables. No external calls are made and
// no function fails; a false second return value means no pattern matched.
package extract

import (
	"regexp"
	"strings"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Unicode-aware token boundaries. RE2's \b only knows ASCII word
// characters, which breaks on accented Portuguese words.
const (
	lb = `(?:^|[^\p{L}\p{N}_])`
	rb = `(?:$|[^\p{L}\p{N}_])`
)

// word matches p as a whole token.
func word(p string) *regexp.Regexp {
	return regexp.MustCompile(lb + `(?:` + p + `)` + rb)
}

// lead matches p at the start of a token.
func lead(p string) *regexp.Regexp {
	return regexp.MustCompile(lb + `(?:` + p + `)`)
}

// rolePattern matches when match hits and the text right after that hit
// does not start with notFollowedBy.
type rolePattern struct {
	match         *regexp.Regexp
	notFollowedBy *regexp.Regexp
}

func (p rolePattern) matches(s string) bool {
	if p.notFollowedBy == nil {
		return p.match.MatchString(s)
	}
	for _, loc := range p.match.FindAllStringIndex(s, -1) {
		if !p.notFollowedBy.MatchString(s[loc[1]:]) {
			return true
		}
	}
	return false
}

func roles(patterns ...string) []rolePattern {
	out := make([]rolePattern, len(patterns))
	for i, p := range patterns {
		out[i] = rolePattern{match: lead(p)}
	}
	return out
}

type roleRule struct {
	role     model.RoleCategory
	patterns []rolePattern
}

// Earlier rules win on ambiguous titles.
var roleRules = []roleRule{
	{model.RoleDataEngineer, roles(
		`data\s*engineer`,
		`engenh[ea]ir[oa]\s*(?:\(a\))?\s*de\s*dados`,
		`eng\.?\s*(?:\(a\))?\s*dados`,
		`data\s*platform\s*engineer`,
	)},
	{model.RoleDataScientist, append(roles(
		`data\s*scientist`,
		`cientista\s*de\s*dados`,
	), rolePattern{
		match:         lead(`data\s*science`),
		notFollowedBy: regexp.MustCompile(`^\s*engineer`),
	})},
	{model.RoleMLEngineer, roles(
		`machine\s*learning\s*engineer`,
		`ml\s*engineer`,
		`mlops\s*engineer`,
		`ai\s*engineer`,
		`artificial\s*intelligence\s*engineer`,
	)},
	{model.RoleAnalyticsEngineer, roles(
		`analytics\s*engineer`,
		`engenh[ea]ir[oa]\s*(?:\(a\))?\s*de\s*analytics`,
		`bi\s*engineer`,
	)},
	{model.RoleDataAnalyst, roles(
		`data\s*analyst`,
		`analista\s*de\s*dados`,
		`business\s*intelligence\s*analyst`,
		`bi\s*analyst`,
	)},
	{model.RoleSoftwareEngineer, roles(
		`software\s*engineer`,
		`engenh[ea]ir[oa]\s*(?:\(a\))?\s*de\s*software`,
		`backend\s*engineer`,
		`full\s*stack`,
		`fullstack`,
	)},
}

type seniorityRule struct {
	level    model.Seniority
	patterns []*regexp.Regexp
}

// Internship is checked before Junior so that "trainee" is never read as junior.
var seniorityRules = []seniorityRule{
	{model.SeniorityInternship, []*regexp.Regexp{
		word(`intern`),
		word(`trainee`),
		lead(`est[áa]g`),
		word(`estagi[áa]ri[oa]`),
	}},
	{model.SeniorityJunior, []*regexp.Regexp{
		word(`jr\.?`),
		word(`j[úu]nior`),
		// Roman numeral I closing the title, e.g. "Data Engineer I".
		regexp.MustCompile(lb + `i\s*(?:$|[^\p{L}\p{N}_\s])`),
	}},
	{model.SeniorityMid, []*regexp.Regexp{
		word(`pleno`),
		word(`mid`),
		word(`pl`),
		word(`mid-level`),
		word(`midlevel`),
		word(`ii`),
		word(`iii`),
	}},
	{model.SenioritySenior, []*regexp.Regexp{
		word(`s[êe]nior`),
		word(`sr\.?`),
		word(`iv`),
		word(`v`),
	}},
	{model.SenioritySpecialist, []*regexp.Regexp{
		word(`staff`),
		word(`principal`),
		word(`lead`),
		word(`expert`),
		word(`specialist`),
		word(`especialista`),
		word(`architect`),
	}},
	{model.SeniorityManagement, []*regexp.Regexp{
		word(`manager`),
		word(`gerente`),
		word(`head`),
		word(`director`),
		word(`diretor`),
		word(`vp`),
		word(`chief`),
	}},
}

type arrangementRule struct {
	arrangement model.WorkArrangement
	pattern     *regexp.Regexp
}

var arrangementRules = []arrangementRule{
	{model.ArrangementRemote, word(`remote|remoto|100%\s*remote|work\s*from\s*home|wfh|anywhere|fully\s*remote`)},
	{model.ArrangementHybrid, word(`hybrid|h[íi]brido|flex`)},
	{model.ArrangementOnSite, word(`on-site|onsite|presencial|in-office|office`)},
}

// ExtractRole returns the first role whose patterns match s.
func ExtractRole(s string) (model.RoleCategory, bool) {
	s = strings.ToLower(s)
	for _, rule := range roleRules {
		for _, p := range rule.patterns {
			if p.matches(s) {
				return rule.role, true
			}
		}
	}
	return model.RoleUnset, false
}

// ExtractSeniority returns the first seniority level whose patterns match s.
func ExtractSeniority(s string) (model.Seniority, bool) {
	s = strings.ToLower(s)
	for _, rule := range seniorityRules {
		for _, p := range rule.patterns {
			if p.MatchString(s) {
				return rule.level, true
			}
		}
	}
	return model.SeniorityUnset, false
}

// ExtractWorkArrangement checks remote, then hybrid, then on-site patterns.
func ExtractWorkArrangement(s string) (model.WorkArrangement, bool) {
	s = strings.ToLower(s)
	for _, rule := range arrangementRules {
		if rule.pattern.MatchString(s) {
			return rule.arrangement, true
		}
	}
	return model.ArrangementUnset, false
}
