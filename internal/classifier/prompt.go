package classifier

import (
	"fmt"
	"strings"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

const titlePrompt = `Classify the job title below.

TITLE: %s

Return a single JSON object and nothing else (no markdown, no prose):
{"role_category": "<role>", "seniority": "<level>"}

role_category must be exactly one of: %s.
Use "Other" only when none of the others apply.

seniority must be exactly one of: %s.
Rules:
- Internship: intern, trainee, estagiário.
- Junior: jr, junior, or a trailing roman numeral I.
- Mid: pleno, mid, mid-level, II, III.
- Senior: senior, sr, sênior, IV, V.
- Specialist: staff, principal, lead, expert, specialist, architect.
- Management: manager, head, director, VP, chief.
If the title states no level, return "" for seniority. Do not guess.`

const descriptionPrompt = `Extract structured information from the job posting below.

TITLE: %s
DESCRIPTION:
%s

Return a single JSON object and nothing else (no markdown, no prose):
{
  "work_arrangement": "<arrangement>",
  "tech_stack": ["..."],
  "cloud": ["..."],
  "soft_skills": ["..."],
  "education": "...",
  "languages": ["..."]
}

Fields:
- work_arrangement: exactly one of %s, or "" if the posting does not say.
- tech_stack: every technology mentioned (languages, frameworks, databases, tooling, big data).
- cloud: cloud platforms and managed data services (AWS, Azure, GCP, Databricks, Snowflake, BigQuery, S3, Glue, ...).
- soft_skills: soft skills explicitly requested.
- education: the stated education requirement, or "" if none.
- languages: spoken languages required (e.g. "English", "Portuguese").
Use empty lists when nothing applies.`

func buildTitlePrompt(title string) string {
	return fmt.Sprintf(titlePrompt, title,
		quoteList(model.AllRoles()),
		quoteList(model.AllSeniorities()),
	)
}

func buildDescriptionPrompt(title, description string) string {
	return fmt.Sprintf(descriptionPrompt, title, description,
		quoteList(model.AllArrangements()),
	)
}

func quoteList[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + string(v) + `"`
	}
	return strings.Join(quoted, ", ")
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
