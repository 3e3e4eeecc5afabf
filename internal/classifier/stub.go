package classifier

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/sells-group/jobmarket-cli/internal/extract"
	"github.com/sells-group/jobmarket-cli/internal/model"
)

// StubProvider answers prompts without a network call, using the rule
// tables and a fixed keyword list. It backs the --offline mode.
type StubProvider struct{}

var promptTitleRe = regexp.MustCompile(`(?m)^TITLE: (.*)$`)

var stubTech = termPatterns(
	"Python", "SQL", "Scala", "Java", "Spark", "Airflow", "dbt", "Kafka",
	"Docker", "Kubernetes", "Terraform", "PostgreSQL", "Pandas",
)

var stubCloud = termPatterns(
	"AWS", "Azure", "GCP", "Databricks", "Snowflake", "BigQuery", "Redshift",
)

// term is a keyword matched on word boundaries, so "Java" stays out of
// "javascript".
type term struct {
	label string
	re    *regexp.Regexp
}

func termPatterns(labels ...string) []term {
	out := make([]term, 0, len(labels))
	for _, l := range labels {
		out = append(out, term{
			label: l,
			re:    regexp.MustCompile(`(?:^|[^\p{L}\p{N}_])` + regexp.QuoteMeta(strings.ToLower(l)) + `(?:$|[^\p{L}\p{N}_])`),
		})
	}
	return out
}

// Generate implements Provider.
func (s *StubProvider) Generate(_ context.Context, req Request) (Response, error) {
	title := ""
	if m := promptTitleRe.FindStringSubmatch(req.Prompt); m != nil {
		title = strings.TrimSpace(m[1])
	}

	var out map[string]any
	switch req.Kind {
	case KindTitle:
		role, _ := extract.ExtractRole(title)
		if !role.IsSet() {
			role = model.RoleOther
		}
		seniority, _ := extract.ExtractSeniority(title)
		out = map[string]any{
			"role_category": string(role),
			"seniority":     string(seniority),
		}
	default:
		body := strings.ToLower(descriptionSection(req.Prompt))
		arrangement, _ := extract.ExtractWorkArrangement(body)
		out = map[string]any{
			"work_arrangement": string(arrangement),
			"tech_stack":       mentioned(body, stubTech),
			"cloud":            mentioned(body, stubCloud),
			"soft_skills":      []string{},
			"education":        "",
			"languages":        []string{},
		}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return Response{}, err
	}
	return Response{
		Text:         string(data),
		InputTokens:  int64(len(req.Prompt) / 4),
		OutputTokens: int64(len(data) / 4),
	}, nil
}

// descriptionSection returns the posting text embedded in a description
// prompt, excluding the instructions around it.
func descriptionSection(prompt string) string {
	const startMarker, endMarker = "DESCRIPTION:\n", "\n\nReturn a single JSON object"
	start := strings.Index(prompt, startMarker)
	if start < 0 {
		return ""
	}
	rest := prompt[start+len(startMarker):]
	if end := strings.Index(rest, endMarker); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func mentioned(body string, terms []term) []string {
	out := []string{}
	for _, t := range terms {
		if t.re.MatchString(body) {
			out = append(out, t.label)
		}
	}
	return out
}
