// Package normalize canonicalizes free-text technology and tool labels into a
// controlled vocabulary.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/jobmarket-cli/internal/model"
)

// Vocabulary holds the lookup tables used by a Normalizer. Keys are
// lower-cased raw labels.
type Vocabulary struct {
	// Expansions map one raw label to several canonical labels.
	Expansions map[string][]string `yaml:"expansions"`
	// Substitutions map one raw label to exactly one canonical label.
	Substitutions map[string]string `yaml:"substitutions"`
}

var defaultExpansions = map[string][]string{
	"azure databricks":   {"Azure", "Databricks"},
	"aws glue":           {"AWS", "Glue"},
	"aws s3":             {"AWS", "S3"},
	"amazon s3":          {"AWS", "S3"},
	"aws lambda":         {"AWS", "Lambda"},
	"aws emr":            {"AWS", "EMR"},
	"aws redshift":       {"AWS", "Redshift"},
	"amazon redshift":    {"AWS", "Redshift"},
	"aws athena":         {"AWS", "Athena"},
	"aws kinesis":        {"AWS", "Kinesis"},
	"gcp bigquery":       {"GCP", "BigQuery"},
	"google bigquery":    {"GCP", "BigQuery"},
	"gcp dataflow":       {"GCP", "Dataflow"},
	"azure data factory": {"Azure", "Azure Data Factory"},
	"azure synapse":      {"Azure", "Synapse"},
	"azure data lake":    {"Azure", "Data Lake"},
	"pyspark":            {"Python", "Spark"},
	"spark sql":          {"Spark", "SQL"},
}

var defaultSubstitutions = map[string]string{
	"sql server":            "SQL",
	"mssql":                 "SQL",
	"ms sql":                "SQL",
	"t-sql":                 "SQL",
	"tsql":                  "SQL",
	"pl/sql":                "SQL",
	"plsql":                 "SQL",
	"postgres":              "PostgreSQL",
	"postgresql":            "PostgreSQL",
	"amazon web services":   "AWS",
	"google cloud":          "GCP",
	"google cloud platform": "GCP",
	"microsoft azure":       "Azure",
	"k8s":                   "Kubernetes",
	"golang":                "Go",
	"apache spark":          "Spark",
	"apache airflow":        "Airflow",
	"apache kafka":          "Kafka",
	"power bi":              "Power BI",
	"powerbi":               "Power BI",
	"adf":                   "Azure Data Factory",
	"js":                    "JavaScript",
	"javascript":            "JavaScript",
	"ci/cd":                 "CI/CD",
	"cicd":                  "CI/CD",
}

// DefaultVocabulary returns a copy of the built-in tables.
func DefaultVocabulary() Vocabulary {
	v := Vocabulary{
		Expansions:    make(map[string][]string, len(defaultExpansions)),
		Substitutions: make(map[string]string, len(defaultSubstitutions)),
	}
	for k, targets := range defaultExpansions {
		v.Expansions[k] = append([]string(nil), targets...)
	}
	for k, target := range defaultSubstitutions {
		v.Substitutions[k] = target
	}
	return v
}

// Merge overlays other onto v. Entries in other win.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := Vocabulary{
		Expansions:    make(map[string][]string, len(v.Expansions)+len(other.Expansions)),
		Substitutions: make(map[string]string, len(v.Substitutions)+len(other.Substitutions)),
	}
	for k, targets := range v.Expansions {
		out.Expansions[k] = targets
	}
	for k, target := range v.Substitutions {
		out.Substitutions[k] = target
	}
	for k, targets := range other.Expansions {
		out.Expansions[foldKey(k)] = targets
	}
	for k, target := range other.Substitutions {
		out.Substitutions[foldKey(k)] = target
	}
	return out
}

// Normalizer maps raw labels to canonical labels. It is safe for
// concurrent use once built.
type Normalizer struct {
	vocab Vocabulary
}

// New creates a Normalizer over vocab.
func New(vocab Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab}
}

// Default creates a Normalizer over the built-in vocabulary.
func Default() *Normalizer {
	return New(DefaultVocabulary())
}

// Normalize canonicalizes labels. Empty entries are ignored; unmapped labels
// pass through with their original casing, trimmed.
func (n *Normalizer) Normalize(labels []string) model.LabelSet {
	var out model.LabelSet
	for _, raw := range labels {
		label := strings.TrimSpace(raw)
		if label == "" {
			continue
		}
		key := foldKey(label)
		if targets, ok := n.vocab.Expansions[key]; ok {
			out.Add(targets...)
			continue
		}
		if target, ok := n.vocab.Substitutions[key]; ok {
			out.Add(target)
			continue
		}
		out.Add(label)
	}
	return out
}

// foldKey lower-cases s and collapses internal whitespace.
func foldKey(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
