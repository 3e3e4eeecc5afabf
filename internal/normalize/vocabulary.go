package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadVocabulary reads vocabulary overrides from a YAML file of the form:
//
//	expansions:
//	  aws sagemaker: [AWS, SageMaker]
//	substitutions:
//	  gbq: BigQuery
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Vocabulary{}, eris.Wrapf(err, "normalize: read vocabulary %s", path)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, eris.Wrap(err, "normalize: parse vocabulary")
	}
	return Vocabulary{}.Merge(v), nil
}

// FromFile builds a Normalizer from the built-in vocabulary overlaid with the
// YAML file at path. An empty path yields the built-in Normalizer.
func FromFile(path string) (*Normalizer, error) {
	if path == "" {
		return Default(), nil
	}
	overrides, err := LoadVocabulary(path)
	if err != nil {
		return nil, err
	}
	return New(DefaultVocabulary().Merge(overrides)), nil
}
