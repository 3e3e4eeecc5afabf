package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/jobmarket-cli/internal/config"
)

const fixtureCSV = `collected_at,title,company,location,link,description,role_category,seniority,work_arrangement,tech_stack,cloud_tools,soft_skills,languages,education
2024-05-01,Senior Data Engineer,Acme,"São Paulo, SP (Remoto)",https://jobs.example/1,"Build batch pipelines with Python and Spark on AWS. Team works fully remote.",,,,,,,,
2024-05-01,Data Analyst,Beta,Recife,https://jobs.example/2,curta,,,,,,,,
2024-05-02,Analista de Dados Jr,Gamma,"Recife, PE",https://jobs.example/3,"Dashboards in SQL and Power BI for the finance team.",Data Analyst,Junior,Hybrid,['SQL'],[],[],[],Unspecified
`

// writeFixture writes the sample dataset into a temp dir and returns its path.
func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vagas.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV), 0o644))
	return path
}

// testConfig returns an offline configuration with pacing disabled.
func testConfig(t *testing.T, datasetPath string) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Dataset.File = datasetPath
	c.Classifier.Provider = "gemini"
	c.Classifier.MaxDescriptionChars = 8000
	c.Classifier.TitleAttempts = 1
	c.Classifier.DescriptionAttempts = 1
	c.Enrich.MinDescriptionChars = 10
	c.Enrich.CheckpointEvery = 5
	c.Store.Driver = "sqlite"
	c.Store.DSN = filepath.Join(t.TempDir(), "runs.db")
	c.Server.Port = 8080
	c.Log.Level = "error"
	c.Log.Format = "json"
	return c
}
