package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/jobmarket-cli/internal/dashboard"
	"github.com/sells-group/jobmarket-cli/internal/dataset"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print market statistics for the dataset",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("read"); err != nil {
			return err
		}
		ds, err := dataset.Load(cfg.Dataset.File)
		if err != nil {
			return err
		}

		f, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		sum := dashboard.Summarize(dashboard.Apply(ds.Records, f))

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(sum)
		}
		formatStats(os.Stdout, sum)
		return nil
	},
}

func init() {
	statsCmd.Flags().String("role", "", "filter by role category")
	statsCmd.Flags().String("seniority", "", "filter by seniority")
	statsCmd.Flags().String("arrangement", "", "filter by work arrangement")
	statsCmd.Flags().Bool("json", false, "print as JSON")
	rootCmd.AddCommand(statsCmd)
}

// filterFromFlags reads the filter flags with the same rules as the
// dashboard query string.
func filterFromFlags(cmd *cobra.Command) (dashboard.Filter, error) {
	q := url.Values{}
	for _, name := range []string{"role", "seniority", "arrangement"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			q.Set(name, v)
		}
	}
	return dashboard.ParseFilter(q)
}

// formatStats writes a summary to w.
func formatStats(out io.Writer, s dashboard.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Jobs:\t%d\n", s.Jobs)
	_, _ = fmt.Fprintf(w, "Companies:\t%d\n", s.UniqueCompanies)
	_, _ = fmt.Fprintf(w, "Top role:\t%s\n", orDash(s.TopRole))
	_, _ = fmt.Fprintf(w, "Top seniority:\t%s\n", orDash(s.TopSeniority))
	_, _ = fmt.Fprintf(w, "Top arrangement:\t%s\n", orDash(s.TopArrangement))
	_, _ = fmt.Fprintf(w, "Top company:\t%s\n", orDash(s.TopCompany))
	_, _ = fmt.Fprintf(w, "Top location:\t%s\n", orDash(s.TopLocation))
	_, _ = fmt.Fprintf(w, "Top tech:\t%s\n", orDash(s.TopTech))
	_ = w.Flush()

	writeCounts(out, "TECH", s.TechCounts)
	writeCounts(out, "CLOUD", s.CloudCounts)
}

func writeCounts(out io.Writer, label string, counts []dashboard.Count) {
	if len(counts) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\tJOBS\n", label)
	for _, c := range counts {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", c.Label, c.Count)
	}
	_ = w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
