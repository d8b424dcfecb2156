package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/owenleonard11/chronam-utils/pkg/chronam"
	"github.com/owenleonard11/chronam-utils/pkg/config"
	"github.com/owenleonard11/chronam-utils/pkg/logger"
	"github.com/owenleonard11/chronam-utils/pkg/query"
	"github.com/owenleonard11/chronam-utils/pkg/retriever"
)

var (
	// Search command flags
	searchAndText      []string
	searchOrText       []string
	searchProxText     []string
	searchPhrase       string
	searchProxDistance int
	searchState        string
	searchLCCN         string
	searchDateFilter   string
	searchDate1        string
	searchDate2        string
	searchSequence     int
	searchLanguage     string
	searchSort         string
	searchMaxResults   int
	searchDesc         string

	searchQueriesFile string
	searchIDsOut      string
	searchJSONOut     string
	searchResume      bool
	searchRestart     bool
	searchWorkers     int
	searchPageSize    int
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the archive and save the matching page ids",
	Long: `Run an advanced search against the archive and retrieve every matching
page record, paging through the full result set under the rate limit.

A single query is described with flags; a batch of queries is described in a
YAML file passed with --queries, and the batch runs concurrently against the
shared rate budget. Collected ids are written one per line to the --out file,
merged and deduplicated across queries.`,
	Example: `  # All front pages mentioning "homestead" in Nebraska
  chronam search --andtext homestead --state Nebraska --sequence 1

  # Full-date range with results capped and saved to a custom file
  chronam search --phrase "gold standard" --date-filter range \
    --date1 1896-01-01 --date2 1896-12-31 --max-results 500 --out gold.txt

  # A batch of queries from a YAML file, resuming interrupted progress
  chronam search --queries queries.yaml --resume

  # Also dump the full records as JSON
  chronam search --andtext aviation --json aviation.json`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringSliceVar(&searchAndText, "andtext", nil, "terms that must all appear (single words)")
	searchCmd.Flags().StringSliceVar(&searchOrText, "ortext", nil, "terms of which at least one must appear")
	searchCmd.Flags().StringSliceVar(&searchProxText, "proxtext", nil, "terms that must appear near each other")
	searchCmd.Flags().IntVar(&searchProxDistance, "proxdistance", 0, "maximum word distance between proxtext terms")
	searchCmd.Flags().StringVar(&searchPhrase, "phrase", "", "exact phrase to match")
	searchCmd.Flags().StringVar(&searchState, "state", "", "publication state")
	searchCmd.Flags().StringVar(&searchLCCN, "lccn", "", "Library of Congress Control Number")
	searchCmd.Flags().StringVar(&searchDateFilter, "date-filter", "", "date filter type: yearRange or range")
	searchCmd.Flags().StringVar(&searchDate1, "date1", "", "start date (YYYY-MM-DD or YYYY)")
	searchCmd.Flags().StringVar(&searchDate2, "date2", "", "end date (YYYY-MM-DD or YYYY)")
	searchCmd.Flags().IntVar(&searchSequence, "sequence", 0, "restrict to one page per issue (1 = front page)")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "language code (e.g. eng, ger, spa)")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort order: relevance, state, title, date")
	searchCmd.Flags().IntVar(&searchMaxResults, "max-results", 0, "cap on records to retrieve (0 = all)")
	searchCmd.Flags().StringVar(&searchDesc, "desc", "", "label for this query in output and checkpoints")

	searchCmd.Flags().StringVar(&searchQueriesFile, "queries", "", "YAML file describing a batch of queries")
	searchCmd.Flags().StringVarP(&searchIDsOut, "out", "o", "ids.txt", "file to write matching page ids to")
	searchCmd.Flags().StringVar(&searchJSONOut, "json", "", "file to write full records to as JSON")
	searchCmd.Flags().BoolVar(&searchResume, "resume", false, "resume from checkpoints of an interrupted run")
	searchCmd.Flags().BoolVar(&searchRestart, "force-restart", false, "discard checkpoints and start from scratch")
	searchCmd.Flags().IntVar(&searchWorkers, "workers", 0, "concurrent queries in a batch (0 = configured default)")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "results per request")
}

// querySpec is the YAML shape of one query in a --queries file
type querySpec struct {
	Desc         string   `yaml:"desc"`
	AndText      []string `yaml:"andtext"`
	OrText       []string `yaml:"ortext"`
	ProxText     []string `yaml:"proxtext"`
	ProxDistance int      `yaml:"proxdistance"`
	Phrase       string   `yaml:"phrase"`
	State        string   `yaml:"state"`
	LCCN         string   `yaml:"lccn"`
	DateFilter   string   `yaml:"date_filter"`
	Date1        string   `yaml:"date1"`
	Date2        string   `yaml:"date2"`
	Sequence     int      `yaml:"sequence"`
	Language     string   `yaml:"language"`
	Sort         string   `yaml:"sort"`
	MaxResults   int      `yaml:"max_results"`
}

type queriesFile struct {
	Queries []querySpec `yaml:"queries"`
}

func (spec querySpec) toQuery() (*chronam.Query, error) {
	date1, err := parseSearchDate(spec.Date1)
	if err != nil {
		return nil, fmt.Errorf("date1: %w", err)
	}
	date2, err := parseSearchDate(spec.Date2)
	if err != nil {
		return nil, fmt.Errorf("date2: %w", err)
	}

	return chronam.NewQuery(chronam.Query{
		AndText:        spec.AndText,
		OrText:         spec.OrText,
		ProxText:       spec.ProxText,
		ProxDistance:   spec.ProxDistance,
		PhraseText:     spec.Phrase,
		State:          spec.State,
		LCCN:           spec.LCCN,
		DateFilterType: spec.DateFilter,
		Date1:          date1,
		Date2:          date2,
		Sequence:       spec.Sequence,
		Language:       spec.Language,
		Sort:           spec.Sort,
		MaxResults:     spec.MaxResults,
		Desc:           spec.Desc,
	})
}

// parseSearchDate accepts YYYY-MM-DD or a bare year
func parseSearchDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYY", s)
}

// buildQueries assembles the query list from either the flags or the YAML
// batch file
func buildQueries() ([]*chronam.Query, error) {
	if searchQueriesFile != "" {
		data, err := os.ReadFile(searchQueriesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read queries file: %w", err)
		}

		var batch queriesFile
		if err := yaml.Unmarshal(data, &batch); err != nil {
			return nil, fmt.Errorf("failed to parse queries file: %w", err)
		}
		if len(batch.Queries) == 0 {
			return nil, fmt.Errorf("queries file %s lists no queries", searchQueriesFile)
		}

		queries := make([]*chronam.Query, 0, len(batch.Queries))
		for i, spec := range batch.Queries {
			q, err := spec.toQuery()
			if err != nil {
				return nil, fmt.Errorf("query %d: %w", i+1, err)
			}
			queries = append(queries, q)
		}
		return queries, nil
	}

	spec := querySpec{
		Desc:         searchDesc,
		AndText:      searchAndText,
		OrText:       searchOrText,
		ProxText:     searchProxText,
		ProxDistance: searchProxDistance,
		Phrase:       searchPhrase,
		State:        searchState,
		LCCN:         searchLCCN,
		DateFilter:   searchDateFilter,
		Date1:        searchDate1,
		Date2:        searchDate2,
		Sequence:     searchSequence,
		Language:     searchLanguage,
		Sort:         searchSort,
		MaxResults:   searchMaxResults,
	}
	q, err := spec.toQuery()
	if err != nil {
		return nil, err
	}
	return []*chronam.Query{q}, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	flags := globalFlags()
	if searchPageSize > 0 {
		flags["page-size"] = searchPageSize
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	queries, err := buildQueries()
	if err != nil {
		return err
	}

	r, err := retriever.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states, err := r.Search(ctx, queries, retriever.SearchOptions{
		Resume:       searchResume,
		ForceRestart: searchRestart,
		Workers:      searchWorkers,
	})
	if err != nil {
		return fmt.Errorf("search interrupted: %w", err)
	}

	printSearchSummary(states)

	n, err := query.DumpIDs(searchIDsOut, states...)
	if err != nil {
		return err
	}
	fmt.Printf("\nWrote %d ids to %s\n", n, searchIDsOut)

	if searchJSONOut != "" {
		n, err := query.DumpJSON(searchJSONOut, states...)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote %d records to %s\n", n, searchJSONOut)
	}

	if failed := failedCount(states); failed > 0 {
		return fmt.Errorf("%d of %d queries failed; re-run with --resume to continue them", failed, len(states))
	}
	return nil
}

func failedCount(states []*query.State) int {
	n := 0
	for _, st := range states {
		if st.Status != query.StatusComplete {
			n++
		}
	}
	return n
}

func printSearchSummary(states []*query.State) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Query", "Status", "Collected", "Available"})

	for _, st := range states {
		desc := st.Query.Desc
		if len(desc) > 48 {
			desc = desc[:45] + "..."
		}
		available := "?"
		if st.TotalAvailable >= 0 {
			available = fmt.Sprint(st.TotalAvailable)
		}
		t.AppendRow(table.Row{desc, strings.ToUpper(string(st.Status)), len(st.Results), available})
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
