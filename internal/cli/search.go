package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wacspeakers/speakerdir/internal/client"
	"github.com/wacspeakers/speakerdir/internal/models"
	"github.com/wacspeakers/speakerdir/internal/state"
)

var (
	searchOffset   int
	searchLimit    int
	searchMore     int
	searchLocation string
	searchIdentity string
	searchLink     string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search speaker profiles",
	Long: `Search the speaker directory.

Without a query the unfiltered listing is shown. Results arrive one page at
a time; --more fetches additional pages and appends them, dropping speakers
that were already listed. --link reopens a search from a shared link and
replaces the query and filter flags.

Examples:
  speakerdir search
  speakerdir search "machine learning"
  speakerdir search design --location Berlin --more 2
  speakerdir search --identity "Woman of color" --offset 40
  speakerdir search --link "https://speakers.example.org/?q=design&location=Berlin"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

var speakerCmd = &cobra.Command{
	Use:   "speaker <id> [slug]",
	Short: "Show one speaker profile",
	Long: `Show a speaker's detail view.

The optional slug is the name part of a profile link such as
/speakers/jane-doe-42. When it is missing or outdated the canonical route
is printed.

Examples:
  speakerdir speaker 42
  speakerdir speaker 42 jane-doe-42`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSpeaker,
}

func init() {
	searchCmd.Flags().IntVar(&searchOffset, "offset", 0, "offset of the first result")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", models.DefaultLimit, "page size")
	searchCmd.Flags().IntVar(&searchMore, "more", 0, "additional pages to load")
	searchCmd.Flags().StringVarP(&searchLocation, "location", "l", "", "filter by location")
	searchCmd.Flags().StringVarP(&searchIdentity, "identity", "i", "", "filter by identity")
	searchCmd.Flags().StringVar(&searchLink, "link", "", "shared search link or query string to reopen")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	params, err := searchParams(args)
	if err != nil {
		return err
	}

	searchSvc.UpdateSearchParams(params)
	if err := searchSvc.Refresh(ctx); err != nil {
		return err
	}
	for i := 0; i < searchMore && !store.Search().EndOfResults; i++ {
		if err := searchSvc.LoadMore(ctx); err != nil {
			return err
		}
	}

	printResults(cmd.OutOrStdout(), store.Search())
	return nil
}

// searchParams builds the first page from the arguments and flags, or from
// --link when it is set.
func searchParams(args []string) (models.SearchParams, error) {
	if searchLink != "" {
		if len(args) > 0 {
			return models.SearchParams{}, errors.New("pass either a query or --link, not both")
		}
		return linkParams(searchLink)
	}
	if searchLimit <= 0 {
		return models.SearchParams{}, fmt.Errorf("--limit must be positive, got %d", searchLimit)
	}
	if searchOffset < 0 {
		return models.SearchParams{}, fmt.Errorf("--offset must not be negative, got %d", searchOffset)
	}

	var q string
	if len(args) > 0 {
		q = args[0]
	}
	params := models.NewSearch(q)
	params.Offset = &searchOffset
	params.Limit = &searchLimit
	params.Location = &searchLocation
	params.Identity = &searchIdentity
	return params, nil
}

// linkParams reads the search carried by a shared link such as the one
// printed after "Share:". A bare query string is accepted too.
func linkParams(link string) (models.SearchParams, error) {
	raw := link
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	} else if strings.Contains(raw, "://") {
		raw = ""
	}
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	q, err := client.DecodeQuery(raw)
	if err != nil {
		return models.SearchParams{}, fmt.Errorf("invalid search link %q: %w", link, err)
	}
	appendResults := false
	return models.SearchParams{
		Q:        &q.Q,
		Offset:   &q.Offset,
		Limit:    &q.Limit,
		Append:   &appendResults,
		Location: &q.Location,
		Identity: &q.Identity,
	}, nil
}

func printResults(out io.Writer, search state.SearchState) {
	if len(search.Results) == 0 {
		fmt.Fprintln(out, "No speakers found.")
		return
	}

	fmt.Fprintf(out, "Found %d speakers:\n\n", len(search.Results))
	for i, sp := range search.Results {
		fmt.Fprintln(out, formatSpeakerLine(defaultTheme, i, sp))
	}
	fmt.Fprintln(out)
	if search.EndOfResults {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("End of results."))
	} else {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("More speakers available, use --more to load them."))
	}
	fmt.Fprintln(out, defaultTheme.hintStyle().Render("Share: "+loc.ShareURL(gateway.BaseURL())))
}

func runSpeaker(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid speaker id %q: %w", args[0], err)
	}
	var hint string
	if len(args) > 1 {
		hint = args[1]
	}

	if err := searchSvc.GetSpeaker(cmd.Context(), id, hint); err != nil {
		return err
	}
	if sp := store.Search().Speaker; sp != nil {
		fmt.Fprint(cmd.OutOrStdout(), formatSpeakerDetail(defaultTheme, *sp))
	}
	return nil
}
