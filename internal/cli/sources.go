package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jimdaga/nextrend/internal/ingest"
	"github.com/jimdaga/nextrend/internal/models"
	"github.com/jimdaga/nextrend/internal/sources"
	"github.com/spf13/cobra"
)

var (
	flagKind       string
	flagSearchKind string
	flagTab   string
	flagPage  int
	flagLimit int
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Browse and refresh the local source cache",
}

var sourcesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch commentary and trending feeds into the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(commandContext(cmd), 2*time.Minute)
		defer cancel()

		ws, err := openWorkspace(ctx, false)
		if err != nil {
			return err
		}
		defer ws.Close()

		feeds := ingest.DefaultFeeds()
		if ws.cfg.FeedsFile != "" {
			if feeds, err = ingest.LoadFeeds(ws.cfg.FeedsFile); err != nil {
				return err
			}
		}
		index, err := sources.NewIndex()
		if err != nil {
			return err
		}
		defer index.Close()

		fmt.Fprintln(cmd.ErrOrStderr(), "Fetching feeds...")
		res, err := ingest.NewRefresher(ws.sources, index, feeds, ingest.NewScraper(), ws.logger).Refresh(ctx)
		for _, e := range res.Errors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  [warn] %v\n", e)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d feeds, %d items: %d new, %d updated.\n", res.Feeds, res.Fetched, res.Created, res.Updated)
		return nil
	},
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached source items",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		kind, err := parseKind(flagKind)
		if err != nil {
			return err
		}
		ws, err := openWorkspace(ctx, false)
		if err != nil {
			return err
		}
		defer ws.Close()

		page, err := ws.sources.List(ctx, kind, sources.Query{Tab: flagTab, Page: flagPage})
		if err != nil {
			return err
		}
		printSources(cmd, page.Items)
		fmt.Fprintf(cmd.OutOrStdout(), "Page %d of %d (%d items)\n", page.Page, page.TotalPages, page.Total)
		return nil
	},
}

var sourcesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over cached source items",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		kind := ""
		if flagSearchKind != "" {
			k, err := parseKind(flagSearchKind)
			if err != nil {
				return err
			}
			kind = k
		}
		ws, err := openWorkspace(ctx, false)
		if err != nil {
			return err
		}
		defer ws.Close()

		rows, err := ws.sources.AllPublished(ctx)
		if err != nil {
			return err
		}
		index, err := sources.NewIndex()
		if err != nil {
			return err
		}
		defer index.Close()
		if err := index.Rebuild(rows); err != nil {
			return err
		}

		ids, err := index.Search(args[0], kind, flagLimit)
		if err != nil {
			return err
		}
		items, err := ws.sources.GetMany(ctx, ids)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
			return nil
		}
		printSources(cmd, items)
		return nil
	},
}

func init() {
	sourcesListCmd.Flags().StringVar(&flagKind, "kind", "trending", "commentary, trending or glossary")
	sourcesListCmd.Flags().StringVar(&flagTab, "tab", "all", "category tab (all, mortgage, housing, economy)")
	sourcesListCmd.Flags().IntVar(&flagPage, "page", 1, "page number")
	sourcesSearchCmd.Flags().StringVar(&flagSearchKind, "kind", "", "limit to one kind")
	sourcesSearchCmd.Flags().IntVar(&flagLimit, "limit", sources.PerPage, "maximum results")

	sourcesCmd.AddCommand(sourcesRefreshCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesSearchCmd)
}

func parseKind(s string) (string, error) {
	switch s {
	case models.SourceKindCommentary, models.SourceKindTrending, models.SourceKindGlossary:
		return s, nil
	case "general":
		return models.SourceKindGlossary, nil
	default:
		return "", fmt.Errorf("unknown kind %q (valid: commentary, trending, glossary)", s)
	}
}

func printSources(cmd *cobra.Command, items []sources.Source) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tTITLE")
	for _, it := range items {
		m := it.Meta()
		date := ""
		if !m.Date.IsZero() {
			date = m.Date.Format("Jan 2")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.ID, date, m.Category, truncate(m.Title, 70))
	}
	tw.Flush()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
