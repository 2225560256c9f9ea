package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/okian/sentiscan/internal/domain/types"
	"github.com/okian/sentiscan/pkg/logger"
)

func (c *cli) appsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the app catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			apps := svc.Apps()
			if c.flags.json {
				return writeJSON(c.out, apps)
			}
			rows := make([][]string, 0, len(apps))
			for _, a := range apps {
				rows = append(rows, []string{a.Name, a.ID})
			}
			return renderTable(c.out, []string{"Name", "Package"}, rows)
		},
	}
}

func (c *cli) analyzeCmd() *cobra.Command {
	var app, start, end string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze reviews for one date range",
		Long: `Fetch (or load stored) reviews for every day in the range, then print
metrics and one summary per theme.

Examples:
  sentiscan-cli analyze --app Singtel --start 2024-01-01 --end 2024-01-07
  sentiscan-cli analyze --app https://play.google.com/store/apps/details?id=com.jio.myjio --start 2024-01-01 --end 2024-01-01 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dr, err := types.ParseDateRange(start, end)
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			c.log.Debug(cmd.Context(), "analyze", logger.String("app", app), logger.String("range", dr.String()))
			res, err := svc.Analyze(cmd.Context(), app, dr)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, res)
			}
			return renderPeriod(c.out, res)
		},
	}
	cmd.Flags().StringVar(&app, "app", "", "catalogue name, package id or Play Store URL")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var app, a, b string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two date ranges",
		Long: `Analyze two ranges for the same app and print metric changes from A to B
with a comparison summary.

Example:
  sentiscan-cli compare --app Singtel --a 2024-01-01:2024-01-07 --b 2024-01-08:2024-01-14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ra, err := parseSpan(a)
			if err != nil {
				return fmt.Errorf("--a: %w", err)
			}
			rb, err := parseSpan(b)
			if err != nil {
				return fmt.Errorf("--b: %w", err)
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.Compare(cmd.Context(), app, ra, rb)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, res)
			}
			return renderComparison(c.out, res)
		},
	}
	cmd.Flags().StringVar(&app, "app", "", "catalogue name, package id or Play Store URL")
	cmd.Flags().StringVar(&a, "a", "", "period A as START:END")
	cmd.Flags().StringVar(&b, "b", "", "period B as START:END")
	_ = cmd.MarkFlagRequired("app")
	_ = cmd.MarkFlagRequired("a")
	_ = cmd.MarkFlagRequired("b")
	return cmd
}

func (c *cli) compareAppsCmd() *cobra.Command {
	var a, b, start, end string
	cmd := &cobra.Command{
		Use:   "compare-apps",
		Short: "Compare two apps over one date range",
		Long: `Analyze the same range for two apps and print metric changes from A to B
with a competitive summary.

Example:
  sentiscan-cli compare-apps --a Singtel --b M1 --start 2024-01-01 --end 2024-01-07`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dr, err := types.ParseDateRange(start, end)
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			res, err := svc.CompareApps(cmd.Context(), a, b, dr)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, res)
			}
			return renderComparison(c.out, res)
		},
	}
	cmd.Flags().StringVar(&a, "a", "", "app A: catalogue name, package id or Play Store URL")
	cmd.Flags().StringVar(&b, "b", "", "app B: catalogue name, package id or Play Store URL")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	for _, f := range []string{"a", "b", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (c *cli) versionsCmd() *cobra.Command {
	var app, start, end, a, b string
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Show the app versions reviewed in a date range",
		Long: `Attribute each review to the app version it was written against, then
print the version timeline. With --a and --b, compare those two versions.

Examples:
  sentiscan-cli versions --app Singtel --start 2024-01-01 --end 2024-01-31
  sentiscan-cli versions --app Singtel --start 2024-01-01 --end 2024-01-31 --a 5.1.0 --b 5.2.0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dr, err := types.ParseDateRange(start, end)
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			if a != "" {
				res, err := svc.CompareVersions(cmd.Context(), app, dr, a, b)
				if err != nil {
					return err
				}
				if c.flags.json {
					return writeJSON(c.out, res)
				}
				return renderVersionComparison(c.out, res)
			}
			stats, err := svc.Versions(cmd.Context(), app, dr)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, stats)
			}
			return renderVersions(c.out, app, dr, stats)
		},
	}
	cmd.Flags().StringVar(&app, "app", "", "catalogue name, package id or Play Store URL")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD")
	cmd.Flags().StringVar(&a, "a", "", "version A to compare")
	cmd.Flags().StringVar(&b, "b", "", "version B to compare")
	cmd.MarkFlagsRequiredTogether("a", "b")
	for _, f := range []string{"app", "start", "end"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

// parseSpan reads START:END (or START..END) into a range.
func parseSpan(s string) (types.DateRange, error) {
	for _, sep := range []string{"..", ":"} {
		if start, end, ok := strings.Cut(s, sep); ok {
			return types.ParseDateRange(start, end)
		}
	}
	return types.ParseDateRange(s, s)
}

func (c *cli) snapshotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snap"},
		Short:   "Inspect or delete stored daily snapshots",
	}

	var listApp string
	list := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored snapshots",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			appID, err := optionalApp(svc.ResolveApp, listApp)
			if err != nil {
				return err
			}
			keys, err := svc.ListSnapshots(cmd.Context(), appID)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, keys)
			}
			return renderSnapshots(c.out, keys)
		},
	}
	list.Flags().StringVar(&listApp, "app", "", "only this app")

	var clearApp string
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete stored snapshots so they are fetched again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			appID, err := optionalApp(svc.ResolveApp, clearApp)
			if err != nil {
				return err
			}
			n, err := svc.ClearSnapshots(cmd.Context(), appID)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, map[string]int{"deleted": n})
			}
			fmt.Fprintf(c.out, "deleted %d snapshots\n", n)
			return nil
		},
	}
	clearCmd.Flags().StringVar(&clearApp, "app", "", "only this app")

	var getApp, getDate string
	get := &cobra.Command{
		Use:   "get",
		Short: "Fetch (or load) one day and print its reviews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := types.ParseDate(getDate)
			if err != nil {
				return err
			}
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := svc.Snapshot(cmd.Context(), getApp, day)
			if err != nil {
				return err
			}
			if c.flags.json {
				return writeJSON(c.out, snap)
			}
			rows := make([][]string, 0, len(snap.Reviews))
			for _, r := range snap.Reviews {
				rows = append(rows, []string{r.ID, strconv.Itoa(r.Rating), strconv.Itoa(r.ThumbsUp), r.Text})
			}
			fmt.Fprintf(c.out, "%s %s: %d reviews\n\n", snap.AppID, snap.Date, len(snap.Reviews))
			return renderTable(c.out, []string{"ID", "Rating", "Thumbs up", "Text"}, rows)
		},
	}
	get.Flags().StringVar(&getApp, "app", "", "catalogue name, package id or Play Store URL")
	get.Flags().StringVar(&getDate, "date", "", "day, YYYY-MM-DD")
	_ = get.MarkFlagRequired("app")
	_ = get.MarkFlagRequired("date")

	cmd.AddCommand(list, clearCmd, get)
	return cmd
}

func (c *cli) summariesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summaries",
		Short: "Manage cached theme summaries",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			n, err := svc.ClearSummaries(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %d summaries\n", n)
			return nil
		},
	})
	return cmd
}

func optionalApp(resolve func(string) (string, error), ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return resolve(ref)
}
