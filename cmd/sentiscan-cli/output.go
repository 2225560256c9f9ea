package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNormal},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{Borders: tw.BorderNone}),
	)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	t := newTable(w)
	t.Header(header)
	if err := t.Bulk(rows); err != nil {
		return err
	}
	return t.Render()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func num(v *float64, prec int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func signed(v *float64, prec int) string {
	if v == nil {
		return "n/a"
	}
	s := strconv.FormatFloat(*v, 'f', prec, 64)
	if *v > 0 {
		return "+" + s
	}
	return s
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v*100, 'f', 1, 64) + "%"
}

func renderPeriod(w io.Writer, p model.PeriodResult) error {
	m := p.Metrics
	fmt.Fprintf(w, "%s  %s to %s\n\n", p.AppID, types.FormatDate(p.Range.Start), types.FormatDate(p.Range.End))
	if err := renderTable(w, []string{"Metric", "Value"}, [][]string{
		{"reviews", strconv.Itoa(m.TotalCount)},
		{"mean sentiment", num(m.MeanPolarity, 3)},
		{"mean rating", num(m.MeanRating, 2)},
		{"response rate", percent(m.ResponseRate)},
		{"mean thumbs up", num(m.MeanEngagement, 1)},
	}); err != nil {
		return err
	}
	fmt.Fprintln(w)

	ratings := make([][]string, 0, 5)
	for r := 5; r >= 1; r-- {
		s := "n/a"
		if v, ok := m.SentimentByRating[r]; ok {
			s = strconv.FormatFloat(v, 'f', 3, 64)
		}
		ratings = append(ratings, []string{strconv.Itoa(r), strconv.Itoa(m.RatingDistribution[r]), s})
	}
	if err := renderTable(w, []string{"Rating", "Count", "Sentiment"}, ratings); err != nil {
		return err
	}
	fmt.Fprintln(w)

	if len(p.Summaries) == 0 {
		fmt.Fprintln(w, "no themes for this period")
		return nil
	}
	themes := make([][]string, 0, len(p.Summaries))
	for _, s := range p.Summaries {
		themes = append(themes, []string{s.Cluster.Label, strconv.Itoa(s.Cluster.Size()), s.Summary.Text})
	}
	return renderTable(w, []string{"Theme", "Reviews", "Summary"}, themes)
}

func renderComparison(w io.Writer, c *model.ComparisonResult) error {
	if c.Kind == model.KindApps {
		fmt.Fprintf(w, "A %s  vs  B %s  %s\n\n", c.A.AppID, c.B.AppID, c.A.Range)
	} else {
		fmt.Fprintf(w, "%s  A %s  vs  B %s\n\n", c.AppID, c.A.Range, c.B.Range)
	}
	if err := renderDelta(w, c.A.Metrics, c.B.Metrics, c.Delta); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", c.DeltaSummary.Text)
	return nil
}

func renderDelta(w io.Writer, a, b model.Metrics, d model.MetricsDelta) error {
	if err := renderTable(w, []string{"Metric", "A", "B", "Change"}, [][]string{
		{"reviews", strconv.Itoa(a.TotalCount), strconv.Itoa(b.TotalCount), fmt.Sprintf("%+d", d.TotalCount)},
		{"mean sentiment", num(a.MeanPolarity, 3), num(b.MeanPolarity, 3), signed(d.MeanPolarity, 3)},
		{"mean rating", num(a.MeanRating, 2), num(b.MeanRating, 2), signed(d.MeanRating, 2)},
		{"response rate", percent(a.ResponseRate), percent(b.ResponseRate), signed(d.ResponseRate, 3)},
		{"mean thumbs up", num(a.MeanEngagement, 1), num(b.MeanEngagement, 1), signed(d.MeanEngagement, 1)},
	}); err != nil {
		return err
	}

	shares := make([][]string, 0, len(d.ThemeShares)+len(d.TopicShares))
	for _, kind := range []struct {
		name   string
		deltas map[string]float64
	}{{"theme", d.ThemeShares}, {"topic", d.TopicShares}} {
		keys := make([]string, 0, len(kind.deltas))
		for k := range kind.deltas {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v := kind.deltas[k]
			shares = append(shares, []string{kind.name, k, signed(&v, 3)})
		}
	}
	if len(shares) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return renderTable(w, []string{"Kind", "Name", "Share change"}, shares)
}

func renderVersions(w io.Writer, appID string, dr types.DateRange, stats []model.VersionStat) error {
	fmt.Fprintf(w, "%s  %s\n\n", appID, dr)
	if len(stats) == 0 {
		fmt.Fprintln(w, "no versions found for this period")
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, v := range stats {
		rows = append(rows, []string{v.Version, strconv.Itoa(v.Count), num(v.MeanRating, 2), num(v.MeanPolarity, 3), v.FirstSeen, v.LastSeen})
	}
	return renderTable(w, []string{"Version", "Reviews", "Rating", "Sentiment", "First seen", "Last seen"}, rows)
}

func renderVersionComparison(w io.Writer, c *model.VersionComparison) error {
	fmt.Fprintf(w, "%s  %s  A %s  vs  B %s\n\n", c.AppID, c.Range, c.A.Version, c.B.Version)
	return renderDelta(w, c.A.Metrics, c.B.Metrics, c.Delta)
}

func renderSnapshots(w io.Writer, keys []model.SnapshotKey) error {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].AppID != keys[j].AppID {
			return keys[i].AppID < keys[j].AppID
		}
		return keys[i].Date < keys[j].Date
	})
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k.AppID, k.Date})
	}
	return renderTable(w, []string{"App", "Date"}, rows)
}
