// Package version attributes reviews to app versions and builds the release
// timeline seen through them.
package version

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// Mentions of a version in free text, tried in order.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`version\s+(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`\bv(\d+\.\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)\s+version`),
	regexp.MustCompile(`update\s+(\d+\.\d+(?:\.\d+)?)`),
}

// Extract returns the first version mentioned in text, or "".
func Extract(text string) string {
	text = strings.ToLower(text)
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// Of returns the version a review is attributed to: the store-reported one
// when present, otherwise one mentioned in the text.
func Of(r model.Review) string {
	if v := strings.TrimSpace(r.Version); v != "" {
		return v
	}
	return Extract(r.Text)
}

// Group partitions reviews by version, keeping input order inside each
// group. Reviews without a version are left out.
func Group(reviews []model.Review) map[string][]model.Review {
	out := map[string][]model.Review{}
	for _, r := range reviews {
		if v := Of(r); v != "" {
			out[v] = append(out[v], r)
		}
	}
	return out
}

// Stats aggregates each version. scores must be index-aligned with
// reviews. The result is the timeline: ordered by first day seen, then by
// version number.
func Stats(reviews []model.Review, scores []model.SentimentScore) []model.VersionStat {
	type acc struct {
		stat          model.VersionStat
		rating, polar float64
	}
	byVersion := map[string]*acc{}
	for i, r := range reviews {
		v := Of(r)
		if v == "" {
			continue
		}
		day := types.FormatDate(r.PostedAt)
		a, ok := byVersion[v]
		if !ok {
			a = &acc{stat: model.VersionStat{Version: v, FirstSeen: day, LastSeen: day}}
			byVersion[v] = a
		}
		a.stat.Count++
		a.rating += float64(r.Rating)
		if i < len(scores) {
			a.polar += scores[i].Polarity
		}
		if day < a.stat.FirstSeen {
			a.stat.FirstSeen = day
		}
		if day > a.stat.LastSeen {
			a.stat.LastSeen = day
		}
	}

	out := make([]model.VersionStat, 0, len(byVersion))
	for _, a := range byVersion {
		n := float64(a.stat.Count)
		rating, polar := a.rating/n, a.polar/n
		a.stat.MeanRating, a.stat.MeanPolarity = &rating, &polar
		out = append(out, a.stat)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FirstSeen != out[j].FirstSeen {
			return out[i].FirstSeen < out[j].FirstSeen
		}
		return Less(out[i].Version, out[j].Version)
	})
	return out
}

// Less orders dotted version strings numerically segment by segment;
// "1.10" sorts after "1.9". Non-numeric segments compare as text.
func Less(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] == bs[i] {
			continue
		}
		ai, errA := strconv.Atoi(as[i])
		bi, errB := strconv.Atoi(bs[i])
		if errA == nil && errB == nil {
			return ai < bi
		}
		return as[i] < bs[i]
	}
	return len(as) < len(bs)
}
