package summarizer

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

const maxPromptReviews = 100

func clusterPrompt(appID, label string, dr types.DateRange, texts []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following %s reviews of the app %s posted %s and summarize them, covering:\n", label, appID, dr)
	sb.WriteString("1. Overall sentiment and user satisfaction\n")
	sb.WriteString("2. Features and functionality mentioned\n")
	sb.WriteString("3. Common issues and pain points\n")
	sb.WriteString("4. Concrete suggestions for improvement\n\n")
	sb.WriteString("Reviews:\n")
	for i, t := range texts {
		if i == maxPromptReviews {
			fmt.Fprintf(&sb, "(%d more reviews omitted)\n", len(texts)-maxPromptReviews)
			break
		}
		fmt.Fprintf(&sb, "- %s\n", t)
	}
	return sb.String()
}

func comparisonPrompt(appID string, a, b types.DateRange, ma, mb model.Metrics, d model.MetricsDelta) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compare user reviews of the app %s between period A (%s) and period B (%s).\n", appID, a, b)
	sb.WriteString("Describe what changed qualitatively and what most likely drove it.\n\n")
	figures(&sb, ma, mb, d)
	return sb.String()
}

func competitivePrompt(appA, appB string, dr types.DateRange, ma, mb model.Metrics, d model.MetricsDelta) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Compare user reviews of the apps %s (A) and %s (B) posted %s.\n", appA, appB, dr)
	sb.WriteString("Focus on:\n")
	sb.WriteString("1. Overall satisfaction levels\n")
	sb.WriteString("2. Common issues and complaints\n")
	sb.WriteString("3. Unique strengths of each app\n")
	sb.WriteString("4. Areas for improvement\n\n")
	figures(&sb, ma, mb, d)
	return sb.String()
}

func figures(sb *strings.Builder, ma, mb model.Metrics, d model.MetricsDelta) {
	fmt.Fprintf(sb, "Reviews: A=%d B=%d (delta %+d)\n", ma.TotalCount, mb.TotalCount, d.TotalCount)
	line(sb, "Mean sentiment", ma.MeanPolarity, mb.MeanPolarity, d.MeanPolarity)
	line(sb, "Mean rating", ma.MeanRating, mb.MeanRating, d.MeanRating)
	line(sb, "Developer response rate", ma.ResponseRate, mb.ResponseRate, d.ResponseRate)
	line(sb, "Mean thumbs-up", ma.MeanEngagement, mb.MeanEngagement, d.MeanEngagement)
	fmt.Fprintf(sb, "\nTop themes A: %s\n", themeList(ma.Themes))
	fmt.Fprintf(sb, "Top themes B: %s\n", themeList(mb.Themes))
	if moves := shareMoves(d.ThemeShares); moves != "" {
		fmt.Fprintf(sb, "Theme share change: %s\n", moves)
	}
	if moves := shareMoves(d.TopicShares); moves != "" {
		fmt.Fprintf(sb, "Topic share change: %s\n", moves)
	}
}

// shareMoves lists the non-zero share deltas, largest move first.
func shareMoves(deltas map[string]float64) string {
	keys := make([]string, 0, len(deltas))
	for k, v := range deltas {
		if v != 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		ai, aj := math.Abs(deltas[keys[i]]), math.Abs(deltas[keys[j]])
		if ai != aj {
			return ai > aj
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %+.1f%%", k, deltas[k]*100)
	}
	return strings.Join(parts, ", ")
}

func line(sb *strings.Builder, name string, a, b, d *float64) {
	fmt.Fprintf(sb, "%s: A=%s B=%s delta=%s\n", name, show(a), show(b), show(d))
}

func show(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", *v)
}

func themeList(clusters []model.ThemeCluster) string {
	if len(clusters) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(clusters))
	for _, c := range clusters {
		parts = append(parts, fmt.Sprintf("%s (%d)", c.Label, c.Size()))
	}
	return strings.Join(parts, ", ")
}
