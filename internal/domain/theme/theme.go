// Package theme groups reviews into theme clusters.
package theme

import (
	"context"
	"sort"
	"strings"

	"github.com/okian/sentiscan/internal/domain/model"
)

// GeneralID is the cluster for reviews no keyword theme claims.
const GeneralID = "general"

// Clusterer is the pluggable grouping strategy. Every returned cluster holds
// at least one review and every review lands in exactly one cluster.
type Clusterer interface {
	Cluster(ctx context.Context, reviews []model.Review) ([]model.ThemeCluster, error)
}

// Theme is a named keyword set.
type Theme struct {
	ID       string
	Label    string
	Keywords []string
}

// DefaultThemes are the review themes looked for out of the box.
func DefaultThemes() []Theme {
	return []Theme{
		{ID: "ux", Label: "UX", Keywords: []string{"interface", "design", "layout", "user experience", "ui", "navigation", "menu"}},
		{ID: "performance", Label: "Performance", Keywords: []string{"slow", "lag", "crash", "freeze", "speed", "performance", "battery"}},
		{ID: "features", Label: "Features", Keywords: []string{"feature", "function", "option", "capability", "tool"}},
		{ID: "bugs", Label: "Bugs", Keywords: []string{"bug", "error", "issue", "problem", "glitch", "not working"}},
		{ID: "content", Label: "Content", Keywords: []string{"content", "information", "data", "update", "news"}},
		{ID: "support", Label: "Support", Keywords: []string{"support", "help", "customer service", "response", "contact"}},
	}
}

// Option applies a configuration option to the KeywordClusterer.
type Option func(*KeywordClusterer)

// WithThemes replaces the theme set.
func WithThemes(themes []Theme) Option {
	return func(c *KeywordClusterer) {
		if len(themes) > 0 {
			c.themes = themes
		}
	}
}

// KeywordClusterer assigns each review to the theme with the most keyword
// hits. Ties go to the theme listed first.
type KeywordClusterer struct {
	themes []Theme
}

// NewKeywordClusterer creates a clusterer over DefaultThemes.
func NewKeywordClusterer(opts ...Option) *KeywordClusterer {
	c := &KeywordClusterer{themes: DefaultThemes()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cluster groups reviews. Clusters are ordered by size desc, then ID.
func (c *KeywordClusterer) Cluster(ctx context.Context, reviews []model.Review) ([]model.ThemeCluster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	byID := make(map[string]*model.ThemeCluster)
	for _, r := range reviews {
		th := c.match(r.Text)
		cl, ok := byID[th.ID]
		if !ok {
			cl = &model.ThemeCluster{ID: th.ID, Label: th.Label}
			byID[th.ID] = cl
		}
		cl.ReviewIDs = append(cl.ReviewIDs, r.ID)
	}

	out := make([]model.ThemeCluster, 0, len(byID))
	for _, cl := range byID {
		sort.Strings(cl.ReviewIDs)
		out = append(out, *cl)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size() != out[j].Size() {
			return out[i].Size() > out[j].Size()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (c *KeywordClusterer) match(text string) Theme {
	text = strings.ToLower(text)
	best, bestHits := Theme{ID: GeneralID, Label: "General"}, 0
	for _, th := range c.themes {
		hits := 0
		for _, kw := range th.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = th, hits
		}
	}
	return best
}
