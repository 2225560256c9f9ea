package summarizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"

	"github.com/okian/sentiscan/internal/domain/model"
	"github.com/okian/sentiscan/internal/domain/types"
)

// Fingerprint identifies a cluster summary. Review IDs are sorted first, so
// their order never changes the result.
func Fingerprint(appID string, dr types.DateRange, clusterID string, reviewIDs []string) string {
	ids := append([]string(nil), reviewIDs...)
	sort.Strings(ids)

	h := sha256.New()
	write(h, "cluster", appID, dr.String(), clusterID)
	write(h, ids...)
	return hex.EncodeToString(h.Sum(nil))
}

// ComparisonFingerprint identifies a delta summary for two periods and the
// metric values it describes.
func ComparisonFingerprint(appID string, a, b types.DateRange, ma, mb model.Metrics) string {
	h := sha256.New()
	write(h, "comparison", appID, a.String(), b.String())
	write(h, metricsKey(ma), metricsKey(mb))
	return hex.EncodeToString(h.Sum(nil))
}

// CompetitiveFingerprint identifies an app-vs-app summary. Swapping the apps
// yields a different fingerprint since the delta flips sign.
func CompetitiveFingerprint(appA, appB string, dr types.DateRange, ma, mb model.Metrics) string {
	h := sha256.New()
	write(h, "competitive", appA, appB, dr.String())
	write(h, metricsKey(ma), metricsKey(mb))
	return hex.EncodeToString(h.Sum(nil))
}

func write(h hash.Hash, parts ...string) {
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
}

func metricsKey(m model.Metrics) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", m.TotalCount,
		optional(m.MeanPolarity), optional(m.MeanRating), optional(m.ResponseRate), optional(m.MeanEngagement))
}

func optional(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%.6f", *v)
}
