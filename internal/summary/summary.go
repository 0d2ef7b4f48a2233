// Package summary computes read-only descriptive statistics over a table
// snapshot: dataset-level counts and per-column describes. Everything here is
// a pure function; results are recomputed on demand and never stored.
package summary

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"digest/internal/bagel"
	"digest/internal/table"
)

// CountUniqueParticipants returns the number of distinct participant
// identifiers, or 0 when the table has no participant column.
func CountUniqueParticipants(t *table.Table) int {
	col, ok := t.Column(bagel.ColParticipant)
	if !ok {
		return 0
	}
	return countDistinct(col)
}

// CountUniqueRecords returns the number of distinct (participant, session)
// pairs, or 0 when either column is missing.
func CountUniqueRecords(t *table.Table) int {
	pi := t.Index(bagel.ColParticipant)
	si := t.Index(bagel.ColSession)
	if pi < 0 || si < 0 {
		return 0
	}
	seen := make(map[[2]string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		seen[[2]string{row[pi], row[si]}] = struct{}{}
	}
	return len(seen)
}

// CountUniqueSessions returns the number of distinct session labels, or 0
// when the table has no session column.
func CountUniqueSessions(t *table.Table) int {
	col, ok := t.Column(bagel.ColSession)
	if !ok {
		return 0
	}
	return countDistinct(col)
}

// Counts renders the dataset-level counts as the three-line block shown above
// the overview table.
func Counts(t *table.Table) string {
	return fmt.Sprintf(`Total number of participants: %d
Total number of unique records (participant-session pairs): %d
Total number of unique sessions: %d`,
		CountUniqueParticipants(t), CountUniqueRecords(t), CountUniqueSessions(t))
}

// DescribeColumn computes a per-column summary as "name: value" lines. For a
// column whose non-missing values all parse as numbers: mean, std, min,
// median, max. Otherwise: number of unique values and the most common value.
// Both variants lead with non-missing/missing counts. An unknown column is an
// error; a column with no values yields an explicit "no data" line.
func DescribeColumn(t *table.Table, col string) (string, error) {
	values, ok := t.Column(col)
	if !ok {
		return "", fmt.Errorf("describe: no column %q", col)
	}
	total := len(values)
	var present []string
	for _, v := range values {
		if v != "" {
			present = append(present, v)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "non-missing values: %d/%d\n", len(present), total)
	fmt.Fprintf(&b, "missing values: %d/%d\n", total-len(present), total)
	if len(present) == 0 {
		b.WriteString("no data\n")
		return b.String(), nil
	}

	if nums, numeric := parseAllFloats(present); numeric {
		mean, std := meanStd(nums)
		sort.Float64s(nums)
		fmt.Fprintf(&b, "mean: %.2f\n", mean)
		fmt.Fprintf(&b, "std: %.2f\n", std)
		fmt.Fprintf(&b, "min: %.2f\n", nums[0])
		fmt.Fprintf(&b, "median: %.2f\n", median(nums))
		fmt.Fprintf(&b, "max: %.2f\n", nums[len(nums)-1])
		return b.String(), nil
	}

	fmt.Fprintf(&b, "unique values: %d\n", countDistinct(present))
	fmt.Fprintf(&b, "most common value: %s\n", mostCommon(present))
	return b.String(), nil
}

func countDistinct(vals []string) int {
	seen := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		seen[v] = struct{}{}
	}
	return len(seen)
}

// parseAllFloats reports whether every value parses as a float, returning the
// parsed numbers when so.
func parseAllFloats(vals []string) ([]float64, bool) {
	nums := make([]float64, 0, len(vals))
	for _, v := range vals {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

// meanStd returns the mean and the sample standard deviation (n-1 divisor,
// 0 for a single value).
func meanStd(nums []float64) (float64, float64) {
	var sum float64
	for _, n := range nums {
		sum += n
	}
	mean := sum / float64(len(nums))
	if len(nums) < 2 {
		return mean, 0
	}
	var sq float64
	for _, n := range nums {
		d := n - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(nums)-1))
}

// median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// mostCommon returns the most frequent value; ties break by first appearance.
func mostCommon(vals []string) string {
	counts := make(map[string]int, len(vals))
	best, bestCount := "", 0
	for _, v := range vals {
		counts[v]++
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
