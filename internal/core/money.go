// Package core holds the domain model shared by every other package.
//
// Amounts are integral yen throughout; there is no fractional unit, so sums
// never touch floating point.
package core

import "strconv"

// Display fallbacks used when a related record is missing or inactive.
// The strings match the product's Japanese UI copy.
const (
	UncategorizedName   = "その他"
	UncategorizedIcon   = "📁"
	FamilyFallbackLabel = "家族"
	UnknownOwnerLabel   = "不明"
)

// FormatYen renders an amount as "¥12,345". Negative amounts keep the sign
// in front of the currency mark, which is how diffs are shown in prompts
// and notifications.
func FormatYen(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var out []byte
	for i, r := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, r)
	}
	return sign + "¥" + string(out)
}
