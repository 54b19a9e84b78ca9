// internal/adapters/out/firestore/helpers_fs.go
package firestore

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot decode helpers. Firestore documents are decoded via snap.Data()
// rather than DataTo so old documents with drifted field types do not turn
// into request-time 500s.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		if parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t)); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func asTimePtr(v any) *time.Time {
	if t, ok := asTime(v); ok {
		return &t
	}
	return nil
}

// Monetary amounts are stored as decimal strings ("249.00"); legacy documents
// may hold raw numbers.
func asDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(n)
	case int64:
		return decimal.NewFromInt(n)
	case int:
		return decimal.NewFromInt(int64(n))
	}
	return decimal.Zero
}
