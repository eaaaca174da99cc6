package settings

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Form field names accepted by the control surface
const (
	FieldMin  = "min"
	FieldMax  = "max"
	FieldDate = "date"
	FieldChat = "chat"
)

// MaxPriceUnbounded is the upper bound used when the form gives none
const MaxPriceUnbounded = 999999

// FilterFromForm builds a filter from submitted form values. Missing or
// invalid numbers fall back to 0 and MaxPriceUnbounded, a missing date falls
// back to DateToday while an empty one means any date, and a missing chat
// leaves dispatch unconfigured. The configured startup defaults do not apply
// here.
func FilterFromForm(values url.Values) Filter {
	f := Filter{
		MinPrice:    parseBound(values.Get(FieldMin), 0),
		MaxPrice:    parseBound(values.Get(FieldMax), MaxPriceUnbounded),
		DateBucket:  DateToday,
		Destination: strings.TrimSpace(values.Get(FieldChat)),
	}

	if values.Has(FieldDate) {
		date := strings.ToLower(strings.TrimSpace(values.Get(FieldDate)))
		if date == "any" {
			date = DateAny
		}
		if slices.Contains(DateBuckets, date) {
			f.DateBucket = date
		}
	}

	return normalize(f)
}

func parseBound(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
