package selector

import (
	"context"
	"fmt"
	"iter"

	"sjsage522/listingwatcher/internal/crawler"
	"sjsage522/listingwatcher/services/settings"
)

// SeenSet is the part of the seen store the selector needs
type SeenSet interface {
	Contains(url string) bool
	Add(ctx context.Context, url string) error
}

// Eligible reports whether listing passes filter and has not been seen
func Eligible(listing crawler.Listing, filter settings.Filter, seen SeenSet) bool {
	return !seen.Contains(listing.URL) &&
		filter.MatchesPrice(listing.Price) &&
		filter.MatchesDate(listing.DateLabel)
}

// SelectFirstUnseen scans candidates in order and returns the first eligible
// listing. Its URL is added to seen, and persisted, before it is returned; if
// that fails the error is returned and nothing is selected. Candidates after
// the first match are not consumed. ok is false when nothing matched, in
// which case seen is untouched.
func SelectFirstUnseen(
	ctx context.Context,
	candidates iter.Seq[crawler.Listing],
	filter settings.Filter,
	seen SeenSet,
) (listing crawler.Listing, ok bool, err error) {
	for candidate := range candidates {
		if !Eligible(candidate, filter, seen) {
			continue
		}

		if err := seen.Add(ctx, candidate.URL); err != nil {
			return crawler.Listing{}, false, fmt.Errorf("mark %s seen: %w", candidate.URL, err)
		}
		return candidate, true, nil
	}

	return crawler.Listing{}, false, nil
}
