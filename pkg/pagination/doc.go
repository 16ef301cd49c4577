// Package pagination turns a page-numbered, rate-limited endpoint into a
// single lazily produced sequence of records.
//
// GW2Spidy pages are 1-based and every response carries the page number, the
// last page number and the per-page item count. The server is the only
// authority on when pagination ends: a Sequence stops once the next page
// number exceeds the last page reported by the most recently fetched page.
//
// Example usage:
//
//	policy, _ := pacing.New(pacing.DefaultConfig())
//	seq := pagination.NewSequence[spidy.Listing](fetcher, policy,
//		pagination.WithName("listings"))
//	for {
//		listing, ok, err := seq.Next(ctx)
//		if err != nil {
//			return err
//		}
//		if !ok {
//			break
//		}
//		// use listing
//	}
//
// Each Sequence owns its pagination cursor and its pacing state. A Sequence
// waits once before every page request and never retries a failed page: the
// first fetch error terminates it.
package pagination
