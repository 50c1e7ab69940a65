package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// changeable lists the kinds with an upstream change log.
var changeable = map[Kind]bool{
	KindMovie:  true,
	KindPerson: true,
}

// ChangedIDs unions the per-day changed-id lists for the trailing days
// window and returns the deduplicated set together with the earliest
// date covered by the window. days must be at least 1.
func (c *Client) ChangedIDs(ctx context.Context, kind Kind, days int) (map[int64]struct{}, time.Time, error) {
	if !changeable[kind] {
		return nil, time.Time{}, fmt.Errorf("no change log for kind %q", kind)
	}
	if days < 1 {
		return nil, time.Time{}, fmt.Errorf("days must be at least 1, got %d", days)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	earliest := today.AddDate(0, 0, -(days - 1))

	ids := make(map[int64]struct{})
	for i := 0; i < days; i++ {
		day := today.AddDate(0, 0, -i)
		if err := c.changedIDsForDay(ctx, kind, day, ids); err != nil {
			return nil, time.Time{}, fmt.Errorf("failed to fetch %s changes for %s: %w",
				kind, day.Format("2006-01-02"), err)
		}
	}

	c.logger.Info("fetched change log", "kind", kind, "days", days, "ids", len(ids))
	return ids, earliest, nil
}

// changedIDsForDay pages through one day's change list, adding ids to acc.
func (c *Client) changedIDsForDay(ctx context.Context, kind Kind, day time.Time, acc map[int64]struct{}) error {
	path := string(kind) + "/changes"
	start := day.Format("2006-01-02")
	end := day.AddDate(0, 0, 1).Format("2006-01-02")

	for page := 1; ; page++ {
		params := url.Values{
			"start_date": {start},
			"end_date":   {end},
			"page":       {strconv.Itoa(page)},
		}

		var result changesPage
		if err := c.get(ctx, path, params, &result); err != nil {
			return err
		}

		for _, entry := range result.Results {
			acc[entry.ID] = struct{}{}
		}

		if page >= result.TotalPages {
			return nil
		}
	}
}
