package match

import (
	"fmt"

	"github.com/couchcryptid/station-match-etl/internal/domain"
)

// KeyFunc extracts a join key from a station. An empty key never matches.
type KeyFunc func(domain.Station) string

// ByID keys a station by its catalog identifier.
func ByID(s domain.Station) string { return s.ID }

// BySecondaryID keys a station by its cross-reference identifier.
func BySecondaryID(s domain.Station) string { return s.SecondaryID }

// JoinOptions controls filtering and duplicate handling.
type JoinOptions struct {
	// MinEndYear drops pairs whose left station's EndYear is below it.
	MinEndYear int
	// StrictKeys fails the join when the right side repeats a key instead of
	// keeping the first occurrence.
	StrictKeys bool
}

// JoinStats counts rows removed by a join.
type JoinStats struct {
	Unmatched     int // left rows with an empty or unknown key
	Stale         int // pairs removed by the recency filter
	DuplicateKeys int // right rows shadowed by an earlier row with the same key
}

// Join pairs every left station with the right station whose key equals its
// own. Left rows without a match are dropped, as are pairs failing the
// recency filter. Output keeps left order.
func Join(left, right []domain.Station, leftKey, rightKey KeyFunc, opts JoinOptions) ([]domain.Pair, JoinStats, error) {
	var stats JoinStats

	index := make(map[string]domain.Station, len(right))
	for _, r := range right {
		k := rightKey(r)
		if k == "" {
			continue
		}
		if _, dup := index[k]; dup {
			if opts.StrictKeys {
				return nil, stats, &domain.MatchError{Op: "join", StationID: r.ID, Err: fmt.Errorf("%w %q", domain.ErrDuplicateKey, k)}
			}
			stats.DuplicateKeys++
			continue
		}
		index[k] = r
	}

	pairs := make([]domain.Pair, 0, len(left))
	for _, l := range left {
		k := leftKey(l)
		r, ok := index[k]
		if k == "" || !ok {
			stats.Unmatched++
			continue
		}
		pairs = append(pairs, domain.Pair{Left: l, Right: r})
	}

	recent := FilterRecent(pairs, opts.MinEndYear)
	stats.Stale = len(pairs) - len(recent)
	return recent, stats, nil
}

// FilterRecent returns the pairs whose left station reported in or after
// minEndYear. The input is not modified.
func FilterRecent(pairs []domain.Pair, minEndYear int) []domain.Pair {
	out := make([]domain.Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.Left.EndYear < minEndYear {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Registry projects join pairs to registry rows.
func Registry(pairs []domain.Pair) []domain.RegistryMatch {
	rows := make([]domain.RegistryMatch, len(pairs))
	for i, p := range pairs {
		rows[i] = domain.NewRegistryMatch(p)
	}
	return rows
}
