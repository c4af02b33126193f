package events

import (
	"maps"
	"slices"
)

// GroupSessions groups a raw event batch by session ID and sorts each group
// ascending by timestamp. The sort is stable, so events sharing a timestamp
// keep their input order; this keeps transition graphs deterministic across
// runs on the same batch.
//
// Events with an empty SessionID or Path are discarded: they cannot
// contribute to a transition graph. A Count below one is treated as one so a
// sloppy upstream store cannot zero out a visit it chose to report.
func GroupSessions(batch []RawEvent) map[string]SessionSequence {
	sessions := make(map[string]SessionSequence)
	for _, ev := range batch {
		if ev.SessionID == "" || ev.Path == "" {
			continue
		}
		count := ev.Count
		if count < 1 {
			count = 1
		}
		sessions[ev.SessionID] = append(sessions[ev.SessionID], PageView{
			Path:      ev.Path,
			EventType: ev.EventType,
			Timestamp: ev.Timestamp,
			Count:     count,
		})
	}

	for _, seq := range sessions {
		slices.SortStableFunc(seq, func(a, b PageView) int {
			switch {
			case a.Timestamp < b.Timestamp:
				return -1
			case a.Timestamp > b.Timestamp:
				return 1
			default:
				return 0
			}
		})
	}
	return sessions
}

// SessionIDs returns the session identifiers of a grouped batch in sorted
// order. Builders iterate sessions in this order to keep output deterministic.
func SessionIDs(sessions map[string]SessionSequence) []string {
	return slices.Sorted(maps.Keys(sessions))
}
