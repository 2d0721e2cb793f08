package itinerary

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/pkeller/tripstitch/internal/domain"
)

// DefaultMinScore is the combined score a segment must reach before the
// matcher returns it. Below this the matcher yields to synthesis.
const DefaultMinScore = 70

// Score weights on the 0-100 scale. Temporal overlap dominates: a candidate
// with no overlap can collect at most locationMax+typeMax = 50, which never
// clears DefaultMinScore, so no-overlap candidates cannot false-positive.
const (
	timeContained = 50
	timePartial   = 35
	timeNearby    = 20

	locationPerEnd = 15

	typeCompatible = 20
	typeNeutral    = 10
)

// nearbyBuffer is how close a non-overlapping candidate must sit to a
// segment's window to still collect the "nearly intersects" score.
const nearbyBuffer = 24 * time.Hour

// Match is the transient result of scoring one segment against a candidate.
// Reason is a human-readable audit string for logs; nothing here is persisted.
type Match struct {
	SegmentID   uuid.UUID
	SegmentName string
	Score       int
	Reason      string
	Breakdown   Breakdown
}

// Breakdown splits a match score into its three factors.
type Breakdown struct {
	Time     int
	Location int
	Type     int
}

// BestSegment scores every segment against the cluster and returns the best
// one at or above minScore. The boolean is false when nothing clears the
// threshold — that is the normal "synthesize instead" outcome, not an error.
//
// Ties are broken by the segment whose window most tightly fits the
// candidate (smallest slack), then by lowest order.
func BestSegment(c Cluster, kind domain.ReservationKind, segments []domain.Segment, minScore int) (Match, bool) {
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	var (
		best      Match
		bestSlack time.Duration
		bestOrder int
		found     bool
	)

	for _, seg := range segments {
		typeScore, compatible := typeScoreFor(kind, seg.Type)
		if !compatible {
			continue
		}

		timeScore := timeOverlapScore(c, seg)
		locScore := locationScore(c, seg)
		total := timeScore + locScore + typeScore

		m := Match{
			SegmentID:   seg.ID,
			SegmentName: seg.Name,
			Score:       total,
			Reason:      matchReason(timeScore, locScore, typeScore),
			Breakdown:   Breakdown{Time: timeScore, Location: locScore, Type: typeScore},
		}
		slack := windowSlack(c, seg)

		better := !found ||
			total > best.Score ||
			(total == best.Score && slack < bestSlack) ||
			(total == best.Score && slack == bestSlack && seg.Order < bestOrder)
		if better {
			best, bestSlack, bestOrder, found = m, slack, seg.Order, true
		}
	}

	if !found || best.Score < minScore {
		return Match{}, false
	}
	return best, true
}

// ClosestTravelSegment finds the Travel segment nearest in time to the
// candidate window, with location as a secondary signal. Used by the
// multi-leg path to prefer attaching a connection to an existing journey
// segment over synthesizing a parallel one. Returns false when the trip has
// no Travel segments.
//
// Unlike BestSegment this is a proximity ranking, not a thresholded match:
// time proximity contributes 0-60 in bands by gap hours, location 0-40.
func ClosestTravelSegment(c Cluster, segments []domain.Segment) (Match, bool) {
	travel := lo.Filter(segments, func(s domain.Segment, _ int) bool {
		return s.Type == domain.SegmentTravel
	})
	if len(travel) == 0 {
		return Match{}, false
	}

	var (
		best  Match
		found bool
	)
	for _, seg := range travel {
		timeScore := proximityScore(c, seg)
		locScore := 0
		if c.StartLocation != "" && locationsMatch(c.StartLocation, seg.Start.Name) {
			locScore += 20
		}
		if c.EndLocation != "" && locationsMatch(c.EndLocation, seg.End.Name) {
			locScore += 20
		}
		total := timeScore + locScore

		if !found || total > best.Score {
			best = Match{
				SegmentID:   seg.ID,
				SegmentName: seg.Name,
				Score:       total,
				Reason:      "closest travel segment",
				Breakdown:   Breakdown{Time: timeScore, Location: locScore, Type: typeCompatible},
			}
			found = true
		}
	}
	return best, true
}

// timeOverlapScore rates how the cluster window relates to the segment
// window: full containment, partial overlap, within the nearby buffer, or
// nothing.
func timeOverlapScore(c Cluster, seg domain.Segment) int {
	segStart, segEnd, ok := seg.Window()
	if !ok {
		return 0
	}

	contained := !c.StartTime.Before(segStart) && !c.EndTime.After(segEnd)
	if contained {
		return timeContained
	}

	overlaps := !c.StartTime.After(segEnd) && !c.EndTime.Before(segStart)
	if overlaps {
		return timePartial
	}

	if gap := segStart.Sub(c.EndTime); gap > 0 && gap <= nearbyBuffer {
		return timeNearby
	}
	if gap := c.StartTime.Sub(segEnd); gap > 0 && gap <= nearbyBuffer {
		return timeNearby
	}
	return 0
}

// proximityScore bands the gap between the cluster and segment windows.
// Overlap scores highest, then progressively wider gaps score less.
func proximityScore(c Cluster, seg domain.Segment) int {
	segStart, segEnd, ok := seg.Window()
	if !ok {
		return 0
	}

	overlaps := !c.StartTime.After(segEnd) && !c.EndTime.Before(segStart)
	if overlaps {
		return 60
	}

	gap := c.StartTime.Sub(segEnd)
	if other := segStart.Sub(c.EndTime); gap <= 0 || (other > 0 && other < gap) {
		gap = other
	}
	switch h := gap.Hours(); {
	case h <= 6:
		return 55
	case h <= 24:
		return 45
	case h <= 48:
		return 35
	case h <= 72:
		return 25
	case h <= 120:
		return 15
	default:
		return 5
	}
}

// locationScore gives locationPerEnd points for each end of the cluster that
// fuzzily matches the corresponding end of the segment.
func locationScore(c Cluster, seg domain.Segment) int {
	score := 0
	if locationsMatch(c.StartLocation, seg.Start.Name) {
		score += locationPerEnd
	}
	if locationsMatch(c.EndLocation, seg.End.Name) {
		score += locationPerEnd
	}
	return score
}

// typeScoreFor rates the declared segment type against the booking kind.
// Hard mismatches (a flight into a Stay segment, a hotel into a Travel
// segment) disqualify the segment outright.
func typeScoreFor(kind domain.ReservationKind, t domain.SegmentType) (score int, compatible bool) {
	switch kind {
	case domain.KindFlight, domain.KindTrain, domain.KindCarRental:
		switch t {
		case domain.SegmentTravel:
			return typeCompatible, true
		case domain.SegmentStay:
			return 0, false
		default:
			return typeNeutral, true
		}
	case domain.KindHotel:
		switch t {
		case domain.SegmentStay:
			return typeCompatible, true
		case domain.SegmentTravel:
			return 0, false
		default:
			return typeNeutral, true
		}
	default: // restaurants, activities, generic bookings
		switch t {
		case domain.SegmentTour, domain.SegmentStay:
			return typeCompatible, true
		default:
			return typeNeutral, true
		}
	}
}

// windowSlack measures how loosely a segment's window fits around the
// candidate: the sum of the distances between the respective bounds. Smaller
// is tighter. Segments without a window sort last.
func windowSlack(c Cluster, seg domain.Segment) time.Duration {
	segStart, segEnd, ok := seg.Window()
	if !ok {
		return time.Duration(1<<62 - 1)
	}
	slack := absDuration(c.StartTime.Sub(segStart)) + absDuration(segEnd.Sub(c.EndTime))
	return slack
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func matchReason(timeScore, locScore, typeScore int) string {
	var reasons []string
	switch {
	case timeScore == timeContained:
		reasons = append(reasons, "window contained")
	case timeScore == timePartial:
		reasons = append(reasons, "windows overlap")
	case timeScore == timeNearby:
		reasons = append(reasons, "adjacent in time")
	}
	switch {
	case locScore == 2*locationPerEnd:
		reasons = append(reasons, "locations match")
	case locScore == locationPerEnd:
		reasons = append(reasons, "partial location match")
	}
	if typeScore == typeCompatible {
		reasons = append(reasons, "compatible segment type")
	}
	if len(reasons) == 0 {
		return "basic match"
	}
	return strings.Join(reasons, ", ")
}

// normalizeLocation lowers the case and strips country suffixes and
// parenthesised codes so "San Francisco, CA (SFO)" compares equal to
// "san francisco, ca".
func normalizeLocation(loc string) string {
	s := strings.ToLower(loc)
	for {
		open := strings.Index(s, "(")
		if open < 0 {
			break
		}
		end := strings.Index(s[open:], ")")
		if end < 0 {
			s = s[:open]
			break
		}
		s = s[:open] + s[open+end+1:]
	}
	for _, suffix := range []string{", usa", ", us", ", united states", ", jp", ", japan", ", uk", ", united kingdom"} {
		s = strings.TrimSuffix(strings.TrimSpace(s), suffix)
	}
	return strings.TrimSpace(s)
}

// locationsMatch fuzzily compares two place names: exact after
// normalization, containment either way, or same leading city token.
func locationsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	na, nb := normalizeLocation(a), normalizeLocation(b)
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	cityA := strings.TrimSpace(strings.SplitN(na, ",", 2)[0])
	cityB := strings.TrimSpace(strings.SplitN(nb, ",", 2)[0])
	return cityA != "" && cityA == cityB
}
