// Package itinerary contains the pure assembly algorithms: clustering
// temporally-adjacent legs, scoring segments against incoming bookings, and
// proposing new segments or trip boundary extensions. Nothing in this package
// touches the network or the database — the service layer feeds it data and
// acts on its results.
package itinerary

import (
	"fmt"
	"sort"
	"time"
)

// DefaultMaxGap is the largest layover between consecutive legs that still
// keeps them in the same journey cluster.
const DefaultMaxGap = 48 * time.Hour

// Leg is one bookable hop of a multi-leg journey (a single flight or train
// ride). Index preserves the leg's position in the submitted item so results
// can be reported back per input leg.
type Leg struct {
	Index         int
	StartTime     time.Time
	EndTime       time.Time
	StartLocation string
	EndLocation   string
	StartCode     string
	EndCode       string
}

// end returns the leg's end instant, treating a missing end time as zero
// duration so gap computation never fails.
func (l Leg) end() time.Time {
	if l.EndTime.IsZero() {
		return l.StartTime
	}
	return l.EndTime
}

// Cluster is a transient grouping of same-kind legs close enough in time to
// form one journey leg of the trip. The aggregate start is the first leg's
// start; the aggregate end is the last leg's end.
type Cluster struct {
	Legs          []Leg
	StartTime     time.Time
	EndTime       time.Time
	StartLocation string
	EndLocation   string
}

// Summary renders a short human-readable description for logs.
func (c Cluster) Summary() string {
	return fmt.Sprintf("%d leg(s) %s -> %s (%s to %s)",
		len(c.Legs), c.StartLocation, c.EndLocation,
		c.StartTime.Format(time.RFC3339), c.EndTime.Format(time.RFC3339))
}

// ClusterLegs groups legs into clusters such that two consecutive legs share
// a cluster iff the gap between one leg's end and the next leg's start is at
// most maxGap. Legs are stably sorted by start time first, so ties keep their
// submitted order. Zero legs yield an empty slice; a single leg yields one
// one-leg cluster.
func ClusterLegs(legs []Leg, maxGap time.Duration) []Cluster {
	if len(legs) == 0 {
		return []Cluster{}
	}
	if maxGap <= 0 {
		maxGap = DefaultMaxGap
	}

	sorted := make([]Leg, len(legs))
	copy(sorted, legs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime)
	})

	var clusters []Cluster
	current := []Leg{sorted[0]}

	for _, leg := range sorted[1:] {
		prev := current[len(current)-1]
		if leg.StartTime.Sub(prev.end()) > maxGap {
			clusters = append(clusters, buildCluster(current))
			current = []Leg{leg}
			continue
		}
		current = append(current, leg)
	}
	clusters = append(clusters, buildCluster(current))

	return clusters
}

// SingleLegCluster wraps one leg as a one-leg cluster so single bookings flow
// through the same matching path as journeys.
func SingleLegCluster(leg Leg) Cluster {
	return buildCluster([]Leg{leg})
}

func buildCluster(legs []Leg) Cluster {
	first, last := legs[0], legs[len(legs)-1]
	return Cluster{
		Legs:          legs,
		StartTime:     first.StartTime,
		EndTime:       last.end(),
		StartLocation: first.StartLocation,
		EndLocation:   last.EndLocation,
	}
}
