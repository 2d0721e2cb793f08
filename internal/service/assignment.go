package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
	"github.com/pkeller/tripstitch/internal/itinerary"
	"github.com/pkeller/tripstitch/internal/localtime"
	"github.com/pkeller/tripstitch/internal/repo"
)

// draftSegmentName is the holding segment for batch items that failed
// processing; drafts are parked there for manual repair.
const draftSegmentName = "Unsorted"

// travelAttachMinScore gates the closest-travel-segment fallback for flights
// and trains: a cluster joins an existing Travel segment only when it
// overlaps the segment's window or sits within a few hours of it (proximity
// 55+), so a return journey days later still gets its own segment.
const travelAttachMinScore = 55

// Scheduler kicks off asynchronous enrichment for freshly written records.
// Implementations must return immediately; the work happens out of band.
type Scheduler interface {
	ScheduleReservation(id uuid.UUID)
	ScheduleSegment(id uuid.UUID)
}

// ItemLeg is one hop of a multi-leg booking as submitted by the client.
type ItemLeg struct {
	Start         domain.WallClock
	End           domain.WallClock
	StartLocation string
	EndLocation   string
	StartCode     string
	EndCode       string
	Metadata      domain.Metadata
}

// Item is one booking to place into a trip. Multi-leg kinds (Flight, Train)
// submit Legs; everything else submits a single Start/End window and a
// Location.
type Item struct {
	Kind               domain.ReservationKind
	Name               string
	Vendor             string
	ConfirmationNumber string
	Cost               *float64
	Currency           string
	ContactInfo        string
	Location           string
	EndLocation        string
	Start              domain.WallClock
	End                domain.WallClock
	Legs               []ItemLeg
	ImageURL           string
	Metadata           domain.Metadata
}

// Options controls assignment behavior.
type Options struct {
	// Synthesize allows creating new segments (and widening the trip's
	// dates) when no existing segment matches. When false an unmatched item
	// is reported as needing manual assignment instead.
	Synthesize bool
}

// ItemStatus classifies what happened to one submitted item.
type ItemStatus string

const (
	// ItemAssigned means the item landed in an existing segment.
	ItemAssigned ItemStatus = "assigned"
	// ItemSynthesized means a new segment was created for the item.
	ItemSynthesized ItemStatus = "synthesized"
	// ItemNeedsManual means nothing matched and synthesis was disabled.
	ItemNeedsManual ItemStatus = "needs_manual"
	// ItemDraft means processing failed; the item was persisted as a draft
	// in the holding segment with the failure recorded on it.
	ItemDraft ItemStatus = "draft"
)

// ItemResult reports the outcome for one submitted item.
type ItemResult struct {
	Index        int                  `json:"index"`
	Status       ItemStatus           `json:"status"`
	SegmentID    uuid.UUID            `json:"segment_id,omitempty"`
	SegmentName  string               `json:"segment_name,omitempty"`
	Score        int                  `json:"score,omitempty"`
	Reservations []domain.Reservation `json:"reservations,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// AssignResult is the outcome of an assignment call: the (possibly widened)
// trip plus one result per submitted item.
type AssignResult struct {
	Trip     domain.Trip  `json:"trip"`
	Extended bool         `json:"extended"`
	Items    []ItemResult `json:"items"`
}

// AssignmentService places incoming bookings into trip segments: cluster the
// item's legs, score existing segments, and either assign, synthesize, or
// report. All mutation for a given trip happens under a per-trip lock so
// concurrent assignments cannot interleave their order rewrites.
type AssignmentService struct {
	trips        repo.TripRepo
	segments     repo.SegmentRepo
	reservations repo.ReservationRepo
	scheduler    Scheduler
	minScore     int
	maxGap       time.Duration
	log          *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewAssignmentService constructs an AssignmentService. scheduler may be nil
// to disable post-assignment enrichment (tests do this).
func NewAssignmentService(
	trips repo.TripRepo,
	segments repo.SegmentRepo,
	reservations repo.ReservationRepo,
	scheduler Scheduler,
	minScore int,
	maxGap time.Duration,
	log *slog.Logger,
) *AssignmentService {
	if minScore <= 0 {
		minScore = itinerary.DefaultMinScore
	}
	if maxGap <= 0 {
		maxGap = itinerary.DefaultMaxGap
	}
	return &AssignmentService{
		trips:        trips,
		segments:     segments,
		reservations: reservations,
		scheduler:    scheduler,
		minScore:     minScore,
		maxGap:       maxGap,
		log:          log,
		locks:        map[uuid.UUID]*sync.Mutex{},
	}
}

// tripLock returns the mutex serializing writes for one trip. Locks are
// never removed; the map grows with the number of distinct trips touched,
// which is small.
func (s *AssignmentService) tripLock(tripID uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tripID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tripID] = l
	}
	return l
}

// AssignItem places a single item. An unmatched item with synthesis disabled
// returns domain.ErrNeedsManualAssignment; invalid input returns
// domain.ErrValidation.
func (s *AssignmentService) AssignItem(ctx context.Context, tripID uuid.UUID, item Item, opts Options) (AssignResult, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignItem: %w", err)
	}
	segments, err := s.segments.ListByTrip(ctx, tripID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignItem: %w", err)
	}

	state := &assignState{trip: trip, segments: segments}
	result, err := s.assignOne(ctx, state, item, 0, opts)
	if err != nil {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignItem: %w", err)
	}
	if result.Status == ItemNeedsManual {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignItem: %q: %w", item.Name, domain.ErrNeedsManualAssignment)
	}

	return AssignResult{Trip: state.trip, Extended: state.extended, Items: []ItemResult{result}}, nil
}

// AssignBatch places many items with per-item isolation: a malformed or
// unplaceable item is persisted as a draft in the holding segment and the
// batch carries on. Only infrastructure failures (the database going away)
// abort the whole call. Every submitted item appears in the result exactly
// once.
func (s *AssignmentService) AssignBatch(ctx context.Context, tripID uuid.UUID, items []Item, opts Options) (AssignResult, error) {
	lock := s.tripLock(tripID)
	lock.Lock()
	defer lock.Unlock()

	trip, err := s.trips.GetByID(ctx, tripID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignBatch: %w", err)
	}
	segments, err := s.segments.ListByTrip(ctx, tripID)
	if err != nil {
		return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignBatch: %w", err)
	}

	state := &assignState{trip: trip, segments: segments}
	results := make([]ItemResult, 0, len(items))

	for i, item := range items {
		result, err := s.assignOne(ctx, state, item, i, opts)
		if err == nil {
			results = append(results, result)
			continue
		}
		if !isItemError(err) {
			return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignBatch: item %d: %w", i, err)
		}

		s.log.Warn("batch item failed; persisting draft",
			slog.Int("index", i),
			slog.String("item", item.Name),
			slog.String("error", err.Error()),
		)
		draft, draftErr := s.parkDraft(ctx, state, item, err)
		if draftErr != nil {
			return AssignResult{}, fmt.Errorf("service.AssignmentService.AssignBatch: item %d: park draft: %w", i, draftErr)
		}
		results = append(results, ItemResult{
			Index:        i,
			Status:       ItemDraft,
			SegmentID:    draft.SegmentID,
			SegmentName:  draftSegmentName,
			Reservations: []domain.Reservation{draft},
			Error:        err.Error(),
		})
	}

	return AssignResult{Trip: state.trip, Extended: state.extended, Items: results}, nil
}

// assignState carries the trip and its segment list across the items of one
// call so later items see segments synthesized by earlier ones.
type assignState struct {
	trip     domain.Trip
	segments []domain.Segment
	extended bool
}

// isItemError reports whether err is an item-level failure (bad input, no
// match) rather than an infrastructure failure.
func isItemError(err error) bool {
	return errors.Is(err, domain.ErrValidation)
}

// assignOne processes one item against the current state. Validation
// failures return an error wrapping domain.ErrValidation; infrastructure
// failures return other errors; "nothing matched, synthesis off" is a normal
// ItemNeedsManual result.
func (s *AssignmentService) assignOne(ctx context.Context, state *assignState, item Item, index int, opts Options) (ItemResult, error) {
	if err := validateItem(item); err != nil {
		return ItemResult{}, err
	}

	clusters, legsByCluster, err := s.clustersFor(item)
	if err != nil {
		return ItemResult{}, err
	}

	result := ItemResult{Index: index, Status: ItemAssigned}

	for ci, cluster := range clusters {
		match, ok := itinerary.BestSegment(cluster, item.Kind, state.segments, s.minScore)
		if !ok && item.Kind.MultiLeg() {
			// A connection close in time to an existing journey joins it
			// instead of spawning a parallel Travel segment.
			if near, nearOK := itinerary.ClosestTravelSegment(cluster, state.segments); nearOK && near.Score >= travelAttachMinScore {
				match, ok = near, true
			}
		}
		var target domain.Segment
		switch {
		case ok:
			target = segmentByID(state.segments, match.SegmentID)
			result.Score = match.Score
			s.log.Debug("cluster matched segment",
				slog.String("cluster", cluster.Summary()),
				slog.String("segment", match.SegmentName),
				slog.Int("score", match.Score),
			)
		case !opts.Synthesize:
			return ItemResult{Index: index, Status: ItemNeedsManual, Error: "no segment matched"}, nil
		default:
			target, err = s.synthesize(ctx, state, cluster, item.Kind)
			if err != nil {
				return ItemResult{}, err
			}
			result.Status = ItemSynthesized
		}

		created, err := s.createReservations(ctx, target, item, legsByCluster[ci])
		if err != nil {
			return ItemResult{}, err
		}
		result.Reservations = append(result.Reservations, created...)
		result.SegmentID = target.ID
		result.SegmentName = target.Name
	}

	return result, nil
}

// clustersFor turns the item into journey clusters plus, per cluster, the
// original legs that produced it (for reservation creation). Single-window
// kinds yield exactly one cluster of one synthetic leg.
func (s *AssignmentService) clustersFor(item Item) ([]itinerary.Cluster, [][]ItemLeg, error) {
	if !item.Kind.MultiLeg() {
		leg := ItemLeg{
			Start:         item.Start,
			End:           item.End,
			StartLocation: item.Location,
			EndLocation:   item.EndLocation,
			Metadata:      item.Metadata,
		}
		if leg.EndLocation == "" {
			leg.EndLocation = leg.StartLocation
		}
		c, err := s.clusterLeg(leg, 0, item.Kind)
		if err != nil {
			return nil, nil, err
		}
		return []itinerary.Cluster{itinerary.SingleLegCluster(c)}, [][]ItemLeg{{leg}}, nil
	}

	legs := make([]itinerary.Leg, 0, len(item.Legs))
	for i, leg := range item.Legs {
		l, err := s.clusterLeg(leg, i, item.Kind)
		if err != nil {
			return nil, nil, err
		}
		legs = append(legs, l)
	}

	clusters := itinerary.ClusterLegs(legs, s.maxGap)
	grouped := make([][]ItemLeg, len(clusters))
	for ci, cluster := range clusters {
		for _, l := range cluster.Legs {
			grouped[ci] = append(grouped[ci], item.Legs[l.Index])
		}
	}
	return clusters, grouped, nil
}

// clusterLeg validates one leg's wall clocks and converts them to the
// itinerary package's UTC representation.
func (s *AssignmentService) clusterLeg(leg ItemLeg, index int, kind domain.ReservationKind) (itinerary.Leg, error) {
	if err := localtime.Validate(leg.Start, "start"); err != nil {
		return itinerary.Leg{}, err
	}
	// An absent end is fine: the leg gets zero duration downstream. Only a
	// present-but-malformed end is rejected.
	if !leg.End.IsZero() {
		if err := localtime.Validate(leg.End, "end"); err != nil {
			return itinerary.Leg{}, err
		}
	}

	start, err := localtime.Instant(leg.Start, false)
	if err != nil {
		return itinerary.Leg{}, err
	}

	end := time.Time{}
	if !leg.End.IsZero() {
		// Date-only ends (hotel checkout, car return) run to end of day.
		endOfDay := leg.End.Clock == "" && kind != domain.KindFlight && kind != domain.KindTrain
		end, err = localtime.Instant(leg.End, endOfDay)
		if err != nil {
			return itinerary.Leg{}, err
		}
	}

	return itinerary.Leg{
		Index:         index,
		StartTime:     start,
		EndTime:       end,
		StartLocation: leg.StartLocation,
		EndLocation:   leg.EndLocation,
		StartCode:     leg.StartCode,
		EndCode:       leg.EndCode,
	}, nil
}

// synthesize creates a new segment for an unmatched cluster, widening the
// trip's dates first when the cluster falls outside them.
func (s *AssignmentService) synthesize(ctx context.Context, state *assignState, cluster itinerary.Cluster, kind domain.ReservationKind) (domain.Segment, error) {
	proposal := itinerary.Propose(cluster, kind, state.trip)

	if proposal.NeedsExtension() {
		start, end := state.trip.StartDate, state.trip.EndDate
		if proposal.ExtendStart != nil {
			start = *proposal.ExtendStart
		}
		if proposal.ExtendEnd != nil {
			end = *proposal.ExtendEnd
		}
		trip, err := s.trips.ExtendDates(ctx, state.trip.ID, start, end)
		if err != nil {
			return domain.Segment{}, err
		}
		s.log.Info("trip dates extended",
			slog.String("trip_id", trip.ID.String()),
			slog.Time("start", trip.StartDate),
			slog.Time("end", trip.EndDate),
		)
		state.trip = trip
		state.extended = true
	}

	utcStart, utcEnd := proposal.StartTime, proposal.EndTime
	seg := domain.Segment{
		TripID:    state.trip.ID,
		Name:      proposal.Name,
		Type:      proposal.Type,
		Order:     insertionOrder(state.segments, proposal.StartTime),
		Start:     domain.Place{Name: proposal.StartLocation},
		End:       domain.Place{Name: proposal.EndLocation},
		WallStart: wallFromUTC(proposal.StartTime),
		WallEnd:   wallFromUTC(proposal.EndTime),
		UTCStart:  &utcStart,
		UTCEnd:    &utcEnd,
	}

	created, err := s.segments.InsertAt(ctx, seg)
	if err != nil {
		return domain.Segment{}, err
	}
	s.log.Info("segment synthesized",
		slog.String("segment", created.Name),
		slog.String("category", string(proposal.Category)),
		slog.String("reason", proposal.Reason),
	)

	state.segments = insertSegment(state.segments, created)
	if s.scheduler != nil {
		s.scheduler.ScheduleSegment(created.ID)
	}
	return created, nil
}

// createReservations persists one reservation per leg into the target
// segment and schedules enrichment for each.
func (s *AssignmentService) createReservations(ctx context.Context, target domain.Segment, item Item, legs []ItemLeg) ([]domain.Reservation, error) {
	totalLegs := len(item.Legs)
	if totalLegs == 0 {
		totalLegs = 1
	}

	created := make([]domain.Reservation, 0, len(legs))
	for _, leg := range legs {
		res := domain.Reservation{
			SegmentID:          target.ID,
			Kind:               item.Kind,
			Status:             domain.StatusConfirmed,
			Name:               legName(item, leg, totalLegs),
			Vendor:             item.Vendor,
			ConfirmationNumber: item.ConfirmationNumber,
			Cost:               item.Cost,
			Currency:           item.Currency,
			ContactInfo:        item.ContactInfo,
			StartLocation:      leg.StartLocation,
			EndLocation:        leg.EndLocation,
			WallStart:          leg.Start,
			WallEnd:            leg.End,
			ImageURL:           item.ImageURL,
			ImageIsCustom:      item.ImageURL != "",
			Metadata:           leg.Metadata,
		}

		// Derived instants from whatever zones are known now; enrichment
		// recomputes once missing zones resolve.
		if start, err := localtime.Instant(leg.Start, false); err == nil {
			res.UTCStart = &start
		}
		if !leg.End.IsZero() {
			if end, err := localtime.Instant(leg.End, leg.End.Clock == ""); err == nil {
				res.UTCEnd = &end
			}
		}

		persisted, err := s.reservations.Create(ctx, res)
		if err != nil {
			return nil, err
		}
		created = append(created, persisted)
		if s.scheduler != nil {
			s.scheduler.ScheduleReservation(persisted.ID)
		}
	}
	return created, nil
}

// parkDraft persists a failed batch item as a draft reservation in the
// trip's holding segment, creating that segment on first use.
func (s *AssignmentService) parkDraft(ctx context.Context, state *assignState, item Item, cause error) (domain.Reservation, error) {
	holding, err := s.holdingSegment(ctx, state)
	if err != nil {
		return domain.Reservation{}, err
	}

	kind := item.Kind
	if !kind.Valid() {
		kind = domain.KindGeneric
	}
	name := item.Name
	if strings.TrimSpace(name) == "" {
		name = "Unnamed booking"
	}

	draft := domain.Reservation{
		SegmentID:          holding.ID,
		Kind:               kind,
		Status:             domain.StatusDraft,
		Name:               name,
		Vendor:             item.Vendor,
		ConfirmationNumber: item.ConfirmationNumber,
		Cost:               item.Cost,
		Currency:           item.Currency,
		ContactInfo:        item.ContactInfo,
		StartLocation:      item.Location,
		EndLocation:        item.EndLocation,
		WallStart:          item.Start,
		WallEnd:            item.End,
		ErrorNote:          cause.Error(),
		Metadata:           item.Metadata,
	}
	if len(item.Legs) > 0 {
		first, last := item.Legs[0], item.Legs[len(item.Legs)-1]
		draft.StartLocation = first.StartLocation
		draft.EndLocation = last.EndLocation
		draft.WallStart = first.Start
		draft.WallEnd = last.End
	}

	return s.reservations.Create(ctx, draft)
}

func (s *AssignmentService) holdingSegment(ctx context.Context, state *assignState) (domain.Segment, error) {
	for _, seg := range state.segments {
		if seg.Name == draftSegmentName {
			return seg, nil
		}
	}
	created, err := s.segments.Create(ctx, domain.Segment{
		TripID: state.trip.ID,
		Name:   draftSegmentName,
		Type:   domain.SegmentOther,
	})
	if err != nil {
		return domain.Segment{}, err
	}
	state.segments = append(state.segments, created)
	return created, nil
}

func validateItem(item Item) error {
	if !item.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", domain.ErrValidation, item.Kind)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if item.Kind.MultiLeg() {
		if len(item.Legs) == 0 {
			return fmt.Errorf("%w: %s items require at least one leg", domain.ErrValidation, item.Kind)
		}
	} else if item.Start.IsZero() {
		return fmt.Errorf("%w: start date is required", domain.ErrValidation)
	}
	return nil
}

// legName derives the reservation name: the item name, suffixed with the
// leg's route when the journey has several legs.
func legName(item Item, leg ItemLeg, totalLegs int) string {
	if totalLegs <= 1 {
		return item.Name
	}
	from, to := leg.StartCode, leg.EndCode
	if from == "" {
		from = cityToken(leg.StartLocation)
	}
	if to == "" {
		to = cityToken(leg.EndLocation)
	}
	if from == "" || to == "" {
		return item.Name
	}
	return fmt.Sprintf("%s (%s-%s)", item.Name, from, to)
}

func cityToken(location string) string {
	return strings.TrimSpace(strings.SplitN(location, ",", 2)[0])
}

// insertionOrder picks where a synthesized segment belongs: before the first
// existing segment that starts after it, else at the end.
func insertionOrder(segments []domain.Segment, start time.Time) int {
	for _, seg := range segments {
		if seg.UTCStart != nil && seg.UTCStart.After(start) {
			return seg.Order
		}
	}
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].Order + 1
}

// insertSegment places created into the in-memory list, mirroring the shift
// the repo applied to sort_order.
func insertSegment(segments []domain.Segment, created domain.Segment) []domain.Segment {
	out := make([]domain.Segment, 0, len(segments)+1)
	inserted := false
	for _, seg := range segments {
		if !inserted && seg.Order >= created.Order {
			out = append(out, created)
			inserted = true
		}
		if seg.Order >= created.Order {
			seg.Order++
		}
		out = append(out, seg)
	}
	if !inserted {
		out = append(out, created)
	}
	return out
}

func segmentByID(segments []domain.Segment, id uuid.UUID) domain.Segment {
	for _, seg := range segments {
		if seg.ID == id {
			return seg
		}
	}
	return domain.Segment{}
}

// wallFromUTC renders a UTC instant as a zone-less wall clock for
// synthesized segments; enrichment fills the zone in later.
func wallFromUTC(t time.Time) domain.WallClock {
	return domain.WallClock{
		Date:  t.Format(localtime.DateLayout),
		Clock: t.Format("15:04"),
	}
}
