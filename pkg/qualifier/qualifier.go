package qualifier

import (
	"context"

	"github.com/bookwell/host-qualifier-api/pkg/models"
)

// SourceResult is what a HostSource produces for an event. Segmented=false
// means the event has no host-segment data at all; the pipeline then returns
// the fallback host list instead of running the narrowing stages.
type SourceResult[U models.User] struct {
	Hosts         []models.Host[U]
	Segmented     bool
	FallbackHosts []models.Host[U]
}

// HostSource loads and normalizes the raw host list for an event
type HostSource[U models.User] interface {
	Normalize(ctx context.Context, event models.Event) (SourceResult[U], error)
}

// ContinuityInput carries what a ContinuityFilter needs to decide whether a
// rescheduled booking should stay with its prior host
type ContinuityInput[U models.User] struct {
	Hosts                            []models.Host[U]
	RescheduleUID                    *string
	RescheduleWithSameRoundRobinHost bool
	RoutedTeamMemberIDs              []int64
}

// ContinuityFilter returns the subset of hosts consistent with
// same-host-as-prior-booking continuity rules
type ContinuityFilter[U models.User] interface {
	Filter(ctx context.Context, in ContinuityInput[U]) ([]models.Host[U], error)
}

// SegmentInput carries what a SegmentMatcher needs
type SegmentInput[U models.User] struct {
	Event models.Event
	Hosts []models.Host[U]
}

// SegmentMatcher returns the subset of hosts matching event-segment criteria
type SegmentMatcher[U models.User] interface {
	Filter(ctx context.Context, in SegmentInput[U]) ([]models.Host[U], error)
}

// FairnessInput carries what a FairnessFilter needs. RoutingFormResponse is
// opaque to the pipeline and passed through untouched.
type FairnessInput[U models.User] struct {
	Event               models.Event
	Hosts               []models.Host[U]
	MaxLeadThreshold    *int
	RoutingFormResponse map[string]any
}

// FairnessFilter returns the subset of hosts passing lead-volume thresholds
type FairnessFilter[U models.User] interface {
	Filter(ctx context.Context, in FairnessInput[U]) ([]models.Host[U], error)
}

// Func adapters so callers can supply plain closures as collaborators

type SourceFunc[U models.User] func(ctx context.Context, event models.Event) (SourceResult[U], error)

func (f SourceFunc[U]) Normalize(ctx context.Context, event models.Event) (SourceResult[U], error) {
	return f(ctx, event)
}

type ContinuityFunc[U models.User] func(ctx context.Context, in ContinuityInput[U]) ([]models.Host[U], error)

func (f ContinuityFunc[U]) Filter(ctx context.Context, in ContinuityInput[U]) ([]models.Host[U], error) {
	return f(ctx, in)
}

type SegmentFunc[U models.User] func(ctx context.Context, in SegmentInput[U]) ([]models.Host[U], error)

func (f SegmentFunc[U]) Filter(ctx context.Context, in SegmentInput[U]) ([]models.Host[U], error) {
	return f(ctx, in)
}

type FairnessFunc[U models.User] func(ctx context.Context, in FairnessInput[U]) ([]models.Host[U], error)

func (f FairnessFunc[U]) Filter(ctx context.Context, in FairnessInput[U]) ([]models.Host[U], error) {
	return f(ctx, in)
}

// Request is one qualification invocation
type Request[U models.User] struct {
	Event               models.Event
	RescheduleUID       *string
	RoutedTeamMemberIDs []int64
	ContactOwnerEmail   *string
	RoutingFormResponse map[string]any
}

// Pipeline orchestrates the host-qualification cascade. Every stage narrows
// the round-robin pool through narrowWithFallback, so a stage that matches
// nothing can never make the event unbookable. Collaborator errors propagate
// unchanged; the pipeline holds no state across invocations.
type Pipeline[U models.User] struct {
	Source     HostSource[U]
	Continuity ContinuityFilter[U]
	Segments   SegmentMatcher[U]
	Fairness   FairnessFilter[U]
}

// NewPipeline creates a pipeline from its four collaborators
func NewPipeline[U models.User](source HostSource[U], continuity ContinuityFilter[U], segments SegmentMatcher[U], fairness FairnessFilter[U]) *Pipeline[U] {
	return &Pipeline[U]{
		Source:     source,
		Continuity: continuity,
		Segments:   segments,
		Fairness:   fairness,
	}
}

// Qualify runs the cascade and returns the fixed hosts plus the qualified
// round-robin shortlist for one booking request
func (p *Pipeline[U]) Qualify(ctx context.Context, req Request[U]) (models.QualificationResult[U], error) {
	var zero models.QualificationResult[U]

	src, err := p.Source.Normalize(ctx, req.Event)
	if err != nil {
		return zero, err
	}

	// Not a segmented team event: the fallback list is the answer, split by
	// the same fixed/round-robin predicate. Terminal branch, not a stage.
	if !src.Segmented {
		fixed, rr := split(dedup(normalize(req.Event, src.FallbackHosts)))
		return models.QualificationResult[U]{QualifiedRRHosts: rr, FixedHosts: fixed}, nil
	}

	fixed, rr := split(dedup(normalize(req.Event, src.Hosts)))

	continuityNarrowed, err := p.Continuity.Filter(ctx, ContinuityInput[U]{
		Hosts:                            rr,
		RescheduleUID:                    req.RescheduleUID,
		RescheduleWithSameRoundRobinHost: req.Event.RescheduleWithSameRoundRobinHost,
		RoutedTeamMemberIDs:              req.RoutedTeamMemberIDs,
	})
	if err != nil {
		return zero, err
	}
	rr = narrowWithFallback(rr, dedup(continuityNarrowed))

	// A continuity singleton is definitive: a booking tied to one specific
	// host must not be diluted by later heuristics.
	if len(rr) == 1 {
		return models.QualificationResult[U]{QualifiedRRHosts: rr, FixedHosts: fixed}, nil
	}

	segmentNarrowed, err := p.Segments.Filter(ctx, SegmentInput[U]{Event: req.Event, Hosts: rr})
	if err != nil {
		return zero, err
	}
	rr = narrowWithFallback(rr, dedup(segmentNarrowed))
	if len(rr) == 1 {
		return models.QualificationResult[U]{QualifiedRRHosts: rr, FixedHosts: fixed}, nil
	}

	// Contact-owner match is computed here but held aside: it only decides
	// the outcome as a singleton override further down.
	ownerHosts := narrowWithFallback(rr, dedup(matchContactOwner(rr, req.ContactOwnerEmail)))

	routed := narrowWithFallback(rr, dedup(matchRoutedMembers(rr, req.RoutedTeamMemberIDs)))
	if len(routed) == 1 {
		if len(ownerHosts) == 1 {
			return models.QualificationResult[U]{
				QualifiedRRHosts:   ownerHosts,
				FixedHosts:         fixed,
				AllFallbackRRHosts: union(routed, ownerHosts),
			}, nil
		}
		return models.QualificationResult[U]{QualifiedRRHosts: routed, FixedHosts: fixed}, nil
	}

	fairnessNarrowed, err := p.Fairness.Filter(ctx, FairnessInput[U]{
		Event:               req.Event,
		Hosts:               routed,
		MaxLeadThreshold:    req.Event.MaxLeadThreshold,
		RoutingFormResponse: req.RoutingFormResponse,
	})
	if err != nil {
		return zero, err
	}
	fair := narrowWithFallback(routed, dedup(fairnessNarrowed))

	if len(ownerHosts) == 1 {
		return models.QualificationResult[U]{
			QualifiedRRHosts:   ownerHosts,
			FixedHosts:         fixed,
			AllFallbackRRHosts: union(fair, ownerHosts),
		}, nil
	}

	result := models.QualificationResult[U]{QualifiedRRHosts: fair, FixedHosts: fixed}
	if len(fair) != len(routed) {
		// Fairness excluded somebody; report the wider pool it narrowed from.
		result.AllFallbackRRHosts = routed
	}
	return result, nil
}

// narrowWithFallback keeps current when a narrowing heuristic matched
// nothing. Stages are heuristics, never authorities: an event must stay
// bookable even when every filter comes back empty.
func narrowWithFallback[U models.User](current, narrowed []models.Host[U]) []models.Host[U] {
	if len(narrowed) > 0 {
		return narrowed
	}
	return current
}

// normalize materializes the canonical host list. Collective events force
// every host to fixed regardless of the stored flag. Optional fields stay
// nil when absent; CreatedAt in particular is never defaulted.
func normalize[U models.User](event models.Event, hosts []models.Host[U]) []models.Host[U] {
	out := make([]models.Host[U], 0, len(hosts))
	for _, h := range hosts {
		if event.SchedulingType == models.SchedulingCollective {
			h.IsFixed = true
		}
		out = append(out, h)
	}
	return out
}

// dedup collapses hosts sharing a user id to the first occurrence. Applied
// after every transformation that could reintroduce duplicates; idempotent.
func dedup[U models.User](hosts []models.Host[U]) []models.Host[U] {
	seen := make(map[int64]bool, len(hosts))
	out := make([]models.Host[U], 0, len(hosts))
	for _, h := range hosts {
		if seen[h.User.UserID()] {
			continue
		}
		seen[h.User.UserID()] = true
		out = append(out, h)
	}
	return out
}

// split partitions hosts into fixed and round-robin sets
func split[U models.User](hosts []models.Host[U]) (fixed, roundRobin []models.Host[U]) {
	for _, h := range hosts {
		if h.IsFixed {
			fixed = append(fixed, h)
		} else {
			roundRobin = append(roundRobin, h)
		}
	}
	return fixed, roundRobin
}

// union appends extra hosts not already present, preserving order
func union[U models.User](hosts, extra []models.Host[U]) []models.Host[U] {
	return dedup(append(append([]models.Host[U]{}, hosts...), extra...))
}

func matchContactOwner[U models.User](hosts []models.Host[U], email *string) []models.Host[U] {
	if email == nil {
		return nil
	}
	var out []models.Host[U]
	for _, h := range hosts {
		if h.User.UserEmail() == *email {
			out = append(out, h)
		}
	}
	return out
}

func matchRoutedMembers[U models.User](hosts []models.Host[U], ids []int64) []models.Host[U] {
	if len(ids) == 0 {
		return nil
	}
	routed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		routed[id] = true
	}
	var out []models.Host[U]
	for _, h := range hosts {
		if routed[h.User.UserID()] {
			out = append(out, h)
		}
	}
	return out
}
