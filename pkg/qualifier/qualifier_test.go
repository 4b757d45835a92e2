package qualifier

import (
	"context"
	"reflect"
	"testing"

	"github.com/bookwell/host-qualifier-api/pkg/models"
)

func mkHost(id int64, email string) models.Host[models.EventUser] {
	return models.Host[models.EventUser]{
		User: models.EventUser{ID: id, Email: email},
	}
}

func passthroughPipeline(hosts []models.Host[models.EventUser]) *Pipeline[models.EventUser] {
	return NewPipeline[models.EventUser](
		SourceFunc[models.EventUser](func(ctx context.Context, event models.Event) (SourceResult[models.EventUser], error) {
			return SourceResult[models.EventUser]{Hosts: hosts, Segmented: true}, nil
		}),
		ContinuityFunc[models.EventUser](func(ctx context.Context, in ContinuityInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
			return in.Hosts, nil
		}),
		SegmentFunc[models.EventUser](func(ctx context.Context, in SegmentInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
			return in.Hosts, nil
		}),
		FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
			return in.Hosts, nil
		}),
	)
}

func ids(hosts []models.Host[models.EventUser]) []int64 {
	out := make([]int64, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, h.User.UserID())
	}
	return out
}

func TestQualifyNoNarrowing(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	p := passthroughPipeline(hosts)
	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{1, 2, 3}) {
		t.Errorf("Expected all 3 hosts qualified, got %v", ids(res.QualifiedRRHosts))
	}
	if res.AllFallbackRRHosts != nil {
		t.Errorf("Expected no fallback pool when nothing narrowed, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestFairnessNarrowingReportsWiderPool(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	p := passthroughPipeline(hosts)
	p.Fairness = FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return in.Hosts[:1], nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{1}) {
		t.Errorf("Expected only host 1 qualified, got %v", ids(res.QualifiedRRHosts))
	}
	if !reflect.DeepEqual(ids(res.AllFallbackRRHosts), []int64{1, 2, 3}) {
		t.Errorf("Expected wider pool reported as fallback, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestNeverEmptyWhenAllFiltersMissEverything(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	p := passthroughPipeline(hosts)
	empty := func() []models.Host[models.EventUser] { return nil }
	p.Continuity = ContinuityFunc[models.EventUser](func(ctx context.Context, in ContinuityInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return empty(), nil
	})
	p.Segments = SegmentFunc[models.EventUser](func(ctx context.Context, in SegmentInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return empty(), nil
	})
	p.Fairness = FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return empty(), nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if len(res.QualifiedRRHosts) != 3 {
		t.Errorf("Expected every filter miss to fall back to the full pool, got %v", ids(res.QualifiedRRHosts))
	}
}

func TestContinuitySingletonShortCircuits(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	p := passthroughPipeline(hosts)
	p.Continuity = ContinuityFunc[models.EventUser](func(ctx context.Context, in ContinuityInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return in.Hosts[1:2], nil
	})
	p.Segments = SegmentFunc[models.EventUser](func(ctx context.Context, in SegmentInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		t.Error("Segment matcher ran after a continuity singleton")
		return nil, nil
	})
	p.Fairness = FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		t.Error("Fairness filter ran after a continuity singleton")
		return nil, nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{2}) {
		t.Errorf("Expected continuity host 2 to win outright, got %v", ids(res.QualifiedRRHosts))
	}
	if res.AllFallbackRRHosts != nil {
		t.Errorf("Expected no fallback pool on a continuity singleton, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestContactOwnerOverridesRoutedSingleton(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}
	owner := "b@team.test"

	p := passthroughPipeline(hosts)
	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event:               models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
		RoutedTeamMemberIDs: []int64{1},
		ContactOwnerEmail:   &owner,
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{2}) {
		t.Errorf("Expected contact owner host 2 to override routed host 1, got %v", ids(res.QualifiedRRHosts))
	}
	if !reflect.DeepEqual(ids(res.AllFallbackRRHosts), []int64{1, 2}) {
		t.Errorf("Expected fallback pool with routed host and owner, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestRoutedSingletonWithoutOwnerWins(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	p := passthroughPipeline(hosts)
	p.Fairness = FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		t.Error("Fairness filter ran after a routed singleton")
		return nil, nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event:               models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
		RoutedTeamMemberIDs: []int64{3},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{3}) {
		t.Errorf("Expected routed host 3 qualified, got %v", ids(res.QualifiedRRHosts))
	}
	if res.AllFallbackRRHosts != nil {
		t.Errorf("Expected no fallback pool for a plain routed singleton, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestContactOwnerSingletonAfterFairness(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}
	owner := "b@team.test"

	p := passthroughPipeline(hosts)
	p.Fairness = FairnessFunc[models.EventUser](func(ctx context.Context, in FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return in.Hosts[:1], nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event:             models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
		ContactOwnerEmail: &owner,
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{2}) {
		t.Errorf("Expected contact owner host 2 qualified, got %v", ids(res.QualifiedRRHosts))
	}
	if !reflect.DeepEqual(ids(res.AllFallbackRRHosts), []int64{1, 2}) {
		t.Errorf("Expected fairness survivors plus owner as fallback, got %v", ids(res.AllFallbackRRHosts))
	}
}

func TestCollectiveForcesAllHostsFixed(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		{User: models.EventUser{ID: 2, Email: "b@team.test"}, IsFixed: true},
	}

	p := passthroughPipeline(hosts)
	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingCollective},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.FixedHosts), []int64{1, 2}) {
		t.Errorf("Expected both hosts forced to fixed, got %v", ids(res.FixedHosts))
	}
	// No round-robin hosts existed at input, so an empty shortlist is valid.
	if len(res.QualifiedRRHosts) != 0 {
		t.Errorf("Expected empty round-robin pool for collective event, got %v", ids(res.QualifiedRRHosts))
	}
}

func TestFixedHostsUnaffectedByNarrowing(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		{User: models.EventUser{ID: 1, Email: "a@team.test"}, IsFixed: true},
		mkHost(2, "b@team.test"),
		mkHost(3, "c@team.test"),
	}

	narrowings := [][]int64{nil, {2}, {3}, {2, 3}}
	for _, routed := range narrowings {
		p := passthroughPipeline(hosts)
		res, err := p.Qualify(context.Background(), Request[models.EventUser]{
			Event:               models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
			RoutedTeamMemberIDs: routed,
		})
		if err != nil {
			t.Fatalf("Qualify returned error: %v", err)
		}
		if !reflect.DeepEqual(ids(res.FixedHosts), []int64{1}) {
			t.Errorf("Fixed hosts changed under routing %v: got %v", routed, ids(res.FixedHosts))
		}
	}
}

func TestDedupIsIdempotentAndRunsAreStable(t *testing.T) {
	hosts := []models.Host[models.EventUser]{
		mkHost(1, "a@team.test"),
		mkHost(1, "a@team.test"),
		mkHost(2, "b@team.test"),
	}

	if got := dedup(dedup(hosts)); len(got) != 2 {
		t.Errorf("Expected double dedup to keep 2 hosts, got %d", len(got))
	}

	p := passthroughPipeline(hosts)
	req := Request[models.EventUser]{Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin}}

	first, err := p.Qualify(context.Background(), req)
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}
	second, err := p.Qualify(context.Background(), req)
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results across runs, got %+v then %+v", first, second)
	}
	if !reflect.DeepEqual(ids(first.QualifiedRRHosts), []int64{1, 2}) {
		t.Errorf("Expected duplicate host collapsed, got %v", ids(first.QualifiedRRHosts))
	}
}

func TestNonSegmentedEventReturnsFallbackList(t *testing.T) {
	fallback := []models.Host[models.EventUser]{
		{User: models.EventUser{ID: 7, Email: "g@team.test"}, IsFixed: true},
		mkHost(8, "h@team.test"),
		mkHost(8, "h@team.test"),
	}

	p := passthroughPipeline(nil)
	p.Source = SourceFunc[models.EventUser](func(ctx context.Context, event models.Event) (SourceResult[models.EventUser], error) {
		return SourceResult[models.EventUser]{Segmented: false, FallbackHosts: fallback}, nil
	})
	p.Continuity = ContinuityFunc[models.EventUser](func(ctx context.Context, in ContinuityInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		t.Error("Continuity filter ran on the non-segmented branch")
		return nil, nil
	})

	res, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != nil {
		t.Fatalf("Qualify returned error: %v", err)
	}

	if !reflect.DeepEqual(ids(res.FixedHosts), []int64{7}) {
		t.Errorf("Expected fallback fixed host 7, got %v", ids(res.FixedHosts))
	}
	if !reflect.DeepEqual(ids(res.QualifiedRRHosts), []int64{8}) {
		t.Errorf("Expected deduplicated fallback round-robin host 8, got %v", ids(res.QualifiedRRHosts))
	}
}

func TestCollaboratorErrorsPropagate(t *testing.T) {
	hosts := []models.Host[models.EventUser]{mkHost(1, "a@team.test"), mkHost(2, "b@team.test")}

	p := passthroughPipeline(hosts)
	p.Segments = SegmentFunc[models.EventUser](func(ctx context.Context, in SegmentInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
		return nil, context.DeadlineExceeded
	})

	_, err := p.Qualify(context.Background(), Request[models.EventUser]{
		Event: models.Event{ID: 10, SchedulingType: models.SchedulingRoundRobin},
	})
	if err != context.DeadlineExceeded {
		t.Errorf("Expected segment error to propagate unchanged, got %v", err)
	}
}
