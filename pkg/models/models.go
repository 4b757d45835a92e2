package models

import "time"

// SchedulingType determines how an event distributes its hosts
type SchedulingType string

const (
	SchedulingCollective SchedulingType = "COLLECTIVE"
	SchedulingRoundRobin SchedulingType = "ROUND_ROBIN"
)

// User is the minimal contract a host's identity payload must satisfy.
// The pipeline stays agnostic to whatever credential or calendar data the
// caller has attached beyond this.
type User interface {
	UserID() int64
	UserEmail() string
}

// Host represents one candidate assignee for an event. CreatedAt stays nil
// when the association time is unknown; defaulting it to "now" would corrupt
// fairness ordering downstream.
type Host[U User] struct {
	User      U          `json:"user"`
	IsFixed   bool       `json:"is_fixed"`
	CreatedAt *time.Time `json:"created_at"`
	Priority  *int       `json:"priority"`
	Weight    *int       `json:"weight"`
	GroupID   *string    `json:"group_id"`
}

// Event is the read-only event descriptor consumed by the pipeline
type Event struct {
	ID                               int64          `json:"id"`
	SchedulingType                   SchedulingType `json:"scheduling_type"`
	IsRRWeightsEnabled               bool           `json:"is_rr_weights_enabled"`
	RescheduleWithSameRoundRobinHost bool           `json:"reschedule_with_same_round_robin_host"`
	MaxLeadThreshold                 *int           `json:"max_lead_threshold"`
	SegmentGroupIDs                  []string       `json:"segment_group_ids,omitempty"`
}

// QualificationResult is the pipeline output. AllFallbackRRHosts is nil
// unless a late stage narrowed the pool past an earlier, broader qualified
// set; it then holds the wider pool for display and notification fallback.
type QualificationResult[U User] struct {
	QualifiedRRHosts   []Host[U] `json:"qualified_rr_hosts"`
	FixedHosts         []Host[U] `json:"fixed_hosts"`
	AllFallbackRRHosts []Host[U] `json:"all_fallback_rr_hosts,omitempty"`
}

// EventUser is the concrete identity payload used by the HTTP surface
type EventUser struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

func (u EventUser) UserID() int64     { return u.ID }
func (u EventUser) UserEmail() string { return u.Email }

// QualifyInput is the data structure for the qualification endpoint
type QualifyInput struct {
	Event               Event             `json:"event"`
	Hosts               []Host[EventUser] `json:"hosts"`
	FallbackHosts       []Host[EventUser] `json:"fallback_hosts,omitempty"`
	Segmented           bool              `json:"segmented"`
	RescheduleUID       *string           `json:"reschedule_uid"`
	RoutedTeamMemberIDs []int64           `json:"routed_team_member_ids"`
	ContactOwnerEmail   *string           `json:"contact_owner_email"`
	RoutingFormResponse map[string]any    `json:"routing_form_response,omitempty"`
}

// QualifyResponse is the data structure for the qualification result
type QualifyResponse struct {
	QualifiedRRHosts   []Host[EventUser] `json:"qualified_rr_hosts"`
	FixedHosts         []Host[EventUser] `json:"fixed_hosts"`
	AllFallbackRRHosts []Host[EventUser] `json:"all_fallback_rr_hosts,omitempty"`
}
