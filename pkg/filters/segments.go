package filters

import (
	"context"

	"gorm.io/gorm"

	"github.com/bookwell/host-qualifier-api/pkg/database"
	"github.com/bookwell/host-qualifier-api/pkg/models"
	"github.com/bookwell/host-qualifier-api/pkg/qualifier"
)

// GroupSegmentMatcher keeps hosts whose group is one of the event's segment
// groups. Groups come from the segment_groups table; when the event has no
// stored rows the request-supplied SegmentGroupIDs are used instead. Hosts
// without a group never match a segmented event.
type GroupSegmentMatcher struct {
	DB *gorm.DB
}

// Filter implements qualifier.SegmentMatcher
func (m *GroupSegmentMatcher) Filter(ctx context.Context, in qualifier.SegmentInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
	groups := in.Event.SegmentGroupIDs
	if m.DB != nil {
		var rows []database.SegmentGroup
		if err := m.DB.WithContext(ctx).Where("event_id = ?", in.Event.ID).Find(&rows).Error; err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			groups = make([]string, 0, len(rows))
			for _, r := range rows {
				groups = append(groups, r.GroupID)
			}
		}
	}

	if len(groups) == 0 {
		return nil, nil
	}

	want := make(map[string]bool, len(groups))
	for _, id := range groups {
		want[id] = true
	}

	var out []models.Host[models.EventUser]
	for _, h := range in.Hosts {
		if h.GroupID != nil && want[*h.GroupID] {
			out = append(out, h)
		}
	}
	return out, nil
}
