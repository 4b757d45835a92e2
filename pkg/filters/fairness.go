package filters

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/bookwell/host-qualifier-api/pkg/database"
	"github.com/bookwell/host-qualifier-api/pkg/models"
	"github.com/bookwell/host-qualifier-api/pkg/qualifier"
)

// DefaultLeadWindow bounds how far back lead counting looks when the caller
// does not configure a window
const DefaultLeadWindow = 30 * 24 * time.Hour

// LeadThresholdFairness drops hosts that already reached the event's lead
// threshold inside the counting window. Without a threshold every host
// passes. The routing form response is accepted for contract parity but the
// lead count alone decides here.
type LeadThresholdFairness struct {
	DB     *gorm.DB
	Window time.Duration
}

// Filter implements qualifier.FairnessFilter
func (f *LeadThresholdFairness) Filter(ctx context.Context, in qualifier.FairnessInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
	if in.MaxLeadThreshold == nil || *in.MaxLeadThreshold <= 0 {
		return in.Hosts, nil
	}

	window := f.Window
	if window == 0 {
		window = DefaultLeadWindow
	}
	since := time.Now().Add(-window)

	type leadCount struct {
		UserID int64
		Total  int64
	}
	var rows []leadCount
	err := f.DB.WithContext(ctx).Model(&database.LeadEvent{}).
		Select("user_id, count(*) as total").
		Where("event_id = ? AND assigned_at >= ?", in.Event.ID, since).
		Group("user_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.UserID] = r.Total
	}

	var out []models.Host[models.EventUser]
	for _, h := range in.Hosts {
		if counts[h.User.UserID()] < int64(*in.MaxLeadThreshold) {
			out = append(out, h)
		}
	}
	return out, nil
}
