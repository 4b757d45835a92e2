package filters

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/bookwell/host-qualifier-api/pkg/database"
	"github.com/bookwell/host-qualifier-api/pkg/models"
	"github.com/bookwell/host-qualifier-api/pkg/qualifier"
)

// BookingContinuity keeps a rescheduled booking with its prior host. It looks
// up the original booking by its uid and narrows to that host when the event
// opts in and the host is still a candidate.
type BookingContinuity struct {
	DB *gorm.DB
}

// Filter implements qualifier.ContinuityFilter
func (f *BookingContinuity) Filter(ctx context.Context, in qualifier.ContinuityInput[models.EventUser]) ([]models.Host[models.EventUser], error) {
	if in.RescheduleUID == nil || !in.RescheduleWithSameRoundRobinHost {
		return nil, nil
	}

	var prior database.Booking
	err := f.DB.WithContext(ctx).Where("uid = ?", *in.RescheduleUID).First(&prior).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	// Explicit routing takes precedence over continuity: a prior host the
	// form routed away from is no longer a continuity candidate.
	if len(in.RoutedTeamMemberIDs) > 0 {
		routed := false
		for _, id := range in.RoutedTeamMemberIDs {
			if id == prior.UserID {
				routed = true
				break
			}
		}
		if !routed {
			return nil, nil
		}
	}

	for _, h := range in.Hosts {
		if h.User.UserID() == prior.UserID {
			return []models.Host[models.EventUser]{h}, nil
		}
	}
	return nil, nil
}
