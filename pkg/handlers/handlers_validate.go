package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bookwell/host-qualifier-api/pkg/models"
)

// ValidateInput handles the JSON-based validation request
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.QualifyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if input.Event.ID == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "An event id is required",
		})
		return
	}

	if input.Segmented && len(input.Hosts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one host is required for a segmented event",
		})
		return
	}

	if !input.Segmented && len(input.FallbackHosts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "A fallback host list is required for a non-segmented event",
		})
		return
	}

	// Check for duplicate user IDs and missing emails in both lists
	if problem := hostListProblem(input.Hosts); problem != "" {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": problem})
		return
	}
	if problem := hostListProblem(input.FallbackHosts); problem != "" {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": problem})
		return
	}

	switch input.Event.SchedulingType {
	case models.SchedulingCollective, models.SchedulingRoundRobin:
	default:
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Unknown scheduling type: " + string(input.Event.SchedulingType)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"host_count":   len(input.Hosts),
			"routed_count": len(input.RoutedTeamMemberIDs),
		},
	})
}

// hostListProblem reports the first structural defect in a host list, or ""
func hostListProblem(hosts []models.Host[models.EventUser]) string {
	userIDs := make(map[int64]bool)
	for _, host := range hosts {
		if host.User.Email == "" {
			return "Host user " + strconv.FormatInt(host.User.ID, 10) + " has no email"
		}
		if userIDs[host.User.ID] {
			return "Duplicate host user ID: " + strconv.FormatInt(host.User.ID, 10)
		}
		userIDs[host.User.ID] = true
	}
	return ""
}
