package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type aggregateDemandRequest struct {
	Day *time.Time `json:"day"`
}

// TriggerDemandAggregation runs one aggregation pass outside the
// scheduler cadence, for replaying a failed nightly run. Defaults to
// yesterday when no day is given.
func (s *Server) TriggerDemandAggregation(c *gin.Context) {
	var req aggregateDemandRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	day := s.clock.Now().UTC().AddDate(0, 0, -1)
	if req.Day != nil {
		day = *req.Day
	}

	resp, err := s.demandSvc.AggregateDaily(c.Request.Context(), day)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// TriggerAutoApplySweep reprices the active catalog for tomorrow
// through the scheduler job, recording ledger rows as a cron run would.
func (s *Server) TriggerAutoApplySweep(c *gin.Context) {
	if err := s.scheduler.AutoApplySweepJob(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"completed": true}})
}
