package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	adjustmentdomain "github.com/voyara/voyara/internal/adjustment/domain"
)

func (s *Server) ListAdjustments(c *gin.Context) {
	serviceID, err := parseOptionalSnowflakeID(c.Query("service_id"))
	if err != nil || serviceID == nil {
		AbortWithError(c, adjustmentdomain.ErrInvalidServiceID)
		return
	}

	adjustmentDate, err := parseOptionalTime(c.Query("date"), false)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_query", "invalid query parameter"))
		return
	}

	limit, err := parseOptionalInt(c.Query("limit"))
	if err != nil {
		AbortWithError(c, newValidationError("limit", "invalid_query", "invalid query parameter"))
		return
	}

	query := adjustmentdomain.LedgerQuery{
		ServiceID:      *serviceID,
		AdjustmentDate: adjustmentDate,
	}
	if limit != nil {
		query.Limit = *limit
	}

	resp, err := s.ledgerSvc.ListByService(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetVolatility(c *gin.Context) {
	serviceID, err := snowflake.ParseString(c.Param("serviceId"))
	if err != nil || serviceID == 0 {
		AbortWithError(c, adjustmentdomain.ErrInvalidServiceID)
		return
	}

	from, err := parseOptionalTime(c.Query("from"), false)
	if err != nil {
		AbortWithError(c, newValidationError("from", "invalid_query", "invalid query parameter"))
		return
	}
	to, err := parseOptionalTime(c.Query("to"), true)
	if err != nil {
		AbortWithError(c, newValidationError("to", "invalid_query", "invalid query parameter"))
		return
	}

	now := s.clock.Now().UTC()
	query := adjustmentdomain.VolatilityQuery{
		ServiceID: serviceID,
		From:      now.AddDate(0, 0, -30),
		To:        now,
	}
	if from != nil {
		query.From = *from
	}
	if to != nil {
		query.To = *to
	}

	resp, err := s.ledgerSvc.Volatility(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
