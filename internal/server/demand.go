package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	demanddomain "github.com/voyara/voyara/internal/demand/domain"
)

func (s *Server) GetDemandScore(c *gin.Context) {
	destinationID, err := parseOptionalSnowflakeID(c.Query("destination_id"))
	if err != nil {
		AbortWithError(c, newValidationError("destination_id", "invalid_query", "invalid query parameter"))
		return
	}

	date, err := parseOptionalTime(c.Query("date"), false)
	if err != nil {
		AbortWithError(c, newValidationError("date", "invalid_query", "invalid query parameter"))
		return
	}

	query := demanddomain.ScoreQuery{
		DestinationID: destinationID,
		Date:          s.clock.Now().UTC(),
	}
	if serviceType := strings.TrimSpace(c.Query("service_type")); serviceType != "" {
		query.ServiceType = &serviceType
	}
	if date != nil {
		query.Date = *date
	}

	resp := s.demandSvc.Score(c.Request.Context(), query)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDemandMetrics(c *gin.Context) {
	destinationID, err := parseOptionalSnowflakeID(c.Query("destination_id"))
	if err != nil {
		AbortWithError(c, newValidationError("destination_id", "invalid_query", "invalid query parameter"))
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
	query := demanddomain.HistoryQuery{
		DestinationID: destinationID,
		From:          now.AddDate(0, 0, -30),
		To:            now,
	}
	if serviceType := strings.TrimSpace(c.Query("service_type")); serviceType != "" {
		query.ServiceType = &serviceType
	}
	if from != nil {
		query.From = *from
	}
	if to != nil {
		query.To = *to
	}

	resp, err := s.demandSvc.History(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
