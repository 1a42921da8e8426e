package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	entrysummarydomain "github.com/smallbiznis/ftzflow/internal/entrysummary/domain"
)

type addGroupPreshipmentsRequest struct {
	ShipmentIDs []string `json:"shipment_ids"`
}

type approveGroupRequest struct {
	ApprovedBy string `json:"approved_by"`
}

func (s *Server) CreateEntryGroup(c *gin.Context) {
	var req entrysummarydomain.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.entrySummarySvc.CreateGroup(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) AddGroupPreshipments(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}
	var req addGroupPreshipmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.ShipmentIDs) == 0 {
		AbortWithError(c, newValidationError("shipment_ids", "invalid_shipment_ids", "shipment_ids is required"))
		return
	}

	resp, err := s.entrySummarySvc.AddPreshipments(c.Request.Context(), groupID, req.ShipmentIDs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApproveEntryGroup(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}
	var req approveGroupRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.entrySummarySvc.ApproveGroup(c.Request.Context(), groupID, strings.TrimSpace(req.ApprovedBy))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) BuildEntrySummaryFromGroup(c *gin.Context) {
	groupID, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := s.entrySummarySvc.BuildFromGroup(c.Request.Context(), groupID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetEntrySummary(c *gin.Context) {
	resp, err := s.entrySummarySvc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RecomputeGrandTotals(c *gin.Context) {
	summary, err := s.entrySummarySvc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.entrySummarySvc.RecomputeGrandTotals(c.Request.Context(), summary.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id == 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return 0, false
	}
	return id, true
}
