package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	preshipmentdomain "github.com/smallbiznis/ftzflow/internal/preshipment/domain"
)

type transitionStageRequest struct {
	Stage string `json:"stage"`
}

func (s *Server) CreatePreshipment(c *gin.Context) {
	var req preshipmentdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.preshipmentSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) GetPreshipment(c *gin.Context) {
	resp, err := s.preshipmentSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) TransitionStage(c *gin.Context) {
	var req transitionStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	stage, err := preshipmentdomain.ParseStage(req.Stage)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.preshipmentSvc.TransitionStage(c.Request.Context(), c.Param("id"), stage)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinalizeShipment(c *gin.Context) {
	var req preshipmentdomain.SignoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.preshipmentSvc.FinalizeShipment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) BuildEntrySummaryFromPreshipment(c *gin.Context) {
	resp, err := s.entrySummarySvc.BuildFromPreshipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}
