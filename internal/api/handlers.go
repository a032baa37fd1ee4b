package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/engage-protocol/ep-indexer/internal/domain"
	"github.com/engage-protocol/ep-indexer/internal/logger"
	"github.com/engage-protocol/ep-indexer/internal/namecodec"
)

const defaultActivityLimit = 50

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGetProduct(c *gin.Context) {
	id, err := namecodec.ParseAmount(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	product, err := s.store.GetProductByID(c.Request.Context(), namecodec.AmountString(id))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

func (s *Server) handleListProductAdministrators(c *gin.Context) {
	id, err := namecodec.ParseAmount(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	rows, err := s.store.ListProductAdministrators(c.Request.Context(), namecodec.AmountString(id))
	if err != nil {
		s.internalError(c, err)
		return
	}

	out := make([]AdministratorResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAdministratorResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"administrators": out})
}

func (s *Server) handleGetCampaign(c *gin.Context) {
	campaign, err := s.store.GetCampaign(c.Request.Context(), domain.NormalizeAddress(c.Param("address")))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if campaign == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		return
	}
	c.JSON(http.StatusOK, toCampaignResponse(campaign))
}

func (s *Server) handleGetCampaignStats(c *gin.Context) {
	stats, err := s.store.GetReferralCampaignStats(c.Request.Context(), domain.NormalizeAddress(c.Param("address")))
	if err != nil {
		s.internalError(c, err)
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "campaign stats not found"})
		return
	}
	c.JSON(http.StatusOK, toCampaignStatsResponse(stats))
}

func (s *Server) handleListCampaignCapResets(c *gin.Context) {
	rows, err := s.store.ListCampaignCapResets(c.Request.Context(), domain.NormalizeAddress(c.Param("address")))
	if err != nil {
		s.internalError(c, err)
		return
	}

	out := make([]CapResetResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCapResetResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"capResets": out})
}

func (s *Server) handleListUserRewards(c *gin.Context) {
	rows, err := s.store.ListRewardsByUser(c.Request.Context(), domain.NormalizeAddress(c.Param("address")))
	if err != nil {
		s.internalError(c, err)
		return
	}

	out := make([]RewardResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRewardResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"rewards": out})
}

func (s *Server) handleListUserActivity(c *gin.Context) {
	limit := defaultActivityLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	rows, err := s.store.ListInteractionEventsByUser(c.Request.Context(), domain.NormalizeAddress(c.Param("address")), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}

	out := make([]ActivityResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toActivityResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"activity": out})
}

func (s *Server) internalError(c *gin.Context, err error) {
	logger.ErrorCtx(c.Request.Context(), err,
		zap.String("requestID", c.GetString("requestID")),
		zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
