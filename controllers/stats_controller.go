package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/store"
	"github.com/cppla/awe/utils"
)

// StatsController provides wiki statistics such as counts and today's page views.
type StatsController struct {
	store *store.Store
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(st *store.Store) *StatsController {
	return &StatsController{store: st}
}

// GetStats returns aggregate statistics for the wiki.
func (s *StatsController) GetStats(ctx *gin.Context) {
	utils.Success(ctx, s.store.Stats(ctx.Request.Context()))
}

// GetPageStats returns the total views of one wiki path.
func (s *StatsController) GetPageStats(ctx *gin.Context) {
	path := "/wiki/" + slugParam(ctx, "slug")
	pv, err := s.store.PageViews(ctx.Request.Context(), path)
	if err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		pv = 0
	}
	utils.Success(ctx, gin.H{"path": path, "pv": pv})
}
