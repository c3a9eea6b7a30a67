package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/awe/config"
	"github.com/cppla/awe/utils"
)

// ReloadFunc rebuilds the running handler from a freshly loaded configuration.
type ReloadFunc func(cfg config.AppConfig) error

// ConfigController exposes the site settings and lets admins change them.
type ConfigController struct {
	cfg    config.AppConfig
	path   string
	reload ReloadFunc
}

// NewConfigController creates a ConfigController; reload may be nil.
func NewConfigController(cfg config.AppConfig, path string, reload ReloadFunc) *ConfigController {
	return &ConfigController{cfg: cfg, path: path, reload: reload}
}

// Get returns the public site settings.
func (c *ConfigController) Get(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"title":     c.cfg.AppTitle,
		"license":   c.cfg.License,
		"home_slug": c.cfg.HomeSlug(),
	})
}

// Save writes the title and license to the config file and reloads. Admin only.
func (c *ConfigController) Save(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" form:"title"`
		License string `json:"license" form:"license"`
	}
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40050, "invalid request payload")
		return
	}
	title := utils.SanitizeText(req.Title)
	license := utils.SanitizeText(req.License)
	if title == "" || license == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "title and license are required")
		return
	}

	if err := config.SaveSite(c.path, title, license); err != nil {
		utils.Sugar.Errorf("config save failed path=%s err=%v", c.path, err)
		utils.Error(ctx, http.StatusInternalServerError, 50050, "failed to save config")
		return
	}
	next, err := config.Load(c.path)
	if err != nil {
		utils.Sugar.Errorf("config reload failed path=%s err=%v", c.path, err)
		utils.Error(ctx, http.StatusInternalServerError, 50051, "config saved but reload failed")
		return
	}
	if c.reload != nil {
		if err := c.reload(next); err != nil {
			utils.Sugar.Errorf("handler rebuild failed: %v", err)
			utils.Error(ctx, http.StatusInternalServerError, 50052, "config saved but reload failed")
			return
		}
	}
	utils.Sugar.Infof("site config updated title=%s license=%s", next.AppTitle, next.License)
	if utils.WantsHTML(ctx) {
		utils.FlashRedirect(ctx, "/", "Configurações salvas!")
		return
	}
	utils.Success(ctx, gin.H{"title": next.AppTitle, "license": next.License, "home_slug": next.HomeSlug()})
}
