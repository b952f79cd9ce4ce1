// Package httpapi exposes the draw service over HTTP.
package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/metrics"
	"github.com/xtding233/gacha-backend/internal/service"
)

const defaultTrials = 1000

// Service is the part of *service.Service the handlers use.
type Service interface {
	Banners(r catalog.Region) ([]service.BannerView, error)
	Draw(ctx context.Context, req service.DrawRequest) (*service.DrawResponse, error)
	History(ctx context.Context, userID string, r catalog.Region, bannerLabel string) (history.Summary, error)
	Refresh(ctx context.Context) (*service.RefreshReport, error)
	Simulate(r catalog.Region, choice, count, trials int) (gacha.SimReport, error)
}

type handler struct {
	svc Service
	log *zap.Logger
}

// NewRouter builds the gin engine. gatherer may be nil to leave /metrics out.
func NewRouter(svc Service, m *metrics.Metrics, gatherer prometheus.Gatherer, log *zap.Logger) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	h := &handler{svc: svc, log: log.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(h.log), observe(m))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/banners/:region", h.banners)
	r.POST("/draw", h.draw)
	r.GET("/history/:region/:user", h.history)
	r.POST("/refresh", h.refresh)
	r.GET("/simulate/:region", h.simulate)
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

func regionParam(c *gin.Context) (catalog.Region, bool) {
	region, err := catalog.ParseRegion(c.Param("region"))
	if err != nil {
		failErr(c, err)
		return "", false
	}
	return region, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	s := c.Query(key)
	if s == "" {
		return def, true
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid "+key)
		return 0, false
	}
	return v, true
}

func (h *handler) banners(c *gin.Context) {
	region, ok := regionParam(c)
	if !ok {
		return
	}
	views, err := h.svc.Banners(region)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, views)
}

// drawBody is the POST /draw payload. A missing banner means the standard banner,
// as it does for simulate.
type drawBody struct {
	UserID string         `json:"user_id"`
	Region catalog.Region `json:"region"`
	Banner *int           `json:"banner"`
	Count  int            `json:"count"`
}

func (h *handler) draw(c *gin.Context) {
	var body drawBody
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid body: "+err.Error())
		return
	}
	req := service.DrawRequest{UserID: body.UserID, Region: body.Region, Banner: service.StandardChoice, Count: body.Count}
	if body.Banner != nil {
		req.Banner = *body.Banner
	}
	if _, err := catalog.ParseRegion(string(req.Region)); err != nil {
		failErr(c, err)
		return
	}
	resp, err := h.svc.Draw(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, resp)
}

func (h *handler) history(c *gin.Context) {
	region, ok := regionParam(c)
	if !ok {
		return
	}
	sum, err := h.svc.History(c.Request.Context(), c.Param("user"), region, c.Query("banner"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, sum)
}

func (h *handler) refresh(c *gin.Context) {
	rep, err := h.svc.Refresh(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, rep)
}

func (h *handler) simulate(c *gin.Context) {
	region, ok := regionParam(c)
	if !ok {
		return
	}
	choice, ok := intQuery(c, "banner", service.StandardChoice)
	if !ok {
		return
	}
	count, ok := intQuery(c, "count", gacha.TenDraw)
	if !ok {
		return
	}
	trials, ok := intQuery(c, "trials", defaultTrials)
	if !ok {
		return
	}
	rep, err := h.svc.Simulate(region, choice, count, trials)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, rep)
}
