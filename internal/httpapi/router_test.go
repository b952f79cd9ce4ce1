package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-backend/internal/catalog"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/metrics"
	"github.com/xtding233/gacha-backend/internal/service"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeService struct {
	lastDraw   service.DrawRequest
	lastLabel  string
	lastSim    [3]int
	drawErr    error
	refreshErr error
}

func (f *fakeService) Banners(r catalog.Region) ([]service.BannerView, error) {
	if r == catalog.Global {
		return nil, service.ErrNoSnapshot
	}
	return []service.BannerView{{Index: 0, Type: "PickupGacha", Label: "Aris", RateUpID: 21}}, nil
}

func (f *fakeService) Draw(ctx context.Context, req service.DrawRequest) (*service.DrawResponse, error) {
	f.lastDraw = req
	if f.drawErr != nil {
		return nil, f.drawErr
	}
	return &service.DrawResponse{
		Region:  req.Region,
		Banner:  "Aris",
		Results: []gacha.Result{{CharacterID: 21, Name: "Aris", Category: gacha.CategoryPickup, Tag: gacha.TagPickupSSR, Region: req.Region}},
	}, nil
}

func (f *fakeService) History(ctx context.Context, userID string, r catalog.Region, label string) (history.Summary, error) {
	f.lastLabel = label
	return history.Summary{Banner: label, Total: 3}, nil
}

func (f *fakeService) Refresh(ctx context.Context) (*service.RefreshReport, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return &service.RefreshReport{Regions: map[catalog.Region]service.RegionReport{catalog.Japan: {Banners: 1}}}, nil
}

func (f *fakeService) Simulate(r catalog.Region, choice, count, trials int) (gacha.SimReport, error) {
	f.lastSim = [3]int{choice, count, trials}
	return gacha.SimReport{Draws: count * trials, Categories: map[gacha.Category]float64{gacha.CategoryR: 100}}, nil
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestBanners(t *testing.T) {
	r := NewRouter(&fakeService{}, nil, nil, nil)

	w, resp := do(t, r, http.MethodGet, "/banners/japan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, CodeOK, resp.Code)
	assert.Contains(t, w.Body.String(), `"label":"Aris"`)

	w, resp = do(t, r, http.MethodGet, "/banners/global", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeNotReady, resp.Code)

	w, resp = do(t, r, http.MethodGet, "/banners/mars", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, CodeNotFound, resp.Code)
}

func TestDraw(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, nil, nil, nil)

	w, _ := do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"japan","banner":0,"count":10}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.DrawRequest{UserID: "u1", Region: catalog.Japan, Banner: 0, Count: 10}, svc.lastDraw)
	assert.Contains(t, w.Body.String(), `"tag":"Pickup_SSR"`)

	w, _ = do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"global","count":1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.StandardChoice, svc.lastDraw.Banner, "no banner means standard")

	w, resp := do(t, r, http.MethodPost, "/draw", `{"user_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeBadRequest, resp.Code)

	w, _ = do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"mars","count":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	svc.drawErr = service.ErrBannerChoice
	w, _ = do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"japan","banner":7,"count":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.drawErr = gacha.ErrInvalidCount
	w, _ = do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"japan","count":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.drawErr = errors.New("boom")
	w, resp = do(t, r, http.MethodPost, "/draw", `{"user_id":"u1","region":"japan","count":1}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, resp.Code)
	assert.NotContains(t, resp.Message, "boom")
}

func TestHistory(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, nil, nil, nil)

	w, _ := do(t, r, http.MethodGet, "/history/japan/u1?banner=Aris", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Aris", svc.lastLabel)
	assert.Contains(t, w.Body.String(), `"total":3`)
}

func TestRefresh(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, nil, nil, nil)

	w, _ := do(t, r, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"japan"`)

	svc.refreshErr = errors.New("feed unreachable")
	w, _ = do(t, r, http.MethodPost, "/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSimulate(t *testing.T) {
	svc := &fakeService{}
	r := NewRouter(svc, nil, nil, nil)

	w, _ := do(t, r, http.MethodGet, "/simulate/japan", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [3]int{service.StandardChoice, gacha.TenDraw, defaultTrials}, svc.lastSim)
	assert.Contains(t, w.Body.String(), `"R":100`)

	w, _ = do(t, r, http.MethodGet, "/simulate/japan?banner=1&count=1&trials=50", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, [3]int{1, 1, 50}, svc.lastSim)

	w, resp := do(t, r, http.MethodGet, "/simulate/japan?trials=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid trials", resp.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New("test")
	require.NoError(t, m.Register(reg))
	r := NewRouter(&fakeService{}, m, reg, nil)

	do(t, r, http.MethodGet, "/banners/japan", "")
	w, _ := do(t, r, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `test_http_request_duration_seconds_count{route="/banners/:region",status="200"} 1`)

	w, _ = do(t, r, http.MethodGet, "/healthz", "")
	assert.Equal(t, "ok", w.Body.String())
}
