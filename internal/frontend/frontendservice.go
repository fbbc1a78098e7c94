package frontend

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jo-hoe/goscore/internal/backend"
	"github.com/jo-hoe/goscore/internal/common"
	"github.com/jo-hoe/goscore/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName = "index.html"

	minScore     = 0
	maxScore     = 10
	defaultScore = 5
)

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	metrics     *backend.Metrics
}

type pageImage struct {
	ID  string
	URL string
}

type pageData struct {
	Images       []pageImage
	Message      string
	MinScore     int
	MaxScore     int
	DefaultScore int
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService, metrics *backend.Metrics) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
		metrics:     metrics,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = newTemplate()

	e.GET("/", service.rootRedirectHandler)
	e.GET("/"+MainPageName, service.indexHandler)
	e.POST("/htmx/score", service.htmxScoreHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	data := pageData{
		MinScore:     minScore,
		MaxScore:     maxScore,
		DefaultScore: defaultScore,
	}

	images, err := service.coreService.RandomImages(ctx.Request().Context(), service.config.Frontend.ImagesPerPage)
	switch {
	case errors.Is(err, core.ErrNoImages):
		data.Message = "No images found"
	case err != nil:
		slog.Error("indexHandler: failed to load random images", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load images")
	}

	for _, img := range images {
		data.Images = append(data.Images, pageImage{ID: img.ID, URL: service.imageURL(img.Filename)})
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, data)
}

func (service *FrontendService) imageURL(filename string) string {
	path := common.ImagePath(filename)
	if variant := service.config.Frontend.Variant; variant != "" {
		path += "?variant=" + url.QueryEscape(variant)
	}
	return path
}

func (service *FrontendService) htmxScoreHandler(ctx echo.Context) error {
	imageID := ctx.FormValue("image_id")
	rawScore := ctx.FormValue("score")

	score, err := strconv.ParseInt(rawScore, 10, 64)
	if imageID == "" || err != nil || score < minScore || score > maxScore {
		slog.Warn("htmxScoreHandler: invalid submission",
			"status", http.StatusBadRequest, "image_id", imageID, "score", rawScore)
		return ctx.Render(http.StatusBadRequest, "score-error", map[string]string{"Message": common.InvalidDataMessage})
	}

	if err := service.coreService.SubmitScore(ctx.Request().Context(), imageID, score); err != nil {
		slog.Error("htmxScoreHandler: failed to store score",
			"status", http.StatusInternalServerError, "image_id", imageID, "error", err)
		return ctx.Render(http.StatusInternalServerError, "score-error", map[string]string{"Message": "Failed to submit score"})
	}
	if service.metrics != nil {
		service.metrics.ScoresSubmitted.Inc()
	}

	return ctx.Render(http.StatusOK, "score-result", map[string]int64{"Score": score})
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
