package backend

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jo-hoe/goscore/internal/common"
	"github.com/jo-hoe/goscore/internal/core"
	"github.com/labstack/echo/v4"
)

const (
	noImagesMessage      = "No images found"
	notFoundMessage      = "Resource not found"
	invalidPathMessage   = "Invalid image path"
	noScoresMessage      = "No scores found for this image"
	scoreAcceptedMessage = "Score submitted successfully"
)

type APIService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	metrics     *Metrics
}

type ImageItem struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type RandomImagesResponse struct {
	Items []ImageItem `json:"items"`
}

type ScoreSubmission struct {
	ImageID string `json:"image_id" validate:"required"`
	// pointer so that an explicit 0 passes the required check while a missing score does not
	Score *int64 `json:"score" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ScoresResponse struct {
	ImageID string  `json:"image_id"`
	Scores  []int64 `json:"scores"`
}

func NewAPIService(config *core.ServiceConfig, coreService *core.CoreService, metrics *Metrics) *APIService {
	return &APIService{
		coreService: coreService,
		config:      config,
		metrics:     metrics,
	}
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	// Set probe route
	e.GET("/probe", s.probeHandler)

	e.GET("/api/random_images/:count", s.randomImagesHandler)
	e.GET(common.ImageRoutePrefix+"*", s.imageHandler)
	e.POST("/api/submit_score", s.submitScoreHandler)
	e.GET("/api/scores/:image_id", s.scoresHandler)

	if s.metrics != nil {
		s.metrics.SetRoutes(e)
	}
}

func (s *APIService) probeHandler(c echo.Context) error {
	if !s.coreService.Ready() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Store unavailable")
	}
	return c.String(http.StatusOK, "API Service is running")
}

func (s *APIService) randomImagesHandler(c echo.Context) error {
	count, ok := parseCount(c.Param("count"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, notFoundMessage)
	}

	images, err := s.coreService.RandomImages(c.Request().Context(), count)
	if errors.Is(err, core.ErrNoImages) {
		return echo.NewHTTPError(http.StatusNotFound, noImagesMessage)
	}
	if err != nil {
		return err
	}

	base := s.baseURL(c)
	response := RandomImagesResponse{Items: make([]ImageItem, 0, len(images))}
	for _, img := range images {
		response.Items = append(response.Items, ImageItem{
			ID:  img.ID,
			URL: base + common.ImagePath(img.Filename),
		})
	}
	return c.JSON(http.StatusOK, response)
}

// parseCount accepts plain decimal digits only. Values beyond int range are clamped,
// as any count larger than the catalog yields the whole catalog.
func parseCount(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	count, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, true
	}
	return count, err == nil
}

func (s *APIService) baseURL(c echo.Context) string {
	if s.config.BaseURL != "" {
		return strings.TrimSuffix(s.config.BaseURL, "/")
	}
	return c.Scheme() + "://" + c.Request().Host
}

// pathParam returns the decoded value of a path parameter. echo matches against the raw
// path when the request path carries escapes, leaving the parameter encoded.
func pathParam(c echo.Context, name string) string {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func (s *APIService) imageHandler(c echo.Context) error {
	filename := pathParam(c, "*")

	if variant := c.QueryParam("variant"); variant != "" {
		return s.imageVariant(c, filename, variant)
	}

	file, info, err := s.coreService.OpenImage(filename)
	if err != nil {
		return imageError(filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			slog.Error("imageHandler: failed to close image", "filename", filename, "error", cerr)
		}
	}()

	http.ServeContent(c.Response(), c.Request(), info.Name(), info.ModTime(), file)
	return nil
}

func (s *APIService) imageVariant(c echo.Context, filename, variant string) error {
	if !s.coreService.HasVariant(variant) {
		slog.Warn("imageHandler: unknown variant", "status", http.StatusBadRequest, "variant", variant)
		return echo.NewHTTPError(http.StatusBadRequest, "Unknown variant "+variant)
	}
	data, err := s.coreService.RenderImageVariant(filename, variant)
	if errors.Is(err, core.ErrImageNotFound) || errors.Is(err, core.ErrInvalidPath) {
		return imageError(filename, err)
	}
	if err != nil {
		slog.Warn("imageHandler: failed to render variant",
			"status", http.StatusUnprocessableEntity, "filename", filename, "variant", variant, "error", err)
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Image could not be processed").SetInternal(err)
	}
	return c.Blob(http.StatusOK, "image/png", data)
}

func imageError(filename string, err error) error {
	switch {
	case errors.Is(err, core.ErrInvalidPath):
		slog.Warn("imageHandler: rejected image path", "status", http.StatusBadRequest, "filename", filename)
		return echo.NewHTTPError(http.StatusBadRequest, invalidPathMessage).SetInternal(err)
	case errors.Is(err, core.ErrImageNotFound):
		return echo.NewHTTPError(http.StatusNotFound, notFoundMessage).SetInternal(err)
	default:
		return err
	}
}

func (s *APIService) submitScoreHandler(c echo.Context) error {
	var submission ScoreSubmission
	if err := c.Bind(&submission); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, common.InvalidDataMessage).SetInternal(err)
	}
	if err := c.Validate(&submission); err != nil {
		return err
	}

	err := s.coreService.SubmitScore(c.Request().Context(), submission.ImageID, *submission.Score)
	if errors.Is(err, core.ErrInvalidScore) {
		return echo.NewHTTPError(http.StatusBadRequest, common.InvalidDataMessage).SetInternal(err)
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ScoresSubmitted.Inc()
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: scoreAcceptedMessage})
}

func (s *APIService) scoresHandler(c echo.Context) error {
	imageID := pathParam(c, "image_id")

	scores, err := s.coreService.Scores(c.Request().Context(), imageID)
	if errors.Is(err, core.ErrNoScores) {
		return echo.NewHTTPError(http.StatusNotFound, noScoresMessage)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ScoresResponse{ImageID: imageID, Scores: scores})
}
