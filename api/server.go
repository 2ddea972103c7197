package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/matt-g-everett/animlayers/blend"
	"github.com/matt-g-everett/animlayers/layers"
	"github.com/matt-g-everett/animlayers/observability"
	"github.com/matt-g-everett/animlayers/stream"
)

// Backend is the view of the controller that the API needs.
type Backend interface {
	Layers() []layers.LayerState
	Anchors() []blend.AnchorPoint
	Sample() mgl64.Vec2
	Recompute(x, y float64) []float64
	Frame() *stream.Frame
	Clips() []string
	Apply(source string, c stream.Command) error
}

type Api struct {
	backend   Backend
	router    *gin.Engine
	addr      string
	staticDir string
}

// NewApi creates an instance of an Api serving backend on addr. When
// staticDir is set, unmatched paths are served from it.
func NewApi(addr string, backend Backend, staticDir string) *Api {
	a := new(Api)
	a.backend = backend
	a.addr = addr
	a.staticDir = staticDir

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.AccessLog(log.Logger))
	r.Use(observability.RequestMetrics())
	a.router = r
	a.routes()
	return a
}

// Handler exposes the router, mainly for tests.
func (a *Api) Handler() http.Handler {
	return a.router
}

func (a *Api) routes() {
	r := a.router
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/layers", a.getLayers)
	r.GET("/anchors", a.getAnchors)
	r.GET("/weights", a.getWeights)
	r.GET("/frame", a.getFrame)
	r.GET("/clips", a.getClips)
	r.POST("/command", a.postCommand)

	if a.staticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(a.staticDir))))
	}
}

func (a *Api) getLayers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"layers": a.backend.Layers()})
}

func (a *Api) getAnchors(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sample":  a.backend.Sample(),
		"anchors": a.backend.Anchors(),
	})
}

func (a *Api) getWeights(c *gin.Context) {
	x, errX := strconv.ParseFloat(c.Query("x"), 64)
	y, errY := strconv.ParseFloat(c.Query("y"), 64)
	if errX != nil || errY != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "x and y must be numbers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sample":  [2]float64{x, y},
		"weights": a.backend.Recompute(x, y),
	})
}

func (a *Api) getFrame(c *gin.Context) {
	f := a.backend.Frame()
	if f == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slots":  f.Slots,
		"colour": f.Colour.Clamped().Hex(),
	})
}

func (a *Api) getClips(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"clips": a.backend.Clips()})
}

func (a *Api) postCommand(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd, err := stream.ParseCommand(body)
	if err != nil {
		observability.RecordCommand("http", "invalid", false)
		observability.TagCommand(c, "invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err = a.backend.Apply("http", cmd)
	if errors.Is(err, stream.ErrUnknownCommand) {
		observability.TagCommand(c, "unknown")
	} else {
		observability.TagCommand(c, cmd.Type)
	}
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, stream.ErrUnknownCommand), errors.Is(err, stream.ErrInvalidCommand),
		errors.Is(err, stream.ErrUnknownClip):
		return http.StatusBadRequest
	case errors.Is(err, layers.ErrInvalidIndex), errors.Is(err, blend.ErrInvalidIndex):
		return http.StatusNotFound
	case errors.Is(err, layers.ErrUnboundSource):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func (a *Api) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.addr,
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.addr).Msg("api: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
