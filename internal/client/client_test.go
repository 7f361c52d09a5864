package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spot-annotator/backend/internal/models"
	"github.com/spot-annotator/backend/internal/projection"
	"github.com/spot-annotator/backend/internal/syncengine"
)

const token = "test-token"

func init() {
	gin.SetMode(gin.TestMode)
}

var here = models.GeoPoint{Lng: -7.135, Lat: 54.005}

// fakeAPI is a minimal in-memory annotation API.
type fakeAPI struct {
	annotations []models.Annotation
	visibility  string
	failWrites  atomic.Bool
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	t.Helper()
	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Password != "correct horse" {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: "invalid credentials"})
			return
		}
		c.JSON(http.StatusOK, models.TokenResponse{AccessToken: token, TokenType: "Bearer", ExpiresIn: 3600})
	})

	protected := api.Group("")
	protected.Use(func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer "+token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized"})
			return
		}
		c.Next()
	})
	protected.GET("/annotations", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.AnnotationsResponse{Data: models.Wrap(f.annotations)})
	})
	protected.POST("/annotations", func(c *gin.Context) {
		if f.failWrites.Load() {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "internal_error", Message: "failed to create annotation"})
			return
		}
		var env models.Envelope
		if err := c.ShouldBindJSON(&env); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_request", Message: err.Error()})
			return
		}
		saved := models.WithOwner(env.Annotation, "server@example.com")
		f.annotations = append(f.annotations, saved)
		c.JSON(http.StatusCreated, models.AnnotationResponse{Data: models.Envelope{Annotation: saved}})
	})
	protected.DELETE("/annotations/:id", func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "annotation not found"})
	})
	protected.GET("/spots", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SpotsResponse{Data: []models.Spot{}})
	})
	protected.GET("/visibility", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(`{"data":`+f.visibility+`}`))
	})
	protected.PUT("/visibility", func(c *gin.Context) {
		raw, _ := c.GetRawData()
		f.visibility = string(raw)
		c.Status(http.StatusNoContent)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestLogin(t *testing.T) {
	srv := (&fakeAPI{}).server(t)
	c := New(srv.URL+"/api/v1/", zap.NewNop())

	_, err := c.Login(context.Background(), "angler@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	resp, err := c.Login(context.Background(), "angler@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, token, resp.AccessToken)

	_, err = c.Annotations().List(context.Background())
	assert.NoError(t, err)
}

func TestUnauthenticated(t *testing.T) {
	srv := (&fakeAPI{}).server(t)
	c := New(srv.URL+"/api/v1", zap.NewNop())

	_, err := c.Annotations().List(context.Background())

	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestAnnotationRoundTrip(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	c := New(srv.URL+"/api/v1", zap.NewNop())
	c.SetToken(token)
	ctx := context.Background()

	draft := models.NewDraft(models.TypeDropoff, models.PathGeometry(models.ShapeLine, []models.GeoPoint{here, {Lng: -7.2, Lat: 54.1}}), "A", "angler@example.com")
	saved, err := c.Annotations().Create(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "server@example.com", saved.Meta().OwnerID)
	assert.Equal(t, draft.Geometry(), saved.Geometry())

	list, err := c.Annotations().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.IsType(t, models.Dropoff{}, list[0])

	err = c.Annotations().Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusError(t *testing.T) {
	api := &fakeAPI{}
	api.failWrites.Store(true)
	srv := api.server(t)
	c := New(srv.URL+"/api/v1", zap.NewNop())
	c.SetToken(token)

	_, err := c.Annotations().Create(context.Background(), models.NewDraft(models.TypeNote, models.PointGeometry(here), "A", "a@example.com"))

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
	assert.Equal(t, "internal_error", se.Body.Error)
}

func TestEngineOverHTTP(t *testing.T) {
	api := &fakeAPI{}
	srv := api.server(t)
	c := New(srv.URL+"/api/v1", zap.NewNop())
	c.SetToken(token)

	engine := syncengine.New(c.Annotations(), c.Spots())
	require.NoError(t, engine.Load(context.Background()))

	draft := models.NewDraft(models.TypeNote, models.PointGeometry(here), "A", "angler@example.com")
	require.NoError(t, engine.CreateAnnotation(draft).Wait())
	assert.Equal(t, "server@example.com", engine.Annotations()[0].Meta().OwnerID)

	api.failWrites.Store(true)
	second := models.NewDraft(models.TypeNote, models.PointGeometry(here), "B", "angler@example.com")
	assert.Error(t, engine.CreateAnnotation(second).Wait())
	assert.Len(t, engine.Annotations(), 1)
}

func TestVisibilityKV(t *testing.T) {
	api := &fakeAPI{visibility: "{}"}
	srv := api.server(t)
	c := New(srv.URL+"/api/v1", zap.NewNop())
	c.SetToken(token)
	ctx := context.Background()

	store := projection.NewVisibilityStore(c.Visibility(), "", zap.NewNop())
	store.Load(ctx)
	store.Toggle(ctx, models.TypeNote)

	flags := projection.NewVisibilityStore(c.Visibility(), "", zap.NewNop()).Load(ctx)
	assert.False(t, flags[models.TypeNote])
	assert.True(t, flags[models.TypeIsobath])
}
