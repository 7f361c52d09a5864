package client

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/spot-annotator/backend/internal/models"
)

// AnnotationRemote serves /annotations.
type AnnotationRemote struct {
	c *Client
}

func (c *Client) Annotations() *AnnotationRemote {
	return &AnnotationRemote{c: c}
}

func (r *AnnotationRemote) List(ctx context.Context) ([]models.Annotation, error) {
	var resp models.AnnotationsResponse
	if err := r.c.do(ctx, http.MethodGet, "/annotations", nil, &resp); err != nil {
		return nil, err
	}
	return models.Unwrap(resp.Data), nil
}

func (r *AnnotationRemote) Create(ctx context.Context, a models.Annotation) (models.Annotation, error) {
	var resp models.AnnotationResponse
	if err := r.c.do(ctx, http.MethodPost, "/annotations", models.Envelope{Annotation: a}, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Annotation, nil
}

func (r *AnnotationRemote) Update(ctx context.Context, id uuid.UUID, p models.Patch) (models.Annotation, error) {
	var resp models.AnnotationResponse
	if err := r.c.do(ctx, http.MethodPatch, "/annotations/"+id.String(), p, &resp); err != nil {
		return nil, err
	}
	return resp.Data.Annotation, nil
}

func (r *AnnotationRemote) Delete(ctx context.Context, id uuid.UUID) error {
	return r.c.do(ctx, http.MethodDelete, "/annotations/"+id.String(), nil, nil)
}

// SpotRemote serves /spots.
type SpotRemote struct {
	c *Client
}

func (c *Client) Spots() *SpotRemote {
	return &SpotRemote{c: c}
}

func (r *SpotRemote) List(ctx context.Context) ([]models.Spot, error) {
	var resp models.SpotsResponse
	if err := r.c.do(ctx, http.MethodGet, "/spots", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (r *SpotRemote) Create(ctx context.Context, s models.Spot) (models.Spot, error) {
	var resp models.SpotResponse
	if err := r.c.do(ctx, http.MethodPost, "/spots", s, &resp); err != nil {
		return models.Spot{}, err
	}
	return resp.Data, nil
}

func (r *SpotRemote) Update(ctx context.Context, id uuid.UUID, p models.SpotPatch) (models.Spot, error) {
	var resp models.SpotResponse
	if err := r.c.do(ctx, http.MethodPatch, "/spots/"+id.String(), p, &resp); err != nil {
		return models.Spot{}, err
	}
	return resp.Data, nil
}

func (r *SpotRemote) Delete(ctx context.Context, id uuid.UUID) error {
	return r.c.do(ctx, http.MethodDelete, "/spots/"+id.String(), nil, nil)
}

// VisibilityKV stores the visibility flags on the server. The key is
// ignored: the server scopes flags by the authenticated user.
type VisibilityKV struct {
	c *Client
}

func (c *Client) Visibility() *VisibilityKV {
	return &VisibilityKV{c: c}
}

func (v *VisibilityKV) Get(ctx context.Context, _ string) (string, error) {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := v.c.do(ctx, http.MethodGet, "/visibility", nil, &resp); err != nil {
		return "", err
	}
	return string(resp.Data), nil
}

func (v *VisibilityKV) Set(ctx context.Context, _ string, value string) error {
	return v.c.do(ctx, http.MethodPut, "/visibility", json.RawMessage(value), nil)
}
