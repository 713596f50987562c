package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/BitForged/Compass/internal/ports"
)

// Txt2ImgJob is the body of a queued text-to-image job.
type Txt2ImgJob struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negative_prompt,omitempty"`
	ModelName      string   `json:"model_name,omitempty"`
	SamplerName    string   `json:"sampler_name,omitempty"`
	Scheduler      string   `json:"scheduler,omitempty"`
	Steps          int      `json:"steps,omitempty"`
	CfgScale       float64  `json:"cfg_scale,omitempty"`
	Width          int      `json:"width,omitempty"`
	Height         int      `json:"height,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	CategoryID     string   `json:"category_id,omitempty"`
	Loras          []string `json:"loras,omitempty"`
}

// API wraps the backend endpoints. Payloads are owned by the backend and are
// handed back undecoded.
type API struct {
	requester ports.Requester
}

func NewAPI(requester ports.Requester) *API {
	return &API{requester: requester}
}

func (a *API) Models(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/models")
}

func (a *API) Samplers(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/samplers")
}

func (a *API) Schedulers(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/schedulers")
}

func (a *API) Upscalers(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/upscalers")
}

func (a *API) Modules(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/modules")
}

func (a *API) Loras(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/loras")
}

func (a *API) Limits(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/config/limits")
}

func (a *API) MyJobs(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/user/jobs")
}

func (a *API) Job(ctx context.Context, jobID string) (json.RawMessage, error) {
	return a.get(ctx, "api/jobs/"+url.PathEscape(jobID))
}

func (a *API) ImageMetadata(ctx context.Context, imageID string) (json.RawMessage, error) {
	return a.get(ctx, "api/images/"+url.PathEscape(imageID)+"/metadata")
}

func (a *API) MyCategories(ctx context.Context) (json.RawMessage, error) {
	return a.get(ctx, "api/user/categories")
}

func (a *API) QueueTxt2Img(ctx context.Context, job Txt2ImgJob) (json.RawMessage, error) {
	return a.send(ctx, http.MethodPost, "api/queue/user/txt2img", job)
}

func (a *API) InterruptJob(ctx context.Context, jobID string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodPost, "api/queue/interrupt/"+url.PathEscape(jobID), nil)
}

func (a *API) DeleteImage(ctx context.Context, imageID string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodDelete, "api/user/image/"+url.PathEscape(imageID), nil)
}

func (a *API) CreateCategory(ctx context.Context, name string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodPost, "api/categories", map[string]string{"name": name})
}

func (a *API) RenameCategory(ctx context.Context, categoryID, name string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodPatch, "api/categories/"+url.PathEscape(categoryID), map[string]string{"name": name})
}

// UpdateCategory replaces the category document with fields.
func (a *API) UpdateCategory(ctx context.Context, categoryID string, fields map[string]any) (json.RawMessage, error) {
	return a.send(ctx, http.MethodPut, "api/categories/"+url.PathEscape(categoryID), fields)
}

func (a *API) DeleteCategory(ctx context.Context, categoryID string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodDelete, "api/categories/"+url.PathEscape(categoryID), nil)
}

func (a *API) get(ctx context.Context, endpoint string) (json.RawMessage, error) {
	return a.send(ctx, http.MethodGet, endpoint, nil)
}

func (a *API) send(ctx context.Context, method, endpoint string, data any) (json.RawMessage, error) {
	req := ports.Request{Method: method, Endpoint: endpoint}
	if data != nil {
		req.Data = data
	}

	resp, err := a.requester.Request(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, nil
	}
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("%s %s: response is not JSON", method, endpoint)
	}
	return json.RawMessage(resp.Body), nil
}
