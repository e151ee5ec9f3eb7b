package objectdesigner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"object-designer-client/internal/config"
	"object-designer-client/internal/core/domain"
	ports "object-designer-client/internal/core/ports/output"
)

const headerRequestID = "X-Request-ID"

type client struct {
	baseURL string
	http    *resty.Client
}

// NewObjectDesignerClient creates a new object designer client adapter
func NewObjectDesignerClient(cfg *config.APIConfig) (ports.ObjectDesignerClient, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, fmt.Errorf("base URL must be absolute, got: %q", cfg.BaseURL)
	}

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	h := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetLogger(log.StandardLogger())
	if cfg.UserAgent != "" {
		h.SetHeader("User-Agent", cfg.UserAgent)
	}
	h.OnBeforeRequest(stampRequestID)
	h.OnAfterResponse(logResponse)

	return &client{baseURL: h.BaseURL, http: h}, nil
}

func stampRequestID(_ *resty.Client, r *resty.Request) error {
	if r.Header.Get(headerRequestID) == "" {
		r.SetHeader(headerRequestID, uuid.New().String())
	}
	return nil
}

func logResponse(_ *resty.Client, resp *resty.Response) error {
	log.WithFields(log.Fields{
		"status":     resp.StatusCode(),
		"method":     resp.Request.Method,
		"url":        resp.Request.URL,
		"latency_ms": resp.Time().Milliseconds(),
		"request_id": requestID(resp.Request),
	}).Debug("object designer request completed")
	return nil
}

// ============================================================================
// Generations
// ============================================================================

func (c *client) CreateGeneration(ctx context.Context, req ports.CreateGenerationRequest) (string, error) {
	const op = "create generation"

	status, env, err := c.doJSON(ctx, http.MethodPost, "/generations", req, nil)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK || !env.Success {
		return "", domain.NewError(domain.ErrSubmission, op, status, env.Error,
			fmt.Sprintf("failed to create generation (status %d)", status))
	}

	id := env.Data.Get("id")
	if id.Type != gjson.String {
		return "", domain.NewError(domain.ErrSubmission, op, status, "", "id is not string")
	}
	if id.Str == "" {
		return "", domain.NewError(domain.ErrSubmission, op, status, "", "id is empty")
	}
	return id.Str, nil
}

func (c *client) PollEnded(ctx context.Context, taskID string, longPoll time.Duration) (bool, error) {
	query := map[string]string{"ms": strconv.FormatInt(longPoll.Milliseconds(), 10)}

	status, env, err := c.doJSON(ctx, http.MethodGet, "/generations/"+url.PathEscape(taskID)+"/ended", nil, query)
	if err != nil {
		return false, err
	}

	switch {
	case status == http.StatusOK && env.Success:
		return true, nil
	case status == http.StatusNotFound:
		return false, domain.NewError(domain.ErrNotFound, "wait generation ended", status, env.Error,
			"task not found: "+taskID)
	default:
		// 202 and anything else non-terminal
		return false, nil
	}
}

// ============================================================================
// Objects
// ============================================================================

func (c *client) GetObjectState(ctx context.Context, taskID string) (*domain.ObjectState, error) {
	const op = "get object state"

	status, env, err := c.doJSON(ctx, http.MethodGet, "/objects/"+url.PathEscape(taskID), nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !env.Success {
		return nil, domain.NewError(domain.ErrFetch, op, status, env.Error,
			fmt.Sprintf("failed to get object state (status %d)", status))
	}
	if !env.Data.IsObject() {
		return nil, domain.NewError(domain.ErrFetch, op, status, "", "object state has no data")
	}

	var state domain.ObjectState
	if err := json.Unmarshal([]byte(env.Data.Raw), &state); err != nil {
		var derr *domain.Error
		if errors.As(err, &derr) {
			return nil, derr
		}
		return nil, domain.NewProtocolError(status, []byte(env.Data.Raw))
	}
	return &state, nil
}

func (c *client) GetContent(ctx context.Context, taskID, version string) (*domain.Artifact, error) {
	data, contentType, err := c.doBinary(ctx, http.MethodGet, versionPath(taskID, version)+"/content")
	if err != nil {
		return nil, err
	}
	return &domain.Artifact{
		TaskID:      taskID,
		Version:     version,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func (c *client) GetCode(ctx context.Context, taskID, version string) (string, error) {
	data, _, err := c.doBinary(ctx, http.MethodGet, versionPath(taskID, version)+"/code")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *client) ContentURL(taskID, version string) string {
	return c.baseURL + versionPath(taskID, version) + "/content"
}

func versionPath(taskID, version string) string {
	return "/objects/" + url.PathEscape(taskID) + "/versions/" + url.PathEscape(version)
}

// ============================================================================
// Rooms
// ============================================================================

func (c *client) AddToRooms(ctx context.Context, req ports.AddToRoomsRequest) error {
	status, env, err := c.doJSON(ctx, http.MethodPost, "/_debug_add_prog_obj_rooms", req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !env.Success {
		return domain.NewError(domain.ErrPublish, "add to rooms", status, env.Error,
			fmt.Sprintf("debug add failed (status %d)", status))
	}
	return nil
}
