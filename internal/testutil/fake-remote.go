package testutil

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
)

// Routes served by FakeRemote, keyed the way gin reports FullPath.
const (
	RouteCreate  = "POST /generations"
	RoutePoll    = "GET /generations/:id/ended"
	RouteState   = "GET /objects/:id"
	RouteContent = "GET /objects/:id/versions/:version/content"
	RouteCode    = "GET /objects/:id/versions/:version/code"
	RoutePublish = "POST /_debug_add_prog_obj_rooms"
)

type RecordedRequest struct {
	Route  string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// FakeRemote is an in-process object designer service. By default it
// behaves like a healthy server: it issues TaskID, answers 202 to the first
// PendingPolls status queries, reports the submitted version as FinalStatus
// and serves Content. Any route can be replaced with Handle.
type FakeRemote struct {
	Server *httptest.Server

	mu            sync.Mutex
	TaskID        string
	PendingPolls  int
	FinalStatus   string
	FailureReason string
	Content       []byte
	ContentType   string
	Code          string

	version   string
	polls     int
	overrides map[string]gin.HandlerFunc
	requests  []RecordedRequest
}

func NewFakeRemote(t testing.TB) *FakeRemote {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &FakeRemote{
		TaskID:      "t1",
		FinalStatus: "succeeded",
		Content:     []byte("GLB..."),
		ContentType: "model/gltf-binary",
		Code:        "export default () => {}",
		overrides:   make(map[string]gin.HandlerFunc),
	}

	r := gin.New()
	r.Use(gin.Recovery(), f.record)
	r.POST("/generations", f.dispatch(RouteCreate, f.create))
	r.GET("/generations/:id/ended", f.dispatch(RoutePoll, f.pollEnded))
	r.GET("/objects/:id", f.dispatch(RouteState, f.state))
	r.GET("/objects/:id/versions/:version/content", f.dispatch(RouteContent, f.content))
	r.GET("/objects/:id/versions/:version/code", f.dispatch(RouteCode, f.code))
	r.POST("/_debug_add_prog_obj_rooms", f.dispatch(RoutePublish, f.publish))

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakeRemote) URL() string {
	return f.Server.URL
}

// Handle replaces the handler of route.
func (f *FakeRemote) Handle(route string, h gin.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[route] = h
}

// Configure runs fn with the fake's lock held.
func (f *FakeRemote) Configure(fn func(f *FakeRemote)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Requests returns the recorded requests for route, oldest first.
func (f *FakeRemote) Requests(route string) []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []RecordedRequest
	for _, r := range f.requests {
		if r.Route == route {
			out = append(out, r)
		}
	}
	return out
}

// SubmittedVersion is the version token of the last accepted submission.
func (f *FakeRemote) SubmittedVersion() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *FakeRemote) record(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Route:  c.Request.Method + " " + c.FullPath(),
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	f.mu.Unlock()

	c.Next()
}

func (f *FakeRemote) dispatch(route string, fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		f.mu.Lock()
		h, ok := f.overrides[route]
		f.mu.Unlock()
		if ok {
			h(c)
			return
		}
		fallback(c)
	}
}

func (f *FakeRemote) create(c *gin.Context) {
	var body struct {
		Version       string `json:"version"`
		LanguageModel string `json:"languageModel"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request parameters"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.version = body.Version
	f.polls = 0
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"id": f.TaskID}})
}

func (f *FakeRemote) pollEnded(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Param("id") != f.TaskID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Task not found"})
		return
	}
	f.polls++
	if f.polls <= f.PendingPolls {
		c.JSON(http.StatusAccepted, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (f *FakeRemote) state(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Param("id") != f.TaskID {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Object not found"})
		return
	}
	entry := gin.H{"version": f.version, "status": f.FinalStatus}
	if f.FailureReason != "" {
		entry["error"] = f.FailureReason
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"tasks": []gin.H{entry}}})
}

func (f *FakeRemote) content(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Param("id") != f.TaskID || c.Param("version") != f.version {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Content not found"})
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Content)
}

func (f *FakeRemote) code(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.Param("id") != f.TaskID || c.Param("version") != f.version {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Code not found"})
		return
	}
	c.String(http.StatusOK, f.Code)
}

func (f *FakeRemote) publish(c *gin.Context) {
	var body struct {
		Props map[string]string `json:"props"`
		URL   string            `json:"url"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request parameters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
