package objectdesigner

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"object-designer-client/internal/core/domain"
)

// envelope is the service's common response shape:
// {"success": bool, "error": string, "data": any}.
type envelope struct {
	Success bool
	Error   string
	Data    gjson.Result
}

// doJSON sends payload (when non-nil) as a JSON body and decodes the response
// envelope. Error statuses are not failures here: their JSON bodies are the
// server's structured error channel and are handed back with the status code.
func (c *client) doJSON(ctx context.Context, method, path string, payload any, query map[string]string) (int, *envelope, error) {
	req := c.http.R().SetContext(ctx)
	if payload != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(payload)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return 0, nil, transportError(method, path, err)
	}

	env, err := decodeEnvelope(resp.StatusCode(), resp.Body())
	if err != nil {
		return resp.StatusCode(), nil, err
	}
	return resp.StatusCode(), env, nil
}

// decodeEnvelope parses body as a UTF-8 JSON object. Anything else becomes a
// ProtocolError carrying a bounded preview of the raw bytes.
func decodeEnvelope(status int, body []byte) (*envelope, error) {
	if !utf8.Valid(body) || !gjson.ValidBytes(body) {
		return nil, domain.NewProtocolError(status, body)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, domain.NewProtocolError(status, body)
	}

	env := &envelope{
		Success: root.Get("success").Bool(),
		Data:    root.Get("data"),
	}
	if e := root.Get("error"); e.Exists() && e.Type != gjson.Null {
		env.Error = e.String()
	}
	return env, nil
}

// doBinary fetches raw bytes and the declared content type. On an error
// status the server's JSON error message is preferred, then the raw text.
func (c *client) doBinary(ctx context.Context, method, path string) ([]byte, string, error) {
	resp, err := c.http.R().SetContext(ctx).Execute(method, path)
	if err != nil {
		return nil, "", transportError(method, path, err)
	}

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, "", &domain.Error{
			Kind:    domain.ErrFetch,
			Op:      method + " " + path,
			Status:  resp.StatusCode(),
			Message: binaryErrorMessage(resp.StatusCode(), resp.Body()),
		}
	}
	return resp.Body(), resp.Header().Get("Content-Type"), nil
}

func binaryErrorMessage(status int, body []byte) string {
	if utf8.Valid(body) && gjson.ValidBytes(body) {
		if msg := gjson.GetBytes(body, "error").String(); msg != "" {
			return msg
		}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Sprintf("request failed with status %d", status)
	}
	return boundedText(body)
}

// boundedText renders at most PreviewLimit bytes of body as text, replacing
// invalid UTF-8 sequences.
func boundedText(body []byte) string {
	if len(body) > domain.PreviewLimit {
		body = body[:domain.PreviewLimit]
	}
	return strings.ToValidUTF8(string(body), "�")
}

func transportError(method, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", domain.ErrTransport, method, path, err)
}

// requestID returns the X-Request-ID stamped on an outgoing request.
func requestID(r *resty.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get(headerRequestID)
}
