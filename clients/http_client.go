package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"regexp"
	"time"

	Logger "github.com/Luismorlan/mediamux/utils/log"
	"github.com/pkg/errors"
)

const (
	defaultTimeout = 60 * time.Second
	// Error bodies are only kept for logging, never the whole payload.
	maxErrorBodyBytes = 4096
)

var botTokenPattern = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// HTTPError is returned for any upstream response outside of 2XX.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("non-200 http code: %d, body: %s", e.StatusCode, e.Body)
}

// StatusCodeOf returns the upstream status code carried by err, 0 if err
// doesn't come from a non-2XX response.
func StatusCodeOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

type HttpClient struct {
	header http.Header
	client *http.Client
}

func NewDefaultHttpClient() *HttpClient {
	return &HttpClient{header: http.Header{}, client: &http.Client{Timeout: defaultTimeout}}
}

// NewHttpClient wraps client, header is added to every request. Pass an
// oauth2 client to get authenticated requests.
func NewHttpClient(header http.Header, client *http.Client) *HttpClient {
	if header == nil {
		header = http.Header{}
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HttpClient{header: header, client: client}
}

// Do sends the request and returns the response for 2XX only. Callers must
// close the body. Any other status is turned into an *HTTPError.
func (c *HttpClient) Do(ctx context.Context, method, uri string, body io.Reader, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, uri, body)
	if err != nil {
		return nil, errors.Wrap(err, "fail to build request")
	}
	for k, v := range c.header {
		req.Header[k] = v
	}
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if IsNon200HttpResponse(res) {
		return nil, readHttpError(res)
	}
	return res, nil
}

func (c *HttpClient) Get(ctx context.Context, uri string) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, uri, nil, nil)
}

// GetJSON issues a GET and decodes the json response into out.
func (c *HttpClient) GetJSON(ctx context.Context, uri string, out interface{}) error {
	res, err := c.Get(ctx, uri)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return decodeJSON(res.Body, out)
}

// SendJSON sends in as a json body and decodes the json response into out,
// out can be nil when the response is ignored.
func (c *HttpClient) SendJSON(ctx context.Context, method, uri string, in interface{}, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "fail to encode request body")
	}
	res, err := c.Do(ctx, method, uri, bytes.NewReader(payload), http.Header{"Content-Type": {"application/json"}})
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if out == nil {
		io.Copy(ioutil.Discard, res.Body)
		return nil
	}
	return decodeJSON(res.Body, out)
}

func decodeJSON(r io.Reader, out interface{}) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return errors.Wrap(err, "fail to decode response body")
	}
	return nil
}

func readHttpError(res *http.Response) error {
	defer res.Body.Close()
	body, _ := ioutil.ReadAll(io.LimitReader(res.Body, maxErrorBodyBytes))
	err := &HTTPError{StatusCode: res.StatusCode, Body: string(body)}
	Logger.Log.Errorf("non-200 http code: %d, %s %s", res.StatusCode, res.Request.Method, redactUrl(res.Request.URL.Path))
	return err
}

func IsNon200HttpResponse(res *http.Response) bool {
	return res.StatusCode < 200 || res.StatusCode >= 300
}

// redactUrl hides telegram bot tokens, which are part of every api path.
func redactUrl(path string) string {
	return botTokenPattern.ReplaceAllString(path, "bot<redacted>")
}
