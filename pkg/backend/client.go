// Package backend implements the thin HTTP adapters PIVOT uses to talk to
// its three upstream schedulers: the service orchestrator, the job
// orchestrator, and the cluster master, plus leader discovery against the
// coordination ensemble. Every adapter shares one retrying HTTP client.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/cuemby/pivot/pkg/corerr"
	"github.com/cuemby/pivot/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// wireLog is a separate trace logger for raw backend request/response
// bodies: noisy at debug level, kept apart from the structured
// operational log in pkg/log.
var wireLog = logrus.New()

func init() {
	wireLog.SetLevel(logrus.WarnLevel)
}

// SetWireTrace turns on full request/response body logging, for
// debugging a misbehaving backend.
func SetWireTrace(on bool) {
	if on {
		wireLog.SetLevel(logrus.DebugLevel)
	} else {
		wireLog.SetLevel(logrus.WarnLevel)
	}
}

// Client is a minimal HTTP client with a fixed single retry on transient
// (5xx, connection) errors, a 3 second backoff, matching the backend
// orchestrators' own advice to callers that a request timing out does not
// imply it didn't take effect.
type Client struct {
	BaseURL string
	Name    string // backend label for metrics, e.g. "service", "job", "mesos"
	HTTP    *http.Client
}

func NewClient(name, baseURL string) *Client {
	return &Client{
		Name:    name,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Do issues method+path with an optional JSON body, retrying once after a
// fixed 3s delay on a transient failure, and decodes a JSON response into
// out if non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.BaseURL + path

	var reqBody []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return corerr.Invalid("marshal request body: %v", err)
		}
		reqBody = b
	}

	var resp *http.Response
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(reqBody))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if reqBody != nil {
				req.Header.Set("Content-Type", "application/json")
			}

			wireLog.WithFields(logrus.Fields{
				"backend": c.Name, "method": method, "url": url,
			}).Debug("backend request")

			r, doErr := c.HTTP.Do(req)
			if doErr != nil {
				metrics.BackendRetriesTotal.WithLabelValues(c.Name).Inc()
				return doErr
			}
			if r.StatusCode >= 500 {
				r.Body.Close()
				metrics.BackendRetriesTotal.WithLabelValues(c.Name).Inc()
				return fmt.Errorf("backend %s returned %d", c.Name, r.StatusCode)
			}
			resp = r
			return nil
		},
		retry.Attempts(2),
		retry.Delay(3*time.Second),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		metrics.BackendRequestsTotal.WithLabelValues(c.Name, "error").Inc()
		return corerr.Upstream(502, err, "%s backend request failed", c.Name)
	}
	defer resp.Body.Close()

	metrics.BackendRequestsTotal.WithLabelValues(c.Name, fmt.Sprint(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusNotFound {
		return corerr.NotFound("%s: %s %s", c.Name, method, path)
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(resp.Body)
		return corerr.Upstream(resp.StatusCode, nil, "%s backend error: %s", c.Name, string(data))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
