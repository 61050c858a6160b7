// Package update checks for newer installer releases and replaces the installed installer.
package update

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellvanbijleveld/minecraft-server-service/internal/messages"
)

// DefaultTimeout bounds every remote request.
const DefaultTimeout = 10 * time.Second

const (
	fetchVersionRetryCount = 1
	maxVersionBytes        = 1024
)

// Status is the outcome of a version check.
type Status int

// Version check outcomes.
const (
	StatusCurrent Status = iota
	StatusUpdateAvailable
	StatusCheckFailed
)

func (s Status) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusUpdateAvailable:
		return "update-available"
	default:
		return "check-failed"
	}
}

// Comparison captures the result of comparing the local and remote markers.
// Reason is set only when Status is StatusCheckFailed.
type Comparison struct {
	Status     Status
	Local      string
	Remote     string
	LocalIsDev bool
	Reason     error
}

// Checker fetches the remote version marker.
type Checker struct {
	client     *http.Client
	retryDelay time.Duration
	sleep      func(time.Duration)
}

// NewCheckerWithClient returns a Checker using client.
func NewCheckerWithClient(client *http.Client) *Checker {
	return &Checker{client: client, retryDelay: 250 * time.Millisecond, sleep: time.Sleep}
}

// Check fetches the marker at remoteURL and compares it to localVersion.
// Network and protocol failures are reported as StatusCheckFailed, never as errors.
func (c *Checker) Check(ctx context.Context, remoteURL string, localVersion string) Comparison {
	if ctx == nil {
		ctx = context.Background()
	}
	result := Comparison{Local: strings.TrimSpace(localVersion), LocalIsDev: IsDev(localVersion)}
	if result.LocalIsDev {
		result.Local = DevVersion
	}

	remote, err := c.fetchVersion(ctx, remoteURL, result.Local)
	if err != nil {
		result.Status = StatusCheckFailed
		result.Reason = err
		return result
	}
	result.Remote = remote

	if result.LocalIsDev || CompareVersions(result.Local, remote) >= 0 {
		result.Status = StatusCurrent
		return result
	}
	result.Status = StatusUpdateAvailable
	return result
}

// fetchVersion returns the first non-empty line of the remote marker.
func (c *Checker) fetchVersion(ctx context.Context, remoteURL string, local string) (string, error) {
	for attempt := 0; attempt <= fetchVersionRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
		if err != nil {
			return "", fmt.Errorf(messages.UpdateCreateRequestErrFmt, err)
		}
		req.Header.Set("Accept", "text/plain")
		req.Header.Set("User-Agent", userAgent(local))

		resp, err := c.client.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				c.sleep(c.retryDelay)
				continue
			}
			if isTimeoutError(err) {
				return "", fmt.Errorf(messages.UpdateFetchVersionTimeoutFmt, remoteURL)
			}
			return "", fmt.Errorf(messages.UpdateFetchVersionErrFmt, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			status := resp.StatusCode
			statusText := resp.Status
			_ = resp.Body.Close()
			if shouldRetry(nil, status, attempt) {
				c.sleep(c.retryDelay)
				continue
			}
			return "", fmt.Errorf(messages.UpdateFetchVersionStatusFmt, statusText)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxVersionBytes+1))
		_ = resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf(messages.UpdateReadVersionErrFmt, err)
		}
		if len(body) > maxVersionBytes {
			return "", fmt.Errorf(messages.UpdateVersionTooLargeFmt, maxVersionBytes)
		}
		token := firstLine(body)
		if token == "" {
			return "", errors.New(messages.UpdateVersionEmpty)
		}
		if !ValidToken(token) {
			return "", fmt.Errorf(messages.UpdateVersionInvalidFmt, token)
		}
		return token, nil
	}

	return "", fmt.Errorf(messages.UpdateFetchVersionErrFmt, errors.New("retry budget exhausted"))
}

func firstLine(body []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line
		}
	}
	return ""
}

func userAgent(local string) string {
	return "mcss/" + local
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= fetchVersionRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		if isTimeoutError(err) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}

// isTimeoutError reports whether err is a network timeout.
func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}
