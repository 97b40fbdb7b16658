package backendapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

const DefaultTimeout = 30 * time.Second

// Client talks to the detection backend's HTTP API. It owns no state beyond
// the connection pool; every call takes a context.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// SubmitError carries the backend's own error message for a rejected
// submission so the UI can surface it verbatim.
type SubmitError struct {
	StatusCode int
	Detail     string
}

func (e *SubmitError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("submission rejected with status %d", e.StatusCode)
}

func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/reports", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching report list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("report list request returned %d", resp.StatusCode)
	}

	var reports []models.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		return nil, fmt.Errorf("decoding report list: %w", err)
	}
	return reports, nil
}

func (c *Client) ListDetections(ctx context.Context) ([]models.Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/api/detections", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching detection list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detection list request returned %d", resp.StatusCode)
	}

	var detections []models.Detection
	if err := json.NewDecoder(resp.Body).Decode(&detections); err != nil {
		return nil, fmt.Errorf("decoding detection list: %w", err)
	}
	return detections, nil
}

// Submission is one validated report upload bound for the backend.
type Submission struct {
	Filename    string
	File        io.Reader
	Description string
	Latitude    float64
	Longitude   float64
}

// Submit forwards a report as multipart form data. The returned error is a
// *SubmitError when the backend rejected the submission with its own message.
func (c *Client) Submit(ctx context.Context, sub Submission) (*models.SubmitResponse, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", sub.Filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, sub.File); err != nil {
			pw.CloseWithError(err)
			return
		}
		fields := map[string]string{
			"description": sub.Description,
			"latitude":    strconv.FormatFloat(sub.Latitude, 'f', -1, 64),
			"longitude":   strconv.FormatFloat(sub.Longitude, 'f', -1, 64),
		}
		for name, value := range fields {
			if err := mw.WriteField(name, value); err != nil {
				pw.CloseWithError(err)
				return
			}
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/reports", pr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		subErr := &SubmitError{StatusCode: resp.StatusCode}
		var body struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			subErr.Detail = body.Detail
		}
		return nil, subErr
	}

	var out models.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding submit response: %w", err)
	}
	logger.Info("report submitted", "reportId", out.ReportID)
	return &out, nil
}

// FetchUpload streams an uploaded artifact from the backend's file store.
// Callers own closing the returned body.
func (c *Client) FetchUpload(ctx context.Context, filename string) (*http.Response, error) {
	u := c.BaseURL + "/uploads/" + url.PathEscape(filename)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching upload %s: %w", filename, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("upload %s returned %d", filename, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) Health(ctx context.Context) (rsp models.ServiceHealthResp) {
	rsp.Service = models.BACKEND_API
	rsp.Status = models.STATUS_UP
	rsp.HealthIssue = models.HEALTH_ISSUE_NONE

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return rsp.BuildErrorResponse(err)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return rsp.BuildErrorResponse(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rsp.BuildErrorResponse(fmt.Errorf("backend health returned %d", resp.StatusCode))
	}
	return rsp
}
