// Package backend is the HTTP adaptor for the event-management REST API.
// It owns the request/response contracts, bearer auth, the per-request
// timeout and the mapping from transport/status failures onto the error
// kinds in pkg/apperror.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eventora/src/internal/core"
	"eventora/src/internal/session"
	"eventora/src/pkg/apperror"
)

const dateLayout = "2006-01-02"

// Client talks to the backend API. It implements core.EventAPI and
// core.RegistrationAPI.
type Client struct {
	baseURL string
	http    *http.Client
	session session.Session
}

func NewClient(baseURL string, timeout time.Duration, sess session.Session) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		session: sess,
	}
}

// errorBody is the backend's error envelope. The first entry of errors is
// preferred over message, matching what the backend actually fills in.
type errorBody struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

func (e errorBody) text() string {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return e.Message
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return statusError(resp.StatusCode, eb.text())
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperror.Wrap(apperror.ErrUnknown, "malformed response from server")
	}
	return nil
}

func transportError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Timeout() {
		return apperror.ErrTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.ErrTimeout
	}
	return apperror.Wrap(apperror.ErrNetwork, err.Error())
}

func statusError(code int, message string) error {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return apperror.Wrap(apperror.ErrAuth, message)
	case code == http.StatusNotFound:
		return apperror.Wrap(apperror.ErrNotFound, message)
	case code == http.StatusConflict:
		return apperror.Wrap(apperror.ErrConflict, message)
	case code >= 500:
		return apperror.Wrap(apperror.ErrUnknown, message)
	default:
		if message == "" {
			message = http.StatusText(code)
		}
		return apperror.Wrap(apperror.ErrUnknown, message)
	}
}

// FilteredEvents runs the paginated multi-predicate query. Result ordering
// is the backend's; the client adds no ordering of its own.
func (c *Client) FilteredEvents(ctx context.Context, page, pageSize int, filters core.FilterOptions) (*core.EventPage, error) {
	query := url.Values{}
	if filters.Search != "" {
		query.Set("search", filters.Search)
	}
	if filters.Location != "" {
		query.Set("location", filters.Location)
	}
	if filters.Category != "" {
		query.Set("category", filters.Category)
	}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if !filters.DateFrom.IsZero() {
		query.Set("dateFrom", filters.DateFrom.Format(dateLayout))
	}
	if !filters.DateTo.IsZero() {
		query.Set("dateTo", filters.DateTo.Format(dateLayout))
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("pageSize", strconv.Itoa(pageSize))

	var result core.EventPage
	if err := c.do(ctx, http.MethodGet, "/events/filtered", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) EventByID(ctx context.Context, id string) (*core.Event, error) {
	var event core.Event
	if err := c.do(ctx, http.MethodGet, "/events/"+id, nil, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

type idResponse struct {
	ID string `json:"id"`
}

func (c *Client) CreateEvent(ctx context.Context, form core.EventFormData) (string, error) {
	payload := map[string]core.EventFormData{"newEventDto": form}
	var result idResponse
	if err := c.do(ctx, http.MethodPost, "/events", nil, payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

// UpdateEvent replaces the stored event wholesale; there is no patch.
func (c *Client) UpdateEvent(ctx context.Context, id string, form core.EventFormData) (string, error) {
	payload := map[string]core.EventFormData{"updateEventDto": form}
	var result idResponse
	if err := c.do(ctx, http.MethodPut, "/events/"+id, nil, payload, &result); err != nil {
		return "", err
	}
	return result.ID, nil
}

func (c *Client) DeleteEvent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/events/"+id, nil, nil, nil)
}

func (c *Client) UploadEventImage(ctx context.Context, id, filename string, file io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events/"+id+"/upload-image", &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, nil)
}

// EventTypes fetches the closed category set. The backend wraps the list in
// a value envelope.
func (c *Client) EventTypes(ctx context.Context) ([]core.EventTypeOption, error) {
	var result struct {
		Value []core.EventTypeOption `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/events/event-types", nil, nil, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}

func (c *Client) EventRegistrations(ctx context.Context, eventID string) ([]core.Registration, error) {
	var regs []core.Registration
	if err := c.do(ctx, http.MethodGet, "/events/"+eventID+"/registrations", nil, nil, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}

// Register submits a registration. A duplicate-registration conflict comes
// back as ErrAlreadyRegistered so callers can re-sync instead of showing a
// generic failure; other conflicts (capacity, closed cutoff) stay generic.
func (c *Client) Register(ctx context.Context, reg core.Registration) (*core.Registration, error) {
	payload := map[string]core.Registration{"newRegistrationDto": reg}
	var created core.Registration
	if err := c.do(ctx, http.MethodPost, "/registrations", nil, payload, &created); err != nil {
		if errors.Is(err, apperror.ErrConflict) &&
			strings.Contains(strings.ToLower(err.Error()), "already registered") {
			return nil, apperror.ErrAlreadyRegistered
		}
		return nil, err
	}
	return &created, nil
}

func (c *Client) CancelRegistration(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/registrations/"+id, nil, nil, nil)
}

func (c *Client) UserRegistrations(ctx context.Context) ([]core.Registration, error) {
	var regs []core.Registration
	if err := c.do(ctx, http.MethodGet, "/user/registrations", nil, nil, &regs); err != nil {
		return nil, err
	}
	return regs, nil
}
