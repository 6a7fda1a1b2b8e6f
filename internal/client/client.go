package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-booking/internal/api"
	"github.com/hackgods/clinic-booking/internal/appointment"
	"github.com/hackgods/clinic-booking/internal/catalog"
)

// APIError is a non-2xx response from the booking API.
type APIError struct {
	Status  int
	Code    string
	Details string
	Fields  []appointment.ValidationError
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Details)
	}
	return fmt.Sprintf("%d %s", e.Status, e.Code)
}

// IsConflict reports whether err is a 409 from the API.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Clinics(ctx context.Context) ([]catalog.Clinic, error) {
	var out []catalog.Clinic
	err := c.do(ctx, http.MethodGet, "/clinics", nil, &out)
	return out, err
}

func (c *Client) Calendar(ctx context.Context, month string) (*api.CalendarResponse, error) {
	path := "/calendar"
	if month != "" {
		path += "?month=" + url.QueryEscape(month)
	}
	var out api.CalendarResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Slots(ctx context.Context, clinicID, date string) (*api.SlotsResponse, error) {
	path := "/clinics/" + url.PathEscape(clinicID) + "/slots"
	if date != "" {
		path += "?date=" + url.QueryEscape(date)
	}
	var out api.SlotsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Book(ctx context.Context, req api.BookAppointmentRequest) (*api.AppointmentResponse, error) {
	var out api.AppointmentResponse
	if err := c.do(ctx, http.MethodPost, "/appointments", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, id uuid.UUID) (*api.AppointmentResponse, error) {
	var out api.AppointmentResponse
	if err := c.do(ctx, http.MethodGet, "/appointments/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Cancel(ctx context.Context, id uuid.UUID) (*api.AppointmentResponse, error) {
	return c.transition(ctx, id, "cancel")
}

func (c *Client) Complete(ctx context.Context, id uuid.UUID) (*api.AppointmentResponse, error) {
	return c.transition(ctx, id, "complete")
}

func (c *Client) Reschedule(ctx context.Context, id uuid.UUID, newDate, newSlot string) (*api.AppointmentResponse, error) {
	var out api.AppointmentResponse
	body := api.RescheduleRequest{NewDate: newDate, NewSlot: newSlot}
	if err := c.do(ctx, http.MethodPost, "/appointments/"+id.String()+"/reschedule", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List filters by clinic and status; empty values mean all.
func (c *Client) List(ctx context.Context, clinicID, status string) ([]api.AppointmentResponse, error) {
	q := url.Values{}
	if clinicID != "" {
		q.Set("clinic_id", clinicID)
	}
	if status != "" {
		q.Set("status", status)
	}
	path := "/appointments"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out api.AppointmentListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Appointments, nil
}

func (c *Client) transition(ctx context.Context, id uuid.UUID, action string) (*api.AppointmentResponse, error) {
	var out api.AppointmentResponse
	if err := c.do(ctx, http.MethodPost, "/appointments/"+id.String()+"/"+action, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var er api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
			apiErr.Code = er.Error
			apiErr.Details = er.Details
			apiErr.Fields = er.Fields
		} else {
			apiErr.Code = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
