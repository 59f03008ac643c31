package leanote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/takak2166/leanote2md/internal/logger"
	"github.com/takak2166/leanote2md/internal/models"
)

// DefaultHost is the public Leanote service
const DefaultHost = "https://leanote.com"

// ErrAuth is returned when the server rejects the credentials
var ErrAuth = errors.New("leanote: authentication failed")

// APIError is a non-success answer from the Leanote API
type APIError struct {
	Endpoint   string
	StatusCode int
	Msg        string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("leanote %s: status %d: %s", e.Endpoint, e.StatusCode, e.Msg)
	}
	return fmt.Sprintf("leanote %s: status %d", e.Endpoint, e.StatusCode)
}

// Client talks to the Leanote API v1. It holds no credentials; every
// authenticated call takes the Session returned by Login.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for host, e.g. "https://leanote.com"
func New(host string, timeout time.Duration) *Client {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		baseURL:    host + "/api",
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Login authenticates and returns the session to use for later calls
func (c *Client) Login(ctx context.Context, email, password string) (*models.Session, error) {
	logger.Debug("Logging in to Leanote", map[string]interface{}{
		"email": email,
	})

	resp, err := c.get(ctx, "/auth/login", url.Values{"email": {email}, "pwd": {password}})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrAuth, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %v", ErrAuth, apiError("/auth/login", resp.StatusCode, body))
	}

	var data struct {
		models.APIStatus
		models.Session
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrAuth, err)
	}
	if !data.Ok || data.Token == "" {
		return nil, fmt.Errorf("%w: %s", ErrAuth, data.Msg)
	}

	logger.Info("Login success", map[string]interface{}{
		"username": data.Username,
		"email":    data.Email,
	})
	sess := data.Session
	return &sess, nil
}

// ListNotebooks returns every notebook of the account, deleted ones included
func (c *Client) ListNotebooks(ctx context.Context, sess *models.Session) ([]models.Notebook, error) {
	var notebooks []models.Notebook
	if err := c.getJSON(ctx, sess, "/notebook/getNotebooks", nil, &notebooks); err != nil {
		return nil, err
	}
	return notebooks, nil
}

// ListNotes returns the notes of a notebook without their content
func (c *Client) ListNotes(ctx context.Context, sess *models.Session, notebookID string) ([]models.NoteSummary, error) {
	var notes []models.NoteSummary
	if err := c.getJSON(ctx, sess, "/note/getNotes", url.Values{"notebookId": {notebookID}}, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote returns a note and its content
func (c *Client) GetNote(ctx context.Context, sess *models.Session, noteID string) (*models.Note, error) {
	var note models.Note
	if err := c.getJSON(ctx, sess, "/note/getNoteAndContent", url.Values{"noteId": {noteID}}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// GetImage downloads an image hosted by Leanote. The filename is empty
// when the server does not declare one.
func (c *Client) GetImage(ctx context.Context, sess *models.Session, fileID string) ([]byte, string, error) {
	return c.getFile(ctx, sess, "/file/getImage", fileID)
}

// GetAttach downloads an attachment hosted by Leanote
func (c *Client) GetAttach(ctx context.Context, sess *models.Session, fileID string) ([]byte, string, error) {
	return c.getFile(ctx, sess, "/file/getAttach", fileID)
}

// Download fetches an arbitrary URL. A non-2xx answer is not an error;
// it is reported through Download.OK.
func (c *Client) Download(ctx context.Context, rawURL string) (*models.Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return &models.Download{
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		StatusCode: resp.StatusCode,
		Body:       body,
		Header:     resp.Header,
	}, nil
}

func (c *Client) getFile(ctx context.Context, sess *models.Session, endpoint, fileID string) ([]byte, string, error) {
	resp, err := c.get(ctx, endpoint, withToken(sess, url.Values{"fileId": {fileID}}))
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError(endpoint, resp.StatusCode, body)
	}
	return body, DispositionFilename(resp.Header.Get("Content-Disposition")), nil
}

func (c *Client) getJSON(ctx context.Context, sess *models.Session, endpoint string, params url.Values, out interface{}) error {
	resp, err := c.get(ctx, endpoint, withToken(sess, params))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", endpoint, err)
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(endpoint, resp.StatusCode, body)
	}

	// Errors come back as {"Ok":false,"Msg":"..."} with status 200
	var probe struct {
		Ok  *bool
		Msg string
	}
	if json.Unmarshal(body, &probe) == nil && probe.Ok != nil && !*probe.Ok {
		return &APIError{Endpoint: endpoint, StatusCode: resp.StatusCode, Msg: probe.Msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", endpoint, err)
	}
	return resp, nil
}

func withToken(sess *models.Session, params url.Values) url.Values {
	if params == nil {
		params = url.Values{}
	}
	if sess != nil {
		params.Set("token", sess.Token)
	}
	return params
}

func apiError(endpoint string, status int, body []byte) error {
	var s models.APIStatus
	_ = json.Unmarshal(body, &s)
	return &APIError{Endpoint: endpoint, StatusCode: status, Msg: s.Msg}
}

// DispositionFilename extracts the filename from a Content-Disposition
// header, preferring the RFC 5987 filename* form. Empty if there is none.
func DispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Some servers send bare, unquoted names that ParseMediaType rejects
	idx := strings.Index(header, "filename=")
	if idx < 0 {
		return ""
	}
	name := header[idx+len("filename="):]
	if semi := strings.Index(name, ";"); semi >= 0 {
		name = name[:semi]
	}
	return strings.Trim(strings.TrimSpace(name), `"`)
}
