package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const (
	DefaultURL       = "https://docs.google.com/spreadsheets/d/e/2PACX-1vTfe6NepmnK7atMVxePEBaptPY65Bfqn-8-hrJndACX_SXxqYUrGTcA_-fdr02KJJ41fTGGbeugqAK0/pub?gid=133005200&single=true&output=csv"
	defaultUserAgent = "movies-hub-catalog/1.0"
	maxBodyBytes     = 16 << 20
)

var (
	ErrEmptyFeedURL     = errors.New("feed url is empty")
	ErrUnexpectedStatus = errors.New("unexpected feed status")
	ErrFeedTooLarge     = errors.New("feed body too large")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type Config struct {
	URL       string
	UserAgent string
	Client    *http.Client
}

// Client downloads the published spreadsheet export as text.
type Client struct {
	client    *http.Client
	url       string
	userAgent string
}

func NewClient(cfg Config) *Client {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		client:    client,
		url:       strings.TrimSpace(cfg.URL),
		userAgent: userAgent,
	}
}

// Fetch issues a single GET. Any non-2xx response is reported as ErrUnexpectedStatus.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	if c.url == "" {
		return "", ErrEmptyFeedURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return "", fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv,text/plain;q=0.9,*/*;q=0.5")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch movie data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("failed to fetch movie data: %w: HTTP %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read movie data: %w", err)
	}
	if len(payload) > maxBodyBytes {
		return "", fmt.Errorf("failed to fetch movie data: %w: more than %d bytes", ErrFeedTooLarge, maxBodyBytes)
	}
	return decodeBody(payload, resp.Header.Get("Content-Type")), nil
}

// decodeBody strips a UTF-8 BOM and returns UTF-8 text. Only an explicitly declared Latin
// charset goes through charmap; everything else is read as UTF-8 with invalid bytes replaced
// by U+FFFD.
func decodeBody(payload []byte, contentType string) string {
	payload = bytes.TrimPrefix(payload, utf8BOM)

	switch declaredCharset(contentType) {
	case "windows-1252", "cp1252":
		return decodeWith(charmap.Windows1252, payload)
	case "iso-8859-1", "latin1":
		return decodeWith(charmap.ISO8859_1, payload)
	}
	return strings.ToValidUTF8(string(payload), string(utf8.RuneError))
}

func declaredCharset(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(params["charset"]))
}

func decodeWith(cm *charmap.Charmap, payload []byte) string {
	decoded, err := cm.NewDecoder().Bytes(payload)
	if err != nil {
		return string(payload)
	}
	return string(decoded)
}
