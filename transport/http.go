package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
	"upstack/config"
	"upstack/file_io"
	L "upstack/logger"

	"golang.org/x/time/rate"
)

type HttpTransport struct {
	client            *http.Client
	uploadUrl         string
	authToken         string
	defaultRetryAfter time.Duration
	limiter           *rate.Limiter
}

func NewHttpTransport(cfg *config.Config) (*HttpTransport, error) {
	if cfg.Server == nil {
		return nil, fmt.Errorf("transport: could not find server configuration")
	}
	base, err := url.Parse(cfg.Server.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url %s: %w", cfg.Server.BaseUrl, err)
	}
	uploadUrl := base.JoinPath(cfg.Server.UploadPath).String()

	var limiter *rate.Limiter
	if cfg.BandwidthLimitBytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BandwidthLimitBytesPerSec), int(cfg.BandwidthLimitBytesPerSec))
	}

	return &HttpTransport{
		client:            &http.Client{},
		uploadUrl:         uploadUrl,
		authToken:         cfg.Server.AuthToken,
		defaultRetryAfter: time.Duration(cfg.DefaultRetryAfterSeconds) * time.Second,
		limiter:           limiter,
	}, nil
}

type uploadResponse struct {
	File struct {
		Url string `json:"url"`
		Key string `json:"key"`
	} `json:"file"`
}

type errorResponse struct {
	Message           string `json:"message"`
	RetryAfterSeconds int    `json:"retryAfterSeconds"`
}

// caps reads to the configured bytes/sec rate.
type throttledReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (tr *throttledReader) Read(p []byte) (int, error) {
	burst := tr.limiter.Burst()
	if len(p) > burst {
		p = p[:burst]
	}
	n, err := tr.r.Read(p)
	if n > 0 {
		waitErr := tr.limiter.WaitN(tr.ctx, n)
		if waitErr != nil {
			return n, waitErr
		}
	}
	return n, err
}

func (h *HttpTransport) Upload(
	ctx context.Context,
	src *file_io.Source,
	meta Metadata,
	onProgress ProgressFunc,
) (*Result, error) {
	body, contentType, err := buildMultipartBody(src, meta)
	if err != nil {
		return nil, fmt.Errorf("transport: could not build request body for %s: %w", src.Name, err)
	}

	pr := &file_io.ProgressReader{
		R:     bytes.NewReader(body),
		Total: int64(len(body)),
		OnProgress: func(sent int64, total int64) {
			if onProgress == nil || total <= 0 {
				return
			}
			percent := int(sent * 100 / total)
			if percent > 100 {
				percent = 100
			}
			onProgress(percent)
		},
	}

	var reqBody io.Reader = pr
	if h.limiter != nil {
		reqBody = &throttledReader{r: pr, limiter: h.limiter, ctx: ctx}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", h.uploadUrl, reqBody)
	if err != nil {
		return nil, fmt.Errorf("transport: could not create upload request for %s: %w", src.Name, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "no-cache")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}
	// NOTE: If the Content-Length header is missing or invalid,
	// request.ContentLength will be set to -1 and the transfer falls back to
	// chunked encoding, so we set the length explicitly.
	req.ContentLength = int64(len(body))

	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer resp.Body.Close()

	L.Debug(L.HttpResponseString(resp))

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: could not read response body for %s: %w", src.Name, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var uploadRes uploadResponse
		err = json.Unmarshal(bodyBytes, &uploadRes)
		if err != nil {
			return nil, fmt.Errorf("transport: could not parse upload response for %s: %w", src.Name, err)
		}
		if uploadRes.File.Url == "" || uploadRes.File.Key == "" {
			return nil, fmt.Errorf("transport: upload response for %s is missing file url or key", src.Name)
		}
		if onProgress != nil {
			onProgress(100)
		}
		return &Result{Url: uploadRes.File.Url, Key: uploadRes.File.Key}, nil
	}

	return nil, h.mapError(resp, bodyBytes)
}

func (h *HttpTransport) mapError(resp *http.Response, body []byte) error {
	var errRes errorResponse
	// best effort; error bodies are not guaranteed to be json
	_ = json.Unmarshal(body, &errRes)

	if resp.StatusCode == http.StatusTooManyRequests {
		return &TransportError{
			Category:   STATUS_RATE_LIMITED,
			StatusCode: resp.StatusCode,
			Message:    errRes.Message,
			RetryAfter: h.retryAfter(resp, &errRes),
		}
	}

	message := errRes.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	category := STATUS_CLIENT_ERROR
	if resp.StatusCode >= 500 {
		category = STATUS_SERVER_ERROR
	}
	return &TransportError{
		Category:   category,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// retry delay precedence: Retry-After header, then the retryAfterSeconds
// body field, then the configured default.
func (h *HttpTransport) retryAfter(resp *http.Response, errRes *errorResponse) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header != "" {
		seconds, err := strconv.Atoi(header)
		if err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	if errRes.RetryAfterSeconds > 0 {
		return time.Duration(errRes.RetryAfterSeconds) * time.Second
	}
	return h.defaultRetryAfter
}

func buildMultipartBody(src *file_io.Source, meta Metadata) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"entityType": meta.EntityType.String(),
		"entityId":   meta.EntityId,
	}
	if meta.Category != "" {
		fields["category"] = meta.Category.String()
	}
	if meta.FileType != "" {
		fields["fileType"] = meta.FileType
	}
	for name, value := range fields {
		err := w.WriteField(name, value)
		if err != nil {
			return nil, "", err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, src.Name))
	header.Set("Content-Type", src.MimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	_, err = part.Write(src.Data)
	if err != nil {
		return nil, "", err
	}
	err = w.Close()
	if err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
