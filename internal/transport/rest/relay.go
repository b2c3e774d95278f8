package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/abgdnv/storefront/pkg/web"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// maxRelayBodyBytes bounds how much of an upstream response is buffered.
const maxRelayBodyBytes = 4 << 20

var (
	errNotJSON      = errors.New("upstream response is not JSON")
	errBodyTooLarge = errors.New("upstream response is too large")
)

// NewRelay forwards requests under prefix to upstream with the prefix removed.
// Method, query and body pass through unchanged; the upstream status and body
// come back as they are. Transport failures and non-JSON bodies become a 500.
func NewRelay(upstream, prefix string, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("invalid relay upstream URL '%s': %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("relay upstream URL must be absolute: '%s'", upstream)
	}
	prefix = strings.TrimSuffix(prefix, "/")
	basePath := strings.TrimSuffix(target.Path, "/")
	logger = logger.With("component", "relay")

	proxy := &httputil.ReverseProxy{}
	// Director will be called before the request is sent to the target.
	proxy.Director = func(req *http.Request) {
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = basePath + strings.TrimPrefix(req.URL.Path, prefix)
		req.URL.RawPath = ""
		req.Host = target.Host
		// The body is inspected below, so ask for it uncompressed.
		req.Header.Del("Accept-Encoding")
		// The session cookie belongs to the storefront, not to the API.
		req.Header.Del("Cookie")
	}
	proxy.Transport = otelhttp.NewTransport(http.DefaultTransport)
	proxy.ModifyResponse = requireJSONBody
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.ErrorContext(r.Context(), "Relay error", "method", r.Method, "path", r.URL.Path, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, "Internal Server Error")
	}
	return proxy, nil
}

// requireJSONBody lets empty bodies through and rejects anything else that does
// not parse as JSON or exceeds maxRelayBodyBytes.
func requireJSONBody(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRelayBodyBytes+1))
	_ = resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read upstream response: %w", err)
	}
	if len(data) > maxRelayBodyBytes {
		return errBodyTooLarge
	}
	if len(bytes.TrimSpace(data)) > 0 && !json.Valid(data) {
		return errNotJSON
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	resp.ContentLength = int64(len(data))
	resp.TransferEncoding = nil
	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified {
		resp.Header.Del("Content-Length")
	} else {
		resp.Header.Set("Content-Length", strconv.Itoa(len(data)))
	}
	return nil
}
