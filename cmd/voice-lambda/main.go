package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/voice-bridge/internal/app/bootstrap"
	appconfig "github.com/wolfman30/voice-bridge/internal/config"
	"github.com/wolfman30/voice-bridge/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := newLogger(os.Stdout, cfg)

	handler, err := bootstrap.BuildHTTPHandler(cfg, logger)
	if err != nil {
		logger.Error("refusing to start", "error", err)
		os.Exit(1)
	}

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, handler, evt)
	})
}

// newLogger honours LOG_LEVEL and LOG_FORMAT the same way cmd/api does.
func newLogger(w io.Writer, cfg appconfig.Config) *logging.Logger {
	return logging.NewWithWriter(w, cfg.LogLevel, cfg.LogFormat)
}

// handle serves an API Gateway v2 event through the regular HTTP handler.
func handle(ctx context.Context, h http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	req, err := toHTTPRequest(ctx, evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}

	rw := newResponseWriter()
	h.ServeHTTP(rw, req)

	out := events.APIGatewayV2HTTPResponse{
		StatusCode: rw.status,
		Body:       rw.body.String(),
		Headers:    map[string]string{},
	}
	for key, values := range rw.header {
		if len(values) > 0 {
			out.Headers[strings.ToLower(key)] = strings.Join(values, ", ")
		}
	}
	return out, nil
}

func toHTTPRequest(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "" {
		path = "/"
	}
	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}

	body, err := decodeBody(evt)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for key, value := range evt.Headers {
		req.Header.Set(key, value)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}

	// Status-callback URLs are built from the public host and scheme.
	host := strings.TrimSpace(evt.RequestContext.DomainName)
	if host == "" {
		host = strings.TrimSpace(headerValue(evt.Headers, "host"))
	}
	req.Host = host
	// API Gateway only accepts HTTPS; TLS ended at the gateway.
	req.TLS = &tls.ConnectionState{}
	if req.Header.Get("X-Forwarded-Proto") == "" {
		req.Header.Set("X-Forwarded-Proto", "https")
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.RemoteAddr = ip
	}
	return req, nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, fmt.Errorf("decode base64 body: %w", err)
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// responseWriter buffers a handler's response for the Lambda result.
type responseWriter struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseWriter() *responseWriter {
	return &responseWriter{header: http.Header{}, status: http.StatusOK}
}

func (w *responseWriter) Header() http.Header {
	return w.header
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
}

func (w *responseWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.body.Write(p)
}
