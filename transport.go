package llmclient

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/corellm/llmclient/internal/headers"
)

// TransportStatus is the status a Transport operation surfaces regardless
// of outcome: the HTTP status if one was received, an opaque transport
// error code, and whether the failure originated in the TLS layer.
type TransportStatus struct {
	HTTPStatus    int
	TransportCode int
	TLSError      bool
}

// TransportRequest is everything a Transport needs to perform one call.
// Headers are read-only for the duration of the call and not retained
// afterwards.
type TransportRequest struct {
	URL              string
	Body             []byte
	Headers          []headers.Header
	ConnectTimeout   time.Duration
	OverallTimeout   time.Duration
	StreamIdleTimeout time.Duration
	MaxResponseBytes int
	TLS              *TLSConfig
	Proxy            *ProxyConfig
}

// TransportResponse is a completed non-stream call: a newly allocated
// body buffer plus status.
type TransportResponse struct {
	Body   []byte
	Status TransportStatus
}

// Transport is the narrow byte-pump contract the request driver consumes.
// Implementations must invoke onChunk synchronously, serialized, and
// non-reentrantly during PostStream; chunk slices are valid only for the
// duration of the call.
type Transport interface {
	Get(ctx context.Context, req TransportRequest) (TransportResponse, error)
	Post(ctx context.Context, req TransportRequest) (TransportResponse, error)
	PostStream(ctx context.Context, req TransportRequest, onChunk func([]byte) bool) (TransportStatus, error)
}

// ErrCapBreached is returned when a response exceeds MaxResponseBytes.
var ErrCapBreached = errors.New("transport: response exceeds max response bytes")

// httpTransport implements Transport over net/http.
type httpTransport struct{}

// NewHTTPTransport returns the default net/http-backed Transport.
func NewHTTPTransport() Transport { return &httpTransport{} }

func (t *httpTransport) client(req TransportRequest) (*http.Client, error) {
	tlsConfig, err := buildTLSConfig(req.TLS)
	if err != nil {
		return nil, err
	}

	dialer := &net.Dialer{Timeout: req.ConnectTimeout}
	transport := &http.Transport{
		DialContext:     dialer.DialContext,
		TLSClientConfig: tlsConfig,
	}
	if req.Proxy != nil && req.Proxy.ProxyURL != "" {
		proxyURL, err := url.Parse(req.Proxy.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("transport: invalid proxy URL: %w", err)
		}
		noProxy := *req.Proxy
		transport.Proxy = func(r *http.Request) (*url.URL, error) {
			if noProxy.ShouldBypass(r.URL.Hostname()) {
				return nil, nil
			}
			return proxyURL, nil
		}
	}

	return &http.Client{Transport: transport}, nil
}

func buildTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil {
		return nil, nil
	}
	tc := &tls.Config{InsecureSkipVerify: cfg.Insecure}

	pool, err := loadCAPool(cfg.CAPath, cfg.CADir)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		tc.RootCAs = pool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := loadClientKeyPair(cfg.ClientCertPath, cfg.ClientKeyPath, cfg.KeyPasswordFunc)
		if err != nil {
			return nil, err
		}
		tc.Certificates = []tls.Certificate{cert}
	}

	skipPeer := cfg.VerifyPeer == VerifyOff
	skipHost := cfg.VerifyHost == VerifyOff
	if (skipPeer || skipHost) && !cfg.Insecure {
		tc.InsecureSkipVerify = true
		tc.VerifyConnection = verifyConnectionFunc(tc, skipPeer, skipHost)
	}
	return tc, nil
}

// loadCAPool builds a cert pool from an optional CA bundle file and/or a
// directory of PEM files, returning nil if neither is set.
func loadCAPool(caPath, caDir string) (*x509.CertPool, error) {
	if caPath == "" && caDir == "" {
		return nil, nil
	}
	pool := x509.NewCertPool()
	if caPath != "" {
		data, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("transport: reading CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(data) {
			return nil, errors.New("transport: CA file contains no usable certificates")
		}
	}
	if caDir != "" {
		entries, err := os.ReadDir(caDir)
		if err != nil {
			return nil, fmt.Errorf("transport: reading CA directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			data, err := os.ReadFile(filepath.Join(caDir, entry.Name()))
			if err != nil {
				return nil, fmt.Errorf("transport: reading CA directory entry %s: %w", entry.Name(), err)
			}
			pool.AppendCertsFromPEM(data)
		}
	}
	return pool, nil
}

// loadClientKeyPair reads a client cert/key pair, decrypting the key with
// passwordFunc first if it is PEM-encrypted.
func loadClientKeyPair(certPath, keyPath string, passwordFunc func() (string, error)) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport: reading client cert: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport: reading client key: %w", err)
	}

	if block, _ := pem.Decode(keyPEM); block != nil && x509.IsEncryptedPEMBlock(block) { //nolint:staticcheck // legacy OpenSSL PEM encryption is all llm_tls_config_t documents
		if passwordFunc == nil {
			return tls.Certificate{}, errors.New("transport: client key is encrypted but no KeyPasswordFunc was set")
		}
		password, err := passwordFunc()
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("transport: obtaining key password: %w", err)
		}
		der, err := x509.DecryptPEMBlock(block, []byte(password)) //nolint:staticcheck
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("transport: decrypting client key: %w", err)
		}
		keyPEM = pem.EncodeToMemory(&pem.Block{Type: block.Type, Bytes: der})
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("transport: loading client cert/key: %w", err)
	}
	return cert, nil
}

// verifyConnectionFunc builds a tls.Config.VerifyConnection callback that
// independently toggles chain-of-trust verification and hostname
// verification, since InsecureSkipVerify disables both together.
func verifyConnectionFunc(tc *tls.Config, skipPeer, skipHost bool) func(tls.ConnectionState) error {
	return func(cs tls.ConnectionState) error {
		if len(cs.PeerCertificates) == 0 {
			return errors.New("transport: server presented no certificates")
		}
		leaf := cs.PeerCertificates[0]
		if !skipPeer {
			opts := x509.VerifyOptions{Roots: tc.RootCAs, Intermediates: x509.NewCertPool()}
			for _, cert := range cs.PeerCertificates[1:] {
				opts.Intermediates.AddCert(cert)
			}
			if _, err := leaf.Verify(opts); err != nil {
				return fmt.Errorf("transport: peer certificate verification failed: %w", err)
			}
		}
		if !skipHost {
			if err := leaf.VerifyHostname(cs.ServerName); err != nil {
				return fmt.Errorf("transport: hostname verification failed: %w", err)
			}
		}
		return nil
	}
}

func applyHeaders(r *http.Request, hs []headers.Header) {
	for _, h := range hs {
		r.Header.Set(h.Name, h.Value)
	}
}

func classifyErr(err error) TransportStatus {
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return TransportStatus{TransportCode: 1, TLSError: true}
	}
	if _, ok := err.(*net.OpError); ok {
		return TransportStatus{TransportCode: 1}
	}
	return TransportStatus{TransportCode: 1}
}

func (t *httpTransport) do(ctx context.Context, req TransportRequest, method string) (TransportResponse, error) {
	cl, err := t.client(req)
	if err != nil {
		return TransportResponse{}, err
	}
	if req.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.OverallTimeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = newBytesReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, bodyReader)
	if err != nil {
		return TransportResponse{}, err
	}
	applyHeaders(httpReq, req.Headers)

	resp, err := cl.Do(httpReq)
	if err != nil {
		return TransportResponse{Status: classifyErr(err)}, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if req.MaxResponseBytes > 0 {
		reader = io.LimitReader(resp.Body, int64(req.MaxResponseBytes)+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return TransportResponse{Status: TransportStatus{HTTPStatus: resp.StatusCode, TransportCode: 1}}, err
	}
	if req.MaxResponseBytes > 0 && len(body) > req.MaxResponseBytes {
		return TransportResponse{Status: TransportStatus{HTTPStatus: resp.StatusCode}}, ErrCapBreached
	}

	return TransportResponse{
		Body:   body,
		Status: TransportStatus{HTTPStatus: resp.StatusCode},
	}, nil
}

func (t *httpTransport) Get(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	return t.do(ctx, req, http.MethodGet)
}

func (t *httpTransport) Post(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	return t.do(ctx, req, http.MethodPost)
}

// PostStream issues a POST and invokes onChunk synchronously for each
// chunk of the response body, enforcing the stream-idle timeout with a
// watchdog that cancels the request if no bytes arrive in time.
func (t *httpTransport) PostStream(ctx context.Context, req TransportRequest, onChunk func([]byte) bool) (TransportStatus, error) {
	cl, err := t.client(req)
	if err != nil {
		return TransportStatus{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if req.OverallTimeout > 0 {
		var overallCancel context.CancelFunc
		ctx, overallCancel = context.WithTimeout(ctx, req.OverallTimeout)
		defer overallCancel()
	}

	var lastActivity atomic.Int64
	lastActivity.Store(time.Now().UnixNano())
	idleDone := make(chan struct{})
	if req.StreamIdleTimeout > 0 {
		go func() {
			ticker := time.NewTicker(req.StreamIdleTimeout / 4)
			defer ticker.Stop()
			for {
				select {
				case <-idleDone:
					return
				case <-ticker.C:
					last := time.Unix(0, lastActivity.Load())
					if time.Since(last) > req.StreamIdleTimeout {
						cancel()
						return
					}
				}
			}
		}()
		defer close(idleDone)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, newBytesReader(req.Body))
	if err != nil {
		return TransportStatus{}, err
	}
	applyHeaders(httpReq, req.Headers)

	resp, err := cl.Do(httpReq)
	if err != nil {
		return classifyErr(err), err
	}
	defer resp.Body.Close()

	status := TransportStatus{HTTPStatus: resp.StatusCode}

	buf := make([]byte, 32*1024)
	total := 0
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			total += n
			if req.MaxResponseBytes > 0 && total > req.MaxResponseBytes {
				return status, ErrCapBreached
			}
			lastActivity.Store(time.Now().UnixNano())
			if !onChunk(buf[:n]) {
				return status, nil
			}
		}
		if readErr == io.EOF {
			return status, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return status, ctx.Err()
			}
			return status, readErr
		}
	}
}

func newBytesReader(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return &byteReader{b: b}
}

type byteReader struct {
	b []byte
	i int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.i >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.i:])
	r.i += n
	return n, nil
}
