package avatar

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// Rejection messages shown to end users.
const (
	msgInvalidFormat  = "Invalid avatar URL format"
	msgInvalidScheme  = "Avatar URL must use HTTPS protocol"
	msgDirectIP       = "Avatar URL cannot be a direct IP address. Please use a trusted image hosting service."
	msgPrivateAddress = "Avatar URL cannot point to localhost or private network addresses"
	msgHostNotTrusted = "Avatar URL must be from a trusted image hosting service. Allowed hosts: "
	msgNotAccessible  = "Avatar URL is not accessible (HTTP %d)"
	msgNotAnImage     = "Avatar URL must point to an image file. Received content-type: %s"
	msgTooLarge       = "Avatar image is too large. Maximum size: %s"
	msgTimedOut       = "Avatar URL validation timed out. The image may be too large or the server is unresponsive."
	msgFailed         = "Failed to validate avatar URL: %v"
)

var (
	// ErrResolvedPrivate is returned by the dial guard when a trusted name
	// resolves into a private range.
	ErrResolvedPrivate = errors.New("avatar: resolved address is private")

	// ErrRedirectInsecure is returned when the probe is redirected off https.
	ErrRedirectInsecure = errors.New("avatar: redirect to non-https URL")

	// ErrRedirectPrivate is returned when the probe is redirected to a
	// private or loopback host.
	ErrRedirectPrivate = errors.New("avatar: redirect to private address")

	// ErrRedirectLiteral is returned when the reachability check is redirected to a
	// public IP literal.
	ErrRedirectLiteral = errors.New("avatar: redirect to IP literal")

	// ErrTooManyRedirects is returned when the redirect cap is exceeded.
	ErrTooManyRedirects = errors.New("avatar: too many redirects")
)

// Validator runs the avatar admission pipeline. It is safe for concurrent
// use; all of its state is fixed at construction.
type Validator struct {
	cfg    Config
	hosts  *Allowlist
	client *http.Client
}

// Option customises a Validator.
type Option func(*Validator)

// WithTransport replaces the probe transport. The redirect policy still
// applies; the resolved-address guard only exists in the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(v *Validator) {
		v.client.Transport = rt
	}
}

// New builds a Validator from cfg.
//
// Example:
//
//	v, err := avatar.New(avatar.DefaultConfig())
//	if verdict := v.Validate(ctx, rawURL); !verdict.Accepted {
//	    return verdict.Err()
//	}
func New(cfg Config, opts ...Option) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("avatar: %w", err)
	}

	v := &Validator{hosts: NewAllowlist(cfg.AllowedHosts)}
	cfg.AllowedHosts = v.hosts.Hosts()
	v.cfg = cfg
	v.client = &http.Client{
		Transport:     newTransport(cfg),
		CheckRedirect: v.checkRedirect,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// AllowedHosts returns the trusted hosts in configuration order.
func (v *Validator) AllowedHosts() []string {
	return v.hosts.Hosts()
}

// Validate runs every gate against raw and returns the first rejection, or
// an accepted Verdict. Only the live probe blocks; it is bounded by the
// configured timeout and by ctx.
func (v *Validator) Validate(ctx context.Context, raw string) Verdict {
	u, verdict := v.checkStatic(raw)
	if u == nil {
		return verdict
	}
	return v.probe(ctx, u)
}

// CheckStatic runs the syntax, scheme, address and allowlist gates without
// touching the network.
func (v *Validator) CheckStatic(raw string) Verdict {
	_, verdict := v.checkStatic(raw)
	return verdict
}

func (v *Validator) checkStatic(raw string) (*url.URL, Verdict) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" {
		return nil, reject(ReasonInvalidFormat, msgInvalidFormat)
	}

	if u.Scheme != "https" {
		return nil, reject(ReasonInvalidScheme, msgInvalidScheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, reject(ReasonInvalidFormat, msgInvalidFormat)
	}

	switch kind, _ := classifyHost(host); kind {
	case hostInvalid:
		return nil, reject(ReasonInvalidFormat, msgInvalidFormat)
	case hostLiteral:
		return nil, reject(ReasonDirectIPNotAllowed, msgDirectIP)
	}

	if LooksPrivateHost(host) {
		return nil, reject(ReasonPrivateAddressNotAllowed, msgPrivateAddress)
	}

	if !v.hosts.Matches(host) {
		return nil, reject(ReasonHostNotTrusted, msgHostNotTrusted+v.hosts.String())
	}

	return u, accept()
}

func (v *Validator) probe(ctx context.Context, u *url.URL) Verdict {
	ctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return rejectWithCause(ReasonValidationFailed, fmt.Sprintf(msgFailed, err), err)
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := v.client.Do(req)
	if err != nil {
		return classifyProbeError(ctx, err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return reject(ReasonResourceNotAccessible, fmt.Sprintf(msgNotAccessible, resp.StatusCode))
	}

	contentType := strings.TrimSpace(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		if contentType == "" {
			contentType = "unknown"
		}
		return reject(ReasonNotAnImage, fmt.Sprintf(msgNotAnImage, contentType))
	}

	if declaredLength(resp) > v.cfg.MaxImageBytes {
		return reject(ReasonImageTooLarge, fmt.Sprintf(msgTooLarge, formatBytes(v.cfg.MaxImageBytes)))
	}

	return accept()
}

func (v *Validator) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) > v.cfg.MaxRedirects {
		return fmt.Errorf("%w: %d", ErrTooManyRedirects, len(via))
	}
	if req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrRedirectInsecure, req.URL.Scheme)
	}
	host := strings.ToLower(req.URL.Hostname())
	kind, _ := classifyHost(host)
	if host == "" || kind == hostInvalid || LooksPrivateHost(host) {
		return fmt.Errorf("%w: %q", ErrRedirectPrivate, host)
	}
	if kind == hostLiteral {
		return fmt.Errorf("%w: %q", ErrRedirectLiteral, host)
	}
	return nil
}

func classifyProbeError(ctx context.Context, err error) Verdict {
	switch {
	case errors.Is(err, ErrResolvedPrivate), errors.Is(err, ErrRedirectPrivate):
		return rejectWithCause(ReasonPrivateAddressNotAllowed, msgPrivateAddress, err)
	case errors.Is(err, ErrRedirectLiteral):
		return rejectWithCause(ReasonDirectIPNotAllowed, msgDirectIP, err)
	case errors.Is(err, ErrRedirectInsecure):
		return rejectWithCause(ReasonInvalidScheme, msgInvalidScheme, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled), ctx.Err() != nil:
		return rejectWithCause(ReasonValidationTimedOut, msgTimedOut, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return rejectWithCause(ReasonValidationTimedOut, msgTimedOut, err)
	}
	return rejectWithCause(ReasonValidationFailed, fmt.Sprintf(msgFailed, unwrapURLError(err)), err)
}

// declaredLength returns the content-length advertised by the response, or
// -1 when none was sent.
func declaredLength(resp *http.Response) int64 {
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	if raw := resp.Header.Get("Content-Length"); raw != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
			return n
		}
	}
	return -1
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4<<10))
	_ = body.Close()
}

func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err
	}
	return err
}

func formatBytes(n int64) string {
	switch {
	case n%(1<<20) == 0:
		return strconv.FormatInt(n>>20, 10) + "MB"
	case n%(1<<10) == 0:
		return strconv.FormatInt(n>>10, 10) + "KB"
	default:
		return strconv.FormatInt(n, 10) + " bytes"
	}
}

func newTransport(cfg Config) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}
	if cfg.GuardResolvedAddrs {
		dialer.Control = GuardResolvedAddr
	}
	// No Proxy: the dial guard must see the real destination.
	return &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.Timeout,
		ResponseHeaderTimeout: cfg.Timeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// GuardResolvedAddr is a net.Dialer Control hook. It runs after DNS
// resolution and before connect, so it sees the address the socket is about
// to reach.
func GuardResolvedAddr(_, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: unparseable address %q", ErrResolvedPrivate, address)
	}
	addr := ap.Addr()
	if IsBlockedAddr(addr) {
		return fmt.Errorf("%w: %s", ErrResolvedPrivate, addr)
	}
	return nil
}
