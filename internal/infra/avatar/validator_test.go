package avatar

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── ヘルパ ───────── */

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// probeTransport returns a transport that sends every request to a TLS test
// server, whatever host the URL names.
func probeTransport(t *testing.T, h http.HandlerFunc) *http.Transport {
	t.Helper()
	srv := httptest.NewTLSServer(h)
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().String()
	tr := srv.Client().Transport.(*http.Transport).Clone()
	tr.DialContext = func(ctx context.Context, network, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
	tr.TLSClientConfig.InsecureSkipVerify = true // #nosec G402 -- test server
	return tr
}

func imageHandler(contentType string, size int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		if size >= 0 {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}
		w.WriteHeader(http.StatusOK)
	}
}

func newTestValidator(t *testing.T, opts ...Option) *Validator {
	t.Helper()
	v, err := New(DefaultConfig(), opts...)
	require.NoError(t, err)
	return v
}

/* ───────── 静的ゲート ───────── */

func TestValidate_MalformedInputIsInvalidFormat(t *testing.T) {
	v := newTestValidator(t)

	inputs := []string{
		"not a url",
		"",
		"   ",
		"://missing-scheme",
		"http//i.imgur.com",
		"https://",
		"https:///x.png",
		"https://exa mple.com/x.png",
		"https://%zz/x.png",
		"https://1.2.3.4.5/x.png",
		"https://256.1.1.1/x.png",
		"https://[::1/x.png",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			verdict := v.Validate(context.Background(), in)
			assert.False(t, verdict.Accepted)
			assert.Equal(t, ReasonInvalidFormat, verdict.Reason)
			assert.Equal(t, "Invalid avatar URL format", verdict.Message)
		})
	}
}

func TestValidate_NonHTTPSIsInvalidScheme(t *testing.T) {
	v := newTestValidator(t)

	inputs := []string{
		"http://i.imgur.com/x.png",
		"http://127.0.0.1/x.png",
		"http://localhost/x.png",
		"ftp://i.imgur.com/x.png",
		"javascript:alert(1)",
		"data:image/png;base64,AAAA",
		"file:///etc/passwd",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			verdict := v.Validate(context.Background(), in)
			assert.Equal(t, ReasonInvalidScheme, verdict.Reason)
			assert.Equal(t, "Avatar URL must use HTTPS protocol", verdict.Message)
		})
	}
}

func TestValidate_LiteralIPIsRejectedBeforePrivateCheck(t *testing.T) {
	v := newTestValidator(t)

	inputs := []string{
		"https://127.0.0.1/x",
		"https://8.8.8.8/x",
		"https://192.168.1.5/x.png",
		"https://[::1]/x",
		"https://[2001:4860:4860::8888]/x",
		"https://[::ffff:127.0.0.1]/x",
		"https://2130706433/x",
		"https://0x7f.1/x",
		"https://169.254.169.254:443/latest/meta-data",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			verdict := v.Validate(context.Background(), in)
			assert.Equal(t, ReasonDirectIPNotAllowed, verdict.Reason)
			assert.Contains(t, verdict.Message, "cannot be a direct IP address")
		})
	}
}

func TestValidate_PrivateLookingNames(t *testing.T) {
	v := newTestValidator(t)

	inputs := []string{
		"https://localhost/x.png",
		"https://LocalHost:8443/x.png",
		"https://api.localhost/x.png",
		"https://127.0.0.1.nip.io/x.png",
		"https://10.internal.example.com/x.png",
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			verdict := v.Validate(context.Background(), in)
			assert.Equal(t, ReasonPrivateAddressNotAllowed, verdict.Reason)
			assert.Equal(t, "Avatar URL cannot point to localhost or private network addresses", verdict.Message)
		})
	}
}

func TestValidate_UntrustedHostListsAllowedHosts(t *testing.T) {
	v := newTestValidator(t)

	inputs := []string{
		"https://random-cdn.example.com/x.png",
		"https://evil-imgur.com.attacker.io/x.png",
		"https://i.imgur.com.evil.com/x.png",
		"https://i.imgur.com@evil.com/x.png",
	}

	want := "Avatar URL must be from a trusted image hosting service. Allowed hosts: " +
		strings.Join(DefaultAllowedHosts, ", ")

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			verdict := v.Validate(context.Background(), in)
			assert.Equal(t, ReasonHostNotTrusted, verdict.Reason)
			assert.Equal(t, want, verdict.Message)
		})
	}
}

func TestCheckStatic_TrustedHostsPassWithoutNetwork(t *testing.T) {
	calls := 0
	v := newTestValidator(t, WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("unexpected network call")
	})))

	for _, in := range []string{
		"https://i.imgur.com/x.png",
		"https://sub.i.imgur.com/x.png",
		"HTTPS://Avatars.GithubUserContent.com/u/1?v=4",
	} {
		verdict := v.CheckStatic(in)
		assert.True(t, verdict.Accepted, in)
	}
	assert.Zero(t, calls)
}

/* ───────── ライブプローブ ───────── */

func TestValidate_AcceptsImageWithinLimit(t *testing.T) {
	var (
		mu        sync.Mutex
		gotMethod string
		gotUA     string
	)
	tr := probeTransport(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethod, gotUA = r.Method, r.UserAgent()
		mu.Unlock()
		imageHandler("image/png", 2*1024*1024)(w, r)
	})
	v := newTestValidator(t, WithTransport(tr))

	verdict := v.Validate(context.Background(), "https://i.imgur.com/valid.png")

	require.True(t, verdict.Accepted, verdict.Message)
	assert.NoError(t, verdict.Err())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "OpenSox-Avatar-Validator/1.0", gotUA)
}

func TestValidate_RejectsOversizedImage(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/png", 6*1024*1024))
	v := newTestValidator(t, WithTransport(tr))

	verdict := v.Validate(context.Background(), "https://i.imgur.com/huge.png")

	assert.Equal(t, ReasonImageTooLarge, verdict.Reason)
	assert.Equal(t, "Avatar image is too large. Maximum size: 5MB", verdict.Message)
}

func TestValidate_ExactlyMaxSizeIsAccepted(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/jpeg", DefaultMaxImageBytes))
	v := newTestValidator(t, WithTransport(tr))

	verdict := v.Validate(context.Background(), "https://i.imgur.com/edge.jpg")
	assert.True(t, verdict.Accepted, verdict.Message)
}

func TestValidate_MissingContentLengthIsAccepted(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/webp", -1))
	v := newTestValidator(t, WithTransport(tr))

	verdict := v.Validate(context.Background(), "https://cdn.discordapp.com/avatars/1/a.webp")
	assert.True(t, verdict.Accepted, verdict.Message)
}

func TestValidate_ContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		wantReason  Reason
		wantMessage string
	}{
		{"html", "text/html; charset=utf-8", ReasonNotAnImage, "Avatar URL must point to an image file. Received content-type: text/html; charset=utf-8"},
		{"missing", "", ReasonNotAnImage, "Avatar URL must point to an image file. Received content-type: unknown"},
		{"svg is an image", "image/svg+xml", "", ""},
		{"upper case", "IMAGE/PNG", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := probeTransport(t, imageHandler(tt.contentType, 1024))
			v := newTestValidator(t, WithTransport(tr))

			verdict := v.Validate(context.Background(), "https://i.imgur.com/x")
			if tt.wantReason == "" {
				assert.True(t, verdict.Accepted, verdict.Message)
				return
			}
			assert.Equal(t, tt.wantReason, verdict.Reason)
			assert.Equal(t, tt.wantMessage, verdict.Message)
		})
	}
}

func TestValidate_NonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(strconv.Itoa(code), func(t *testing.T) {
			tr := probeTransport(t, func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "image/png")
				w.WriteHeader(code)
			})
			v := newTestValidator(t, WithTransport(tr))

			verdict := v.Validate(context.Background(), "https://i.imgur.com/x.png")
			assert.Equal(t, ReasonResourceNotAccessible, verdict.Reason)
			assert.Equal(t, "Avatar URL is not accessible (HTTP "+strconv.Itoa(code)+")", verdict.Message)
		})
	}
}

func TestValidate_Timeout(t *testing.T) {
	tr := probeTransport(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
		imageHandler("image/png", 10)(w, r)
	})
	cfg := DefaultConfig()
	cfg.Timeout = 150 * time.Millisecond
	v, err := New(cfg, WithTransport(tr))
	require.NoError(t, err)

	start := time.Now()
	verdict := v.Validate(context.Background(), "https://i.imgur.com/slow.png")

	assert.Equal(t, ReasonValidationTimedOut, verdict.Reason)
	assert.Equal(t, "Avatar URL validation timed out. The image may be too large or the server is unresponsive.", verdict.Message)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValidate_CancelledContextIsTimedOut(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/png", 10))
	v := newTestValidator(t, WithTransport(tr))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	verdict := v.Validate(ctx, "https://i.imgur.com/x.png")
	assert.Equal(t, ReasonValidationTimedOut, verdict.Reason)
}

func TestValidate_NetworkFailureCarriesCause(t *testing.T) {
	boom := errors.New("connection reset by peer")
	v := newTestValidator(t, WithTransport(roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))

	verdict := v.Validate(context.Background(), "https://i.imgur.com/x.png")

	assert.Equal(t, ReasonValidationFailed, verdict.Reason)
	assert.True(t, verdict.Unexpected())
	assert.Equal(t, "Failed to validate avatar URL: connection reset by peer", verdict.Message)
	assert.ErrorIs(t, verdict.Err(), boom)

	rej, ok := AsRejection(verdict.Err())
	require.True(t, ok)
	assert.Equal(t, ReasonValidationFailed, rej.Reason)
}

func TestValidate_Idempotent(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/gif", 512))
	v := newTestValidator(t, WithTransport(tr))

	first := v.Validate(context.Background(), "https://i.imgur.com/a.gif")
	second := v.Validate(context.Background(), "https://i.imgur.com/a.gif")
	assert.Equal(t, first, second)
}

func TestValidate_ConcurrentUse(t *testing.T) {
	tr := probeTransport(t, imageHandler("image/png", 1024))
	v := newTestValidator(t, WithTransport(tr))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				assert.True(t, v.Validate(context.Background(), "https://i.imgur.com/x.png").Accepted)
			} else {
				assert.Equal(t, ReasonHostNotTrusted, v.Validate(context.Background(), "https://evil.example/x.png").Reason)
			}
		}(i)
	}
	wg.Wait()
}

/* ───────── リダイレクト ───────── */

func TestValidate_Redirects(t *testing.T) {
	tests := []struct {
		name       string
		location   string
		wantReason Reason
	}{
		{"to https image", "https://scontent.example-cdn.com/final.png", ""},
		{"to http", "http://i.imgur.com/final.png", ReasonInvalidScheme},
		{"to loopback literal", "https://127.0.0.1/final.png", ReasonPrivateAddressNotAllowed},
		{"to metadata literal", "https://169.254.169.254/latest", ReasonPrivateAddressNotAllowed},
		{"to localhost", "https://localhost/final.png", ReasonPrivateAddressNotAllowed},
		{"to public literal", "https://8.8.8.8/final.png", ReasonDirectIPNotAllowed},
		{"to public ipv6 literal", "https://[2606:4700::1111]/final.png", ReasonDirectIPNotAllowed},
		{"to decimal literal", "https://134744072/final.png", ReasonDirectIPNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := probeTransport(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/start.png" {
					http.Redirect(w, r, tt.location, http.StatusFound)
					return
				}
				imageHandler("image/png", 100)(w, r)
			})
			v := newTestValidator(t, WithTransport(tr))

			verdict := v.Validate(context.Background(), "https://graph.facebook.com/start.png")
			if tt.wantReason == "" {
				assert.True(t, verdict.Accepted, verdict.Message)
				return
			}
			assert.Equal(t, tt.wantReason, verdict.Reason)
		})
	}
}

func TestValidate_RedirectLoopIsCapped(t *testing.T) {
	hops := 0
	var mu sync.Mutex
	tr := probeTransport(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hops++
		mu.Unlock()
		http.Redirect(w, r, "https://i.imgur.com/loop", http.StatusFound)
	})
	v := newTestValidator(t, WithTransport(tr))

	verdict := v.Validate(context.Background(), "https://i.imgur.com/loop")

	assert.Equal(t, ReasonValidationFailed, verdict.Reason)
	assert.ErrorIs(t, verdict.Err(), ErrTooManyRedirects)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, DefaultMaxRedirects+1, hops)
}

/* ───────── 解決済みアドレスの検査 ───────── */

func TestGuardResolvedAddr(t *testing.T) {
	tests := []struct {
		address string
		wantErr bool
	}{
		{"127.0.0.1:443", true},
		{"10.0.0.8:443", true},
		{"169.254.169.254:80", true},
		{"0.0.0.0:443", true},
		{"[::1]:443", true},
		{"[fd00::1]:443", true},
		{"[::ffff:192.168.0.1]:443", true},
		{"151.101.1.1:443", false},
		{"[2606:4700::1111]:443", false},
		{"not-an-address", true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := GuardResolvedAddr("tcp", tt.address, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrResolvedPrivate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultTransport_RefusesPrivateDestination(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	tr := newTransport(DefaultConfig())
	_, err := tr.DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolvedPrivate)
}

func TestDefaultTransport_GuardCanBeDisabled(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.GuardResolvedAddrs = false
	conn, err := newTransport(cfg).DialContext(context.Background(), "tcp", srv.Listener.Addr().String())
	require.NoError(t, err)
	_ = conn.Close()
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedHosts = nil
	_, err := New(cfg)
	assert.Error(t, err)
}
