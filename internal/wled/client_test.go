package wled

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/monitoring"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// fakeWLED records every POST body sent to /json/state.
type fakeWLED struct {
	mu     sync.Mutex
	posts  []map[string]any
	status int
}

func (f *fakeWLED) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/json/info", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"ver":"0.14.0","name":"Tree","udpport":21324,"live":false,"leds":{"count":1610,"fps":42,"rgbw":false}}`)
	})
	mux.HandleFunc("/json/state", func(w http.ResponseWriter, r *http.Request) {
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		if r.Method == http.MethodPost {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.mu.Lock()
			f.posts = append(f.posts, body)
			f.mu.Unlock()
			io.WriteString(w, `{"success":true}`)
			return
		}
		io.WriteString(w, `{"on":true,"bri":128,"lor":0,"seg":[{"id":0,"start":0,"stop":1610,"fx":9,"col":[[255,160,0],[0,0,0],[0,0,0]]}]}`)
	})
	return mux
}

func (f *fakeWLED) lastPost() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.posts) == 0 {
		return nil
	}
	return f.posts[len(f.posts)-1]
}

func newTestClient(t *testing.T) (*Client, *fakeWLED) {
	t.Helper()
	fake := &fakeWLED{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return NewClient(host, port, srv.Client()), fake
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient("tree.local", 80, nil)
	hc, ok := c.client.(*http.Client)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, hc.Timeout)
	assert.Equal(t, "tree.local:80", c.base.Host)
}

func TestInfoAndState(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	info, err := c.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0.14.0", info.Version)
	assert.Equal(t, 1610, info.LEDs.Count)

	state, err := c.State(ctx)
	require.NoError(t, err)
	assert.True(t, state.On)
	assert.Equal(t, 128, state.Brightness)
	require.Len(t, state.Segments, 1)
	assert.Equal(t, 9, state.Segments[0].Effect)
	assert.Equal(t, []int{255, 160, 0}, state.Segments[0].Colors[0])
}

func TestStateCommands(t *testing.T) {
	c, fake := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want string
	}{
		{"power", func() error { return c.SetPower(ctx, true) }, `{"on":true}`},
		{"brightness clamps high", func() error { return c.SetBrightness(ctx, 300) }, `{"bri":255}`},
		{"brightness clamps low", func() error { return c.SetBrightness(ctx, -4) }, `{"bri":0}`},
		{"effect", func() error { return c.SetEffect(ctx, 12) }, `{"seg":[{"fx":12}]}`},
		{"color", func() error { return c.SetColor(ctx, color.RGB{R: 1, G: 2, B: 3}) }, `{"seg":[{"col":[[1,2,3]]}]}`},
		{"realtime on", func() error { return c.EnableRealtime(ctx, 255) }, `{"lor":255}`},
		{"realtime off", func() error { return c.DisableRealtime(ctx) }, `{"lor":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			got, err := json.Marshal(fake.lastPost())
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestStatusError(t *testing.T) {
	c, fake := newTestClient(t)
	fake.status = http.StatusServiceUnavailable

	err := c.SetPower(context.Background(), false)
	assert.True(t, errors.Is(err, ErrStatus), "got %v", err)

	_, err = c.State(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
}

func TestContextCanceled(t *testing.T) {
	c, _ := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Info(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
