// Package wled talks to WLED controllers: the JSON HTTP API for device
// control and DDP over UDP for realtime pixel streaming.
package wled

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/monitoring"
)

const (
	DefaultHTTPPort = 80
	DefaultUDPPort  = 4048
	DefaultTimeout  = 5 * time.Second
)

// ErrStatus is returned when the controller answers with a non-2xx status.
var ErrStatus = errors.New("wled: unexpected status")

// Doer is the part of *http.Client the Client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a WLED JSON API client.
type Client struct {
	base   url.URL
	client Doer
}

// NewClient returns a client for the controller at host:port. If client is
// nil, an http.Client with DefaultTimeout is used.
func NewClient(host string, port int, client Doer) *Client {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		base:   url.URL{Scheme: "http", Host: net.JoinHostPort(host, strconv.Itoa(port))},
		client: client,
	}
}

// Info is the subset of /json/info the controller reports that we use.
type Info struct {
	Version  string   `json:"ver"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand"`
	Product  string   `json:"product"`
	MAC      string   `json:"mac"`
	IP       string   `json:"ip"`
	UDPPort  int      `json:"udpport"`
	Live     bool     `json:"live"`
	FXCount  int      `json:"fxcount"`
	PalCount int      `json:"palcount"`
	Uptime   int      `json:"uptime"`
	LEDs     InfoLEDs `json:"leds"`
}

type InfoLEDs struct {
	Count int  `json:"count"`
	FPS   int  `json:"fps"`
	RGBW  bool `json:"rgbw"`
	Power int  `json:"pwr"`
}

// State is the subset of /json/state we read back.
type State struct {
	On         bool      `json:"on"`
	Brightness int       `json:"bri"`
	Transition int       `json:"transition"`
	Preset     int       `json:"ps"`
	LiveMode   int       `json:"lor"`
	Segments   []Segment `json:"seg"`
}

type Segment struct {
	ID      int     `json:"id"`
	Start   int     `json:"start"`
	Stop    int     `json:"stop"`
	Effect  int     `json:"fx"`
	Speed   int     `json:"sx"`
	Palette int     `json:"pal"`
	On      bool    `json:"on"`
	Colors  [][]int `json:"col"`
}

func (c *Client) Info(ctx context.Context) (*Info, error) {
	info := &Info{}
	if err := c.do(ctx, http.MethodGet, "/json/info", nil, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *Client) State(ctx context.Context) (*State, error) {
	state := &State{}
	if err := c.do(ctx, http.MethodGet, "/json/state", nil, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (c *Client) SetPower(ctx context.Context, on bool) error {
	return c.post(ctx, map[string]any{"on": on})
}

// SetBrightness sets the master brightness, clamped to 0..255.
func (c *Client) SetBrightness(ctx context.Context, brightness int) error {
	brightness = max(0, min(255, brightness))
	return c.post(ctx, map[string]any{"bri": brightness})
}

// SetEffect selects a built-in WLED effect on the first segment.
func (c *Client) SetEffect(ctx context.Context, id int) error {
	return c.post(ctx, map[string]any{"seg": []map[string]any{{"fx": id}}})
}

// SetColor sets the first segment's primary color.
func (c *Client) SetColor(ctx context.Context, rgb color.RGB) error {
	col := [][]int{{int(rgb.R), int(rgb.G), int(rgb.B)}}
	return c.post(ctx, map[string]any{"seg": []map[string]any{{"col": col}}})
}

// EnableRealtime asks the controller to accept streamed frames.
func (c *Client) EnableRealtime(ctx context.Context, timeout int) error {
	return c.post(ctx, map[string]any{"lor": timeout})
}

func (c *Client) DisableRealtime(ctx context.Context) error {
	return c.post(ctx, map[string]any{"lor": 0})
}

func (c *Client) post(ctx context.Context, body map[string]any) error {
	return c.do(ctx, http.MethodPost, "/json/state", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u := c.base
	u.Path = path

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.client.Do(req)
	if err != nil {
		monitoring.Errorf("wled %s %s: %v", method, path, err)
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("%w %d from %s %s", ErrStatus, res.StatusCode, method, path)
	}
	if out == nil {
		_, err = io.Copy(io.Discard, res.Body)
		return err
	}
	return json.NewDecoder(res.Body).Decode(out)
}
