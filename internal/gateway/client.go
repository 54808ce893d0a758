// Package gateway talks to the chordbook server's REST API.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"chordbook/internal/chordbook"
)

// Client implements chordbook.Gateway over HTTP. It sends exactly one request
// per call and never retries; resty's retry support stays disabled.
type Client struct {
	http *resty.Client
}

var _ chordbook.Gateway = (*Client)(nil)

// New creates a Client for baseURL. token, when set, is sent as a bearer
// token. A zero timeout leaves requests unbounded.
func New(baseURL, token string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(0)
	if token != "" {
		rc.SetAuthToken(token)
	}
	return NewFromResty(rc)
}

// NewFromResty wraps an already configured resty client.
func NewFromResty(rc *resty.Client) *Client {
	return &Client{http: rc}
}

func (c *Client) ListPlaybooks(ctx context.Context, userID string) ([]*chordbook.Playbook, error) {
	var ws []wirePlaybook
	resp, err := c.http.R().SetContext(ctx).SetQueryParam("userId", userID).Get("/playbooks")
	if err := decode("list playbooks", resp, err, &ws); err != nil {
		return nil, err
	}
	out := make([]*chordbook.Playbook, 0, len(ws))
	for _, w := range ws {
		pb, err := fromWirePlaybook(w)
		if err != nil {
			return nil, fmt.Errorf("list playbooks: %w", err)
		}
		out = append(out, pb)
	}
	return out, nil
}

func (c *Client) GetPlaybook(ctx context.Context, id string) (*chordbook.Playbook, error) {
	var w wirePlaybook
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Get("/playbooks/{id}")
	if err := decode("get playbook", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWirePlaybook(w)
}

func (c *Client) CreatePlaybook(ctx context.Context, pb *chordbook.Playbook) (*chordbook.Playbook, error) {
	body := toWirePlaybook(pb)
	body.ID = ""
	var w wirePlaybook
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/playbooks")
	if err := decode("create playbook", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWirePlaybook(w)
}

func (c *Client) UpdatePlaybook(ctx context.Context, id string, patch chordbook.PlaybookPatch) (*chordbook.Playbook, error) {
	var w wirePlaybook
	resp, err := c.http.R().SetContext(ctx).
		SetPathParam("id", id).
		SetBody(toWirePlaybookPatch(patch)).
		Put("/playbooks/{id}")
	if err := decode("update playbook", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWirePlaybook(w)
}

func (c *Client) DeletePlaybook(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Delete("/playbooks/{id}")
	return decode("delete playbook", resp, err, nil)
}

func (c *Client) ListSongs(ctx context.Context, userID string) ([]*chordbook.Song, error) {
	var ws []wireSong
	resp, err := c.http.R().SetContext(ctx).SetQueryParam("userId", userID).Get("/songs")
	if err := decode("list songs", resp, err, &ws); err != nil {
		return nil, err
	}
	out := make([]*chordbook.Song, 0, len(ws))
	for _, w := range ws {
		s, err := fromWireSong(w)
		if err != nil {
			return nil, fmt.Errorf("list songs: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) GetSong(ctx context.Context, id string) (*chordbook.Song, error) {
	var w wireSong
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Get("/songs/{id}")
	if err := decode("get song", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWireSong(w)
}

func (c *Client) CreateSong(ctx context.Context, s *chordbook.Song) (*chordbook.Song, error) {
	body := toWireSong(s)
	body.ID = ""
	var w wireSong
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post("/songs")
	if err := decode("create song", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWireSong(w)
}

func (c *Client) UpdateSong(ctx context.Context, id string, patch chordbook.SongPatch) (*chordbook.Song, error) {
	var w wireSong
	resp, err := c.http.R().SetContext(ctx).
		SetPathParam("id", id).
		SetBody(toWireSongPatch(patch)).
		Put("/songs/{id}")
	if err := decode("update song", resp, err, &w); err != nil {
		return nil, err
	}
	return fromWireSong(w)
}

func (c *Client) DeleteSong(ctx context.Context, id string) error {
	resp, err := c.http.R().SetContext(ctx).SetPathParam("id", id).Delete("/songs/{id}")
	return decode("delete song", resp, err, nil)
}

// decode turns transport failures into wrapped errors, non-2xx answers into
// *chordbook.RemoteError, and otherwise unmarshals the body into out.
func decode(op string, resp *resty.Response, err error, out any) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !resp.IsSuccess() {
		return &chordbook.RemoteError{Op: op, Status: resp.StatusCode(), Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}
