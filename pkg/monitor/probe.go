package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PlaybackState is the result of a media probe.
type PlaybackState int

const (
	// StateNoPlayer means the page hosts no recognized media player.
	StateNoPlayer PlaybackState = iota
	// StatePlaying means media is actively playing.
	StatePlaying
	// StatePaused means the player exists but is paused or stopped.
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "no_player"
	}
}

// MediaPlaybackProbe reports the playback state of the media player hosted
// on the current page, if any.
type MediaPlaybackProbe interface {
	State(ctx context.Context) (PlaybackState, error)
}

// NoneProbe is the variant for pages without a recognized player.
type NoneProbe struct{}

func (NoneProbe) State(context.Context) (PlaybackState, error) {
	return StateNoPlayer, nil
}

// VimeoProbe queries a Vimeo player bridge. The bridge answers the player's
// getPaused call as JSON: {"paused": bool}.
type VimeoProbe struct {
	StatusURL string
	Client    *http.Client
}

func (p *VimeoProbe) State(ctx context.Context) (PlaybackState, error) {
	var status struct {
		Paused bool `json:"paused"`
	}
	if err := fetchJSON(ctx, p.Client, p.StatusURL, &status); err != nil {
		return StateNoPlayer, err
	}
	if status.Paused {
		return StatePaused, nil
	}
	return StatePlaying, nil
}

// YouTubeProbe queries a YouTube player bridge, which reports the raw
// player state code: {"player_state": int}. Code 1 is playing; 2 is paused.
type YouTubeProbe struct {
	StatusURL string
	Client    *http.Client
}

const youtubeStatePlaying = 1

func (p *YouTubeProbe) State(ctx context.Context) (PlaybackState, error) {
	var status struct {
		PlayerState int `json:"player_state"`
	}
	if err := fetchJSON(ctx, p.Client, p.StatusURL, &status); err != nil {
		return StateNoPlayer, err
	}
	if status.PlayerState == youtubeStatePlaying {
		return StatePlaying, nil
	}
	return StatePaused, nil
}

func fetchJSON(ctx context.Context, client *http.Client, url string, dest interface{}) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("media probe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("media probe returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("media probe decode: %w", err)
	}
	return nil
}
