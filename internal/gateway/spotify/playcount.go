package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"playlistscanner/internal/model"
)

const (
	playcountOperation = "getTrack"
	playcountQueryHash = "26cd58ab86ebba80196c41c3d48a4324c619e9a9d7df26ecca22417e0c50c6a4"
)

type pathfinderResponse struct {
	Data *struct {
		TrackUnion *struct {
			Playcount json.RawMessage `json:"playcount"`
		} `json:"trackUnion"`
	} `json:"data"`
}

// fetchPlaycount запрашивает число прослушиваний через partner API.
// nil без ошибки означает, что поле отсутствует в ответе.
func (c *Client) fetchPlaycount(ctx context.Context, trackID string) (*int64, error) {
	variables, err := json.Marshal(map[string]string{"uri": "spotify:track:" + trackID})
	if err != nil {
		return nil, err
	}
	extensions, err := json.Marshal(map[string]any{
		"persistedQuery": map[string]any{
			"version":    1,
			"sha256Hash": playcountQueryHash,
		},
	})
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("operationName", playcountOperation)
	params.Set("variables", string(variables))
	params.Set("extensions", string(extensions))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.partnerURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create playcount request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: playcount status %d", model.ErrProviderStatus, resp.StatusCode)
	}

	var payload pathfinderResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedPayload, err)
	}
	if payload.Data == nil || payload.Data.TrackUnion == nil {
		return nil, fmt.Errorf("%w: trackUnion missing", model.ErrMalformedPayload)
	}
	return parsePlaycount(payload.Data.TrackUnion.Playcount)
}

// parsePlaycount принимает число или строку с числом
func parsePlaycount(raw json.RawMessage) (*int64, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	s = strings.Trim(s, `"`)

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: playcount %q", model.ErrMalformedPayload, string(raw))
	}
	return &n, nil
}
