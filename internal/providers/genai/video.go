package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"mimino/internal/domain"
)

type videoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type videoInstance struct {
	Prompt string      `json:"prompt"`
	Image  *videoImage `json:"image,omitempty"`
}

type videoParameters struct {
	AspectRatio    string `json:"aspectRatio,omitempty"`
	Resolution     string `json:"resolution,omitempty"`
	NumberOfVideos int    `json:"numberOfVideos,omitempty"`
}

type predictLongRunningRequest struct {
	Instances  []videoInstance  `json:"instances"`
	Parameters *videoParameters `json:"parameters,omitempty"`
}

type videoOperation struct {
	Name     string                  `json:"name"`
	Done     bool                    `json:"done"`
	Error    *videoOperationError    `json:"error,omitempty"`
	Response *videoOperationResponse `json:"response,omitempty"`
}

type videoOperationError struct {
	Code    int    `json:"code,omitempty"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

type videoOperationResponse struct {
	GenerateVideoResponse *generateVideoResponse `json:"generateVideoResponse,omitempty"`
}

type generateVideoResponse struct {
	GeneratedSamples []generatedSample `json:"generatedSamples,omitempty"`
}

type generatedSample struct {
	Video *videoReference `json:"video,omitempty"`
}

type videoReference struct {
	URI string `json:"uri,omitempty"`
}

// GenerateVideo submits a long-running video synthesis job (one video, fixed
// resolution and aspect ratio) and polls its operation handle until the
// server reports completion, replacing the held handle with the latest status
// on every poll. A done operation with zero generated samples is a hard
// failure, never a silent success. The returned URI carries the API key as a
// query credential so it is independently fetchable.
//
// With MaxPollAttempts left at zero the wait is unbounded; started jobs
// cannot be aborted remotely, so a context cancellation only stops the
// polling on this side.
func (c *Client) GenerateVideo(ctx context.Context, asset domain.MediaAsset, instruction string) (string, error) {
	op, err := c.submitVideo(ctx, asset, instruction)
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("operation", op.Name).
		Str("model", c.videoModel).
		Msg("genai: video job submitted")

	attempts := 0
	for !op.Done {
		attempts++
		if c.maxPollAttempts > 0 && attempts > c.maxPollAttempts {
			return "", fmt.Errorf("%w after %d polls", domain.ErrVideoPollTimeout, c.maxPollAttempts)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		op, err = c.pollOperation(ctx, op.Name)
		if err != nil {
			return "", err
		}

		c.logger.Debug().
			Str("operation", op.Name).
			Int("attempt", attempts).
			Bool("done", op.Done).
			Msg("genai: video poll")
	}

	if op.Error != nil {
		return "", fmt.Errorf("video generation failed: %s", op.Error.Message)
	}

	uri := firstVideoURI(op)
	if uri == "" {
		return "", domain.ErrNoVideoOutput
	}
	return c.withKey(uri)
}

func (c *Client) submitVideo(ctx context.Context, asset domain.MediaAsset, instruction string) (*videoOperation, error) {
	payload := predictLongRunningRequest{
		Instances: []videoInstance{{
			Prompt: instruction,
			Image: &videoImage{
				BytesBase64Encoded: base64.StdEncoding.EncodeToString(asset.Data),
				MimeType:           asset.MimeType,
			},
		}},
		Parameters: &videoParameters{
			AspectRatio:    c.videoAspect,
			Resolution:     c.videoResolution,
			NumberOfVideos: 1,
		},
	}

	var op videoOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel))
	if err := c.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("video submission returned no operation handle")
	}
	return &op, nil
}

func (c *Client) pollOperation(ctx context.Context, name string) (*videoOperation, error) {
	var op videoOperation
	if err := c.invoke(ctx, http.MethodGet, "/"+name, nil, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		op.Name = name
	}
	return &op, nil
}

func firstVideoURI(op *videoOperation) string {
	if op.Response == nil || op.Response.GenerateVideoResponse == nil {
		return ""
	}
	for _, sample := range op.Response.GenerateVideoResponse.GeneratedSamples {
		if sample.Video != nil && sample.Video.URI != "" {
			return sample.Video.URI
		}
	}
	return ""
}

func (c *Client) withKey(uri string) (string, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse video uri: %w", err)
	}
	q := parsed.Query()
	q.Set("key", c.apiKey)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}
