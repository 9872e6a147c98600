package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/postpilotapp/postpilot/internal/models"
)

const instagramGraphURL = "https://graph.instagram.com/v21.0"

// instagramAdapter uses the Instagram Graph API. Publishing is the usual
// two-step flow: create a media container from a public image URL, then
// publish the container.
type instagramAdapter struct {
	client *http.Client
}

func NewInstagramAdapter(client *http.Client) Adapter {
	return &instagramAdapter{client: client}
}

func (ig *instagramAdapter) Name() string {
	return "instagram"
}

func (ig *instagramAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.IGAccessToken == "" || creds.IGAccountID == "" {
		return notConfigured("instagram")
	}
	if media == nil || media.URL == "" {
		return failure("instagram requires a publicly reachable image")
	}

	containerID, err := ig.createContainer(ctx, text, media.URL, creds)
	if err != nil {
		return failure("instagram container error: %v", err)
	}

	publishID, raw, err := ig.publish(ctx, containerID, creds)
	if err != nil {
		return failure("instagram publish error: %v", err)
	}

	return Outcome{
		OK:         true,
		ExternalID: publishID,
		PostURL:    fmt.Sprintf("https://instagram.com/p/%s", publishID),
		Raw:        raw,
	}
}

func (ig *instagramAdapter) createContainer(ctx context.Context, caption, imageURL string, creds *models.PlatformCredential) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/media", instagramGraphURL, creds.IGAccountID)

	payload := map[string]any{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": creds.IGAccessToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ig.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from instagram: %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", fmt.Errorf("no media id returned from instagram")
	}
	return result.ID, nil
}

func (ig *instagramAdapter) publish(ctx context.Context, containerID string, creds *models.PlatformCredential) (string, map[string]any, error) {
	endpoint := fmt.Sprintf("%s/%s/media_publish", instagramGraphURL, creds.IGAccountID)

	payload := map[string]string{
		"creation_id":  containerID,
		"access_token": creds.IGAccessToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ig.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status code from instagram: %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", nil, fmt.Errorf("error parsing response: %w", err)
	}
	if result.ID == "" {
		return "", nil, fmt.Errorf("no publish id returned from instagram")
	}

	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)
	return result.ID, raw, nil
}

func (ig *instagramAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.IGAccessToken == "" {
		return nil, fmt.Errorf("instagram credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/%s?fields=id,permalink,like_count,comments_count&access_token=%s",
		instagramGraphURL, url.PathEscape(postID), url.QueryEscape(creds.IGAccessToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := ig.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get instagram analytics: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Permalink     string `json:"permalink"`
		LikeCount     int    `json:"like_count"`
		CommentsCount int    `json:"comments_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	postURL := result.Permalink
	if postURL == "" {
		postURL = fmt.Sprintf("https://instagram.com/p/%s", postID)
	}

	return &models.RawMetrics{
		Likes:    result.LikeCount,
		Comments: result.CommentsCount,
		PostURL:  postURL,
	}, nil
}
