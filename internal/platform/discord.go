package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/postpilotapp/postpilot/internal/models"
)

const discordMessageMax = 2000

// discordAdapter delivers to an incoming webhook. Webhooks have no read
// API, so Analytics reports empty counts rather than failing the sync.
type discordAdapter struct {
	client *http.Client
}

func NewDiscordAdapter(client *http.Client) Adapter {
	return &discordAdapter{client: client}
}

func (d *discordAdapter) Name() string {
	return "discord"
}

func (d *discordAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.DiscordWebhookURL == "" {
		return notConfigured("discord")
	}

	text = trimText(text, discordMessageMax)

	var req *http.Request
	var err error
	if media != nil && len(media.Data) > 0 {
		req, err = d.multipartRequest(ctx, text, media, creds.DiscordWebhookURL)
	} else {
		req, err = d.jsonRequest(ctx, text, creds.DiscordWebhookURL)
	}
	if err != nil {
		return failure("discord request error: %v", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return failure("discord HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("discord response error: %v", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return failure("unexpected status code from discord: %d: %s", resp.StatusCode, respBody)
	}

	// With ?wait=true discord returns the created message; a plain webhook
	// call answers 204 with no body.
	var result struct {
		ID        string `json:"id"`
		ChannelID string `json:"channel_id"`
	}
	_ = json.Unmarshal(respBody, &result)

	outcome := Outcome{OK: true, ExternalID: result.ID}
	if result.ID != "" && result.ChannelID != "" {
		outcome.PostURL = fmt.Sprintf("https://discord.com/channels/@me/%s/%s", result.ChannelID, result.ID)
	}
	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)
	outcome.Raw = raw
	return outcome
}

func (d *discordAdapter) jsonRequest(ctx context.Context, text, webhookURL string) (*http.Request, error) {
	body, err := json.Marshal(map[string]string{"content": text})
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL+"?wait=true", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (d *discordAdapter) multipartRequest(ctx context.Context, text string, media *Media, webhookURL string) (*http.Request, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("content", text); err != nil {
		return nil, fmt.Errorf("error writing form field: %w", err)
	}
	part, err := writer.CreateFormFile("file", media.FileName)
	if err != nil {
		return nil, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return nil, fmt.Errorf("error writing file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL+"?wait=true", &buf)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (d *discordAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.DiscordWebhookURL == "" {
		return nil, fmt.Errorf("discord credentials not configured")
	}
	return &models.RawMetrics{}, nil
}
