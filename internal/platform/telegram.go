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

const (
	telegramAPIURL     = "https://api.telegram.org"
	telegramCaptionMax = 1024
	telegramMessageMax = 4096
)

// telegramAdapter sends through the Bot API. Bots cannot read reaction
// counts on channel posts, so Analytics reports empty counts.
type telegramAdapter struct {
	client *http.Client
}

func NewTelegramAdapter(client *http.Client) Adapter {
	return &telegramAdapter{client: client}
}

func (t *telegramAdapter) Name() string {
	return "telegram"
}

func (t *telegramAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.TelegramBotToken == "" || creds.TelegramChatID == "" {
		return notConfigured("telegram")
	}

	var req *http.Request
	var err error
	if media != nil && len(media.Data) > 0 {
		req, err = t.photoRequest(ctx, trimText(text, telegramCaptionMax), media, creds)
	} else {
		req, err = t.messageRequest(ctx, trimText(text, telegramMessageMax), creds)
	}
	if err != nil {
		return failure("telegram request error: %v", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return failure("telegram HTTP request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("telegram response error: %v", err)
	}

	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
		Result      struct {
			MessageID int `json:"message_id"`
			Chat      struct {
				Username string `json:"username"`
			} `json:"chat"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failure("telegram response parse error: %v", err)
	}
	if !result.OK {
		return failure("telegram API error: %s", result.Description)
	}

	outcome := Outcome{
		OK:         true,
		ExternalID: fmt.Sprintf("%d", result.Result.MessageID),
	}
	if result.Result.Chat.Username != "" {
		outcome.PostURL = fmt.Sprintf("https://t.me/%s/%d", result.Result.Chat.Username, result.Result.MessageID)
	}
	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)
	outcome.Raw = raw
	return outcome
}

func (t *telegramAdapter) messageRequest(ctx context.Context, text string, creds *models.PlatformCredential) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIURL, creds.TelegramBotToken)
	body, err := json.Marshal(map[string]string{
		"chat_id": creds.TelegramChatID,
		"text":    text,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshalling payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (t *telegramAdapter) photoRequest(ctx context.Context, caption string, media *Media, creds *models.PlatformCredential) (*http.Request, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendPhoto", telegramAPIURL, creds.TelegramBotToken)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("chat_id", creds.TelegramChatID); err != nil {
		return nil, fmt.Errorf("error writing form field: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("error writing form field: %w", err)
		}
	}
	part, err := writer.CreateFormFile("photo", media.FileName)
	if err != nil {
		return nil, fmt.Errorf("error creating form file: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return nil, fmt.Errorf("error writing file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("error closing writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req, nil
}

func (t *telegramAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.TelegramBotToken == "" {
		return nil, fmt.Errorf("telegram credentials not configured")
	}
	return &models.RawMetrics{}, nil
}
