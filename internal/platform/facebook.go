package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/postpilotapp/postpilot/internal/models"
)

const facebookGraphURL = "https://graph.facebook.com/v18.0"

type facebookAdapter struct {
	client *http.Client
}

func NewFacebookAdapter(client *http.Client) Adapter {
	return &facebookAdapter{client: client}
}

func (f *facebookAdapter) Name() string {
	return "facebook"
}

func (f *facebookAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.FBPageID == "" || creds.FBPageAccessToken == "" {
		return notConfigured("facebook")
	}

	var req *http.Request
	var err error

	if media != nil {
		normalized, nerr := NormalizeJPEG(media, 1080)
		if nerr != nil {
			return failure("facebook media normalization failed: %v", nerr)
		}

		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		if werr := writer.WriteField("message", text); werr != nil {
			return failure("error building facebook request: %v", werr)
		}
		if werr := writer.WriteField("access_token", creds.FBPageAccessToken); werr != nil {
			return failure("error building facebook request: %v", werr)
		}
		part, werr := writer.CreateFormFile("source", normalized.FileName)
		if werr != nil {
			return failure("error building facebook request: %v", werr)
		}
		if _, werr := part.Write(normalized.Data); werr != nil {
			return failure("error building facebook request: %v", werr)
		}
		if werr := writer.Close(); werr != nil {
			return failure("error building facebook request: %v", werr)
		}

		endpoint := fmt.Sprintf("%s/%s/photos", facebookGraphURL, creds.FBPageID)
		req, err = http.NewRequestWithContext(ctx, "POST", endpoint, &buf)
		if err != nil {
			return failure("error creating request: %v", err)
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
	} else {
		form := url.Values{}
		form.Set("message", text)
		form.Set("access_token", creds.FBPageAccessToken)

		endpoint := fmt.Sprintf("%s/%s/feed", facebookGraphURL, creds.FBPageID)
		req, err = http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return failure("error creating request: %v", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return failure("facebook request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("error reading facebook response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return failure("unexpected status code from facebook: %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failure("error parsing facebook response: %v", err)
	}

	externalID := result.PostID
	if externalID == "" {
		externalID = result.ID
	}
	if externalID == "" {
		return failure("no post id returned from facebook")
	}

	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)

	return Outcome{
		OK:         true,
		ExternalID: externalID,
		PostURL:    fmt.Sprintf("https://facebook.com/%s", externalID),
		Raw:        raw,
	}
}

func (f *facebookAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.FBPageAccessToken == "" {
		return nil, fmt.Errorf("facebook credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/%s/insights?metric=%s&access_token=%s",
		facebookGraphURL, url.PathEscape(postID),
		"post_impressions,post_reach,post_engaged_users,post_clicks,post_reactions_by_type_total",
		url.QueryEscape(creds.FBPageAccessToken))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get facebook analytics: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data []struct {
			Name   string `json:"name"`
			Values []struct {
				Value json.Number `json:"value"`
			} `json:"values"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	metrics := &models.RawMetrics{PostURL: fmt.Sprintf("https://facebook.com/%s", postID)}
	var engaged int
	for _, insight := range result.Data {
		if len(insight.Values) == 0 {
			continue
		}
		value, _ := insight.Values[0].Value.Int64()
		switch insight.Name {
		case "post_impressions":
			metrics.Impressions = int(value)
		case "post_reach":
			metrics.Reach = int(value)
		case "post_engaged_users":
			engaged = int(value)
		case "post_clicks":
			metrics.Clicks = int(value)
		case "post_reactions_by_type_total":
			metrics.Likes = int(value)
		}
	}

	if metrics.Reach > 0 {
		metrics.EngagementRate = round2(float64(engaged) / float64(metrics.Reach) * 100)
	}
	if metrics.Impressions > 0 {
		metrics.ClickThroughRate = round2(float64(metrics.Clicks) / float64(metrics.Impressions) * 100)
	}
	return metrics, nil
}
