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

const (
	linkedinAPIURL      = "https://api.linkedin.com/v2"
	linkedinPostTextMax = 3000
	linkedinImageRecipe = "urn:li:digitalmediaRecipe:feedshare-image"
)

// linkedinAdapter posts UGC shares. Image posts need an upload
// registration round-trip before the share itself.
type linkedinAdapter struct {
	client *http.Client
}

func NewLinkedinAdapter(client *http.Client) Adapter {
	return &linkedinAdapter{client: client}
}

func (l *linkedinAdapter) Name() string {
	return "linkedin"
}

func (l *linkedinAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.LinkedinAccessToken == "" || creds.LinkedinAuthorURN == "" {
		return notConfigured("linkedin")
	}

	text = trimText(text, linkedinPostTextMax)

	var assetURN string
	if media != nil && len(media.Data) > 0 {
		normalized, err := NormalizeJPEG(media, 1200)
		if err != nil {
			return failure("linkedin media error: %v", err)
		}
		assetURN, err = l.uploadImage(ctx, normalized, creds)
		if err != nil {
			return failure("linkedin upload error: %v", err)
		}
	}

	postID, raw, err := l.createShare(ctx, text, assetURN, creds)
	if err != nil {
		return failure("linkedin share error: %v", err)
	}

	return Outcome{
		OK:         true,
		ExternalID: postID,
		PostURL:    fmt.Sprintf("https://www.linkedin.com/feed/update/%s", postID),
		Raw:        raw,
	}
}

// uploadImage registers an upload slot, PUTs the bytes, and returns the
// asset URN to reference from the share.
func (l *linkedinAdapter) uploadImage(ctx context.Context, media *Media, creds *models.PlatformCredential) (string, error) {
	registerPayload := map[string]any{
		"registerUploadRequest": map[string]any{
			"recipes": []string{linkedinImageRecipe},
			"owner":   creds.LinkedinAuthorURN,
			"serviceRelationships": []map[string]string{
				{
					"relationshipType": "OWNER",
					"identifier":       "urn:li:userGeneratedContent",
				},
			},
		},
	}
	body, err := json.Marshal(registerPayload)
	if err != nil {
		return "", fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", linkedinAPIURL+"/assets?action=registerUpload", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.LinkedinAccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from linkedin: %d: %s", resp.StatusCode, respBody)
	}

	var register struct {
		Value struct {
			Asset           string `json:"asset"`
			UploadMechanism map[string]struct {
				UploadURL string `json:"uploadUrl"`
			} `json:"uploadMechanism"`
		} `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&register); err != nil {
		return "", fmt.Errorf("error parsing response: %w", err)
	}

	var uploadURL string
	for _, mech := range register.Value.UploadMechanism {
		if mech.UploadURL != "" {
			uploadURL = mech.UploadURL
			break
		}
	}
	if uploadURL == "" || register.Value.Asset == "" {
		return "", fmt.Errorf("incomplete upload registration from linkedin")
	}

	putReq, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(media.Data))
	if err != nil {
		return "", fmt.Errorf("error creating upload request: %w", err)
	}
	putReq.Header.Set("Authorization", "Bearer "+creds.LinkedinAccessToken)
	putReq.Header.Set("Content-Type", media.MIME)

	putResp, err := l.client.Do(putReq)
	if err != nil {
		return "", fmt.Errorf("HTTP request error: %w", err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode != http.StatusOK && putResp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(putResp.Body)
		return "", fmt.Errorf("image upload rejected by linkedin: %d: %s", putResp.StatusCode, respBody)
	}

	return register.Value.Asset, nil
}

func (l *linkedinAdapter) createShare(ctx context.Context, text, assetURN string, creds *models.PlatformCredential) (string, map[string]any, error) {
	shareContent := map[string]any{
		"shareCommentary": map[string]string{"text": text},
	}
	if assetURN != "" {
		shareContent["shareMediaCategory"] = "IMAGE"
		shareContent["media"] = []map[string]any{
			{
				"status": "READY",
				"media":  assetURN,
			},
		}
	} else {
		shareContent["shareMediaCategory"] = "NONE"
	}

	payload := map[string]any{
		"author":         creds.LinkedinAuthorURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": shareContent,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", linkedinAPIURL+"/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.LinkedinAccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("error reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("unexpected status code from linkedin: %d: %s", resp.StatusCode, respBody)
	}

	postID := resp.Header.Get("X-Restli-Id")
	var result struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(respBody, &result)
	if postID == "" {
		postID = result.ID
	}
	if postID == "" {
		return "", nil, fmt.Errorf("no post id returned from linkedin")
	}

	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)
	return postID, raw, nil
}

func (l *linkedinAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.LinkedinAccessToken == "" {
		return nil, fmt.Errorf("linkedin credentials not configured")
	}

	endpoint := fmt.Sprintf("%s/socialActions/%s", linkedinAPIURL, url.PathEscape(postID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+creds.LinkedinAccessToken)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get linkedin analytics: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		LikesSummary struct {
			TotalLikes int `json:"totalLikes"`
		} `json:"likesSummary"`
		CommentsSummary struct {
			TotalFirstLevelComments int `json:"totalFirstLevelComments"`
		} `json:"commentsSummary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &models.RawMetrics{
		Likes:    result.LikesSummary.TotalLikes,
		Comments: result.CommentsSummary.TotalFirstLevelComments,
		PostURL:  fmt.Sprintf("https://www.linkedin.com/feed/update/%s", postID),
	}, nil
}
