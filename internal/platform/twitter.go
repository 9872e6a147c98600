package platform

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/postpilotapp/postpilot/internal/models"
)

const (
	twitterUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	twitterTweetURL  = "https://api.twitter.com/2/tweets"
	twitterTokenURL  = "https://api.twitter.com/oauth2/token"
	twitterAPIURL    = "https://api.twitter.com/2"

	tweetCharLimit = 280
)

type twitterAdapter struct {
	client *http.Client
}

func NewTwitterAdapter(client *http.Client) Adapter {
	return &twitterAdapter{client: client}
}

func (t *twitterAdapter) Name() string {
	return "twitter"
}

func (t *twitterAdapter) Post(ctx context.Context, text string, media *Media, creds *models.PlatformCredential) Outcome {
	if creds == nil || creds.TwitterAPIKey == "" || creds.TwitterAPISecret == "" ||
		creds.TwitterAccessToken == "" || creds.TwitterAccessSecret == "" {
		return notConfigured("twitter")
	}

	text = trimText(text, tweetCharLimit)

	var mediaID string
	if media != nil {
		normalized, err := NormalizeJPEG(media, 1024)
		if err != nil {
			slog.Warn("twitter media normalization failed, posting text only", "error", err)
		} else {
			mediaID, err = t.uploadMedia(ctx, normalized, creds)
			if err != nil {
				// Fall back to a text-only tweet rather than failing the platform.
				slog.Warn("twitter media upload failed, posting text only", "error", err)
				mediaID = ""
			}
		}
	}

	payload := map[string]any{"text": text}
	if mediaID != "" {
		payload["media"] = map[string]any{"media_ids": []string{mediaID}}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return failure("error marshalling tweet payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", twitterTweetURL, bytes.NewReader(body))
	if err != nil {
		return failure("error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", oauth1Header("POST", twitterTweetURL, nil, creds))

	resp, err := t.client.Do(req)
	if err != nil {
		return failure("twitter request error: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("error reading twitter response: %v", err)
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return failure("unexpected status code from twitter: %d: %s", resp.StatusCode, respBody)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return failure("error parsing twitter response: %v", err)
	}
	if result.Data.ID == "" {
		return failure("no tweet id returned from twitter")
	}

	var raw map[string]any
	_ = json.Unmarshal(respBody, &raw)

	return Outcome{
		OK:         true,
		ExternalID: result.Data.ID,
		PostURL:    fmt.Sprintf("https://twitter.com/user/status/%s", result.Data.ID),
		Raw:        raw,
	}
}

func (t *twitterAdapter) uploadMedia(ctx context.Context, media *Media, creds *models.PlatformCredential) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", media.FileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(media.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", twitterUploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", oauth1Header("POST", twitterUploadURL, nil, creds))

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("unexpected status code from twitter upload: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.MediaIDString == "" {
		return "", fmt.Errorf("no media id returned from twitter upload")
	}
	return result.MediaIDString, nil
}

func (t *twitterAdapter) Analytics(ctx context.Context, postID string, creds *models.PlatformCredential) (*models.RawMetrics, error) {
	if creds == nil || creds.TwitterAPIKey == "" || creds.TwitterAPISecret == "" {
		return nil, fmt.Errorf("twitter credentials not configured")
	}

	bearer, err := t.bearerToken(ctx, creds)
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/tweets/%s?tweet.fields=public_metrics", twitterAPIURL, url.PathEscape(postID))
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to get twitter analytics: %d: %s", resp.StatusCode, body)
	}

	var result struct {
		Data struct {
			PublicMetrics struct {
				RetweetCount    int `json:"retweet_count"`
				ReplyCount      int `json:"reply_count"`
				LikeCount       int `json:"like_count"`
				ImpressionCount int `json:"impression_count"`
			} `json:"public_metrics"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	pm := result.Data.PublicMetrics
	metrics := &models.RawMetrics{
		Likes:    pm.LikeCount,
		Shares:   pm.RetweetCount,
		Comments: pm.ReplyCount,
		// Twitter exposes impressions only; used for reach as well.
		Reach:       pm.ImpressionCount,
		Impressions: pm.ImpressionCount,
		PostURL:     fmt.Sprintf("https://twitter.com/user/status/%s", postID),
	}
	if pm.ImpressionCount > 0 {
		metrics.EngagementRate = round2(float64(pm.LikeCount+pm.RetweetCount+pm.ReplyCount) / float64(pm.ImpressionCount) * 100)
	}
	return metrics, nil
}

func (t *twitterAdapter) bearerToken(ctx context.Context, creds *models.PlatformCredential) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", twitterTokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(creds.TwitterAPIKey, creds.TwitterAPISecret)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to get twitter bearer token: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("empty twitter bearer token")
	}
	return result.AccessToken, nil
}

// oauth1Header builds an OAuth 1.0a HMAC-SHA1 Authorization header for
// user-context calls. Only oauth_* and query parameters enter the
// signature base; JSON and multipart bodies do not.
func oauth1Header(method, rawURL string, extra url.Values, creds *models.PlatformCredential) string {
	nonceBytes := make([]byte, 16)
	_, _ = rand.Read(nonceBytes)

	params := url.Values{}
	params.Set("oauth_consumer_key", creds.TwitterAPIKey)
	params.Set("oauth_nonce", hex.EncodeToString(nonceBytes))
	params.Set("oauth_signature_method", "HMAC-SHA1")
	params.Set("oauth_timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	params.Set("oauth_token", creds.TwitterAccessToken)
	params.Set("oauth_version", "1.0")

	parsed, _ := url.Parse(rawURL)
	baseURL := parsed.Scheme + "://" + parsed.Host + parsed.Path

	signed := url.Values{}
	for k, vs := range params {
		signed[k] = vs
	}
	for k, vs := range parsed.Query() {
		signed[k] = vs
	}
	for k, vs := range extra {
		signed[k] = vs
	}

	keys := make([]string, 0, len(signed))
	for k := range signed {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var pairs []string
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(signed.Get(k)))
	}
	paramString := strings.Join(pairs, "&")

	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(paramString)
	signingKey := percentEncode(creds.TwitterAPISecret) + "&" + percentEncode(creds.TwitterAccessSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	params.Set("oauth_signature", signature)

	var header []string
	for _, k := range []string{"oauth_consumer_key", "oauth_nonce", "oauth_signature", "oauth_signature_method", "oauth_timestamp", "oauth_token", "oauth_version"} {
		header = append(header, fmt.Sprintf(`%s="%s"`, k, percentEncode(params.Get(k))))
	}
	return "OAuth " + strings.Join(header, ", ")
}

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires it.
func percentEncode(s string) string {
	var buf strings.Builder
	for _, b := range []byte(s) {
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9') ||
			b == '-' || b == '.' || b == '_' || b == '~' {
			buf.WriteByte(b)
		} else {
			fmt.Fprintf(&buf, "%%%02X", b)
		}
	}
	return buf.String()
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
