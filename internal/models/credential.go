package models

import "time"

// PlatformCredential holds one platform's credential bundle for a project.
// Only the fields for its platform are set; secret fields are stored
// AES-GCM encrypted and decrypted on load by the credential repository.
type PlatformCredential struct {
	ID        int64  `db:"id" json:"id"`
	ProjectID int64  `db:"project_id" json:"project_id"`
	Platform  string `db:"platform" json:"platform"`

	// Twitter/X
	TwitterAPIKey       string `db:"twitter_api_key" json:"-"`
	TwitterAPISecret    string `db:"twitter_api_secret" json:"-"`
	TwitterAccessToken  string `db:"twitter_access_token" json:"-"`
	TwitterAccessSecret string `db:"twitter_access_secret" json:"-"`

	// Facebook
	FBPageID          string `db:"fb_page_id" json:"-"`
	FBPageAccessToken string `db:"fb_page_access_token" json:"-"`

	// Instagram (Graph API)
	IGAccessToken string `db:"ig_access_token" json:"-"`
	IGAccountID   string `db:"ig_account_id" json:"-"`

	// LinkedIn
	LinkedinAccessToken string `db:"linkedin_access_token" json:"-"`
	LinkedinAuthorURN   string `db:"linkedin_author_urn" json:"-"`

	// Discord
	DiscordWebhookURL string `db:"discord_webhook_url" json:"-"`

	// Telegram
	TelegramBotToken string `db:"telegram_bot_token" json:"-"`
	TelegramChatID   string `db:"telegram_chat_id" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
