package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/postpilotapp/postpilot/internal/models"
	"github.com/postpilotapp/postpilot/internal/platform"
	"github.com/postpilotapp/postpilot/pkg/utils"
)

type CredentialRepository interface {
	Create(ctx context.Context, cred *models.PlatformCredential) (int64, error)
	ListByProjectID(ctx context.Context, projectID int64) ([]*models.PlatformCredential, error)
	MapByProjectID(ctx context.Context, projectID int64) (map[string]*models.PlatformCredential, error)
	Remove(ctx context.Context, projectID int64, platformName string) error
}

// credentialRepository stores secret fields AES-GCM encrypted and hands
// decrypted bundles back to callers.
type credentialRepository struct {
	db        *sql.DB
	secretKey []byte
}

func NewCredentialRepository(db *sql.DB, secretKey []byte) CredentialRepository {
	return &credentialRepository{db: db, secretKey: secretKey}
}

const credentialColumns = `id, project_id, platform,
	twitter_api_key, twitter_api_secret, twitter_access_token, twitter_access_secret,
	fb_page_id, fb_page_access_token, ig_access_token, ig_account_id,
	linkedin_access_token, linkedin_author_urn, discord_webhook_url,
	telegram_bot_token, telegram_chat_id, created_at, updated_at`

func (r *credentialRepository) secretFields(cred *models.PlatformCredential) []*string {
	return []*string{
		&cred.TwitterAPIKey, &cred.TwitterAPISecret, &cred.TwitterAccessToken, &cred.TwitterAccessSecret,
		&cred.FBPageAccessToken, &cred.IGAccessToken,
		&cred.LinkedinAccessToken, &cred.DiscordWebhookURL, &cred.TelegramBotToken,
	}
}

func (r *credentialRepository) encrypt(cred *models.PlatformCredential) error {
	for _, field := range r.secretFields(cred) {
		if *field == "" {
			continue
		}
		enc, err := utils.Encrypt([]byte(*field), r.secretKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt credential field: %w", err)
		}
		*field = enc
	}
	return nil
}

func (r *credentialRepository) decrypt(cred *models.PlatformCredential) error {
	for _, field := range r.secretFields(cred) {
		if *field == "" {
			continue
		}
		dec, err := utils.Decrypt(*field, r.secretKey)
		if err != nil {
			return fmt.Errorf("failed to decrypt credential field: %w", err)
		}
		*field = dec
	}
	return nil
}

func (r *credentialRepository) Create(ctx context.Context, cred *models.PlatformCredential) (int64, error) {
	cred.Platform = platform.CanonicalName(cred.Platform)
	if err := r.encrypt(cred); err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	query := `
		INSERT INTO platform_credentials (project_id, platform,
			twitter_api_key, twitter_api_secret, twitter_access_token, twitter_access_secret,
			fb_page_id, fb_page_access_token, ig_access_token, ig_account_id,
			linkedin_access_token, linkedin_author_urn, discord_webhook_url,
			telegram_bot_token, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (project_id, platform) DO UPDATE SET
			twitter_api_key = EXCLUDED.twitter_api_key,
			twitter_api_secret = EXCLUDED.twitter_api_secret,
			twitter_access_token = EXCLUDED.twitter_access_token,
			twitter_access_secret = EXCLUDED.twitter_access_secret,
			fb_page_id = EXCLUDED.fb_page_id,
			fb_page_access_token = EXCLUDED.fb_page_access_token,
			ig_access_token = EXCLUDED.ig_access_token,
			ig_account_id = EXCLUDED.ig_account_id,
			linkedin_access_token = EXCLUDED.linkedin_access_token,
			linkedin_author_urn = EXCLUDED.linkedin_author_urn,
			discord_webhook_url = EXCLUDED.discord_webhook_url,
			telegram_bot_token = EXCLUDED.telegram_bot_token,
			telegram_chat_id = EXCLUDED.telegram_chat_id,
			updated_at = now()
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query, cred.ProjectID, cred.Platform,
		nullable(cred.TwitterAPIKey), nullable(cred.TwitterAPISecret),
		nullable(cred.TwitterAccessToken), nullable(cred.TwitterAccessSecret),
		nullable(cred.FBPageID), nullable(cred.FBPageAccessToken),
		nullable(cred.IGAccessToken), nullable(cred.IGAccountID),
		nullable(cred.LinkedinAccessToken), nullable(cred.LinkedinAuthorURN),
		nullable(cred.DiscordWebhookURL), nullable(cred.TelegramBotToken),
		nullable(cred.TelegramChatID)).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *credentialRepository) ListByProjectID(ctx context.Context, projectID int64) ([]*models.PlatformCredential, error) {
	query := `SELECT ` + credentialColumns + ` FROM platform_credentials WHERE project_id = $1`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.PlatformCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if err := r.decrypt(cred); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, cred)
	}
	return creds, rows.Err()
}

// MapByProjectID keys the project's credentials by canonical platform name,
// which is what the dispatcher consumes. Rows written before alias
// normalization existed may still carry "X" or "Twitter".
func (r *credentialRepository) MapByProjectID(ctx context.Context, projectID int64) (map[string]*models.PlatformCredential, error) {
	creds, err := r.ListByProjectID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return mapByCanonicalPlatform(creds), nil
}

func mapByCanonicalPlatform(creds []*models.PlatformCredential) map[string]*models.PlatformCredential {
	byPlatform := make(map[string]*models.PlatformCredential, len(creds))
	for _, cred := range creds {
		byPlatform[platform.CanonicalName(cred.Platform)] = cred
	}
	return byPlatform
}

func (r *credentialRepository) Remove(ctx context.Context, projectID int64, platformName string) error {
	query := `DELETE FROM platform_credentials WHERE project_id = $1 AND platform = $2`
	_, err := r.db.ExecContext(ctx, query, projectID, platform.CanonicalName(platformName))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func scanCredential(rows *sql.Rows) (*models.PlatformCredential, error) {
	var cred models.PlatformCredential
	fields := make([]sql.NullString, 13)

	dest := []any{&cred.ID, &cred.ProjectID, &cred.Platform}
	for i := range fields {
		dest = append(dest, &fields[i])
	}
	dest = append(dest, &cred.CreatedAt, &cred.UpdatedAt)

	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}

	cred.TwitterAPIKey = fields[0].String
	cred.TwitterAPISecret = fields[1].String
	cred.TwitterAccessToken = fields[2].String
	cred.TwitterAccessSecret = fields[3].String
	cred.FBPageID = fields[4].String
	cred.FBPageAccessToken = fields[5].String
	cred.IGAccessToken = fields[6].String
	cred.IGAccountID = fields[7].String
	cred.LinkedinAccessToken = fields[8].String
	cred.LinkedinAuthorURN = fields[9].String
	cred.DiscordWebhookURL = fields[10].String
	cred.TelegramBotToken = fields[11].String
	cred.TelegramChatID = fields[12].String

	return &cred, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
