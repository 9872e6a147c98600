package platform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/postpilotapp/postpilot/configs"
)

// Media is a resolved media reference: the raw bytes for platforms that
// upload directly, and a public URL for platforms that fetch by URL.
type Media struct {
	FileName string
	MIME     string
	Data     []byte
	URL      string
}

// MediaStore resolves media paths against Cloudflare R2, falling back to
// the local filesystem for paths that exist on disk.
type MediaStore struct {
	cfg config.Config
}

func NewMediaStore(cfg config.Config) *MediaStore {
	return &MediaStore{cfg: cfg}
}

func (m *MediaStore) client() (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(m.cfg.R2.AccessKey, m.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", m.cfg.R2.AccountID))
	}), nil
}

// Fetch loads the media behind path. Local paths are read directly;
// anything else is treated as an object key in the R2 bucket.
func (m *MediaStore) Fetch(ctx context.Context, mediaPath string) (*Media, error) {
	if mediaPath == "" {
		return nil, nil
	}

	if _, err := os.Stat(mediaPath); err == nil {
		data, err := os.ReadFile(mediaPath)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		return m.describe(path.Base(mediaPath), data), nil
	}

	client, err := m.client()
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.R2.BucketName),
		Key:    aws.String(mediaPath),
	})
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to fetch media %s: %w", mediaPath, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	media := m.describe(path.Base(mediaPath), data)
	if m.cfg.R2.PublicURL != "" {
		media.URL = strings.TrimRight(m.cfg.R2.PublicURL, "/") + "/" + mediaPath
	}
	return media, nil
}

// Upload stores bytes under a fresh nanoid key and returns the key.
func (m *MediaStore) Upload(ctx context.Context, data []byte, ext string) (string, error) {
	client, err := m.client()
	if err != nil {
		return "", err
	}

	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	key := id + ext

	media := m.describe(key, data)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.cfg.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(media.MIME),
	})
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	return key, nil
}

func (m *MediaStore) describe(name string, data []byte) *Media {
	mime := "application/octet-stream"
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		mime = kind.MIME.Value
	}
	return &Media{FileName: name, MIME: mime, Data: data}
}

// NormalizeJPEG re-encodes an image as bounded-size JPEG. It is a pure
// transform; media that is already JPEG and within bounds passes through.
func NormalizeJPEG(media *Media, maxDim int) (*Media, error) {
	if media == nil {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(media.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode media: %w", err)
	}

	bounds := img.Bounds()
	if media.MIME == "image/jpeg" && bounds.Dx() <= maxDim && bounds.Dy() <= maxDim {
		return media, nil
	}

	if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
		img = downscale(img, maxDim)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode media: %w", err)
	}

	name := strings.TrimSuffix(media.FileName, path.Ext(media.FileName)) + ".jpg"
	out := &Media{FileName: name, MIME: "image/jpeg", Data: buf.Bytes(), URL: media.URL}
	return out, nil
}

// downscale fits img inside a maxDim square with nearest-neighbour
// sampling, which is plenty for social media uploads.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}

	outW := int(float64(w) * scale)
	outH := int(float64(h) * scale)
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	out := image.NewRGBA(image.Rect(0, 0, outW, outH))
	for y := 0; y < outH; y++ {
		srcY := bounds.Min.Y + y*h/outH
		for x := 0; x < outW; x++ {
			srcX := bounds.Min.X + x*w/outW
			out.Set(x, y, img.At(srcX, srcY))
		}
	}
	return out
}
