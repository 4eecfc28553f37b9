package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

const putRetries = 3

// UploadError means the bucket rejected a write after exhausting retries.
type UploadError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PutResult is the durable location of an uploaded object.
type PutResult struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Client wraps the S3-compatible bucket the pipeline writes generated media to.
type Client struct {
	mc           *minio.Client
	bucket       string
	publicDomain string
}

func NewClient(mc *minio.Client) *Client {
	publicDomain := os.Getenv("R2_PUBLIC_DOMAIN")
	if publicDomain == "" {
		publicDomain = "https://cdn.omniai.app"
	}
	return &Client{
		mc:           mc,
		bucket:       os.Getenv("CLOUDFLARE_R2_BUCKET"),
		publicDomain: strings.TrimRight(publicDomain, "/"),
	}
}

// Put uploads data under key, retrying transient failures with linear backoff.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error) {
	key = strings.TrimLeft(key, "/")
	if contentType == "" {
		contentType = guessContentType(key)
	}

	var lastErr error
	for attempt := 1; attempt <= putRetries; attempt++ {
		_, err := c.mc.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: contentType,
		})
		if err == nil {
			log.Printf("Uploaded %s (%d bytes)", key, len(data))
			return &PutResult{Key: key, URL: c.publicDomain + "/" + key}, nil
		}
		lastErr = err
		log.Printf("Upload attempt %d for %s failed: %v", attempt, key, err)
		if attempt < putRetries {
			select {
			case <-time.After(time.Duration(attempt) * time.Second):
			case <-ctx.Done():
				return nil, &UploadError{Key: key, Attempts: attempt, Err: ctx.Err()}
			}
		}
	}
	return nil, &UploadError{Key: key, Attempts: putRetries, Err: lastErr}
}

// UploadPublic uploads data under a unique key derived from filename.
func (c *Client) UploadPublic(ctx context.Context, filename string, data []byte, contentType string) (*PutResult, error) {
	key := fmt.Sprintf("%s/%s", uuid.NewString(), filename)
	return c.Put(ctx, key, data, contentType)
}

// Presign returns a time-limited GET URL for key.
func (c *Client) Presign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	signed, err := c.mc.PresignedGetObject(ctx, c.bucket, strings.TrimLeft(key, "/"), ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return signed.String(), nil
}

func guessContentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".png"):
		return "image/png"
	case strings.HasSuffix(key, ".jpg"), strings.HasSuffix(key, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(key, ".mp4"):
		return "video/mp4"
	case strings.HasSuffix(key, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(key, ".mp3"):
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
