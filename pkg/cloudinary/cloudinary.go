package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned by New when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary credentials must be provided")

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Configured reports whether every credential is present.
func (c Config) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// DocumentStore uploads post documents as raw Cloudinary assets.
type DocumentStore struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a document store.
func New(cfg Config, logger zerolog.Logger) (*DocumentStore, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &DocumentStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the document under name and returns its public HTTPS URL.
func (s *DocumentStore) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	publicID := documentPublicID(name)
	if publicID == "" {
		return "", fmt.Errorf("document name must not be empty")
	}

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		ResourceType:   "raw",
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(true),
		Tags:           []string{"post-document"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload document: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("cloudinary rejected document: %s", result.Error.Message)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Int("bytes", result.Bytes).
		Msg("document uploaded")

	return result.SecureURL, nil
}

// documentPublicID keeps the extension, since raw assets are served by their
// full public id.
func documentPublicID(name string) string {
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == "/" {
		return ""
	}
	return name
}
