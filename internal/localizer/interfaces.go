package localizer

import (
	"context"

	"github.com/takak2166/leanote2md/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=mock_localizer/mock_localizer.go -package=mock_localizer
type (
	// Fetcher downloads the resources a note links to
	Fetcher interface {
		GetImage(ctx context.Context, sess *models.Session, fileID string) ([]byte, string, error)
		GetAttach(ctx context.Context, sess *models.Session, fileID string) ([]byte, string, error)
		Download(ctx context.Context, rawURL string) (*models.Download, error)
	}

	// Store is the part of the filesystem the localizer writes to
	Store interface {
		Exists(path string) (bool, error)
		EnsureDir(dir string) error
		WriteFile(path string, data []byte) error
	}
)
