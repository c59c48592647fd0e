package reconcile

import (
	"context"
	"errors"

	"github.com/laserowo/studio-manager/internal/models"
)

var ErrNotFound = errors.New("record not found")

type ClientRepository interface {
	// FindClients returns up to limit clients whose field equals value.
	// Full-name matches are case-insensitive.
	FindClients(ctx context.Context, field KeyField, value string, limit int) ([]models.Client, error)
	GetClient(ctx context.Context, id uint) (*models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	UpdateClient(ctx context.Context, c *models.Client) error
	SearchClients(ctx context.Context, query string, limit int) ([]models.Client, error)
	DeleteClient(ctx context.Context, id uint) error
}

type ReferenceRepository interface {
	// FindReferences matches on the normalized name.
	FindReferences(ctx context.Context, kind Kind, nameKey string, limit int) ([]models.ReferenceEntity, error)
	GetReference(ctx context.Context, kind Kind, id uint) (*models.ReferenceEntity, error)
	CreateReference(ctx context.Context, kind Kind, ref *models.ReferenceEntity) error
	ListReferences(ctx context.Context, kind Kind) ([]models.ReferenceEntity, error)
}
