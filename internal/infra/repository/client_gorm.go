package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/models"
)

type ClientGormRepository struct {
	db *gorm.DB
}

func NewClientGormRepository(db *gorm.DB) *ClientGormRepository {
	return &ClientGormRepository{db: db}
}

func (r *ClientGormRepository) FindClients(
	ctx context.Context,
	field reconcile.KeyField,
	value string,
	limit int,
) ([]models.Client, error) {

	q := r.db.WithContext(ctx)

	switch field {
	case reconcile.FieldExternalID:
		q = q.Where("external_id = ?", value)
	case reconcile.FieldPhone:
		q = q.Where("phone_number = ?", value)
	case reconcile.FieldEmail:
		q = q.Where("email = ?", value)
	case reconcile.FieldFullName:
		q = q.Where("full_name_key = ?", models.NameKey(value))
	default:
		return nil, fmt.Errorf("client lookup by %q not supported", field)
	}

	var clients []models.Client
	if err := q.Order("id ASC").Limit(limit).Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientGormRepository) GetClient(
	ctx context.Context,
	id uint,
) (*models.Client, error) {

	var client models.Client
	if err := r.db.WithContext(ctx).First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *ClientGormRepository) CreateClient(
	ctx context.Context,
	client *models.Client,
) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientGormRepository) UpdateClient(
	ctx context.Context,
	client *models.Client,
) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *ClientGormRepository) SearchClients(
	ctx context.Context,
	query string,
	limit int,
) ([]models.Client, error) {

	q := r.db.WithContext(ctx)

	if key := models.NameKey(query); key != "" {
		like := "%" + key + "%"
		q = q.Where(
			"full_name_key LIKE ? OR phone_number LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var clients []models.Client
	if err := q.
		Order("full_name_key ASC").
		Limit(limit).
		Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *ClientGormRepository) DeleteClient(
	ctx context.Context,
	id uint,
) error {
	res := r.db.WithContext(ctx).Delete(&models.Client{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return reconcile.ErrNotFound
	}
	return nil
}

var _ reconcile.ClientRepository = (*ClientGormRepository)(nil)
