package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/models"
)

type ReferenceGormRepository struct {
	db *gorm.DB
}

func NewReferenceGormRepository(db *gorm.DB) *ReferenceGormRepository {
	return &ReferenceGormRepository{db: db}
}

type referenceModel interface {
	Base() *models.ReferenceEntity
}

func newReferenceModel(kind reconcile.Kind) (referenceModel, error) {
	switch kind {
	case reconcile.KindService:
		return &models.Service{Active: true}, nil
	case reconcile.KindTreatmentArea:
		return &models.TreatmentArea{}, nil
	case reconcile.KindPaymentMethod:
		return &models.PaymentMethod{}, nil
	case reconcile.KindPromotion:
		return &models.Promotion{Active: true}, nil
	case reconcile.KindHardware:
		return &models.Hardware{Active: true}, nil
	}
	return nil, fmt.Errorf("%q is not a reference kind", kind)
}

func tableFor(kind reconcile.Kind) (string, error) {
	switch kind {
	case reconcile.KindService:
		return "services", nil
	case reconcile.KindTreatmentArea:
		return "treatment_areas", nil
	case reconcile.KindPaymentMethod:
		return "payment_methods", nil
	case reconcile.KindPromotion:
		return "promotions", nil
	case reconcile.KindHardware:
		return "hardware", nil
	}
	return "", fmt.Errorf("%q is not a reference kind", kind)
}

func (r *ReferenceGormRepository) FindReferences(
	ctx context.Context,
	kind reconcile.Kind,
	nameKey string,
	limit int,
) ([]models.ReferenceEntity, error) {

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var refs []models.ReferenceEntity
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("name_key = ?", nameKey).
		Order("id ASC").
		Limit(limit).
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *ReferenceGormRepository) GetReference(
	ctx context.Context,
	kind reconcile.Kind,
	id uint,
) (*models.ReferenceEntity, error) {

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var ref models.ReferenceEntity
	if err := r.db.WithContext(ctx).
		Table(table).
		Where("id = ?", id).
		Take(&ref).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, reconcile.ErrNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *ReferenceGormRepository) CreateReference(
	ctx context.Context,
	kind reconcile.Kind,
	ref *models.ReferenceEntity,
) error {

	m, err := newReferenceModel(kind)
	if err != nil {
		return err
	}

	base := m.Base()
	base.Name = ref.Name
	base.NameKey = models.NameKey(ref.Name)
	base.Description = ref.Description

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}

	*ref = *base
	return nil
}

func (r *ReferenceGormRepository) ListReferences(
	ctx context.Context,
	kind reconcile.Kind,
) ([]models.ReferenceEntity, error) {

	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	var refs []models.ReferenceEntity
	if err := r.db.WithContext(ctx).
		Table(table).
		Order("name_key ASC").
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

var _ reconcile.ReferenceRepository = (*ReferenceGormRepository)(nil)
