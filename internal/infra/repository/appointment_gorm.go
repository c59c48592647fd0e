package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/models"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

func (r *AppointmentGormRepository) withReferences(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Service").
		Preload("Area").
		Preload("PaymentMethod").
		Preload("Promotion").
		Preload("Hardware")
}

// --------------------------------------------------
// Appointment (create / read)
// --------------------------------------------------

func (r *AppointmentGormRepository) CreateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(ap).Error
}

func (r *AppointmentGormRepository) GetAppointment(
	ctx context.Context,
	id uint,
) (*models.Appointment, error) {

	var ap models.Appointment
	if err := r.withReferences(ctx).First(&ap, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &ap, nil
}

// --------------------------------------------------
// Appointment (state change)
// --------------------------------------------------

func (r *AppointmentGormRepository) UpdateAppointment(
	ctx context.Context,
	ap *models.Appointment,
) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(ap).Error
}

func (r *AppointmentGormRepository) DeleteAppointment(
	ctx context.Context,
	id uint,
) error {
	res := r.db.WithContext(ctx).Delete(&models.Appointment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --------------------------------------------------
// Session spacing
// --------------------------------------------------

func (r *AppointmentGormRepository) LatestCompletedSession(
	ctx context.Context,
	clientID uint,
	areaID uint,
	onOrBefore time.Time,
) (*models.Appointment, error) {

	var apps []models.Appointment
	if err := r.db.WithContext(ctx).
		Where(
			"client_id = ? AND area_id = ? AND status = ? AND date <= ?",
			clientID, areaID, string(domain.StatusCompleted), onOrBefore,
		).
		Order("date DESC, start_time DESC").
		Limit(1).
		Find(&apps).Error; err != nil {
		return nil, err
	}

	if len(apps) == 0 {
		return nil, nil
	}
	return &apps[0], nil
}

// --------------------------------------------------
// Listing
// --------------------------------------------------

func (r *AppointmentGormRepository) ListAppointmentsForPeriod(
	ctx context.Context,
	start time.Time,
	end time.Time,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	err := r.withReferences(ctx).
		Where("date >= ? AND date < ?", start, end).
		Order("date ASC, start_time ASC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) ListAppointmentsForClient(
	ctx context.Context,
	clientID uint,
) ([]models.Appointment, error) {

	var apps []models.Appointment
	err := r.withReferences(ctx).
		Where("client_id = ?", clientID).
		Order("date DESC, start_time DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) SearchAppointments(
	ctx context.Context,
	query string,
) ([]models.Appointment, error) {

	like := "%" + models.NameKey(query) + "%"

	var apps []models.Appointment
	err := r.withReferences(ctx).
		Select("appointments.*").
		Joins("JOIN clients ON clients.id = appointments.client_id").
		Joins("LEFT JOIN services ON services.id = appointments.service_id").
		Joins("LEFT JOIN treatment_areas ON treatment_areas.id = appointments.area_id").
		Where(
			"clients.full_name_key LIKE ? OR services.name_key LIKE ? OR treatment_areas.name_key LIKE ? OR LOWER(appointments.status) LIKE ?",
			like, like, like, strings.ToLower(like),
		).
		Order("appointments.date DESC").
		Find(&apps).Error
	if err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) CountAppointmentsForClient(
	ctx context.Context,
	clientID uint,
) (int64, error) {

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}

func (r *AppointmentGormRepository) WithinTransaction(
	ctx context.Context,
	fn func(tx domain.Repository) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AppointmentGormRepository{db: tx})
	})
}

// Compile-time check
var _ domain.Repository = (*AppointmentGormRepository)(nil)
