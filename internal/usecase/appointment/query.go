package appointment

import (
	"context"
	"strings"
	"time"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
)

// ======================================================
// GET
// ======================================================

type GetAppointment struct {
	repo domain.Repository
}

func NewGetAppointment(repo domain.Repository) *GetAppointment {
	return &GetAppointment{repo: repo}
}

func (uc *GetAppointment) Execute(ctx context.Context, id uint) (*dto.AppointmentDTO, error) {
	ap, err := load(ctx, uc.repo, id)
	if err != nil {
		return nil, err
	}
	view := dto.NewAppointmentDTO(ap)
	return &view, nil
}

// ======================================================
// LIST
// ======================================================

// ListAppointmentsInput selects one day, one month or one client.
type ListAppointmentsInput struct {
	Date     string `json:"date"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	ClientID *uint  `json:"client_id"`
}

type ListAppointments struct {
	repo domain.Repository
}

func NewListAppointments(repo domain.Repository) *ListAppointments {
	return &ListAppointments{repo: repo}
}

func (uc *ListAppointments) Execute(
	ctx context.Context,
	in ListAppointmentsInput,
) ([]dto.AppointmentListDTO, error) {

	switch {
	case in.ClientID != nil:
		aps, err := uc.repo.ListAppointmentsForClient(ctx, *in.ClientID)
		if err != nil {
			return nil, httperr.Persistence("list client appointments", err)
		}
		return dto.NewAppointmentList(aps), nil

	case strings.TrimSpace(in.Date) != "":
		start, err := domain.ParseDate(in.Date)
		if err != nil {
			return nil, httperr.Validation("date", "expected YYYY-MM-DD")
		}
		return uc.period(ctx, start, start.AddDate(0, 0, 1))

	case in.Year > 0 && in.Month >= 1 && in.Month <= 12:
		start := time.Date(in.Year, time.Month(in.Month), 1, 0, 0, 0, 0, time.UTC)
		return uc.period(ctx, start, start.AddDate(0, 1, 0))
	}

	return nil, httperr.Validation("date", "date, year/month or client_id required")
}

func (uc *ListAppointments) period(ctx context.Context, start, end time.Time) ([]dto.AppointmentListDTO, error) {
	aps, err := uc.repo.ListAppointmentsForPeriod(ctx, start, end)
	if err != nil {
		return nil, httperr.Persistence("list appointments", err)
	}
	return dto.NewAppointmentList(aps), nil
}

// ======================================================
// SEARCH
// ======================================================

type SearchAppointments struct {
	repo domain.Repository
}

func NewSearchAppointments(repo domain.Repository) *SearchAppointments {
	return &SearchAppointments{repo: repo}
}

// Execute matches client, service or area names and the status.
func (uc *SearchAppointments) Execute(ctx context.Context, query string) ([]dto.AppointmentListDTO, error) {
	if strings.TrimSpace(query) == "" {
		return nil, httperr.Validation("query", "")
	}
	aps, err := uc.repo.SearchAppointments(ctx, query)
	if err != nil {
		return nil, httperr.Persistence("search appointments", err)
	}
	return dto.NewAppointmentList(aps), nil
}
