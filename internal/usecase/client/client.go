package client

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/laserowo/studio-manager/internal/audit"
	apdomain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
)

const defaultSearchLimit = 50

// ======================================================
// SEARCH
// ======================================================

type SearchClients struct {
	clients reconcile.ClientRepository
}

func NewSearchClients(clients reconcile.ClientRepository) *SearchClients {
	return &SearchClients{clients: clients}
}

// Execute matches a substring of the name, phone or email. An empty query
// lists clients alphabetically.
func (uc *SearchClients) Execute(ctx context.Context, query string, limit int) ([]dto.ClientDTO, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultSearchLimit
	}
	rows, err := uc.clients.SearchClients(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, httperr.Persistence("search clients", err)
	}
	return dto.NewClientList(rows), nil
}

// ======================================================
// GET
// ======================================================

type GetClient struct {
	clients      reconcile.ClientRepository
	appointments apdomain.Repository
}

func NewGetClient(
	clients reconcile.ClientRepository,
	appointments apdomain.Repository,
) *GetClient {
	return &GetClient{
		clients:      clients,
		appointments: appointments,
	}
}

func (uc *GetClient) Execute(ctx context.Context, id uint) (*dto.ClientDetailDTO, error) {
	c, err := loadClient(ctx, uc.clients, id)
	if err != nil {
		return nil, err
	}

	aps, err := uc.appointments.ListAppointmentsForClient(ctx, id)
	if err != nil {
		return nil, httperr.Persistence("list client appointments", err)
	}

	return &dto.ClientDetailDTO{
		ClientDTO:    dto.NewClientDTO(c),
		Appointments: dto.NewAppointmentList(aps),
	}, nil
}

// ======================================================
// DEACTIVATE
// ======================================================

type DeactivateResult struct {
	ClientID uint `json:"client_id"`
	Deleted  bool `json:"deleted"`
}

// DeactivateClient removes a client without history and only marks one with
// appointments inactive.
type DeactivateClient struct {
	clients      reconcile.ClientRepository
	appointments apdomain.Repository
	audit        *audit.Dispatcher
	log          zerolog.Logger
}

func NewDeactivateClient(
	clients reconcile.ClientRepository,
	appointments apdomain.Repository,
	audit *audit.Dispatcher,
	log zerolog.Logger,
) *DeactivateClient {
	return &DeactivateClient{
		clients:      clients,
		appointments: appointments,
		audit:        audit,
		log:          log,
	}
}

func (uc *DeactivateClient) Execute(ctx context.Context, userID *uint, id uint) (*DeactivateResult, error) {
	c, err := loadClient(ctx, uc.clients, id)
	if err != nil {
		return nil, err
	}

	n, err := uc.appointments.CountAppointmentsForClient(ctx, id)
	if err != nil {
		return nil, httperr.Persistence("count appointments", err)
	}

	res := &DeactivateResult{ClientID: id}
	action := "client_deactivated"

	if n == 0 {
		if err := uc.clients.DeleteClient(ctx, id); err != nil {
			return nil, httperr.Persistence("delete client", err)
		}
		res.Deleted = true
		action = "client_deleted"
	} else {
		c.IsActive = false
		if err := uc.clients.UpdateClient(ctx, c); err != nil {
			return nil, httperr.Persistence("deactivate client", err)
		}
	}

	uc.audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   action,
		Entity:   "client",
		EntityID: &id,
	})
	uc.log.Info().Uint("client_id", id).Bool("deleted", res.Deleted).Msg(action)

	return res, nil
}

func loadClient(ctx context.Context, clients reconcile.ClientRepository, id uint) (*models.Client, error) {
	c, err := clients.GetClient(ctx, id)
	if errors.Is(err, reconcile.ErrNotFound) {
		return nil, httperr.ErrBusiness(httperr.CodeClientNotFound)
	}
	if err != nil {
		return nil, httperr.Persistence("load client", err)
	}
	return c, nil
}
