// Package actions exposes every studio operation under a stable action name
// with JSON arguments. The HTTP action endpoint and the CLI both go through
// a Dispatcher.
package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/laserowo/studio-manager/internal/audit"
	apdomain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/metrics"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/spreadsheet"
	ucAppointment "github.com/laserowo/studio-manager/internal/usecase/appointment"
	ucClient "github.com/laserowo/studio-manager/internal/usecase/client"
	"github.com/laserowo/studio-manager/internal/usecase/importer"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
)

// ======================================================
// WIRING
// ======================================================

type Deps struct {
	Appointments apdomain.Repository
	Clients      reconcile.ClientRepository
	References   reconcile.ReferenceRepository

	Audit   *audit.Dispatcher
	Metrics *metrics.StudioMetrics
	Log     zerolog.Logger

	Timezone       string
	EnforceSpacing bool

	// Mapping and S3 configure import_spreadsheet.
	Mapping *spreadsheet.Mapping
	S3      spreadsheet.S3Config
}

type handlerFunc func(ctx context.Context, userID *uint, args json.RawMessage) (any, error)

// adminOnly lists the actions network callers may run only as admin.
var adminOnly = map[string]bool{
	"import_spreadsheet": true,
}

type remoteKey struct{}

// Remote marks ctx as coming from a network caller. Remote callers cannot
// point import_spreadsheet at local files.
func Remote(ctx context.Context) context.Context {
	return context.WithValue(ctx, remoteKey{}, true)
}

func isRemote(ctx context.Context) bool {
	v, _ := ctx.Value(remoteKey{}).(bool)
	return v
}

// Dispatcher routes action names to use cases.
type Dispatcher struct {
	resolver   *resolver.Resolver
	importer   *importer.Importer
	references reconcile.ReferenceRepository
	mapping    *spreadsheet.Mapping
	s3         spreadsheet.S3Config
	log        zerolog.Logger

	handlers map[string]handlerFunc
}

func New(deps Deps) *Dispatcher {
	log := deps.Log.With().Str("component", "actions").Logger()

	res := resolver.New(deps.Clients, deps.References, deps.Log)
	apDeps := ucAppointment.Deps{
		Repo:           deps.Appointments,
		Resolver:       res,
		Audit:          deps.Audit,
		Metrics:        deps.Metrics,
		Log:            deps.Log,
		Timezone:       deps.Timezone,
		EnforceSpacing: deps.EnforceSpacing,
	}

	mapping := deps.Mapping
	if mapping == nil {
		mapping = spreadsheet.DefaultMapping()
	}

	d := &Dispatcher{
		resolver: res,
		importer: importer.New(importer.Deps{
			Clients:      deps.Clients,
			References:   deps.References,
			Appointments: deps.Appointments,
			Audit:        deps.Audit,
			Metrics:      deps.Metrics,
			Log:          deps.Log,
		}),
		references: deps.References,
		mapping:    mapping,
		s3:         deps.S3,
		log:        log,
	}

	// --------------------------------------------------
	// Appointments
	// --------------------------------------------------
	createUC := ucAppointment.NewCreateAppointment(apDeps)
	updateUC := ucAppointment.NewUpdateAppointment(apDeps)
	cancelUC := ucAppointment.NewCancelAppointment(apDeps)
	rescheduleUC := ucAppointment.NewRescheduleAppointment(apDeps)
	completeUC := ucAppointment.NewCompleteAppointment(apDeps)
	deleteUC := ucAppointment.NewDeleteAppointment(apDeps)
	getUC := ucAppointment.NewGetAppointment(deps.Appointments)
	listUC := ucAppointment.NewListAppointments(deps.Appointments)
	searchUC := ucAppointment.NewSearchAppointments(deps.Appointments)
	spacingUC := ucAppointment.NewCheckSpacing(deps.Appointments, deps.References)

	// --------------------------------------------------
	// Clients
	// --------------------------------------------------
	searchClientsUC := ucClient.NewSearchClients(deps.Clients)
	getClientUC := ucClient.NewGetClient(deps.Clients, deps.Appointments)
	deactivateUC := ucClient.NewDeactivateClient(deps.Clients, deps.Appointments, deps.Audit, deps.Log)

	d.handlers = map[string]handlerFunc{
		"create_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			var in ucAppointment.CreateAppointmentInput
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			in.UserID = userID
			return createUC.Execute(ctx, in)
		},
		"update_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			var in ucAppointment.UpdateAppointmentInput
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			if in.AppointmentID == 0 {
				return nil, httperr.Validation("id", "")
			}
			in.UserID = userID
			return updateUC.Execute(ctx, in)
		},
		"cancel_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			return cancelUC.Execute(ctx, userID, id)
		},
		"reschedule_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			var in ucAppointment.RescheduleAppointmentInput
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			if in.AppointmentID == 0 {
				return nil, httperr.Validation("id", "")
			}
			in.UserID = userID
			return rescheduleUC.Execute(ctx, in)
		},
		"complete_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			return completeUC.Execute(ctx, userID, id)
		},
		"delete_appointment": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			if err := deleteUC.Execute(ctx, userID, id); err != nil {
				return nil, err
			}
			return map[string]any{"id": id, "deleted": true}, nil
		},
		"get_appointment": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			return getUC.Execute(ctx, id)
		},
		"list_appointments": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			var in ucAppointment.ListAppointmentsInput
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			return listUC.Execute(ctx, in)
		},
		"search_appointments": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			var in queryArgs
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			return searchUC.Execute(ctx, in.Query)
		},
		"check_spacing": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			var in ucAppointment.CheckSpacingInput
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			return spacingUC.Execute(ctx, in)
		},

		"search_clients": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			var in queryArgs
			if err := decode(args, &in); err != nil {
				return nil, err
			}
			return searchClientsUC.Execute(ctx, in.Query, in.Limit)
		},
		"get_client": func(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			return getClientUC.Execute(ctx, id)
		},
		"deactivate_client": func(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
			id, err := decodeID(args)
			if err != nil {
				return nil, err
			}
			return deactivateUC.Execute(ctx, userID, id)
		},

		"resolve_client":     d.resolveClient,
		"resolve_reference":  d.resolveReference,
		"list_references":    d.listReferences,
		"import_spreadsheet": d.importSpreadsheet,
	}

	return d
}

// Names lists the registered actions in alphabetical order.
func (d *Dispatcher) Names() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AdminOnly reports whether network callers need the admin role for action.
func (d *Dispatcher) AdminOnly(action string) bool {
	return adminOnly[strings.TrimSpace(action)]
}

// Dispatch runs one action. Empty args are treated as an empty object.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	userID *uint,
	action string,
	args json.RawMessage,
) (any, error) {

	h, ok := d.handlers[strings.TrimSpace(action)]
	if !ok {
		return nil, httperr.ErrBusiness(httperr.CodeUnknownAction)
	}

	out, err := h(ctx, userID, args)
	if err != nil {
		d.log.Debug().Err(err).Str("action", action).Msg("action failed")
		return nil, err
	}
	return out, nil
}

// Import runs the pipeline over an already opened source.
func (d *Dispatcher) Import(ctx context.Context, userID *uint, src spreadsheet.Source) (*importer.Report, error) {
	return d.importer.Run(ctx, src, userID)
}

// Mapping is the column mapping used by import_spreadsheet.
func (d *Dispatcher) Mapping() *spreadsheet.Mapping { return d.mapping }

// ======================================================
// RECONCILIATION
// ======================================================

type resolveClientArgs struct {
	FullName        string  `json:"full_name"`
	PhoneNumber     string  `json:"phone_number"`
	Email           string  `json:"email"`
	ExternalID      string  `json:"external_id"`
	DateOfBirth     *string `json:"date_of_birth"`
	FacebookID      string  `json:"facebook_id"`
	InstagramHandle string  `json:"instagram_handle"`
	BooksyUsed      bool    `json:"booksy_used"`
	IsBlacklisted   bool    `json:"is_blacklisted"`
	IsActive        *bool   `json:"is_active"`
	Notes           string  `json:"notes"`
}

func (d *Dispatcher) resolveClient(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
	var in resolveClientArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	keys := resolver.ClientKeys(in.ExternalID, in.PhoneNumber, in.Email, in.FullName)
	if len(keys) == 0 {
		return nil, httperr.ClientResolutionError{Reason: "no name, phone, email or external id"}
	}

	attrs := resolver.ClientAttributes{
		PhoneNumber:     in.PhoneNumber,
		Email:           in.Email,
		ExternalID:      in.ExternalID,
		FacebookID:      in.FacebookID,
		InstagramHandle: in.InstagramHandle,
		BooksyUsed:      in.BooksyUsed,
		IsBlacklisted:   in.IsBlacklisted,
		IsActive:        in.IsActive,
		Notes:           in.Notes,
	}
	if in.DateOfBirth != nil && *in.DateOfBirth != "" {
		dob, err := apdomain.ParseDate(*in.DateOfBirth)
		if err != nil {
			return nil, httperr.Validation("date_of_birth", err.Error())
		}
		attrs.DateOfBirth = &dob
	}

	return d.resolver.ResolveOrCreate(ctx, reconcile.KindClient, keys, resolver.Fields{
		Name:   in.FullName,
		Client: attrs,
	})
}

type referenceKindArgs struct {
	Kind string `json:"kind"`
}

func parseReferenceKind(s string) (reconcile.Kind, error) {
	kind, err := reconcile.ParseKind(s)
	if err != nil || !kind.IsReference() {
		return "", httperr.Validation("kind", "expected one of service, treatment_area, payment_method, promotion, hardware")
	}
	return kind, nil
}

func (d *Dispatcher) listReferences(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
	var in referenceKindArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	kind, err := parseReferenceKind(in.Kind)
	if err != nil {
		return nil, err
	}

	refs, err := d.references.ListReferences(ctx, kind)
	if err != nil {
		return nil, httperr.Persistence("list references", err)
	}
	if refs == nil {
		refs = []models.ReferenceEntity{}
	}
	return refs, nil
}

type resolveReferenceArgs struct {
	Kind        string `json:"kind"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (d *Dispatcher) resolveReference(ctx context.Context, _ *uint, args json.RawMessage) (any, error) {
	var in resolveReferenceArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	kind, err := parseReferenceKind(in.Kind)
	if err != nil {
		return nil, err
	}

	return d.resolver.ResolveOrCreate(ctx, kind,
		[]reconcile.Key{{Field: reconcile.FieldName, Value: in.Name}},
		resolver.Fields{Name: in.Name, Description: in.Description},
	)
}

// ======================================================
// IMPORT
// ======================================================

type importArgs struct {
	File              string `json:"file"`
	CSVDir            string `json:"csv_dir"`
	S3Bucket          string `json:"s3_bucket"`
	S3Key             string `json:"s3_key"`
	ClientsSheet      string `json:"clients_sheet"`
	AppointmentsSheet string `json:"appointments_sheet"`
}

func (d *Dispatcher) importSpreadsheet(ctx context.Context, userID *uint, args json.RawMessage) (any, error) {
	var in importArgs
	if err := decode(args, &in); err != nil {
		return nil, err
	}

	if isRemote(ctx) && (in.File != "" || in.CSVDir != "") {
		return nil, httperr.Validation("source", "local paths are accepted only from the command line")
	}

	mapping := d.mapping.WithSheets(in.ClientsSheet, in.AppointmentsSheet)
	src, err := spreadsheet.Open(ctx, spreadsheet.Location{
		File:     in.File,
		CSVDir:   in.CSVDir,
		S3Bucket: in.S3Bucket,
		S3Key:    in.S3Key,
	}, mapping, d.s3)
	if err != nil {
		return nil, httperr.Validation("source", err.Error())
	}
	defer src.Close()

	return d.importer.Run(ctx, src, userID)
}

// ======================================================
// ARGUMENTS
// ======================================================

type idArgs struct {
	ID uint `json:"id"`
}

type queryArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func decode(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return httperr.Validation("args", err.Error())
	}
	return nil
}

func decodeID(args json.RawMessage) (uint, error) {
	var in idArgs
	if err := decode(args, &in); err != nil {
		return 0, err
	}
	if in.ID == 0 {
		return 0, httperr.Validation("id", "")
	}
	return in.ID, nil
}
