package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/laserowo/studio-manager/internal/audit"
	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/metrics"
	"github.com/laserowo/studio-manager/internal/models"
	"github.com/laserowo/studio-manager/internal/spreadsheet"
	usecase "github.com/laserowo/studio-manager/internal/usecase/appointment"
	"github.com/laserowo/studio-manager/internal/usecase/resolver"
	"github.com/laserowo/studio-manager/internal/validators"
)

// ======================================================
// REPORT
// ======================================================

type StreamReport struct {
	Imported        int `json:"imported"`
	Failed          int `json:"failed"`
	Placeholders    int `json:"placeholders,omitempty"`
	SpacingWarnings int `json:"spacing_warnings,omitempty"`
}

// RowError locates a failed row by its sheet line and best-effort
// identifying fields.
type RowError struct {
	Section    spreadsheet.Section `json:"section"`
	Row        int                 `json:"row"`
	Identifier string              `json:"identifier"`
	Error      string              `json:"error"`
}

type Report struct {
	RunID        string        `json:"run_id"`
	Clients      StreamReport  `json:"clients"`
	Appointments StreamReport  `json:"appointments"`
	Errors       []RowError    `json:"errors"`
	Duration     time.Duration `json:"duration_ns"`
}

func (r *Report) ImportedCount() int { return r.Clients.Imported + r.Appointments.Imported }
func (r *Report) FailedCount() int   { return r.Clients.Failed + r.Appointments.Failed }

// ======================================================
// PIPELINE
// ======================================================

type Deps struct {
	Clients      reconcile.ClientRepository
	References   reconcile.ReferenceRepository
	Appointments domain.Repository
	Audit        *audit.Dispatcher
	Metrics      *metrics.StudioMetrics
	Log          zerolog.Logger
}

// Importer loads the clients table and then the appointments table. Rows
// fail independently; only an unreadable source stops a run.
type Importer struct {
	Deps
}

func New(deps Deps) *Importer {
	return &Importer{Deps: deps}
}

// run holds the state of one Run call.
type run struct {
	*Importer
	id       string
	log      zerolog.Logger
	cache    *resolver.Cache
	resolver *resolver.Resolver
	report   *Report
}

func (im *Importer) Run(ctx context.Context, src spreadsheet.Source, userID *uint) (*Report, error) {
	started := time.Now()

	id := uuid.NewString()
	log := im.Log.With().Str("import_run", id).Logger()
	cache := resolver.NewCache()

	r := &run{
		Importer: im,
		id:       id,
		log:      log,
		cache:    cache,
		resolver: resolver.New(im.Clients, im.References, log).WithCache(cache),
		report:   &Report{RunID: id, Errors: []RowError{}},
	}

	log.Info().Msg("import started")

	if err := r.stream(ctx, src, spreadsheet.SectionClients, &r.report.Clients, r.importClient); err != nil {
		return r.report, err
	}
	if err := r.stream(ctx, src, spreadsheet.SectionAppointments, &r.report.Appointments, r.importAppointment); err != nil {
		return r.report, err
	}

	r.report.Duration = time.Since(started)
	im.Metrics.ObserveImportDuration(r.report.Duration.Seconds())

	im.Audit.Dispatch(audit.Event{
		UserID:   userID,
		Action:   "import_completed",
		Entity:   "import",
		Metadata: r.report,
	})

	log.Info().
		Int("clients_imported", r.report.Clients.Imported).
		Int("clients_failed", r.report.Clients.Failed).
		Int("appointments_imported", r.report.Appointments.Imported).
		Int("appointments_failed", r.report.Appointments.Failed).
		Int("spacing_warnings", r.report.Appointments.SpacingWarnings).
		Dur("took", r.report.Duration).
		Msg("import finished")

	return r.report, nil
}

type rowFunc func(ctx context.Context, row spreadsheet.Row, stream *StreamReport) (identifier string, err error)

func (r *run) stream(
	ctx context.Context,
	src spreadsheet.Source,
	section spreadsheet.Section,
	stream *StreamReport,
	fn rowFunc,
) error {

	reader, err := src.Open(ctx, section)
	if err != nil {
		r.log.Error().Err(err).Str("section", string(section)).Msg("cannot open section")
		return fmt.Errorf("import %s: %w", section, err)
	}
	defer reader.Close()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		row, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("import %s: %w", section, err)
		}

		identifier, err := fn(ctx, row, stream)
		if err != nil {
			stream.Failed++
			r.report.Errors = append(r.report.Errors, RowError{
				Section:    section,
				Row:        row.Line,
				Identifier: identifier,
				Error:      err.Error(),
			})
			r.Metrics.ObserveImportRow(string(section), "failed")
			r.log.Warn().Err(err).
				Str("section", string(section)).
				Int("row", row.Line).
				Str("identifier", identifier).
				Msg("row failed")
			continue
		}

		stream.Imported++
		r.Metrics.ObserveImportRow(string(section), "imported")
	}
}

// ======================================================
// CLIENT ROWS
// ======================================================

func (r *run) importClient(ctx context.Context, row spreadsheet.Row, _ *StreamReport) (string, error) {
	name := row.Get(spreadsheet.FieldFullName)
	extID := row.Get(spreadsheet.FieldExternalID)
	phone := row.Get(spreadsheet.FieldPhone)
	email := row.Get(spreadsheet.FieldEmail)

	identifier := describe("name", name, "phone", phone, "email", email, "external_id", extID)

	if name == "" && phone == "" && email == "" && extID == "" {
		return identifier, httperr.Validation("client", "no name, phone, email or external id")
	}

	if email != "" && !validators.IsEmailSyntaxValid(validators.NormalizeEmail(email)) {
		r.log.Warn().Int("row", row.Line).Str("email", email).Msg("invalid email dropped")
		email = ""
		if name == "" && phone == "" && extID == "" {
			return identifier, httperr.Validation("email", "invalid email and no other identifier")
		}
	}

	if name == "" {
		name = "Unknown Client " + shortHex()
		r.log.Warn().Int("row", row.Line).Str("full_name", name).Msg("client without name, generated one")
	}

	attrs := resolver.ClientAttributes{
		PhoneNumber:     phone,
		Email:           email,
		ExternalID:      extID,
		FacebookID:      row.Get(spreadsheet.FieldFacebookID),
		InstagramHandle: row.Get(spreadsheet.FieldInstagram),
		Notes:           row.Get(spreadsheet.FieldNotes),
	}
	attrs.BooksyUsed, _ = parseBool(row.Get(spreadsheet.FieldBooksyUsed))
	attrs.IsBlacklisted, _ = parseBool(row.Get(spreadsheet.FieldIsBlacklisted))
	if v, ok := parseBool(row.Get(spreadsheet.FieldIsActive)); ok {
		attrs.IsActive = &v
	}

	if raw := row.Get(spreadsheet.FieldDateOfBirth); raw != "" {
		if dob, err := parseDate("date_of_birth", raw); err != nil {
			r.log.Warn().Err(err).Int("row", row.Line).Msg("date of birth ignored")
		} else {
			attrs.DateOfBirth = &dob
		}
	}

	keys := resolver.ClientKeys(extID, phone, email, name)
	ref, err := r.resolver.ResolveOrCreate(ctx, reconcile.KindClient, keys, resolver.Fields{Name: name, Client: attrs})
	if err != nil {
		return identifier, err
	}

	r.log.Debug().
		Int("row", row.Line).
		Uint("client_id", ref.ID).
		Bool("created", ref.Created).
		Msg("client row imported")
	return identifier, nil
}

// ======================================================
// APPOINTMENT ROWS
// ======================================================

func (r *run) importAppointment(ctx context.Context, row spreadsheet.Row, stream *StreamReport) (string, error) {
	extID := row.Get(spreadsheet.FieldClientExternal)
	name := row.Get(spreadsheet.FieldClientFullName)
	rawDate := row.Get(spreadsheet.FieldDate)

	identifier := describe(
		"appointment_id", row.Get(spreadsheet.FieldAppointmentID),
		"client", name,
		"client_external_id", extID,
		"date", rawDate,
	)
	warn := func(err error) {
		r.log.Warn().Err(err).Int("row", row.Line).Str("identifier", identifier).Msg("field ignored")
	}

	// --------------------------------------------------
	// Date / time
	// --------------------------------------------------
	date, err := parseDate("date", rawDate)
	if err != nil {
		return identifier, err
	}

	start := domain.DefaultStart
	if raw := row.Get(spreadsheet.FieldStartTime); raw != "" {
		if c, err := parseTime("start_time", raw); err != nil {
			warn(err)
		} else {
			start = c
		}
	}

	end := start.Add(domain.DefaultDuration)
	if raw := row.Get(spreadsheet.FieldEndTime); raw != "" {
		if c, err := parseTime("end_time", raw); err != nil {
			warn(err)
		} else {
			end = domain.ImportEndTime(start, c)
		}
	}

	// --------------------------------------------------
	// Owner
	// --------------------------------------------------
	clientID, err := r.owner(ctx, row, extID, name, stream)
	if err != nil {
		return identifier, err
	}

	ap := &models.Appointment{
		ClientID:  clientID,
		Date:      date,
		StartTime: start.String(),
		EndTime:   end.String(),
		PowerJcm3: row.Get(spreadsheet.FieldPower),
		Status:    string(domain.ImportedStatus()),
		Notes:     row.Get(spreadsheet.FieldNotes),
	}

	// --------------------------------------------------
	// References
	// --------------------------------------------------
	for _, ref := range []struct {
		kind   reconcile.Kind
		field  string
		target **uint
	}{
		{reconcile.KindService, spreadsheet.FieldServiceName, &ap.ServiceID},
		{reconcile.KindTreatmentArea, spreadsheet.FieldAreaName, &ap.AreaID},
		{reconcile.KindPaymentMethod, spreadsheet.FieldPaymentMethod, &ap.PaymentMethodID},
		{reconcile.KindPromotion, spreadsheet.FieldPromotionName, &ap.PromotionID},
		{reconcile.KindHardware, spreadsheet.FieldHardwareName, &ap.HardwareID},
	} {
		name := row.Get(ref.field)
		if name == "" {
			continue
		}
		resolved, err := r.resolver.ResolveReferenceName(ctx, ref.kind, name)
		if err != nil {
			warn(err)
			continue
		}
		id := resolved.ID
		*ref.target = &id
	}

	// --------------------------------------------------
	// Details
	// --------------------------------------------------
	if raw := row.Get(spreadsheet.FieldAmount); raw != "" {
		if v, err := domain.ParseAmount(raw); err != nil {
			warn(err)
		} else {
			ap.Amount = v
		}
	}

	if raw := row.Get(spreadsheet.FieldSessionNumber); raw != "" {
		if n, err := parseSessionNumber(raw); err != nil {
			warn(err)
		} else {
			ap.SessionNumberForArea = &n
		}
	}

	if raw := row.Get(spreadsheet.FieldNextSuggested); raw != "" {
		if d, err := parseDate("next_suggested_appointment_date", raw); err != nil {
			warn(err)
		} else {
			ap.NextSuggestedAppointmentDate = &d
		}
	}

	if raw := row.Get(spreadsheet.FieldStatus); raw != "" {
		if st, ok := domain.ParseStatus(raw); ok {
			ap.Status = string(st)
		} else {
			warn(httperr.ParseError{Field: "status", Value: raw})
		}
	}

	if raw := row.Get(spreadsheet.FieldNextStatus); raw != "" {
		r.log.Debug().Int("row", row.Line).Str("value", raw).Msg("next visit status not stored")
	}

	// --------------------------------------------------
	// Spacing
	// --------------------------------------------------
	spacing, err := usecase.EvaluateSpacing(ctx, r.Appointments, ap)
	if err != nil {
		return identifier, err
	}
	if !spacing.SpacingSatisfied {
		stream.SpacingWarnings++
		r.log.Warn().
			Int("row", row.Line).
			Str("identifier", identifier).
			Str("earliest", *spacing.EarliestDate).
			Msg("session spacing not met")
	}

	// --------------------------------------------------
	// Persist
	// --------------------------------------------------
	err = r.Appointments.WithinTransaction(ctx, func(tx domain.Repository) error {
		return tx.CreateAppointment(ctx, ap)
	})
	if err != nil {
		return identifier, httperr.Persistence("create appointment", err)
	}

	return identifier, nil
}

// owner finds the client of an appointment row: cached external id, cached
// name, a store lookup, and finally a new placeholder client.
func (r *run) owner(
	ctx context.Context,
	row spreadsheet.Row,
	extID, name string,
	stream *StreamReport,
) (uint, error) {

	if ref, ok := r.cache.Lookup(reconcile.KindClient, reconcile.FieldExternalID, extID); ok {
		return ref.ID, nil
	}
	if ref, ok := r.cache.Lookup(reconcile.KindClient, reconcile.FieldFullName, name); ok {
		return ref.ID, nil
	}

	for _, k := range []reconcile.Key{
		{Field: reconcile.FieldExternalID, Value: strings.TrimSpace(extID)},
		{Field: reconcile.FieldFullName, Value: name},
	} {
		if k.Value == "" {
			continue
		}
		rows, err := r.Clients.FindClients(ctx, k.Field, k.Value, 2)
		if err != nil {
			return 0, httperr.Persistence("find client", err)
		}
		if len(rows) == 1 {
			r.cache.RegisterClient(&rows[0])
			return rows[0].ID, nil
		}
	}

	return r.placeholder(ctx, row, extID, name, stream)
}

func (r *run) placeholder(
	ctx context.Context,
	row spreadsheet.Row,
	extID, name string,
	stream *StreamReport,
) (uint, error) {

	if name == "" {
		name = fmt.Sprintf("Unknown Client for appointment row %d", row.Line)
	}

	inactive := false
	ref, err := r.resolver.ResolveOrCreate(ctx, reconcile.KindClient,
		resolver.ClientKeys(extID, "", "", ""),
		resolver.Fields{
			Name: name,
			Client: resolver.ClientAttributes{
				ExternalID: extID,
				Email:      "placeholder_" + shortHex() + "@example.com",
				IsActive:   &inactive,
				Notes:      fmt.Sprintf("Auto-created placeholder for appointment import row %d (run %s).", row.Line, r.id),
			},
		})
	if err != nil {
		return 0, httperr.ClientResolutionError{Reason: "placeholder client", Err: err}
	}

	stream.Placeholders++
	r.log.Warn().
		Int("row", row.Line).
		Uint("client_id", ref.ID).
		Str("full_name", name).
		Msg("placeholder client created")
	return ref.ID, nil
}

func shortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
