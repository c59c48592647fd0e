package appointment

import (
	"context"

	domain "github.com/laserowo/studio-manager/internal/domain/appointment"
	"github.com/laserowo/studio-manager/internal/domain/reconcile"
	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/models"
)

// SpacingResult describes how a proposed session relates to the latest
// completed one in the same area.
type SpacingResult struct {
	SpacingSatisfied      bool    `json:"spacing_satisfied"`
	PreviousSessionDate   *string `json:"previous_session_date,omitempty"`
	PreviousSessionNumber *int    `json:"previous_session_number,omitempty"`
	MinimumWaitWeeks      int     `json:"minimum_wait_weeks"`
	EarliestDate          *string `json:"earliest_date,omitempty"`
}

// EvaluateSpacing looks up the client's latest completed session in the
// appointment's area and applies the spacing rule. Appointments without an
// area are always satisfied.
func EvaluateSpacing(ctx context.Context, repo domain.Repository, ap *models.Appointment) (SpacingResult, error) {
	return evaluateSpacing(ctx, repo, ap)
}

func evaluateSpacing(ctx context.Context, repo domain.Repository, ap *models.Appointment) (SpacingResult, error) {
	if ap.AreaID == nil {
		return SpacingResult{SpacingSatisfied: true}, nil
	}

	prev, err := repo.LatestCompletedSession(ctx, ap.ClientID, *ap.AreaID, ap.Date)
	if err != nil {
		return SpacingResult{}, httperr.Persistence("latest completed session", err)
	}
	if prev == nil {
		return SpacingResult{SpacingSatisfied: true}, nil
	}

	// a missing session number falls outside the table
	number := 0
	if prev.SessionNumberForArea != nil {
		number = *prev.SessionNumberForArea
	}

	record := domain.SessionRecord{AreaID: *ap.AreaID, SessionNumber: number, Date: prev.Date}
	proposed := domain.SessionRecord{AreaID: *ap.AreaID, Date: ap.Date}
	if ap.SessionNumberForArea != nil {
		proposed.SessionNumber = *ap.SessionNumberForArea
	}

	prevDate := prev.Date.Format(dto.DateLayout)
	earliest := domain.EarliestNextSession(record).Format(dto.DateLayout)

	return SpacingResult{
		SpacingSatisfied:      domain.IsSpacingSatisfied(&record, proposed),
		PreviousSessionDate:   &prevDate,
		PreviousSessionNumber: prev.SessionNumberForArea,
		MinimumWaitWeeks:      domain.MinimumWaitWeeks(number),
		EarliestDate:          &earliest,
	}, nil
}

// ======================================================
// CHECK SPACING (read only)
// ======================================================

type CheckSpacingInput struct {
	ClientID      uint   `json:"client_id"`
	AreaID        *uint  `json:"area_id"`
	AreaName      string `json:"area_name"`
	SessionNumber *int   `json:"session_number"`
	Date          string `json:"date"`
}

type CheckSpacing struct {
	repo domain.Repository
	refs reconcile.ReferenceRepository
}

func NewCheckSpacing(
	repo domain.Repository,
	refs reconcile.ReferenceRepository,
) *CheckSpacing {
	return &CheckSpacing{
		repo: repo,
		refs: refs,
	}
}

// Execute never creates the area; an unknown area name has no history.
func (uc *CheckSpacing) Execute(
	ctx context.Context,
	in CheckSpacingInput,
) (SpacingResult, error) {

	date, err := domain.ParseDate(in.Date)
	if err != nil {
		return SpacingResult{}, httperr.Validation("date", "expected YYYY-MM-DD")
	}
	if in.ClientID == 0 {
		return SpacingResult{}, httperr.Validation("client_id", "")
	}

	areaID := in.AreaID
	if areaID == nil {
		key := reconcile.NormalizeName(in.AreaName)
		if key == "" {
			return SpacingResult{}, httperr.Validation("area", "area_id or area_name required")
		}
		rows, err := uc.refs.FindReferences(ctx, reconcile.KindTreatmentArea, key, 1)
		if err != nil {
			return SpacingResult{}, httperr.Persistence("find area", err)
		}
		if len(rows) == 0 {
			return SpacingResult{SpacingSatisfied: true}, nil
		}
		areaID = &rows[0].ID
	}

	return evaluateSpacing(ctx, uc.repo, &models.Appointment{
		ClientID:             in.ClientID,
		AreaID:               areaID,
		Date:                 date,
		SessionNumberForArea: in.SessionNumber,
	})
}
