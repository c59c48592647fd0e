package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laserowo/studio-manager/internal/dto"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/httpresp"
	"github.com/laserowo/studio-manager/internal/middleware"
	"github.com/laserowo/studio-manager/internal/timezone"
	ucAppointment "github.com/laserowo/studio-manager/internal/usecase/appointment"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	create     *ucAppointment.CreateAppointment
	update     *ucAppointment.UpdateAppointment
	cancel     *ucAppointment.CancelAppointment
	complete   *ucAppointment.CompleteAppointment
	reschedule *ucAppointment.RescheduleAppointment
	get        *ucAppointment.GetAppointment
	list       *ucAppointment.ListAppointments

	timezone string
}

func NewAppointmentHandler(
	create *ucAppointment.CreateAppointment,
	update *ucAppointment.UpdateAppointment,
	cancel *ucAppointment.CancelAppointment,
	complete *ucAppointment.CompleteAppointment,
	reschedule *ucAppointment.RescheduleAppointment,
	get *ucAppointment.GetAppointment,
	list *ucAppointment.ListAppointments,
	tz string,
) *AppointmentHandler {
	return &AppointmentHandler{
		create:     create,
		update:     update,
		cancel:     cancel,
		complete:   complete,
		reschedule: reschedule,
		get:        get,
		list:       list,
		timezone:   tz,
	}
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var in ucAppointment.CreateAppointmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	in.UserID = middleware.UserID(c)

	res, err := h.create.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.Created(c, res)
}

// ======================================================
// UPDATE
// ======================================================

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var in ucAppointment.UpdateAppointmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	in.AppointmentID = id
	in.UserID = middleware.UserID(c)

	res, err := h.update.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}

// ======================================================
// GET / LIST
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ap, err := h.get.Execute(c.Request.Context(), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

// ListByDate defaults to today in the studio's timezone.
func (h *AppointmentHandler) ListByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = timezone.Today(h.timezone).Format(dto.DateLayout)
	}

	aps, err := h.list.Execute(c.Request.Context(), ucAppointment.ListAppointmentsInput{Date: date})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.List(c, aps)
}

func (h *AppointmentHandler) ListByMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		httperr.BadRequest(c, "invalid_year", "year must be between 2000 and 2100")
		return
	}

	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		httperr.BadRequest(c, "invalid_month", "month must be between 1 and 12")
		return
	}

	aps, err := h.list.Execute(c.Request.Context(), ucAppointment.ListAppointmentsInput{Year: year, Month: month})
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":         year,
		"month":        month,
		"appointments": aps,
	})
}

// ======================================================
// STATE CHANGES
// ======================================================

func (h *AppointmentHandler) Complete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ap, err := h.complete.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	ap, err := h.cancel.Execute(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, ap)
}

func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var in ucAppointment.RescheduleAppointmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httperr.BadRequest(c, "invalid_request", err.Error())
		return
	}
	in.AppointmentID = id
	in.UserID = middleware.UserID(c)

	res, err := h.reschedule.Execute(c.Request.Context(), in)
	if err != nil {
		httperr.Respond(c, err)
		return
	}

	httpresp.OK(c, res)
}

// paramID reads the :id path parameter, answering 400 when it is not a
// positive integer.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		httperr.BadRequest(c, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return uint(id), true
}
