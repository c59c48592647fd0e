package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/laserowo/studio-manager/internal/actions"
	"github.com/laserowo/studio-manager/internal/httperr"
	"github.com/laserowo/studio-manager/internal/httpresp"
	"github.com/laserowo/studio-manager/internal/middleware"
	"github.com/laserowo/studio-manager/internal/spreadsheet"
)

// maxWorkbookSize bounds uploaded workbooks.
const maxWorkbookSize = 32 << 20

type ImportHandler struct {
	dispatcher *actions.Dispatcher
}

func NewImportHandler(d *actions.Dispatcher) *ImportHandler {
	return &ImportHandler{dispatcher: d}
}

// Upload imports an .xlsx workbook sent as the multipart field "file".
// Optional form fields clients_sheet and appointments_sheet override the
// configured sheet names.
func (h *ImportHandler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		httperr.BadRequest(c, "missing_file", "multipart field \"file\" is required")
		return
	}
	if fh.Size > maxWorkbookSize {
		httperr.Write(c, http.StatusRequestEntityTooLarge, "file_too_large", "workbook exceeds 32 MiB")
		return
	}

	f, err := fh.Open()
	if err != nil {
		httperr.BadRequest(c, "invalid_file", err.Error())
		return
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		httperr.BadRequest(c, "invalid_file", err.Error())
		return
	}

	mapping := h.dispatcher.Mapping().WithSheets(c.PostForm("clients_sheet"), c.PostForm("appointments_sheet"))
	src, err := spreadsheet.OpenXLSXBytes(b, mapping)
	if err != nil {
		httperr.BadRequest(c, "invalid_workbook", err.Error())
		return
	}
	defer src.Close()

	report, err := h.dispatcher.Import(c.Request.Context(), middleware.UserID(c), src)
	if err != nil {
		httperr.Write(c, http.StatusUnprocessableEntity, "import_failed", err.Error())
		return
	}

	httpresp.OK(c, report)
}
