package procurement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/procflow/procflow/internal/platform/httpx"
)

// Handler manages the procurement JSON endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/records", h.createIndent)
	r.Get("/records", h.listAll)
	r.Get("/records/{id}", h.getRecord)
	r.Patch("/records/{id}", h.updateRecord)
	r.Post("/records/{id}/move", h.moveRecord)

	r.Get("/stages/{stage}/records", h.recordsByStage)
	r.Get("/stages/{stage}/pending", h.pendingForStage)

	r.Post("/records/{id}/issue-po", h.issuePO)
	r.Post("/records/{id}/follow-up", h.recordFollowUp)
	r.Post("/records/{id}/receive", h.receiveMaterial)
	r.Post("/records/{id}/weigh", h.recordWeighment)
	r.Post("/records/{id}/qc", h.completeQC)
	r.Post("/records/{id}/mrn", h.generateMRN)
	r.Post("/records/{id}/bill", h.submitBill)
	r.Post("/records/{id}/qc-report", h.completeQCReport)
	r.Post("/records/{id}/erp-entry", h.enterBill)
}

func (h *Handler) createIndent(w http.ResponseWriter, r *http.Request) {
	var req CreateIndentRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.CreateIndent(r.Context(), CreateIndentInput{
		PONo:         req.PONo,
		SupplierName: req.SupplierName,
		MaterialName: req.MaterialName,
		Quantity:     req.Quantity,
		Rate:         req.Rate,
		DeliveryDate: req.DeliveryDate,
	})
	if err != nil {
		h.respondError(w, "create indent", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.ListAll(r.Context())
	if err != nil {
		h.respondError(w, "list records", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recs)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetRecord(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "get record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	var patch Patch
	if err := httpx.DecodeJSON(r, &patch); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	rec, err := h.service.UpdateRecord(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.respondError(w, "update record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) moveRecord(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.MoveRecordToStage(r.Context(), chi.URLParam(r, "id"), Stage(req.Stage), Status(req.Status))
	if err != nil {
		h.respondError(w, "move record", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) recordsByStage(w http.ResponseWriter, r *http.Request) {
	stage := Stage(chi.URLParam(r, "stage"))
	if !ValidStage(stage) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Stage", "unknown stage "+string(stage))
		return
	}
	status := Status(r.URL.Query().Get("status"))
	recs, err := h.service.RecordsByStage(r.Context(), stage, status)
	if err != nil {
		h.respondError(w, "records by stage", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recs)
}

func (h *Handler) pendingForStage(w http.ResponseWriter, r *http.Request) {
	stage := Stage(chi.URLParam(r, "stage"))
	if !ValidStage(stage) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Stage", "unknown stage "+string(stage))
		return
	}
	recs, err := h.service.PendingForStage(r.Context(), stage)
	if err != nil {
		h.respondError(w, "pending for stage", err)
		return
	}
	httpx.JSON(w, http.StatusOK, recs)
}

func (h *Handler) issuePO(w http.ResponseWriter, r *http.Request) {
	var req IssuePORequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.IssuePO(r.Context(), chi.URLParam(r, "id"), IssuePOInput{
		IssueDate:       req.IssueDate,
		SupplierContact: req.SupplierContact,
		ModeOfSend:      req.ModeOfSend,
		AttachmentName:  req.AttachmentName,
	})
	if err != nil {
		h.respondError(w, "issue PO", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) recordFollowUp(w http.ResponseWriter, r *http.Request) {
	var req FollowUpRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.RecordFollowUp(r.Context(), chi.URLParam(r, "id"), FollowUpInput{
		ExpectedDelivery: req.ExpectedDelivery,
		Remarks:          req.Remarks,
	})
	if err != nil {
		h.respondError(w, "record follow-up", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) receiveMaterial(w http.ResponseWriter, r *http.Request) {
	var req ReceiveRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.ReceiveMaterial(r.Context(), chi.URLParam(r, "id"), ReceiveInput{
		ReceivedDate: req.ReceivedDate,
		ReceivedBy:   req.ReceivedBy,
		VehicleNo:    req.VehicleNo,
	})
	if err != nil {
		h.respondError(w, "receive material", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) recordWeighment(w http.ResponseWriter, r *http.Request) {
	var req WeighmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.RecordWeighment(r.Context(), chi.URLParam(r, "id"), WeighmentInput{
		GrossWeight: req.GrossWeight,
		TareWeight:  req.TareWeight,
		VerifiedBy:  req.VerifiedBy,
	})
	if err != nil {
		h.respondError(w, "record weighment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) completeQC(w http.ResponseWriter, r *http.Request) {
	var req QCRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.CompleteQC(r.Context(), chi.URLParam(r, "id"), QCInput{
		QCDate:         req.QCDate,
		CheckedBy:      req.CheckedBy,
		ApprovalStatus: req.ApprovalStatus,
		QCRemarks:      req.QCRemarks,
	})
	if err != nil {
		h.respondError(w, "complete QC", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) generateMRN(w http.ResponseWriter, r *http.Request) {
	var req MRNRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.GenerateMRN(r.Context(), chi.URLParam(r, "id"), MRNInput{
		ApprovedBy:        req.ApprovedBy,
		MaterialCondition: req.MaterialCondition,
	})
	if err != nil {
		h.respondError(w, "generate MRN", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) submitBill(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.SubmitBill(r.Context(), chi.URLParam(r, "id"), BillInput{
		BillNo:      req.BillNo,
		Amount:      req.Amount,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		h.respondError(w, "submit bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) completeQCReport(w http.ResponseWriter, r *http.Request) {
	var req QCReportRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.CompleteQCReport(r.Context(), chi.URLParam(r, "id"), QCReportInput{
		ReportNo:      req.ReportNo,
		ReportRemarks: req.ReportRemarks,
	})
	if err != nil {
		h.respondError(w, "complete QC report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) enterBill(w http.ResponseWriter, r *http.Request) {
	var req BillEntryRequest
	if !h.decode(w, r, &req) {
		return
	}
	rec, err := h.service.EnterBill(r.Context(), chi.URLParam(r, "id"), BillEntryInput{
		EnteredBy: req.EnteredBy,
		BillNo:    req.BillNo,
		Amount:    req.Amount,
	})
	if err != nil {
		h.respondError(w, "enter bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	if err := h.validate.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return false
	}
	return true
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicateID):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrIllegalTransition):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Illegal Transition", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
