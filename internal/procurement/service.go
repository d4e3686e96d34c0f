package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CacheInvalidator is notified after every successful mutation so derived
// views (dashboard aggregates) can drop stale entries.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// Service orchestrates the procurement workflow: it pairs the field update
// of each stage with the matching transition under a per-record lock, and
// mints the human-facing sequence numbers from store-owned counters.
type Service struct {
	store Store
	locks *recordLocks
	cache CacheInvalidator
	now   func() time.Time
}

// NewService constructs the workflow service. cache may be nil.
func NewService(store Store, cache CacheInvalidator) *Service {
	return &Service{store: store, locks: newRecordLocks(), cache: cache, now: time.Now}
}

// CreateIndentInput describes the creation payload. PONo is minted from the
// store counter when empty.
type CreateIndentInput struct {
	PONo         string
	SupplierName string
	MaterialName string
	Quantity     float64
	Rate         float64
	DeliveryDate string
}

// IssuePOInput carries the PO issue details.
type IssuePOInput struct {
	IssueDate       string
	SupplierContact string
	ModeOfSend      string
	AttachmentName  string
}

// FollowUpInput carries supplier follow-up details.
type FollowUpInput struct {
	ExpectedDelivery string
	Remarks          string
}

// ReceiveInput carries material receiving details.
type ReceiveInput struct {
	ReceivedDate string
	ReceivedBy   string
	VehicleNo    string
}

// WeighmentInput carries the weighbridge readings. Net weight is derived
// here, never supplied.
type WeighmentInput struct {
	GrossWeight float64
	TareWeight  float64
	VerifiedBy  string
}

// QCInput carries the quality-check outcome.
type QCInput struct {
	QCDate         string
	CheckedBy      string
	ApprovalStatus string
	QCRemarks      string
}

// MRNInput carries MRN generation details.
type MRNInput struct {
	ApprovedBy        string
	MaterialCondition string
}

// BillInput carries bill submission details. BillNo is minted when empty.
type BillInput struct {
	BillNo      string
	Amount      float64
	SubmittedBy string
}

// QCReportInput carries the QC report details.
type QCReportInput struct {
	ReportNo      string
	ReportRemarks string
}

// BillEntryInput carries the terminal ERP entry details.
type BillEntryInput struct {
	EnteredBy string
	BillNo    string
	Amount    float64
}

// CreateIndent inserts a new record at indent/Pending.
func (s *Service) CreateIndent(ctx context.Context, input CreateIndentInput) (Record, error) {
	if input.PONo == "" {
		n, err := s.store.NextSequence(ctx, "PO")
		if err != nil {
			return Record{}, err
		}
		input.PONo = fmt.Sprintf("PO-%d-%03d", s.now().Year(), n)
	}
	rec := Record{
		ID:           uuid.NewString(),
		PONo:         input.PONo,
		Stage:        InitialStage,
		Status:       InitialStatus,
		SupplierName: input.SupplierName,
		MaterialName: input.MaterialName,
		Quantity:     input.Quantity,
		Rate:         input.Rate,
		DeliveryDate: input.DeliveryDate,
		CreatedAt:    s.now(),
	}
	if err := s.store.AddRecord(ctx, rec); err != nil {
		return Record{}, err
	}
	s.bump(ctx)
	return rec, nil
}

// IssuePO attaches issue details and advances indent -> po.
func (s *Service) IssuePO(ctx context.Context, id string, input IssuePOInput) (Record, error) {
	return s.advance(ctx, id, StagePO, Patch{
		IssueDate:       &input.IssueDate,
		SupplierContact: &input.SupplierContact,
		ModeOfSend:      &input.ModeOfSend,
		AttachmentName:  &input.AttachmentName,
	}, nil)
}

// RecordFollowUp attaches follow-up details and advances po -> followup.
func (s *Service) RecordFollowUp(ctx context.Context, id string, input FollowUpInput) (Record, error) {
	return s.advance(ctx, id, StageFollowUp, Patch{
		ExpectedDelivery: &input.ExpectedDelivery,
		Remarks:          &input.Remarks,
	}, nil)
}

// ReceiveMaterial attaches receiving details and advances followup -> receiving.
func (s *Service) ReceiveMaterial(ctx context.Context, id string, input ReceiveInput) (Record, error) {
	if input.ReceivedDate == "" {
		input.ReceivedDate = s.today()
	}
	return s.advance(ctx, id, StageReceiving, Patch{
		ReceivedDate: &input.ReceivedDate,
		ReceivedBy:   &input.ReceivedBy,
		VehicleNo:    &input.VehicleNo,
	}, nil)
}

// RecordWeighment stores the weighbridge slip, derives the net weight once,
// and advances receiving -> weighment.
func (s *Service) RecordWeighment(ctx context.Context, id string, input WeighmentInput) (Record, error) {
	net := input.GrossWeight - input.TareWeight
	return s.advance(ctx, id, StageWeighment, Patch{
		GrossWeight: &input.GrossWeight,
		TareWeight:  &input.TareWeight,
		NetWeight:   &net,
		VerifiedBy:  &input.VerifiedBy,
	}, func(ctx context.Context, _ Record, p *Patch) error {
		slipNo, err := s.mintNumber(ctx, "WS")
		if err != nil {
			return err
		}
		p.SlipNo = &slipNo
		return nil
	})
}

// CompleteQC records the quality-check outcome and advances weighment -> qc.
// Records whose approval status is not Approved stay at qc; there is no
// rework edge in the stage graph.
func (s *Service) CompleteQC(ctx context.Context, id string, input QCInput) (Record, error) {
	if input.QCDate == "" {
		input.QCDate = s.today()
	}
	return s.advance(ctx, id, StageQC, Patch{
		QCDate:         &input.QCDate,
		CheckedBy:      &input.CheckedBy,
		ApprovalStatus: &input.ApprovalStatus,
		QCRemarks:      &input.QCRemarks,
	}, nil)
}

// GenerateMRN mints the MRN number and advances qc -> mrn. The engine guard
// rejects records that were not approved at QC.
func (s *Service) GenerateMRN(ctx context.Context, id string, input MRNInput) (Record, error) {
	unloading := s.today()
	return s.advance(ctx, id, StageMRN, Patch{
		UnloadingDate:     &unloading,
		ApprovedBy:        &input.ApprovedBy,
		MaterialCondition: &input.MaterialCondition,
	}, func(ctx context.Context, _ Record, p *Patch) error {
		mrnNo, err := s.mintNumber(ctx, "MRN")
		if err != nil {
			return err
		}
		p.MRNNo = &mrnNo
		return nil
	})
}

// SubmitBill attaches the bill and advances mrn -> bills.
func (s *Service) SubmitBill(ctx context.Context, id string, input BillInput) (Record, error) {
	patch := Patch{
		Amount:      &input.Amount,
		SubmittedBy: &input.SubmittedBy,
	}
	if input.BillNo != "" {
		patch.BillNo = &input.BillNo
	}
	return s.advance(ctx, id, StageBills, patch, func(ctx context.Context, _ Record, p *Patch) error {
		if p.BillNo != nil {
			return nil
		}
		billNo, err := s.mintNumber(ctx, "BILL")
		if err != nil {
			return err
		}
		p.BillNo = &billNo
		return nil
	})
}

// CompleteQCReport attaches the report and advances bills -> qcreport.
func (s *Service) CompleteQCReport(ctx context.Context, id string, input QCReportInput) (Record, error) {
	return s.advance(ctx, id, StageQCReport, Patch{
		ReportNo:      &input.ReportNo,
		ReportRemarks: &input.ReportRemarks,
	}, nil)
}

// EnterBill records the terminal ERP entry and advances qcreport -> billentry.
// A record that reached this point without a bill number gets one minted so
// the completed entry is never blank.
func (s *Service) EnterBill(ctx context.Context, id string, input BillEntryInput) (Record, error) {
	entryDate := s.today()
	patch := Patch{
		EntryDate: &entryDate,
		EnteredBy: &input.EnteredBy,
	}
	if input.BillNo != "" {
		patch.BillNo = &input.BillNo
	}
	if input.Amount != 0 {
		patch.Amount = &input.Amount
	}
	return s.advance(ctx, id, StageBillEntry, patch, func(ctx context.Context, rec Record, p *Patch) error {
		if p.BillNo != nil || rec.BillNo != "" {
			return nil
		}
		billNo, err := s.mintNumber(ctx, "BILL")
		if err != nil {
			return err
		}
		p.BillNo = &billNo
		return nil
	})
}

// UpdateRecord exposes the raw field-merge update for supplementary edits
// that do not advance the workflow.
func (s *Service) UpdateRecord(ctx context.Context, id string, patch Patch) (Record, error) {
	release := s.locks.acquire(id)
	defer release()
	if err := s.store.UpdateRecord(ctx, id, patch); err != nil {
		return Record{}, err
	}
	s.bump(ctx)
	return s.store.GetRecord(ctx, id)
}

// MoveRecordToStage exposes the raw engine-mediated transition.
func (s *Service) MoveRecordToStage(ctx context.Context, id string, stage Stage, status Status) (Record, error) {
	release := s.locks.acquire(id)
	defer release()
	if err := s.store.MoveRecordToStage(ctx, id, stage, status); err != nil {
		return Record{}, err
	}
	s.bump(ctx)
	return s.store.GetRecord(ctx, id)
}

// GetRecord returns a single record.
func (s *Service) GetRecord(ctx context.Context, id string) (Record, error) {
	return s.store.GetRecord(ctx, id)
}

// RecordsByStage returns records at a stage, optionally narrowed by status.
func (s *Service) RecordsByStage(ctx context.Context, stage Stage, status Status) ([]Record, error) {
	return s.store.GetRecordsByStage(ctx, stage, status)
}

// ListAll returns every record in insertion order.
func (s *Service) ListAll(ctx context.Context) ([]Record, error) {
	return s.store.ListAll(ctx)
}

// PendingForStage returns the records eligible for the operation that moves
// them into the given stage: the predecessor stage at its arrival status,
// further narrowed by the QC approval guard for mrn.
func (s *Service) PendingForStage(ctx context.Context, target Stage) ([]Record, error) {
	var prev Stage
	found := false
	for from, e := range transitions {
		if e.next == target {
			prev = from
			found = true
			break
		}
	}
	if !found {
		return nil, ErrIllegalTransition
	}
	recs, err := s.store.GetRecordsByStage(ctx, prev, ArrivalStatus(prev))
	if err != nil {
		return nil, err
	}
	if guard := transitions[prev].guard; guard != nil {
		eligible := []Record{}
		for _, rec := range recs {
			if guard(rec) {
				eligible = append(eligible, rec)
			}
		}
		recs = eligible
	}
	return recs, nil
}

// advance applies the stage-arrival fields and the transition as one logical
// operation under the record lock. finish runs only after the transition has
// been validated; sequence numbers are minted there so a rejected move never
// consumes a counter.
func (s *Service) advance(ctx context.Context, id string, target Stage, patch Patch, finish func(context.Context, Record, *Patch) error) (Record, error) {
	release := s.locks.acquire(id)
	defer release()

	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return Record{}, err
	}
	// Reject before writing fields so a failed move leaves no effect.
	patched := rec
	patch.apply(&patched)
	if err := ValidateTransition(patched, target); err != nil {
		return Record{}, err
	}
	if finish != nil {
		if err := finish(ctx, rec, &patch); err != nil {
			return Record{}, err
		}
	}
	if err := s.store.UpdateRecord(ctx, id, patch); err != nil {
		return Record{}, err
	}
	if err := s.store.MoveRecordToStage(ctx, id, target, ArrivalStatus(target)); err != nil {
		return Record{}, err
	}
	s.bump(ctx)
	return s.store.GetRecord(ctx, id)
}

// mintNumber draws the next counter value for a prefix and formats it as
// PREFIX-NNN.
func (s *Service) mintNumber(ctx context.Context, prefix string) (string, error) {
	n, err := s.store.NextSequence(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%03d", prefix, n), nil
}

func (s *Service) today() string {
	return s.now().Format("2006-01-02")
}

func (s *Service) bump(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Bump(ctx)
}
