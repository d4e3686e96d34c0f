package procurement

import (
	"errors"
	"time"
)

// Stage is the coarse workflow position of a record.
type Stage string

const (
	StageIndent    Stage = "indent"
	StagePO        Stage = "po"
	StageFollowUp  Stage = "followup"
	StageReceiving Stage = "receiving"
	StageWeighment Stage = "weighment"
	StageQC        Stage = "qc"
	StageMRN       Stage = "mrn"
	StageBills     Stage = "bills"
	StageQCReport  Stage = "qcreport"
	StageBillEntry Stage = "billentry"
)

// Status is the stage-specific label a record carries.
type Status string

const (
	StatusPending      Status = "Pending"
	StatusIssued       Status = "Issued"
	StatusFollowUpDone Status = "Follow-up Done"
	StatusReceived     Status = "Received"
	StatusVerified     Status = "Verified"
	StatusQCDone       Status = "QC Done"
	StatusMRNCreated   Status = "MRN Created"
	StatusBillPending  Status = "Bill Pending"
	StatusQCReportDone Status = "QC Report Done"
	StatusERPCompleted Status = "ERP Completed"
)

// ApprovalApproved is the QC approval outcome that unlocks MRN generation.
const ApprovalApproved = "Approved"

// Record is the single entity of the system. Fields introduced by a given
// stage are populated once that stage has been reached and are never erased
// by later stages. Date-like fields carry YYYY-MM-DD strings supplied by the
// caller; the core does not validate their format.
type Record struct {
	ID     string `json:"id"`
	PONo   string `json:"poNo"`
	Stage  Stage  `json:"stage"`
	Status Status `json:"status"`

	SupplierName string  `json:"supplierName"`
	MaterialName string  `json:"materialName"`
	Quantity     float64 `json:"quantity"`
	Rate         float64 `json:"rate"`
	DeliveryDate string  `json:"deliveryDate,omitempty"`

	// PO issue
	IssueDate       string `json:"issueDate,omitempty"`
	SupplierContact string `json:"supplierContact,omitempty"`
	ModeOfSend      string `json:"modeOfSend,omitempty"`
	AttachmentName  string `json:"attachmentName,omitempty"`

	// Supplier follow-up
	ExpectedDelivery string `json:"expectedDelivery,omitempty"`
	Remarks          string `json:"remarks,omitempty"`

	// Material receiving
	ReceivedDate string `json:"receivedDate,omitempty"`
	ReceivedBy   string `json:"receivedBy,omitempty"`
	VehicleNo    string `json:"vehicleNo,omitempty"`

	// Weighment
	GrossWeight float64 `json:"grossWeight,omitempty"`
	TareWeight  float64 `json:"tareWeight,omitempty"`
	NetWeight   float64 `json:"netWeight,omitempty"`
	SlipNo      string  `json:"slipNo,omitempty"`
	VerifiedBy  string  `json:"verifiedBy,omitempty"`

	// Quality check
	QCDate         string `json:"qcDate,omitempty"`
	CheckedBy      string `json:"checkedBy,omitempty"`
	ApprovalStatus string `json:"approvalStatus,omitempty"`
	QCRemarks      string `json:"qcRemarks,omitempty"`

	// MRN generation
	MRNNo             string `json:"mrnNo,omitempty"`
	UnloadingDate     string `json:"unloadingDate,omitempty"`
	ApprovedBy        string `json:"approvedBy,omitempty"`
	MaterialCondition string `json:"materialCondition,omitempty"`

	// Bill submission
	BillNo      string  `json:"billNo,omitempty"`
	Amount      float64 `json:"amount,omitempty"`
	SubmittedBy string  `json:"submittedBy,omitempty"`

	// QC report
	ReportNo      string `json:"reportNo,omitempty"`
	ReportRemarks string `json:"reportRemarks,omitempty"`

	// ERP bill entry
	EntryDate string `json:"entryDate,omitempty"`
	EnteredBy string `json:"enteredBy,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Patch carries a field-merge update; nil fields are left untouched.
// Stage and status are deliberately absent: the pair changes only through
// MoveRecordToStage.
type Patch struct {
	SupplierName *string  `json:"supplierName,omitempty"`
	MaterialName *string  `json:"materialName,omitempty"`
	Quantity     *float64 `json:"quantity,omitempty"`
	Rate         *float64 `json:"rate,omitempty"`
	DeliveryDate *string  `json:"deliveryDate,omitempty"`

	IssueDate       *string `json:"issueDate,omitempty"`
	SupplierContact *string `json:"supplierContact,omitempty"`
	ModeOfSend      *string `json:"modeOfSend,omitempty"`
	AttachmentName  *string `json:"attachmentName,omitempty"`

	ExpectedDelivery *string `json:"expectedDelivery,omitempty"`
	Remarks          *string `json:"remarks,omitempty"`

	ReceivedDate *string `json:"receivedDate,omitempty"`
	ReceivedBy   *string `json:"receivedBy,omitempty"`
	VehicleNo    *string `json:"vehicleNo,omitempty"`

	GrossWeight *float64 `json:"grossWeight,omitempty"`
	TareWeight  *float64 `json:"tareWeight,omitempty"`
	NetWeight   *float64 `json:"netWeight,omitempty"`
	SlipNo      *string  `json:"slipNo,omitempty"`
	VerifiedBy  *string  `json:"verifiedBy,omitempty"`

	QCDate         *string `json:"qcDate,omitempty"`
	CheckedBy      *string `json:"checkedBy,omitempty"`
	ApprovalStatus *string `json:"approvalStatus,omitempty"`
	QCRemarks      *string `json:"qcRemarks,omitempty"`

	MRNNo             *string `json:"mrnNo,omitempty"`
	UnloadingDate     *string `json:"unloadingDate,omitempty"`
	ApprovedBy        *string `json:"approvedBy,omitempty"`
	MaterialCondition *string `json:"materialCondition,omitempty"`

	BillNo      *string  `json:"billNo,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	SubmittedBy *string  `json:"submittedBy,omitempty"`

	ReportNo      *string `json:"reportNo,omitempty"`
	ReportRemarks *string `json:"reportRemarks,omitempty"`

	EntryDate *string `json:"entryDate,omitempty"`
	EnteredBy *string `json:"enteredBy,omitempty"`
}

var (
	// ErrDuplicateID indicates a creation collision on the record id.
	ErrDuplicateID = errors.New("procurement: duplicate record id")
	// ErrNotFound indicates the referenced record is absent.
	ErrNotFound = errors.New("procurement: record not found")
	// ErrIllegalTransition occurs when a move violates the stage graph.
	ErrIllegalTransition = errors.New("procurement: illegal stage transition")
)

// apply merges non-nil patch fields into the record.
func (p Patch) apply(rec *Record) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setF64 := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setStr(&rec.SupplierName, p.SupplierName)
	setStr(&rec.MaterialName, p.MaterialName)
	setF64(&rec.Quantity, p.Quantity)
	setF64(&rec.Rate, p.Rate)
	setStr(&rec.DeliveryDate, p.DeliveryDate)

	setStr(&rec.IssueDate, p.IssueDate)
	setStr(&rec.SupplierContact, p.SupplierContact)
	setStr(&rec.ModeOfSend, p.ModeOfSend)
	setStr(&rec.AttachmentName, p.AttachmentName)

	setStr(&rec.ExpectedDelivery, p.ExpectedDelivery)
	setStr(&rec.Remarks, p.Remarks)

	setStr(&rec.ReceivedDate, p.ReceivedDate)
	setStr(&rec.ReceivedBy, p.ReceivedBy)
	setStr(&rec.VehicleNo, p.VehicleNo)

	setF64(&rec.GrossWeight, p.GrossWeight)
	setF64(&rec.TareWeight, p.TareWeight)
	setF64(&rec.NetWeight, p.NetWeight)
	setStr(&rec.SlipNo, p.SlipNo)
	setStr(&rec.VerifiedBy, p.VerifiedBy)

	setStr(&rec.QCDate, p.QCDate)
	setStr(&rec.CheckedBy, p.CheckedBy)
	setStr(&rec.ApprovalStatus, p.ApprovalStatus)
	setStr(&rec.QCRemarks, p.QCRemarks)

	setStr(&rec.MRNNo, p.MRNNo)
	setStr(&rec.UnloadingDate, p.UnloadingDate)
	setStr(&rec.ApprovedBy, p.ApprovedBy)
	setStr(&rec.MaterialCondition, p.MaterialCondition)

	setStr(&rec.BillNo, p.BillNo)
	setF64(&rec.Amount, p.Amount)
	setStr(&rec.SubmittedBy, p.SubmittedBy)

	setStr(&rec.ReportNo, p.ReportNo)
	setStr(&rec.ReportRemarks, p.ReportRemarks)

	setStr(&rec.EntryDate, p.EntryDate)
	setStr(&rec.EnteredBy, p.EnteredBy)
}
