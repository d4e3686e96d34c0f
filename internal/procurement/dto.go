package procurement

// Request payloads for the JSON API. Validation covers required-ness only;
// the core trusts caller values for formats and amounts.

type CreateIndentRequest struct {
	PONo         string  `json:"poNo,omitempty"`
	SupplierName string  `json:"supplierName" validate:"required"`
	MaterialName string  `json:"materialName" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"required,gt=0"`
	Rate         float64 `json:"rate" validate:"required,gt=0"`
	DeliveryDate string  `json:"deliveryDate,omitempty"`
}

type IssuePORequest struct {
	IssueDate       string `json:"issueDate" validate:"required"`
	SupplierContact string `json:"supplierContact,omitempty"`
	ModeOfSend      string `json:"modeOfSend,omitempty"`
	AttachmentName  string `json:"attachmentName,omitempty"`
}

type FollowUpRequest struct {
	ExpectedDelivery string `json:"expectedDelivery" validate:"required"`
	Remarks          string `json:"remarks,omitempty"`
}

type ReceiveRequest struct {
	ReceivedDate string `json:"receivedDate,omitempty"`
	ReceivedBy   string `json:"receivedBy,omitempty"`
	VehicleNo    string `json:"vehicleNo,omitempty"`
}

type WeighmentRequest struct {
	GrossWeight float64 `json:"grossWeight" validate:"required,gt=0"`
	TareWeight  float64 `json:"tareWeight" validate:"gte=0"`
	VerifiedBy  string  `json:"verifiedBy" validate:"required"`
}

type QCRequest struct {
	QCDate         string `json:"qcDate,omitempty"`
	CheckedBy      string `json:"checkedBy" validate:"required"`
	ApprovalStatus string `json:"approvalStatus" validate:"required"`
	QCRemarks      string `json:"qcRemarks,omitempty"`
}

type MRNRequest struct {
	ApprovedBy        string `json:"approvedBy" validate:"required"`
	MaterialCondition string `json:"materialCondition" validate:"required"`
}

type BillRequest struct {
	BillNo      string  `json:"billNo,omitempty"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	SubmittedBy string  `json:"submittedBy,omitempty"`
}

type QCReportRequest struct {
	ReportNo      string `json:"reportNo,omitempty"`
	ReportRemarks string `json:"reportRemarks,omitempty"`
}

type BillEntryRequest struct {
	EnteredBy string  `json:"enteredBy" validate:"required"`
	BillNo    string  `json:"billNo,omitempty"`
	Amount    float64 `json:"amount,omitempty"`
}

type MoveRequest struct {
	Stage  string `json:"stage" validate:"required"`
	Status string `json:"status" validate:"required"`
}
