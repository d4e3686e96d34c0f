package procurement

// edge describes a legal stage transition. A nil guard means the edge is
// unconditional.
type edge struct {
	next  Stage
	guard func(Record) bool
}

// transitions is the allowed-edges table: each stage has at most one legal
// successor. The chain ends at billentry, which has no outgoing edge, and a
// record held at qc without approval never satisfies the qc edge guard.
var transitions = map[Stage]edge{
	StageIndent:    {next: StagePO},
	StagePO:        {next: StageFollowUp},
	StageFollowUp:  {next: StageReceiving},
	StageReceiving: {next: StageWeighment},
	StageWeighment: {next: StageQC},
	StageQC: {next: StageMRN, guard: func(rec Record) bool {
		return rec.ApprovalStatus == ApprovalApproved
	}},
	StageMRN:      {next: StageBills},
	StageBills:    {next: StageQCReport},
	StageQCReport: {next: StageBillEntry},
}

// arrivalStatus is the canonical status a record carries on entering each
// stage.
var arrivalStatus = map[Stage]Status{
	StageIndent:    StatusPending,
	StagePO:        StatusIssued,
	StageFollowUp:  StatusFollowUpDone,
	StageReceiving: StatusReceived,
	StageWeighment: StatusVerified,
	StageQC:        StatusQCDone,
	StageMRN:       StatusMRNCreated,
	StageBills:     StatusBillPending,
	StageQCReport:  StatusQCReportDone,
	StageBillEntry: StatusERPCompleted,
}

// InitialStage is where every record is created.
const InitialStage = StageIndent

// InitialStatus accompanies InitialStage at creation.
const InitialStatus = StatusPending

// ValidStage reports whether s is one of the ten workflow stages.
func ValidStage(s Stage) bool {
	if s == StageBillEntry {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// ArrivalStatus returns the canonical status for entering a stage.
func ArrivalStatus(s Stage) Status {
	return arrivalStatus[s]
}

// ValidateTransition checks that moving rec to newStage is in the
// allowed-edges table and that the edge guard holds. It returns
// ErrIllegalTransition otherwise.
func ValidateTransition(rec Record, newStage Stage) error {
	e, ok := transitions[rec.Stage]
	if !ok || e.next != newStage {
		return ErrIllegalTransition
	}
	if e.guard != nil && !e.guard(rec) {
		return ErrIllegalTransition
	}
	return nil
}

// Terminal reports whether a record has reached the final stage.
func Terminal(rec Record) bool {
	_, ok := transitions[rec.Stage]
	return !ok && rec.Stage == StageBillEntry
}
