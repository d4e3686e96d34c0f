package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingCache struct {
	bumps int
}

func (c *countingCache) Bump(ctx context.Context) error {
	c.bumps++
	return nil
}

func newTestService() (*Service, *countingCache) {
	cache := &countingCache{}
	svc := NewService(NewMemoryStore(), cache)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	}
	return svc, cache
}

func TestServiceFullLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, cache := newTestService()

	rec, err := svc.CreateIndent(ctx, CreateIndentInput{
		SupplierName: "Acme Steel",
		MaterialName: "MS Scrap",
		Quantity:     25,
		Rate:         52000,
		DeliveryDate: "2025-03-20",
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, "PO-2025-001", rec.PONo)
	require.Equal(t, StageIndent, rec.Stage)
	require.Equal(t, StatusPending, rec.Status)

	rec, err = svc.IssuePO(ctx, rec.ID, IssuePOInput{IssueDate: "2025-03-02", ModeOfSend: "email"})
	require.NoError(t, err)
	require.Equal(t, StagePO, rec.Stage)
	require.Equal(t, StatusIssued, rec.Status)
	require.Equal(t, "2025-03-02", rec.IssueDate)

	rec, err = svc.RecordFollowUp(ctx, rec.ID, FollowUpInput{ExpectedDelivery: "2025-03-18"})
	require.NoError(t, err)
	require.Equal(t, StageFollowUp, rec.Stage)
	require.Equal(t, StatusFollowUpDone, rec.Status)

	rec, err = svc.ReceiveMaterial(ctx, rec.ID, ReceiveInput{ReceivedBy: "Gate A", VehicleNo: "KA-01-1234"})
	require.NoError(t, err)
	require.Equal(t, StageReceiving, rec.Stage)
	require.Equal(t, StatusReceived, rec.Status)
	require.Equal(t, "2025-03-01", rec.ReceivedDate)

	rec, err = svc.RecordWeighment(ctx, rec.ID, WeighmentInput{GrossWeight: 500, TareWeight: 50, VerifiedBy: "Operator"})
	require.NoError(t, err)
	require.Equal(t, StageWeighment, rec.Stage)
	require.Equal(t, StatusVerified, rec.Status)
	require.Equal(t, "WS-001", rec.SlipNo)
	require.Equal(t, float64(450), rec.NetWeight)

	rec, err = svc.CompleteQC(ctx, rec.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: ApprovalApproved})
	require.NoError(t, err)
	require.Equal(t, StageQC, rec.Stage)
	require.Equal(t, StatusQCDone, rec.Status)

	rec, err = svc.GenerateMRN(ctx, rec.ID, MRNInput{ApprovedBy: "Stores Head", MaterialCondition: "Good"})
	require.NoError(t, err)
	require.Equal(t, StageMRN, rec.Stage)
	require.Equal(t, StatusMRNCreated, rec.Status)
	require.Equal(t, "MRN-001", rec.MRNNo)
	require.Equal(t, "2025-03-01", rec.UnloadingDate)

	rec, err = svc.SubmitBill(ctx, rec.ID, BillInput{Amount: 1300000, SubmittedBy: "Accounts"})
	require.NoError(t, err)
	require.Equal(t, StageBills, rec.Stage)
	require.Equal(t, StatusBillPending, rec.Status)
	require.Equal(t, "BILL-001", rec.BillNo)

	rec, err = svc.CompleteQCReport(ctx, rec.ID, QCReportInput{ReportNo: "RPT-7"})
	require.NoError(t, err)
	require.Equal(t, StageQCReport, rec.Stage)
	require.Equal(t, StatusQCReportDone, rec.Status)

	rec, err = svc.EnterBill(ctx, rec.ID, BillEntryInput{EnteredBy: "ERP Desk"})
	require.NoError(t, err)
	require.Equal(t, StageBillEntry, rec.Stage)
	require.Equal(t, StatusERPCompleted, rec.Status)
	require.Equal(t, "2025-03-01", rec.EntryDate)
	require.True(t, Terminal(rec))

	// every earlier stage's fields survive to the end
	require.Equal(t, "2025-03-02", rec.IssueDate)
	require.Equal(t, "2025-03-18", rec.ExpectedDelivery)
	require.Equal(t, "KA-01-1234", rec.VehicleNo)
	require.Equal(t, float64(450), rec.NetWeight)
	require.Equal(t, ApprovalApproved, rec.ApprovalStatus)
	require.Equal(t, "MRN-001", rec.MRNNo)
	require.Equal(t, "BILL-001", rec.BillNo)

	require.Equal(t, 10, cache.bumps)
}

func TestServiceCreateIndentKeepsExplicitPONo(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec, err := svc.CreateIndent(ctx, CreateIndentInput{
		PONo:         "PO-LEGACY-42",
		SupplierName: "Acme Steel",
		MaterialName: "MS Scrap",
		Quantity:     5,
		Rate:         100,
	})
	require.NoError(t, err)
	require.Equal(t, "PO-LEGACY-42", rec.PONo)

	// counter untouched, next minted number still starts at 001
	rec2, err := svc.CreateIndent(ctx, CreateIndentInput{
		SupplierName: "Borg Alloys",
		MaterialName: "Pig Iron",
		Quantity:     5,
		Rate:         100,
	})
	require.NoError(t, err)
	require.Equal(t, "PO-2025-001", rec2.PONo)
}

func TestServiceNetWeightFractional(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec := mustAdvanceTo(t, svc, StageReceiving)
	rec, err := svc.RecordWeighment(ctx, rec.ID, WeighmentInput{GrossWeight: 120.5, TareWeight: 20.5, VerifiedBy: "Operator"})
	require.NoError(t, err)
	require.Equal(t, float64(100), rec.NetWeight)
}

func TestServiceGenerateMRNRequiresApproval(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec := mustAdvanceTo(t, svc, StageWeighment)
	rec, err := svc.CompleteQC(ctx, rec.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: "Rejected"})
	require.NoError(t, err)
	require.Equal(t, StageQC, rec.Stage)

	_, err = svc.GenerateMRN(ctx, rec.ID, MRNInput{ApprovedBy: "Stores Head", MaterialCondition: "Good"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	// the failed move wrote nothing
	rec, err = svc.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, StageQC, rec.Stage)
	require.Equal(t, StatusQCDone, rec.Status)
	require.Empty(t, rec.MRNNo)
	require.Empty(t, rec.ApprovedBy)
}

func TestServicePendingForStage(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	approved := mustAdvanceTo(t, svc, StageWeighment)
	rejected := mustAdvanceTo(t, svc, StageWeighment)

	_, err := svc.CompleteQC(ctx, approved.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: ApprovalApproved})
	require.NoError(t, err)
	_, err = svc.CompleteQC(ctx, rejected.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: "Rejected"})
	require.NoError(t, err)

	eligible, err := svc.PendingForStage(ctx, StageMRN)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	require.Equal(t, approved.ID, eligible[0].ID)

	pendingQC, err := svc.PendingForStage(ctx, StageQC)
	require.NoError(t, err)
	require.Empty(t, pendingQC)

	_, err = svc.PendingForStage(ctx, StageIndent)
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestServiceUpdateRecordLeavesOtherFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec, err := svc.CreateIndent(ctx, CreateIndentInput{
		SupplierName: "Acme Steel",
		MaterialName: "MS Scrap",
		Quantity:     25,
		Rate:         52000,
	})
	require.NoError(t, err)

	remarks := "supplier asked for revised rate"
	updated, err := svc.UpdateRecord(ctx, rec.ID, Patch{Remarks: &remarks})
	require.NoError(t, err)
	require.Equal(t, remarks, updated.Remarks)
	require.Equal(t, rec.SupplierName, updated.SupplierName)
	require.Equal(t, rec.Quantity, updated.Quantity)
	require.Equal(t, rec.Stage, updated.Stage)
	require.Equal(t, rec.Status, updated.Status)
}

func TestServiceSequencesCountPerPrefix(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	first := mustAdvanceTo(t, svc, StageReceiving)
	second := mustAdvanceTo(t, svc, StageReceiving)

	rec, err := svc.RecordWeighment(ctx, first.ID, WeighmentInput{GrossWeight: 100, TareWeight: 10, VerifiedBy: "Op"})
	require.NoError(t, err)
	require.Equal(t, "WS-001", rec.SlipNo)

	rec, err = svc.RecordWeighment(ctx, second.ID, WeighmentInput{GrossWeight: 200, TareWeight: 20, VerifiedBy: "Op"})
	require.NoError(t, err)
	require.Equal(t, "WS-002", rec.SlipNo)
}

func TestServiceRejectedMoveConsumesNoSequence(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rejected := mustAdvanceTo(t, svc, StageWeighment)
	_, err := svc.CompleteQC(ctx, rejected.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: "Rejected"})
	require.NoError(t, err)
	_, err = svc.GenerateMRN(ctx, rejected.ID, MRNInput{ApprovedBy: "Stores Head", MaterialCondition: "Good"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	// a weighment attempt on the wrong stage burns nothing either
	fresh, err := svc.CreateIndent(ctx, CreateIndentInput{
		SupplierName: "Corvid Iron",
		MaterialName: "Billets",
		Quantity:     5,
		Rate:         100,
	})
	require.NoError(t, err)
	_, err = svc.RecordWeighment(ctx, fresh.ID, WeighmentInput{GrossWeight: 10, TareWeight: 1, VerifiedBy: "Op"})
	require.ErrorIs(t, err, ErrIllegalTransition)

	approved := mustAdvanceTo(t, svc, StageWeighment)
	require.Equal(t, "WS-002", approved.SlipNo, "only the two legal weighments drew slip numbers")
	_, err = svc.CompleteQC(ctx, approved.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: ApprovalApproved})
	require.NoError(t, err)

	rec, err := svc.GenerateMRN(ctx, approved.ID, MRNInput{ApprovedBy: "Stores Head", MaterialCondition: "Good"})
	require.NoError(t, err)
	require.Equal(t, "MRN-001", rec.MRNNo, "the rejected attempt left the counter untouched")
}

func TestServiceEnterBillMintsBillNoWhenMissing(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	rec := mustAdvanceTo(t, svc, StageWeighment)
	_, err := svc.CompleteQC(ctx, rec.ID, QCInput{CheckedBy: "QC Lab", ApprovalStatus: ApprovalApproved})
	require.NoError(t, err)

	// raw moves skip SubmitBill, so no bill number exists at entry time
	for _, stage := range []Stage{StageMRN, StageBills, StageQCReport} {
		_, err = svc.MoveRecordToStage(ctx, rec.ID, stage, ArrivalStatus(stage))
		require.NoError(t, err)
	}

	entered, err := svc.EnterBill(ctx, rec.ID, BillEntryInput{EnteredBy: "ERP Desk"})
	require.NoError(t, err)
	require.Equal(t, "BILL-001", entered.BillNo)
	require.Equal(t, StatusERPCompleted, entered.Status)
}

// mustAdvanceTo creates a record and walks it forward to the requested stage.
func mustAdvanceTo(t *testing.T, svc *Service, target Stage) Record {
	t.Helper()
	ctx := context.Background()

	rec, err := svc.CreateIndent(ctx, CreateIndentInput{
		SupplierName: "Acme Steel",
		MaterialName: "MS Scrap",
		Quantity:     25,
		Rate:         52000,
		DeliveryDate: "2025-03-20",
	})
	require.NoError(t, err)
	if target == StageIndent {
		return rec
	}

	steps := []func() (Record, error){
		func() (Record, error) {
			return svc.IssuePO(ctx, rec.ID, IssuePOInput{IssueDate: "2025-03-02"})
		},
		func() (Record, error) {
			return svc.RecordFollowUp(ctx, rec.ID, FollowUpInput{ExpectedDelivery: "2025-03-18"})
		},
		func() (Record, error) {
			return svc.ReceiveMaterial(ctx, rec.ID, ReceiveInput{ReceivedBy: "Gate A"})
		},
		func() (Record, error) {
			return svc.RecordWeighment(ctx, rec.ID, WeighmentInput{GrossWeight: 500, TareWeight: 50, VerifiedBy: "Op"})
		},
	}
	targets := []Stage{StagePO, StageFollowUp, StageReceiving, StageWeighment}
	for i, step := range steps {
		var err error
		rec, err = step()
		require.NoError(t, err)
		if targets[i] == target {
			return rec
		}
	}
	t.Fatalf("unsupported target stage %s", target)
	return Record{}
}
