package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/procflow/procflow/internal/procurement"
)

var chain = []procurement.Stage{
	procurement.StageIndent,
	procurement.StagePO,
	procurement.StageFollowUp,
	procurement.StageReceiving,
	procurement.StageWeighment,
	procurement.StageQC,
	procurement.StageMRN,
	procurement.StageBills,
	procurement.StageQCReport,
	procurement.StageBillEntry,
}

func addRecordAt(t *testing.T, store procurement.Store, id string, target procurement.Stage, createdAt time.Time, deliveryDate string) {
	t.Helper()
	ctx := context.Background()

	rec := procurement.Record{
		ID:           id,
		PONo:         "PO-2025-" + id,
		Stage:        procurement.StageIndent,
		Status:       procurement.StatusPending,
		SupplierName: "Supplier " + id,
		MaterialName: "MS Scrap",
		Quantity:     10,
		Rate:         100,
		DeliveryDate: deliveryDate,
		CreatedAt:    createdAt,
	}
	require.NoError(t, store.AddRecord(ctx, rec))

	for i := 1; i < len(chain); i++ {
		if chain[i-1] == target {
			return
		}
		if chain[i-1] == procurement.StageQC {
			approved := procurement.ApprovalApproved
			require.NoError(t, store.UpdateRecord(ctx, id, procurement.Patch{ApprovalStatus: &approved}))
		}
		require.NoError(t, store.MoveRecordToStage(ctx, id, chain[i], procurement.ArrivalStatus(chain[i])))
	}
}

func newTestService(t *testing.T) (*Service, procurement.Store, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := NewCache(client, time.Minute)
	store := procurement.NewMemoryStore()
	svc := NewService(store, cache)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc, store, cache
}

func TestSummaryCounts(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	addRecordAt(t, store, "a", procurement.StageIndent, base, "")
	addRecordAt(t, store, "b", procurement.StageIndent, base.Add(time.Hour), "")
	addRecordAt(t, store, "c", procurement.StageWeighment, base.Add(2*time.Hour), "")
	addRecordAt(t, store, "d", procurement.StageBills, base.Add(3*time.Hour), "")
	addRecordAt(t, store, "e", procurement.StageBillEntry, base.Add(4*time.Hour), "")
	addRecordAt(t, store, "f", procurement.StagePO, base.Add(5*time.Hour), "")

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalPOs)
	require.Equal(t, 2, out.PendingIndents)
	require.Equal(t, 1, out.PendingQC)
	require.Equal(t, 1, out.PendingBills)
}

func TestSummaryTotalPOsCountsPOStageOnly(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	addRecordAt(t, store, "waiting", procurement.StageIndent, base, "")
	addRecordAt(t, store, "issued", procurement.StagePO, base.Add(time.Hour), "")

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalPOs)
}

func TestSummaryRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		addRecordAt(t, store, fmt.Sprintf("r%d", i), procurement.StageIndent, base.Add(time.Duration(i)*time.Hour), "")
	}

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, out.Recent, recentLimit)
	require.Equal(t, "r7", out.Recent[0].ID)
	require.Equal(t, "r2", out.Recent[recentLimit-1].ID)
}

func TestSummaryDelayedAlerts(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	// overdue and still in flight
	addRecordAt(t, store, "late", procurement.StageFollowUp, base, "2025-03-10")
	// overdue but already booked in
	addRecordAt(t, store, "booked", procurement.StageMRN, base, "2025-03-10")
	// not yet due
	addRecordAt(t, store, "ontime", procurement.StagePO, base, "2025-03-25")
	// no promised date
	addRecordAt(t, store, "nodate", procurement.StageIndent, base, "")

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, out.Delayed, 1)
	require.Equal(t, "late", out.Delayed[0].ID)
	require.Equal(t, 5, out.Delayed[0].DaysOverdue)
}

func TestSummaryCachedUntilBump(t *testing.T) {
	ctx := context.Background()
	svc, store, cache := newTestService(t)
	base := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	addRecordAt(t, store, "a", procurement.StagePO, base, "")

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalPOs)

	addRecordAt(t, store, "b", procurement.StagePO, base.Add(time.Hour), "")

	out, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalPOs, "stale until the version moves")

	require.NoError(t, cache.Bump(ctx))

	out, err = svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, out.TotalPOs)
}

func TestSummaryWithoutCache(t *testing.T) {
	ctx := context.Background()
	store := procurement.NewMemoryStore()
	svc := NewService(store, nil)
	svc.now = time.Now

	addRecordAt(t, store, "a", procurement.StagePO, time.Now(), "")

	out, err := svc.Summary(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, out.TotalPOs)
}
