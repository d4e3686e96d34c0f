// Package dashboard aggregates procurement records into the landing-page
// summary: headline counts, recent activity, and delayed-delivery alerts.
package dashboard

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/procflow/procflow/internal/procurement"
)

const recentLimit = 6

// Summary is the aggregate view served on the landing page. TotalPOs counts
// records currently at the po stage, not the whole collection.
type Summary struct {
	TotalPOs       int                  `json:"totalPOs"`
	PendingIndents int                  `json:"pendingIndents"`
	PendingQC      int                  `json:"pendingQC"`
	PendingBills   int                  `json:"pendingBills"`
	Recent         []procurement.Record `json:"recent"`
	Delayed        []DelayedAlert       `json:"delayed"`
	GeneratedAt    time.Time            `json:"generatedAt"`
}

// DelayedAlert flags a record whose promised delivery date has passed while
// the material has not reached the MRN stage.
type DelayedAlert struct {
	ID           string            `json:"id"`
	PONo         string            `json:"poNo"`
	SupplierName string            `json:"supplierName"`
	MaterialName string            `json:"materialName"`
	DeliveryDate string            `json:"deliveryDate"`
	Stage        procurement.Stage `json:"stage"`
	DaysOverdue  int               `json:"daysOverdue"`
}

// Service computes dashboard aggregates over the record store, with a
// versioned cache in front and singleflight collapsing concurrent rebuilds.
type Service struct {
	store procurement.Store
	cache *Cache
	group singleflight.Group
	now   func() time.Time
}

// NewService constructs the dashboard service. cache may be nil.
func NewService(store procurement.Store, cache *Cache) *Service {
	return &Service{store: store, cache: cache, now: time.Now}
}

// Summary returns the cached aggregate view, rebuilding it on miss.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	key, err := s.cache.BuildKey(ctx, "dashboard", "summary")
	if err != nil {
		return Summary{}, err
	}
	var out Summary
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (interface{}, error) {
		res, err, _ := s.singleflightBuild(ctx, key)
		return res, err
	})
	return out, err
}

func (s *Service) singleflightBuild(ctx context.Context, key string) (interface{}, error, bool) {
	resultChan := s.group.DoChan(key, func() (interface{}, error) {
		return s.build(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err(), false
	case res := <-resultChan:
		return res.Val, res.Err, res.Shared
	}
}

func (s *Service) build(ctx context.Context) (Summary, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	today := now.Format("2006-01-02")

	out := Summary{
		Recent:      []procurement.Record{},
		Delayed:     []DelayedAlert{},
		GeneratedAt: now,
	}

	for _, rec := range records {
		switch {
		case rec.Stage == procurement.StagePO:
			out.TotalPOs++
		case rec.Stage == procurement.StageIndent && rec.Status == procurement.StatusPending:
			out.PendingIndents++
		case rec.Stage == procurement.StageWeighment && rec.Status == procurement.StatusVerified:
			out.PendingQC++
		case rec.Stage == procurement.StageBills && rec.Status == procurement.StatusBillPending:
			out.PendingBills++
		}
		if rec.DeliveryDate != "" && rec.DeliveryDate < today && !reachedMRN(rec.Stage) {
			out.Delayed = append(out.Delayed, DelayedAlert{
				ID:           rec.ID,
				PONo:         rec.PONo,
				SupplierName: rec.SupplierName,
				MaterialName: rec.MaterialName,
				DeliveryDate: rec.DeliveryDate,
				Stage:        rec.Stage,
				DaysOverdue:  daysOverdue(rec.DeliveryDate, now),
			})
		}
	}

	recent := make([]procurement.Record, len(records))
	copy(recent, records)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].CreatedAt.After(recent[j].CreatedAt)
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	out.Recent = recent

	return out, nil
}

// reachedMRN reports whether the stage is mrn or later in the chain, i.e.
// the material has been booked in and the delivery can no longer be late.
func reachedMRN(stage procurement.Stage) bool {
	switch stage {
	case procurement.StageMRN, procurement.StageBills, procurement.StageQCReport, procurement.StageBillEntry:
		return true
	}
	return false
}

func daysOverdue(deliveryDate string, now time.Time) int {
	due, err := time.Parse("2006-01-02", deliveryDate)
	if err != nil {
		return 0
	}
	days := int(now.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
