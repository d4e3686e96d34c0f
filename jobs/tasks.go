package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/procflow/procflow/internal/procurement"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDelayScan is the task type for the overdue-delivery scan.
	TaskDelayScan = "procure:delay_scan"
	// CronDelayScan runs the delay scan every morning at 06:00.
	CronDelayScan = "0 6 * * *"
)

// DelayScanPayload parameterises the overdue-delivery scan.
type DelayScanPayload struct {
	AsOf string `json:"asOf,omitempty"`
}

// NewDelayScanTask constructs an Asynq task.
func NewDelayScanTask(payload DelayScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDelayScan, data), nil
}

// NewDelayScanHandler returns the handler for TaskDelayScan tasks. It walks
// the record store and logs every record whose promised delivery date has
// passed while the material has not been booked in yet.
func NewDelayScanHandler(logger *slog.Logger, store procurement.Store) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload DelayScanPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		asOf := payload.AsOf
		if asOf == "" {
			asOf = time.Now().Format("2006-01-02")
		}

		records, err := store.ListAll(ctx)
		if err != nil {
			return err
		}
		overdue := 0
		for _, rec := range records {
			if rec.DeliveryDate == "" || rec.DeliveryDate >= asOf {
				continue
			}
			switch rec.Stage {
			case procurement.StageMRN, procurement.StageBills, procurement.StageQCReport, procurement.StageBillEntry:
				continue
			}
			overdue++
			logger.Warn("delivery overdue",
				slog.String("id", rec.ID),
				slog.String("poNo", rec.PONo),
				slog.String("supplier", rec.SupplierName),
				slog.String("deliveryDate", rec.DeliveryDate),
				slog.String("stage", string(rec.Stage)))
		}
		logger.Info("delay scan complete", slog.String("asOf", asOf), slog.Int("overdue", overdue))
		return nil
	}
}
