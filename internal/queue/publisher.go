package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/ivankuzmin/pricearchive/internal/migrate"
)

// PublishReports emits one message per migrated snapshot so downstream
// consumers can track which crawls have been folded into the archive.
// Messages are keyed by snapshot name; the report checksum lets consumers
// spot re-runs over identical source data.
func PublishReports(ctx context.Context, writer *kafka.Writer, reports []migrate.Report) error {
	if writer == nil || len(reports) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(reports))
	for _, rep := range reports {
		payload, err := json.Marshal(rep)
		if err != nil {
			return fmt.Errorf("marshal report %s: %w", rep.Snapshot, err)
		}
		msgs = append(msgs, kafka.Message{Key: []byte(rep.Snapshot), Value: payload})
	}
	return writer.WriteMessages(ctx, msgs...)
}
