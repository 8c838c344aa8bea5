package registration

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HistoryStore is one table holding rows attached to an unregistered patient.
// Reassign moves rows still lacking a patient id onto the given patient and
// reports how many it moved, which makes repeat runs harmless.
type HistoryStore struct {
	Name     string
	Reassign func(ctx context.Context, unregisteredID, patientID uuid.UUID) (int64, error)
}

// HistoryMigrator re-points clinical history from a shadow record to a newly
// registered patient. Each store is migrated independently; one store failing
// neither rolls back the others nor aborts registration.
type HistoryMigrator struct {
	stores []HistoryStore
	log    zerolog.Logger
}

func NewHistoryMigrator(log zerolog.Logger, stores ...HistoryStore) *HistoryMigrator {
	return &HistoryMigrator{stores: stores, log: log}
}

// Migrate returns the total number of rows moved across all stores.
func (m *HistoryMigrator) Migrate(ctx context.Context, unregisteredID, patientID uuid.UUID) int64 {
	var total int64
	for _, store := range m.stores {
		n, err := store.Reassign(ctx, unregisteredID, patientID)
		if err != nil {
			m.log.Warn().Err(err).Str("store", store.Name).
				Str("unregistered_patient_id", unregisteredID.String()).
				Msg("history migration failed for store")
			continue
		}
		if n > 0 {
			m.log.Info().Str("store", store.Name).Int64("rows", n).Msg("clinical history migrated")
		}
		total += n
	}
	return total
}
