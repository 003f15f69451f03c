package query

import (
	"context"
	"fmt"

	"github.com/lueurxax/netdisk-aggregator/internal/storage"
)

// MaintenanceService wraps the link-check history maintenance endpoints
// (spec.md §6's /api/admin/maintenance/clear-link-check-data and
// clear-old-link-check-data), kept separate from Service since it writes
// rather than reads.
type MaintenanceService struct {
	linkChecks *storage.LinkCheckRepo
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(linkChecks *storage.LinkCheckRepo) *MaintenanceService {
	return &MaintenanceService{linkChecks: linkChecks}
}

// ClearLinkCheckData removes every link_check_stats/link_check_details row.
func (m *MaintenanceService) ClearLinkCheckData(ctx context.Context) error {
	if err := m.linkChecks.ClearAll(ctx); err != nil {
		return fmt.Errorf("clear link check data: %w", err)
	}

	return nil
}

// ClearOldLinkCheckData removes rows older than `days`.
func (m *MaintenanceService) ClearOldLinkCheckData(ctx context.Context, days int) error {
	if err := m.linkChecks.ClearOlderThan(ctx, days); err != nil {
		return fmt.Errorf("clear old link check data: %w", err)
	}

	return nil
}
