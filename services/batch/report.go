package batch

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/astrodocs/missionqa/models"
)

// WriteReport persists the aggregate report as a single JSON artifact.
// Written once at the end of a run, not incrementally.
func WriteReport(path string, report *models.AggregateReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
