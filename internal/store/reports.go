package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factorynet/internal/services"
	"factorynet/internal/validation"
)

// SaveValidationReport upserts the dataset's report, replacing any earlier one.
func (s *Store) SaveValidationReport(ctx context.Context, report validation.Report, dataset string) error {
	if dataset == "" {
		dataset = report.DatasetName
	}
	if dataset == "" {
		return services.Wrap(services.ErrValidation, "store", "save validation report", "dataset is required", nil)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal validation report: %w", err)
	}
	generated := report.GeneratedAt
	if generated.IsZero() {
		generated = s.now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO validation_reports (
                dataset, total_episodes, valid_episodes, invalid_episodes, pass_rate,
                avg_quality_score, report_json, generated_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (dataset) DO UPDATE SET
                total_episodes = excluded.total_episodes,
                valid_episodes = excluded.valid_episodes,
                invalid_episodes = excluded.invalid_episodes,
                pass_rate = excluded.pass_rate,
                avg_quality_score = excluded.avg_quality_score,
                report_json = excluded.report_json,
                generated_at = excluded.generated_at,
                updated_at = excluded.updated_at`,
			dataset, report.TotalEpisodes, report.ValidEpisodes, report.InvalidEpisodes, report.PassRate,
			report.AvgQualityScore, string(data), generated.UTC().Format(time.RFC3339Nano), s.timestamp(),
		)
		if err != nil {
			return fmt.Errorf("upsert validation report: %w", err)
		}
		return nil
	})
}

// LoadValidationReport returns the dataset's stored report. A missing report
// is ErrNotFound.
func (s *Store) LoadValidationReport(ctx context.Context, dataset string) (validation.Report, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM validation_reports WHERE dataset = ?`, dataset).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return validation.Report{}, services.Wrap(services.ErrNotFound, "store", "load validation report", dataset, nil)
	}
	if err != nil {
		return validation.Report{}, fmt.Errorf("load validation report: %w", err)
	}
	var report validation.Report
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return validation.Report{}, fmt.Errorf("decode validation report: %w", err)
	}
	return report, nil
}
