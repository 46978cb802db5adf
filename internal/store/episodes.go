package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"factorynet/internal/episode"
	"factorynet/internal/pipeline"
	"factorynet/internal/services"
)

// ChannelSeries is one stored channel. Values align with the episode's steps;
// nil marks a missing or non-finite cell.
type ChannelSeries struct {
	Name   string     `json:"name"`
	Unit   string     `json:"unit"`
	Values []*float64 `json:"values"`
}

// StoredEpisode is an episode as read back from the store.
type StoredEpisode struct {
	Metadata  episode.MetadataRecord               `json:"metadata"`
	Features  map[string]episode.VibrationFeatures `json:"features"`
	Priors    *episode.SemanticPriors              `json:"semantic_priors,omitempty"`
	QA        []pipeline.QAPair                    `json:"qa_pairs"`
	Channels  []ChannelSeries                      `json:"channels"`
	UpdatedAt time.Time                            `json:"updated_at"`
}

// EpisodeSummary is one row of ListEpisodes.
type EpisodeSummary struct {
	Dataset         string    `json:"source_dataset"`
	EpisodeID       string    `json:"episode_id"`
	StateCode       string    `json:"state_code"`
	StateLabel      string    `json:"state_label"`
	Severity        float64   `json:"severity"`
	DurationSeconds float64   `json:"duration_seconds"`
	NumTimesteps    int       `json:"num_timesteps"`
	QAPairs         int       `json:"qa_pairs"`
	StoredBytes     int64     `json:"stored_bytes"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DatasetStats aggregates the stored episodes of one dataset.
type DatasetStats struct {
	Dataset              string         `json:"dataset_name"`
	Episodes             int            `json:"num_episodes"`
	StoredBytes          int64          `json:"stored_bytes"`
	TotalDurationSeconds float64        `json:"total_duration_seconds"`
	QAPairs              int            `json:"qa_pairs"`
	FaultDistribution    map[string]int `json:"fault_distribution"`
}

// SaveEpisode upserts ep and its Q&A pairs. Channel rows are replaced as a
// whole, so a re-run with fewer channels leaves no stale rows.
func (s *Store) SaveEpisode(ctx context.Context, ep *episode.Episode, qa []pipeline.QAPair) error {
	if ep == nil {
		return services.Wrap(services.ErrValidation, "store", "save episode", "episode is nil", nil)
	}
	if ep.SourceDataset == "" || ep.EpisodeID == "" {
		return services.Wrap(services.ErrValidation, "store", "save episode", "source dataset and episode ID are required", nil)
	}

	metadataJSON, err := json.Marshal(ep.MetadataDocument())
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	features := ep.Features
	if features == nil {
		features = map[string]episode.VibrationFeatures{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	var priorsJSON []byte
	if ep.Priors != nil {
		if priorsJSON, err = json.Marshal(ep.Priors); err != nil {
			return fmt.Errorf("marshal priors: %w", err)
		}
	}
	if qa == nil {
		qa = []pipeline.QAPair{}
	}
	qaJSON, err := json.Marshal(qa)
	if err != nil {
		return fmt.Errorf("marshal qa pairs: %w", err)
	}

	channels := make([][]byte, len(ep.ChannelNames))
	size := int64(len(metadataJSON) + len(featuresJSON) + len(priorsJSON) + len(qaJSON))
	for i, name := range ep.ChannelNames {
		data, err := json.Marshal(ep.ChannelSeries(name))
		if err != nil {
			return fmt.Errorf("marshal channel %s: %w", name, err)
		}
		channels[i] = data
		size += int64(len(data))
	}

	now := s.timestamp()
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin save tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		_, err = tx.ExecContext(ctx,
			`INSERT INTO episodes (
                source_dataset, episode_id, source_file, raw_checksum, machine_code,
                state_code, state_label, severity, duration_seconds, sampling_rate_hz,
                num_timesteps, metadata_json, features_json, priors_json, qa_json,
                qa_pairs, stored_bytes, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (source_dataset, episode_id) DO UPDATE SET
                source_file = excluded.source_file,
                raw_checksum = excluded.raw_checksum,
                machine_code = excluded.machine_code,
                state_code = excluded.state_code,
                state_label = excluded.state_label,
                severity = excluded.severity,
                duration_seconds = excluded.duration_seconds,
                sampling_rate_hz = excluded.sampling_rate_hz,
                num_timesteps = excluded.num_timesteps,
                metadata_json = excluded.metadata_json,
                features_json = excluded.features_json,
                priors_json = excluded.priors_json,
                qa_json = excluded.qa_json,
                qa_pairs = excluded.qa_pairs,
                stored_bytes = excluded.stored_bytes,
                updated_at = excluded.updated_at`,
			ep.SourceDataset, ep.EpisodeID, nullableString(ep.SourceFile), nullableString(ep.RawChecksum), ep.MachineCode,
			nullableString(ep.State.Code), nullableString(ep.State.Label), ep.State.Severity, ep.DurationSeconds, ep.SamplingRateHz,
			len(ep.Steps), string(metadataJSON), string(featuresJSON), nullableString(string(priorsJSON)), string(qaJSON),
			len(qa), size, now, now,
		)
		if err != nil {
			return fmt.Errorf("upsert episode: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM episode_channels WHERE source_dataset = ? AND episode_id = ?`,
			ep.SourceDataset, ep.EpisodeID); err != nil {
			return fmt.Errorf("clear channels: %w", err)
		}
		for i, name := range ep.ChannelNames {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO episode_channels (source_dataset, episode_id, channel, unit, position, values_json)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				ep.SourceDataset, ep.EpisodeID, name, nullableString(ep.ChannelUnits[name]), i, string(channels[i]),
			); err != nil {
				return fmt.Errorf("insert channel %s: %w", name, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit episode: %w", err)
		}
		return nil
	})
}

// LoadEpisode reads one episode back. A missing episode is ErrNotFound.
func (s *Store) LoadEpisode(ctx context.Context, dataset, episodeID string) (*StoredEpisode, error) {
	var (
		metadataJSON, featuresJSON, qaJSON, updatedAt string
		priorsJSON                                    sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT metadata_json, features_json, priors_json, qa_json, updated_at
         FROM episodes WHERE source_dataset = ? AND episode_id = ?`,
		dataset, episodeID,
	).Scan(&metadataJSON, &featuresJSON, &priorsJSON, &qaJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "store", "load episode", dataset+"/"+episodeID, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load episode: %w", err)
	}

	out := &StoredEpisode{UpdatedAt: parseTime(updatedAt)}
	if err := json.Unmarshal([]byte(metadataJSON), &out.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	if err := json.Unmarshal([]byte(featuresJSON), &out.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal([]byte(qaJSON), &out.QA); err != nil {
		return nil, fmt.Errorf("decode qa pairs: %w", err)
	}
	if priorsJSON.Valid {
		out.Priors = &episode.SemanticPriors{}
		if err := json.Unmarshal([]byte(priorsJSON.String), out.Priors); err != nil {
			return nil, fmt.Errorf("decode priors: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, unit, values_json FROM episode_channels
         WHERE source_dataset = ? AND episode_id = ? ORDER BY position`,
		dataset, episodeID,
	)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ch     ChannelSeries
			unit   sql.NullString
			values string
		)
		if err := rows.Scan(&ch.Name, &unit, &values); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		ch.Unit = unit.String
		if err := json.Unmarshal([]byte(values), &ch.Values); err != nil {
			return nil, fmt.Errorf("decode channel %s: %w", ch.Name, err)
		}
		out.Channels = append(out.Channels, ch)
	}
	return out, rows.Err()
}

// ListEpisodes lists stored episodes ordered by dataset then ID. An empty
// dataset lists every dataset.
func (s *Store) ListEpisodes(ctx context.Context, dataset string) ([]EpisodeSummary, error) {
	query := `SELECT source_dataset, episode_id, state_code, state_label, severity, duration_seconds,
                     num_timesteps, qa_pairs, stored_bytes, updated_at
              FROM episodes`
	var args []any
	if dataset != "" {
		query += ` WHERE source_dataset = ?`
		args = append(args, dataset)
	}
	query += ` ORDER BY source_dataset, episode_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var out []EpisodeSummary
	for rows.Next() {
		var (
			sum              EpisodeSummary
			stateCode, label sql.NullString
			updatedAt        string
		)
		if err := rows.Scan(&sum.Dataset, &sum.EpisodeID, &stateCode, &label, &sum.Severity, &sum.DurationSeconds,
			&sum.NumTimesteps, &sum.QAPairs, &sum.StoredBytes, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		sum.StateCode = stateCode.String
		sum.StateLabel = label.String
		sum.UpdatedAt = parseTime(updatedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DatasetStats counts episodes, stored bytes, and episodes per state label.
func (s *Store) DatasetStats(ctx context.Context, dataset string) (DatasetStats, error) {
	stats := DatasetStats{Dataset: dataset, FaultDistribution: map[string]int{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT COALESCE(state_label, 'unknown'), COUNT(1), SUM(stored_bytes), SUM(duration_seconds), SUM(qa_pairs)
         FROM episodes WHERE source_dataset = ? GROUP BY 1`,
		dataset,
	)
	if err != nil {
		return stats, fmt.Errorf("dataset stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			label          string
			count, qaPairs int
			bytes          int64
			duration       float64
		)
		if err := rows.Scan(&label, &count, &bytes, &duration, &qaPairs); err != nil {
			return stats, fmt.Errorf("scan dataset stats: %w", err)
		}
		stats.FaultDistribution[label] = count
		stats.Episodes += count
		stats.StoredBytes += bytes
		stats.TotalDurationSeconds += duration
		stats.QAPairs += qaPairs
	}
	return stats, rows.Err()
}

// Datasets lists the dataset names with at least one stored episode.
func (s *Store) Datasets(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source_dataset FROM episodes ORDER BY source_dataset`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ pipeline.Storage = (*Store)(nil)
