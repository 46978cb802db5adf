package logging

import (
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Float64(key string, value float64) Attr { return slog.Float64(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

// Error renders err under the "error" key; nil is written as "<nil>".
func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// Dataset, RawID, EpisodeID, Stage, and Channel build the standardized
// episode-scoped fields.
func Dataset(name string) Attr { return slog.String(FieldDataset, name) }

func RawID(id string) Attr { return slog.String(FieldRawID, id) }

func EpisodeID(id string) Attr { return slog.String(FieldEpisodeID, id) }

func Stage(name string) Attr { return slog.String(FieldStage, name) }

func Channel(name string) Attr { return slog.String(FieldChannel, name) }
