package normalizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"factorynet/internal/episode"
	"factorynet/internal/features"
	"factorynet/internal/logging"
	"factorynet/internal/services"
	"factorynet/internal/taxonomy"
)

const (
	// DefaultIDPrefix prefixes generated episode IDs.
	DefaultIDPrefix = "FN-ADAPTED"
	// DefaultBearingType selects the geometry used for fault frequencies.
	DefaultBearingType = "6205"
	// DefaultSamplingRateHz applies to episodes without channels.
	DefaultSamplingRateHz = 12000.0
	// LabelConfidence is assigned to every label adapted from a benchmark dataset.
	LabelConfidence = 0.95
)

// Options configures a Normalizer.
type Options struct {
	IDPrefix        string
	ExtractFeatures bool
	BearingType     string
	Features        features.Options
	// Clock stamps episodes that carry no timestamp. Defaults to time.Now.
	Clock func() time.Time
}

// DefaultOptions returns the standard normalizer settings.
func DefaultOptions() Options {
	return Options{
		IDPrefix:        DefaultIDPrefix,
		ExtractFeatures: true,
		BearingType:     DefaultBearingType,
		Features:        features.DefaultOptions(),
	}
}

// Normalizer converts RawEpisode values into canonical episodes and keeps
// episode IDs unique for its lifetime.
type Normalizer struct {
	opts      Options
	extractor *features.Extractor
	geometry  *features.BearingGeometry
	bearing   *episode.BearingInfo
	priors    *priorTable
	title     cases.Caser
	logger    *slog.Logger

	counter int
	seen    map[string]struct{}
}

// New validates opts and constructs a Normalizer.
func New(opts Options, logger *slog.Logger) (*Normalizer, error) {
	opts.IDPrefix = strings.TrimSpace(opts.IDPrefix)
	if opts.IDPrefix == "" {
		opts.IDPrefix = DefaultIDPrefix
	}
	opts.BearingType = strings.TrimSpace(opts.BearingType)
	if opts.BearingType == "" {
		opts.BearingType = DefaultBearingType
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	extractor, err := features.New(opts.Features)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "normalizer", "init", "feature extractor", err)
	}
	priors, err := loadPriors(priorsYAML)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "normalizer", "init", "semantic priors", err)
	}

	n := &Normalizer{
		opts:      opts,
		extractor: extractor,
		priors:    priors,
		title:     cases.Title(language.Und),
		logger:    logging.NewComponentLogger(logger, "normalizer"),
		seen:      make(map[string]struct{}),
	}
	if geom, ok := features.LookupBearing(opts.BearingType); ok {
		info := geom.Info(opts.BearingType)
		n.geometry = &geom
		n.bearing = &info
	} else {
		n.logger.Warn("unknown bearing type; fault frequency amplitudes disabled",
			logging.String("bearing_type", opts.BearingType),
			logging.Any("known_types", features.BearingModels()),
			logging.String(logging.FieldEventType, "bearing_type_unknown"),
			logging.String(logging.FieldErrorHint, "set features.bearing_type to a catalogued model"),
		)
	}
	return n, nil
}

// Normalize converts raw into a canonical Episode. An empty episodeID
// assigns the next free generated ID; an explicit ID is used as given and
// recorded so later generated IDs skip it. An explicit ID already assigned
// or reserved is rejected. Nothing is recorded when normalization fails.
func (n *Normalizer) Normalize(raw episode.RawEpisode, episodeID string) (*episode.Episode, error) {
	if err := validateChannels(raw.Channels); err != nil {
		return nil, services.Wrap(services.ErrValidation, "normalizer", "validate channels", raw.RawID, err)
	}

	counter := n.counter
	if episodeID = strings.TrimSpace(episodeID); episodeID == "" {
		episodeID, counter = n.nextID()
	} else if _, taken := n.seen[episodeID]; taken {
		return nil, services.Wrap(services.ErrValidation, "normalizer", "assign id", episodeID,
			fmt.Errorf("episode ID %q already used", episodeID))
	}

	rate := DefaultSamplingRateHz
	if len(raw.Channels) > 0 {
		rate = raw.Channels[0].SamplingRateHz
	}
	steps, names := buildSteps(raw.Channels)
	units := make(map[string]string, len(raw.Channels))
	for _, ch := range raw.Channels {
		units[ch.Name] = ch.Unit
	}

	start := n.opts.Clock()
	if raw.Timestamp != nil {
		start = *raw.Timestamp
	}
	duration := raw.EffectiveDuration()
	conditions := episode.OperatingConditions{LoadHP: copyFloat(raw.LoadHP), RPM: copyFloat(raw.RPM)}

	ep := &episode.Episode{
		EpisodeID:       episodeID,
		Source:          episode.Source,
		SourceDataset:   raw.SourceDataset,
		SourceFile:      raw.SourceFile,
		RawChecksum:     raw.Checksum(),
		MachineCode:     taxonomy.MachineCode(raw.SourceDataset),
		MachineInstance: fmt.Sprintf("%s_%s", raw.SourceDataset, raw.RawID),
		TimestampStart:  start,
		TimestampEnd:    start.Add(time.Duration(duration * float64(time.Second))),
		DurationSeconds: duration,
		SamplingRateHz:  rate,
		Steps:           steps,
		ChannelNames:    names,
		ChannelUnits:    units,
		State:           n.stateAnnotation(raw),
		CauseCode:       taxonomy.CauseCode(raw.FaultType),
		Features:        map[string]episode.VibrationFeatures{},
		Priors:          n.priors.lookup(raw.SourceDataset, conditions, n.bearing),
		LoadHP:          copyFloat(raw.LoadHP),
		RPM:             copyFloat(raw.RPM),
		RawMetadata:     raw.Metadata.Clone(),
	}
	if n.opts.ExtractFeatures {
		ep.Features = n.extractFeatures(raw)
	}

	n.counter = counter
	n.seen[episodeID] = struct{}{}

	n.logger.Debug("episode normalized",
		logging.EpisodeID(episodeID),
		logging.RawID(raw.RawID),
		logging.Dataset(raw.SourceDataset),
		logging.String("state_code", ep.State.Code),
		logging.Int("steps", len(steps)),
		logging.Int("feature_channels", len(ep.Features)),
		logging.String(logging.FieldEventType, "episode_normalized"),
	)
	return ep, nil
}

// Reserve marks ids as taken so generated IDs never reuse them.
func (n *Normalizer) Reserve(ids ...string) {
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			n.seen[id] = struct{}{}
		}
	}
}

// Reset clears the counter and the seen-set.
func (n *Normalizer) Reset() {
	n.counter = 0
	clear(n.seen)
}

// nextID returns the next unused generated ID and the counter value that
// produced it without recording either.
func (n *Normalizer) nextID() (string, int) {
	counter := n.counter
	for {
		counter++
		id := fmt.Sprintf("%s-%06d", n.opts.IDPrefix, counter)
		if _, taken := n.seen[id]; !taken {
			return id, counter
		}
	}
}

func (n *Normalizer) stateAnnotation(raw episode.RawEpisode) episode.StateAnnotation {
	label := n.title.String(strings.ReplaceAll(raw.FaultType.String(), "_", " "))
	if loc := strings.TrimSpace(raw.FaultLocation); loc != "" {
		label = fmt.Sprintf("%s (%s)", label, loc)
	}
	return episode.StateAnnotation{
		Code:       taxonomy.StateCode(raw.FaultType),
		Label:      label,
		Confidence: LabelConfidence,
		Severity:   raw.Severity.Value(),
		Symptoms:   taxonomy.Symptoms(raw.FaultType),
	}
}

func (n *Normalizer) extractFeatures(raw episode.RawEpisode) map[string]episode.VibrationFeatures {
	signals := make([]features.Signal, 0, len(raw.Channels))
	for _, ch := range raw.Channels {
		signals = append(signals, features.Signal{Name: ch.Name, Samples: ch.Samples, RateHz: ch.SamplingRateHz})
	}
	// Background never cancels, so the batch error is always nil.
	results, _ := n.extractor.ExtractBatch(context.Background(), signals, raw.RPM, n.geometry)
	out := make(map[string]episode.VibrationFeatures, len(results))
	for _, res := range results {
		if res.Err != nil {
			logging.WarnWithContext(n.logger, "feature extraction failed; channel omitted", "feature_extraction_failed",
				logging.RawID(raw.RawID),
				logging.Channel(res.Name),
				logging.Error(res.Err),
				logging.String(logging.FieldErrorHint, "inspect the channel samples for NaN or Inf values"),
			)
			continue
		}
		out[res.Name] = res.Features
	}
	return out
}

func validateChannels(channels []episode.SensorChannel) error {
	names := make(map[string]struct{}, len(channels))
	for i, ch := range channels {
		if err := ch.Validate(); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
		if _, dup := names[ch.Name]; dup {
			return fmt.Errorf("channel %d: duplicate channel name %q", i, ch.Name)
		}
		names[ch.Name] = struct{}{}
	}
	return nil
}

// buildSteps samples every channel at each index of the first channel.
// Channels shorter than the reference contribute nothing past their end.
func buildSteps(channels []episode.SensorChannel) ([]episode.Step, []string) {
	if len(channels) == 0 {
		return []episode.Step{}, []string{}
	}
	names := make([]string, len(channels))
	for i, ch := range channels {
		names[i] = ch.Name
	}
	ref := channels[0]
	dt := 1 / ref.SamplingRateHz
	steps := make([]episode.Step, len(ref.Samples))
	for i := range steps {
		values := make(map[string]float64, len(channels))
		for _, ch := range channels {
			if i < len(ch.Samples) {
				values[ch.Name] = ch.Samples[i]
			}
		}
		steps[i] = episode.Step{Index: i, OffsetSeconds: float64(i) * dt, Values: values}
	}
	return steps, names
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
