package config

const (
	defaultConfigPath                  = "~/.config/factorynet/config.toml"
	defaultOutputDir                   = "~/.local/share/factorynet/episodes"
	defaultLogDir                      = "~/.local/share/factorynet/logs"
	defaultDemoLimit                   = 100
	defaultSensorCompletenessThreshold = 0.95
	defaultLabelConfidenceThreshold    = 0.85
	defaultMinSteps                    = 100
	defaultMaxMissingRatio             = 0.05
	defaultWindow                      = "hann"
	defaultMaxSpectrumPoints           = 1000
	defaultToleranceBins               = 2
	defaultBearingType                 = "6205"
	defaultIDPrefix                    = "FN-ADAPTED"
	defaultQuestionsPerCategory        = 2
	defaultLogFormat                   = "console"
	defaultLogLevel                    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Pipeline: Pipeline{
			ExtractFeatures:  true,
			GenerateQA:       true,
			ValidateEpisodes: true,
			DemoLimit:        defaultDemoLimit,
		},
		Quality: Quality{
			SensorCompletenessThreshold: defaultSensorCompletenessThreshold,
			LabelConfidenceThreshold:    defaultLabelConfidenceThreshold,
			MinSteps:                    defaultMinSteps,
			MaxMissingRatio:             defaultMaxMissingRatio,
		},
		Features: Features{
			Window:            defaultWindow,
			MaxSpectrumPoints: defaultMaxSpectrumPoints,
			ToleranceBins:     defaultToleranceBins,
			BearingType:       defaultBearingType,
		},
		Normalizer: Normalizer{
			IDPrefix: defaultIDPrefix,
		},
		QA: QA{
			QuestionsPerCategory: defaultQuestionsPerCategory,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
