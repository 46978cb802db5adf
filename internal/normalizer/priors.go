package normalizer

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"factorynet/internal/episode"
)

//go:embed priors.yaml
var priorsYAML []byte

type datasetPriors struct {
	Description  string   `yaml:"description"`
	FailureModes []string `yaml:"failure_modes"`
}

type priorTable struct {
	MachineType                string                   `yaml:"machine_type"`
	Default                    datasetPriors            `yaml:"default"`
	MaintenanceRecommendations []string                 `yaml:"maintenance_recommendations"`
	Datasets                   map[string]datasetPriors `yaml:"datasets"`
}

func loadPriors(data []byte) (*priorTable, error) {
	var table priorTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse semantic priors: %w", err)
	}
	if table.Default.Description == "" || len(table.Default.FailureModes) == 0 {
		return nil, fmt.Errorf("semantic priors: default entry is incomplete")
	}
	return &table, nil
}

// lookup returns priors for dataset, falling back to the generic bearing
// entry. Slices are copied so episodes never share backing arrays.
func (t *priorTable) lookup(dataset string, conditions episode.OperatingConditions, bearing *episode.BearingInfo) *episode.SemanticPriors {
	entry, ok := t.Datasets[dataset]
	if !ok {
		entry = t.Default
	}
	priors := &episode.SemanticPriors{
		MachineType:                t.MachineType,
		MachineDescription:         entry.Description,
		TypicalFailureModes:        slices.Clone(entry.FailureModes),
		MaintenanceRecommendations: slices.Clone(t.MaintenanceRecommendations),
		OperatingConditions:        conditions,
	}
	if bearing != nil {
		info := *bearing
		priors.Bearing = &info
	}
	return priors
}
