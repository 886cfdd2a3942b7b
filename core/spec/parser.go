package spec

import (
	"fmt"
	"strings"

	"churn-orchestrator/core/models"

	"gopkg.in/yaml.v3"
)

// RunSpec represents the YAML run specification
type RunSpec struct {
	Run RunSpecRun `yaml:"run"`
}

// RunSpecRun represents the run section of the spec
type RunSpecRun struct {
	Name  string       `yaml:"name"`
	Input RunSpecInput `yaml:"input"`
}

// RunSpecInput represents the input data configuration
type RunSpecInput struct {
	Dataset string `yaml:"dataset"`
}

// ParseRunSpec parses a YAML run specification into a PipelineRun model.
// The dataset location may be omitted when a default is configured.
func ParseRunSpec(specYAML, defaultDatasetURI string) (*models.PipelineRun, error) {
	var spec RunSpec
	if err := yaml.Unmarshal([]byte(specYAML), &spec); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	inputURI := spec.Run.Input.Dataset
	if inputURI == "" {
		inputURI = defaultDatasetURI
	}
	if inputURI == "" {
		return nil, fmt.Errorf("run spec has no input dataset and no default is configured")
	}
	if !strings.HasPrefix(inputURI, "s3://") {
		return nil, fmt.Errorf("input dataset must be an s3 URI, got %q", inputURI)
	}

	run := &models.PipelineRun{
		Name:     spec.Run.Name,
		InputURI: inputURI,
		Status:   models.RunStatusPending,
		SpecYAML: specYAML,
	}

	if run.Name == "" {
		run.Name = "churn-pipeline"
	}

	return run, nil
}
