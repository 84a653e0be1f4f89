package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/veridian-eda/aigpipe/internal/config"
)

// Script is one canned process transcript keyed by its command line. The
// command is given relative to the workdir; the harness prepends the
// `cd <workdir>; ` prefix the scheduler uses for real commands.
type Script struct {
	Command string   `yaml:"command"`
	Lines   []string `yaml:"lines"`
	Retcode int      `yaml:"retcode"`
}

// Expect declares the scenario's expected outcome.
type Expect struct {
	// TaskStatus is the folded task verdict ("PASS", "FAIL").
	TaskStatus string `yaml:"task_status"`
	// EngineStatus maps engine index to expected verdict. Engines not
	// listed must not have published one (cancelled siblings).
	EngineStatus map[int]string `yaml:"engine_status"`
	// Fatal, when set, is a substring the scheduler error must contain;
	// the scenario then expects the run to abort.
	Fatal string `yaml:"fatal"`
}

// Scenario is one YAML conformance scenario.
type Scenario struct {
	Name    string    `yaml:"name"`
	Config  yaml.Node `yaml:"config"`
	Scripts []Script  `yaml:"scripts"`
	Expect  Expect    `yaml:"expect"`
}

// LoadScenario reads and decodes a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("scenario %s: missing name", path)
	}
	return &sc, nil
}

// TaskConfig validates the scenario's config block through the regular
// config loader and pins the workdir to the harness's temp directory.
func (sc *Scenario) TaskConfig(workdir string) (config.Config, error) {
	raw, err := yaml.Marshal(&sc.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return config.Config{}, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	cfg.Workdir = workdir
	return cfg, nil
}
