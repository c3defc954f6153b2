package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/notedown/internal/delta"
)

// Snapshot is the golden form of a scenario run: the rules that fired and
// the final document.
type Snapshot struct {
	Scenario string      `json:"scenario"`
	Applied  []string    `json:"applied"`
	Contents delta.Delta `json:"contents"`
}

// MarshalSnapshot renders a snapshot as indented JSON. Object keys inside
// the contents are sorted, so output is stable.
func MarshalSnapshot(s Snapshot) ([]byte, error) {
	if s.Applied == nil {
		s.Applied = []string{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if the scenario cannot run. A snapshot mismatch fails t.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(Snapshot{
		Scenario: scenarioName,
		Applied:  result.Applied,
		Contents: result.Contents,
	})
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
