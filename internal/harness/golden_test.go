package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/notedown/internal/delta"
)

func TestRunWithGolden_Testdata(t *testing.T) {
	scenarios, err := LoadScenarios("testdata/scenarios")
	require.NoError(t, err)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	result, err := Run(&Scenario{
		Name:        "bold",
		Description: "bold via a hand-built scenario",
		Keys:        "*bold* ",
	})
	require.NoError(t, err)

	// Shares the golden file of testdata/scenarios/bold.yaml.
	require.NoError(t, AssertGolden(t, "bold", result))
}

func TestMarshalSnapshot_Format(t *testing.T) {
	data, err := MarshalSnapshot(Snapshot{
		Scenario: "header",
		Contents: delta.New(delta.Insert("\n", delta.Attributes{"header": 2})),
	})
	require.NoError(t, err)

	want := `{
  "scenario": "header",
  "applied": [],
  "contents": {
    "ops": [
      {
        "attributes": {
          "header": 2
        },
        "insert": "\n"
      }
    ]
  }
}
`
	assert.Equal(t, want, string(data))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	s := Snapshot{
		Scenario: "many",
		Applied:  []string{"bolditalic"},
		Contents: delta.New(
			delta.Insert("x", delta.Attributes{"italic": true, "bold": true, "background": "#ffa8a8"}),
			delta.Insert("\n", nil),
		),
	}
	first, err := MarshalSnapshot(s)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalSnapshot(s)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
