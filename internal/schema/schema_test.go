package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/moveng/internal/model"
)

func TestCheck_Valid(t *testing.T) {
	data := []byte(`{
		"movements": [{"id": "mov-a", "movementId": "mov-a", "name": "A", "tags": [], "order": null}],
		"entities": [{"id": "ent-1", "movementId": "mov-a", "name": "Founder", "kind": null, "tags": ["x"],
			"sourceEntityIds": [], "sourcesOfTruth": [], "order": 2, "summary": ""}],
		"notes": [{"id": "n1", "movementId": "mov-a", "targetType": "Entity", "targetId": "ent-1", "body": "hi"}],
		"meta": {"specVersion": "2.3"}
	}`)
	assert.NoError(t, Check(data))
}

func TestCheck_MovementIDOptionalOnMovements(t *testing.T) {
	assert.NoError(t, Check([]byte(`{"movements": [{"id": "mov-a", "name": "A", "tags": []}]}`)))

	issues, err := Issues([]byte(`{"entities": [{"id": "ent-1", "name": "E"}]}`))
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.Equal(t, "entities.0.movementId", issues[0].Path)
}

func TestCheck_EmptyObject(t *testing.T) {
	assert.NoError(t, Check([]byte(`{}`)))
}

// TestCheck_ShapeViolations tests that wrong types are reported with their path.
func TestCheck_ShapeViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
		path string
	}{
		{"collection not an array", `{"entities": {"id": "x"}}`, "entities"},
		{"numeric id", `{"entities": [{"id": 7, "movementId": "m", "name": "E"}]}`, "entities.0.id"},
		{"empty id", `{"texts": [{"id": "", "movementId": "m", "title": "T"}]}`, "texts.0.id"},
		{"tags not array", `{"movements": [{"id": "m", "movementId": "m", "name": "M", "tags": "x"}]}`, "movements.0.tags"},
		{"reference list of numbers", `{"claims": [{"id": "c", "movementId": "m", "text": "t", "aboutEntityIds": [1]}]}`, "claims.0.aboutEntityIds.0"},
		{"missing title", `{"texts": [{"id": "t", "movementId": "m"}]}`, "texts.0.title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := Issues([]byte(tt.data))
			require.NoError(t, err)
			require.NotEmpty(t, issues)

			var paths []string
			for _, issue := range issues {
				paths = append(paths, issue.Path)
			}
			assert.Contains(t, paths, tt.path)

			checkErr := Check([]byte(tt.data))
			var importErr *model.ImportError
			require.ErrorAs(t, checkErr, &importErr)
			assert.Equal(t, model.ErrCodeImport, model.ErrorCode(checkErr))
		})
	}
}

func TestCheck_NotAnObject(t *testing.T) {
	issues, err := Issues([]byte(`[1, 2]`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "JSON object")
}

func TestCheck_Malformed(t *testing.T) {
	err := Check([]byte(`{"movements": [`))
	var importErr *model.ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Contains(t, importErr.Message, "not valid JSON")
}
