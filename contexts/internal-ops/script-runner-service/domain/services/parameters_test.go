package services

import (
	"testing"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportConfig = entities.ScriptConfiguration{
	Name: "metadata-export",
	Options: []entities.ScriptOption{
		{Name: "item_ids"},
		{Name: "collection", Required: true},
	},
}

func TestNormalizeParameters(t *testing.T) {
	params, err := NormalizeParameters(exportConfig, map[string]string{
		" collection ": " col-1 ",
		"item_ids":     "a,b",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"collection": "col-1", "item_ids": "a,b"}, params)
}

func TestNormalizeParametersRejectsUnknownAndMissing(t *testing.T) {
	_, err := NormalizeParameters(exportConfig, map[string]string{"collection": "c", "bogus": "1"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)

	_, err = NormalizeParameters(exportConfig, map[string]string{"item_ids": "a"})
	require.ErrorIs(t, err, domainerrors.ErrInvalidRequest)
}

func TestParseBoolAndSplitList(t *testing.T) {
	assert.True(t, ParseBool("Yes"))
	assert.False(t, ParseBool(""))
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b "))
	assert.Nil(t, SplitList(""))
}
