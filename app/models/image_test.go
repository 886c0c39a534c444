package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidTransformationType(t *testing.T) {
	for _, valid := range []string{
		TransformationRestore, TransformationFill, TransformationRemove,
		TransformationRecolor, TransformationRemoveBackground, TransformationReplaceBackground,
	} {
		assert.True(t, ValidTransformationType(valid), valid)
	}

	assert.False(t, ValidTransformationType(""))
	assert.False(t, ValidTransformationType("sharpen"))
	assert.False(t, ValidTransformationType("Restore"))
}

func TestJSONValue(t *testing.T) {
	var empty JSON
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	filled := JSON(`{"fillColor":"#fff"}`)
	v, err = filled.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"fillColor":"#fff"}`, v)
}

func TestJSONScan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan([]byte(`{"prompt":"cat"}`)))
	assert.Equal(t, JSON(`{"prompt":"cat"}`), j)

	require.NoError(t, j.Scan(`{"prompt":"dog"}`))
	assert.Equal(t, JSON(`{"prompt":"dog"}`), j)

	require.NoError(t, j.Scan(nil))
	assert.Equal(t, JSON("{}"), j)

	assert.Error(t, j.Scan(42))
}

func TestJSONMarshalRoundTrip(t *testing.T) {
	img := Image{
		PublicID:           "img-1",
		TransformationType: TransformationFill,
	}

	raw, err := json.Marshal(&img)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"config":null`)

	cfg := JSON(`{"aspectRatio":"1:1"}`)
	img.Config = &cfg

	raw, err = json.Marshal(&img)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"config":{"aspectRatio":"1:1"}`)

	var decoded Image
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NotNil(t, decoded.Config)
	assert.JSONEq(t, `{"aspectRatio":"1:1"}`, string(*decoded.Config))
}
