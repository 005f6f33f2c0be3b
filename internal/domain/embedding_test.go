package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestVectorRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3}
	decoded := DecodeVector(EncodeVector(vec))
	assert.Equal(t, vec, decoded)
}

func TestEncodeVectorEmpty(t *testing.T) {
	assert.Nil(t, EncodeVector(nil))
	assert.Nil(t, EncodeVector([]float32{}))
}

func TestDecodeVectorMalformed(t *testing.T) {
	assert.Nil(t, DecodeVector(nil))
	assert.Nil(t, DecodeVector(datatypes.JSON([]byte("null"))))
	assert.Nil(t, DecodeVector(datatypes.JSON([]byte("not json"))))
	assert.Nil(t, DecodeVector(datatypes.JSON([]byte("[]"))))
}

func TestTagsRoundTrip(t *testing.T) {
	tags := []string{"billing", "faq"}
	assert.Equal(t, tags, DecodeTags(EncodeTags(tags)))
	// nil encodes as an empty list, not SQL null.
	assert.Equal(t, `[]`, string(EncodeTags(nil)))
}
