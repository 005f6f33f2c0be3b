package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// EncodeVector serializes an embedding vector into the jsonb column format.
// A nil or empty vector encodes as SQL-null JSON so "has no embedding" is a
// single representation.
func EncodeVector(vec []float32) datatypes.JSON {
	if len(vec) == 0 {
		return datatypes.JSON(nil)
	}
	b, err := json.Marshal(vec)
	if err != nil {
		return datatypes.JSON(nil)
	}
	return datatypes.JSON(b)
}

// DecodeVector is the inverse of EncodeVector. Malformed or empty payloads
// decode to nil, which callers treat as "not embedded yet".
func DecodeVector(raw datatypes.JSON) []float32 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		return nil
	}
	if len(vec) == 0 {
		return nil
	}
	return vec
}

// EncodeTags and DecodeTags keep the tag-set column handling in one place.
func EncodeTags(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return datatypes.JSON([]byte(`[]`))
	}
	return datatypes.JSON(b)
}

func DecodeTags(raw datatypes.JSON) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil
	}
	return tags
}
