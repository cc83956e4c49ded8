package utils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil // Store NULL if the map is nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("JSONMap: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, j)
}

func (j *JSONMap) KeySlice() []string {
	res := []string{}
	for k := range *j {
		res = append(res, k)
	}
	return res
}

// JSONMapSlice maps a JSONB array column onto an ordered slice of
// schema-less records. A nil slice is stored as an empty array so the
// serving path never has to distinguish NULL from zero records.
type JSONMapSlice []JSONMap

func (s JSONMapSlice) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]JSONMap{})
	}
	return json.Marshal(s)
}

func (s *JSONMapSlice) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("JSONMapSlice: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, s)
}
