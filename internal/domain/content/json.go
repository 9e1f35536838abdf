package content

import (
	"encoding/json"

	"gorm.io/datatypes"
)

func decodeJSON[T any](raw datatypes.JSON) (T, error) {
	var out T
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	err := json.Unmarshal(raw, &out)
	return out, err
}

// MustJSON marshals v for a datatypes.JSON column. Values that fail to
// marshal are stored as JSON null.
func MustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
