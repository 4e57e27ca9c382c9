package gallery

import "encoding/json"

// KeyList is a list of storage keys that also accepts a single bare string in
// JSON. Without the guard, a client submitting blob_names as one string would
// either fail to decode or, worse, be iterated element-wise; here it becomes a
// one-element batch.
type KeyList []string

func (k *KeyList) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*k = KeyList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*k = KeyList(many)
	return nil
}
