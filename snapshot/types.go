package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
)

// Snapshot is the subset of the targetcli saveconfig document lioctl reads.
// Unknown keys are ignored.
type Snapshot struct {
	Targets        []Target        `json:"targets,omitempty"`
	StorageObjects []StorageObject `json:"storage_objects,omitempty"`
}

type Target struct {
	Fabric string `json:"fabric"`
	WWN    string `json:"wwn"`
	TPGs   []TPG  `json:"tpgs,omitempty"`
}

type TPG struct {
	Tag        int              `json:"tag"`
	Attributes map[string]Value `json:"attributes,omitempty"`
	Luns       []Lun            `json:"luns,omitempty"`
}

type Lun struct {
	Index         int    `json:"index"`
	StorageObject string `json:"storage_object"`
}

type StorageObject struct {
	Plugin    string `json:"plugin"`
	Name      string `json:"name"`
	Dev       string `json:"dev,omitempty"`
	Size      *int64 `json:"size,omitempty"`
	WriteBack *bool  `json:"write_back,omitempty"`
	WWN       string `json:"wwn,omitempty"`
}

// Value is a scalar attribute value. saveconfig writes most tpg attributes
// as numbers; they are kept in their textual form.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*v = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		*v = Value(text)
		return nil
	}
	*v = Value(trimmed)
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(v), 10, 64); err == nil {
		return []byte(v), nil
	}
	if v == "true" || v == "false" {
		return []byte(v), nil
	}
	return json.Marshal(string(v))
}

func (t TPG) AttributeStrings() map[string]string {
	if t.Attributes == nil {
		return nil
	}
	attributes := make(map[string]string, len(t.Attributes))
	for key, value := range t.Attributes {
		attributes[key] = string(value)
	}
	return attributes
}

// Source produces snapshots of the live target configuration.
type Source interface {
	// Refresh persists live state to the savefile and parses it.
	Refresh(ctx context.Context) (Snapshot, error)
	// Load parses the savefile without persisting first.
	Load(ctx context.Context) (Snapshot, error)
	// Persist asks the live subsystem to write its state to the savefile.
	Persist(ctx context.Context) error
	Path() string
}
