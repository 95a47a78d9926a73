package resource

import "strings"

type FieldChange struct {
	Name     string
	Desired  string
	Observed string
	// Missing is set when the observed instance does not report the field.
	Missing bool
}

// Diff compares the declared fields of desired against observed. Fields the
// desired object does not declare are ignored, which makes PortalGroup
// attributes a subset match.
func Diff(desired Object, observed Object) []FieldChange {
	if desired == nil {
		return nil
	}

	observedFields := map[string]string{}
	if observed != nil {
		for _, field := range observed.Fields() {
			observedFields[field.Name] = field.Value
		}
	}

	var changes []FieldChange
	for _, field := range desired.Fields() {
		value, ok := observedFields[field.Name]
		if ok && value == field.Value {
			continue
		}
		changes = append(changes, FieldChange{
			Name:     field.Name,
			Desired:  field.Value,
			Observed: value,
			Missing:  !ok,
		})
	}
	return changes
}

func Equal(desired Object, observed Object) bool {
	return len(Diff(desired, observed)) == 0
}

// ChangedAttributes returns the PortalGroup attribute keys present in changes.
func ChangedAttributes(changes []FieldChange) []string {
	var keys []string
	for _, change := range changes {
		if key, ok := strings.CutPrefix(change.Name, AttributeFieldPrefix); ok {
			keys = append(keys, key)
		}
	}
	return keys
}
