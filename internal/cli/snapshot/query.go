package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crmarques/lioctl/internal/cli/common"
	"github.com/crmarques/lioctl/resource"
	snapshotdomain "github.com/crmarques/lioctl/snapshot"
	"github.com/itchyny/gojq"
)

// genericSnapshot converts a snapshot into plain JSON values so both the jq
// evaluator and the YAML encoder see the saveconfig key names.
func genericSnapshot(snap snapshotdomain.Snapshot) (any, error) {
	encoded, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal(encoded, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// evaluateJQ runs expression against payload. A single result is returned
// as is; several results are returned as a list. The storage_object(path)
// function resolves a backstore path such as a LUN's storage_object.
func evaluateJQ(ctx context.Context, payload any, expression string) (any, error) {
	trimmedExpression := strings.TrimSpace(expression)
	if trimmedExpression == "" {
		return payload, nil
	}

	query, err := gojq.Parse(trimmedExpression)
	if err != nil {
		return nil, common.ValidationError("invalid jq expression", err)
	}
	code, err := gojq.Compile(query, gojq.WithFunction("storage_object", 1, 1, storageObjectFunction(payload)))
	if err != nil {
		return nil, common.ValidationError("invalid jq expression", err)
	}

	iterator := code.RunWithContext(ctx, payload)
	results := make([]any, 0, 1)
	for {
		value, ok := iterator.Next()
		if !ok {
			break
		}
		if valueErr, isErr := value.(error); isErr {
			return nil, common.ValidationError("failed to evaluate jq expression", valueErr)
		}
		results = append(results, value)
	}

	switch len(results) {
	case 0:
		return []any{}, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func storageObjectFunction(payload any) func(any, []any) any {
	index := map[string]any{}
	if document, ok := payload.(map[string]any); ok {
		storageObjects, _ := document["storage_objects"].([]any)
		for _, item := range storageObjects {
			storageObject, ok := item.(map[string]any)
			if !ok {
				continue
			}
			plugin, _ := storageObject["plugin"].(string)
			name, _ := storageObject["name"].(string)
			index[resource.BackstorePath(resource.BackstoreType(plugin), name)] = storageObject
		}
	}

	return func(_ any, args []any) any {
		path, ok := args[0].(string)
		if !ok {
			return fmt.Errorf("storage_object expects a backstore path string, got %T", args[0])
		}
		return index[path]
	}
}
