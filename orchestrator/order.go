package orchestrator

import (
	"fmt"
	"slices"

	"github.com/crmarques/lioctl/faults"
	"github.com/crmarques/lioctl/resource"
)

// Order returns desired in convergence order: present resources by kind
// (target, backstore, portal_group, lun), then absent resources in reverse
// kind order. Declaration order is kept within a kind.
func Order(desired []resource.Desired) ([]resource.Desired, error) {
	ordered := slices.Clone(desired)
	slices.SortStableFunc(ordered, func(left resource.Desired, right resource.Desired) int {
		return orderKey(left) - orderKey(right)
	})

	if err := checkDependencies(ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

func orderKey(item resource.Desired) int {
	rank := item.Kind().Rank()
	if item.Ensure == resource.EnsureAbsent {
		return 2*len(resource.Kinds()) - rank
	}
	return rank
}

// checkDependencies rejects present resources whose declared dependency is
// declared absent, and dependencies ordered after their dependents.
func checkDependencies(ordered []resource.Desired) error {
	position := make(map[string]int, len(ordered))
	for idx, item := range ordered {
		position[dependencyKey(item.Kind(), item.Path())] = idx
	}

	for idx, item := range ordered {
		if item.Ensure == resource.EnsureAbsent {
			continue
		}
		for _, dependency := range resource.Dependencies(item.Object) {
			depIdx, declared := position[dependencyKey(dependency.Kind, dependency.Path)]
			if !declared {
				continue
			}
			if ordered[depIdx].Ensure == resource.EnsureAbsent {
				return faults.NewTypedError(
					faults.ConflictError,
					fmt.Sprintf("%s %s depends on %s %s which is declared absent", item.Kind(), item.Path(), dependency.Kind, dependency.Path),
					nil,
				)
			}
			if depIdx > idx {
				return faults.NewTypedError(
					faults.InternalError,
					fmt.Sprintf("%s %s is ordered before its dependency %s", item.Kind(), item.Path(), dependency.Path),
					nil,
				)
			}
		}
	}
	return nil
}

func dependencyKey(kind resource.Kind, path string) string {
	return string(kind) + ":" + path
}
