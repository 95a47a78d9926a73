package resource

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/crmarques/lioctl/faults"
)

var (
	targetPathPattern      = regexp.MustCompile(`^/([^/]+)/([^/]+)$`)
	backstorePathPattern   = regexp.MustCompile(`^/backstores/([^/]+)/([^/]+)$`)
	portalGroupPathPattern = regexp.MustCompile(`^/([^/]+)/([^/]+)/tpg([0-9]+)$`)
	lunPathPattern         = regexp.MustCompile(`^/([^/]+)/([^/]+)/tpg([0-9]+)/luns/lun([0-9]+)$`)
)

func TargetPath(fabric string, wwn string) string {
	return "/" + fabric + "/" + wwn
}

func BackstorePath(backstoreType BackstoreType, name string) string {
	return "/backstores/" + string(backstoreType) + "/" + name
}

func PortalGroupPath(fabric string, wwn string, tag int) string {
	return TargetPath(fabric, wwn) + "/tpg" + strconv.Itoa(tag)
}

func LunPath(fabric string, wwn string, tag int, index int) string {
	return PortalGroupPath(fabric, wwn, tag) + "/luns/lun" + strconv.Itoa(index)
}

func ParseTargetPath(path string) (Target, error) {
	match := targetPathPattern.FindStringSubmatch(path)
	if match == nil || match[1] == "backstores" {
		return Target{}, malformedPath(KindTarget, path, "/<fabric>/<wwn>")
	}
	return Target{Fabric: match[1], WWN: match[2]}, nil
}

func ParseBackstorePath(path string) (Backstore, error) {
	match := backstorePathPattern.FindStringSubmatch(path)
	if match == nil {
		return Backstore{}, malformedPath(KindBackstore, path, "/backstores/<type>/<name>")
	}
	return Backstore{Type: BackstoreType(match[1]), Name: match[2]}, nil
}

func ParsePortalGroupPath(path string) (PortalGroup, error) {
	match := portalGroupPathPattern.FindStringSubmatch(path)
	if match == nil {
		return PortalGroup{}, malformedPath(KindPortalGroup, path, "/<fabric>/<wwn>/tpg<tag>")
	}
	tag, err := parseNonNegative("tag", match[3])
	if err != nil {
		return PortalGroup{}, err
	}
	return PortalGroup{Fabric: match[1], Target: match[2], Tag: tag}, nil
}

func ParseLunPath(path string) (Lun, error) {
	match := lunPathPattern.FindStringSubmatch(path)
	if match == nil {
		return Lun{}, malformedPath(KindLun, path, "/<fabric>/<wwn>/tpg<tag>/luns/lun<index>")
	}
	tag, err := parseNonNegative("tag", match[3])
	if err != nil {
		return Lun{}, err
	}
	index, err := parseNonNegative("index", match[4])
	if err != nil {
		return Lun{}, err
	}
	return Lun{Fabric: match[1], Target: match[2], Tag: tag, Index: index}, nil
}

func parseNonNegative(name string, value string) (int, error) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return 0, validationError(fmt.Sprintf("%s must be a non-negative integer, got %q", name, value), err)
	}
	return parsed, nil
}

func malformedPath(kind Kind, path string, format string) error {
	return validationError(fmt.Sprintf("malformed %s path %q, expected %s", kind, path, format), nil)
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}
