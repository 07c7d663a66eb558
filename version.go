package ordtree

import (
	"reflect"
	"strconv"
	"strings"
)

// BinaryGitHash is the Git hash of the ordtree binary file which is executing.
// It is set with -ldflags "-X github.com/cyraxred/ordtree.BinaryGitHash=...".
var BinaryGitHash = "<unknown>"

// BinaryVersion is ordtree's API version. It matches the major version suffix of the module path.
var BinaryVersion = 0

type versionProbe struct{}

func init() {
	parts := strings.Split(reflect.TypeOf(versionProbe{}).PkgPath(), "/")
	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "v") {
		if version, err := strconv.Atoi(last[1:]); err == nil {
			BinaryVersion = version
			return
		}
	}
	// no suffix means v0 or v1
	BinaryVersion = 1
}
