package yaml

import (
	"fmt"
	"io"
	"strings"

	"github.com/cyraxred/ordtree/internal/script"
)

// SafeString returns a string which is sufficiently quoted and escaped for YAML.
func SafeString(str string) string {
	str = strings.Replace(str, "\\", "\\\\", -1)
	str = strings.Replace(str, "\"", "\\\"", -1)
	str = strings.Replace(str, "\n", "\\n", -1)
	return "\"" + str + "\""
}

// PrintKeys outputs the keys as a YAML flow sequence of quoted strings.
//
// `indent` is the current YAML indentation level - the number of spaces.
// `name` is the name of the corresponding YAML entry.
func PrintKeys(writer io.Writer, keys []string, indent int, name string) {
	fmt.Fprintf(writer, "%s%s: [", strings.Repeat(" ", indent), name)
	for i, key := range keys {
		if i > 0 {
			fmt.Fprint(writer, ", ")
		}
		fmt.Fprint(writer, SafeString(key))
	}
	fmt.Fprintln(writer, "]")
}

// PrintResults outputs the script results as a YAML sequence, one mapping per operation.
func PrintResults(writer io.Writer, results []script.Result, indent int) {
	prefix := strings.Repeat(" ", indent)
	for _, result := range results {
		fmt.Fprintf(writer, "%s- op: %s\n", prefix, SafeString(result.Op.String()))
		fmt.Fprintf(writer, "%s  line: %d\n", prefix, result.Op.Line)
		fmt.Fprintf(writer, "%s  found: %t\n", prefix, result.Found)
		if result.Value != "" {
			fmt.Fprintf(writer, "%s  value: %s\n", prefix, SafeString(result.Value))
		}
		if result.Keys != nil {
			PrintKeys(writer, result.Keys, indent+2, "keys")
		}
	}
}
