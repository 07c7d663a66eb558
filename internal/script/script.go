// Package script parses and executes the line-oriented operation scripts
// consumed by `ordtree run`.
package script

import (
	"bufio"
	"cmp"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cyraxred/ordtree/rbtree"
	"github.com/pkg/errors"
)

// Kind enumerates the supported operations.
type Kind int

const (
	Insert Kind = iota
	Delete
	Search
	Min
	Max
	Pred
	Succ
	Traverse
	Len
	Height
	Verify
	Erase
)

type kindInfo struct {
	name string
	// minArgs, maxArgs; maxArgs < 0 means unbounded
	minArgs, maxArgs int
}

var kinds = [...]kindInfo{
	Insert:   {"insert", 1, -1},
	Delete:   {"delete", 1, -1},
	Search:   {"search", 1, 1},
	Min:      {"min", 0, 0},
	Max:      {"max", 0, 0},
	Pred:     {"pred", 1, 1},
	Succ:     {"succ", 1, 1},
	Traverse: {"traverse", 0, 0},
	Len:      {"len", 0, 0},
	Height:   {"height", 0, 0},
	Verify:   {"verify", 0, 0},
	Erase:    {"erase", 0, 0},
}

var kindsByName = func() map[string]Kind {
	result := map[string]Kind{}
	for k, info := range kinds {
		result[info.name] = Kind(k)
	}
	return result
}()

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kinds) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kinds[k].name
}

// Op is a single parsed script line.
type Op struct {
	Kind Kind
	Args []string
	// Line is 1-based.
	Line int
}

func (op Op) String() string {
	if len(op.Args) == 0 {
		return op.Kind.String()
	}
	return op.Kind.String() + " " + strings.Join(op.Args, " ")
}

// Parse reads the script. Blank lines and everything after '#' are ignored.
// name is used in error messages.
func Parse(name string, reader io.Reader) ([]Op, error) {
	var ops []Op
	scanner := bufio.NewScanner(reader)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if pos := strings.IndexByte(text, '#'); pos >= 0 {
			text = text[:pos]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		kind, exists := kindsByName[strings.ToLower(fields[0])]
		if !exists {
			return nil, errors.Errorf("%s:%d: unknown operation %q", name, line, fields[0])
		}
		args := fields[1:]
		info := kinds[kind]
		if len(args) < info.minArgs || (info.maxArgs >= 0 && len(args) > info.maxArgs) {
			return nil, errors.Errorf("%s:%d: %s: wrong number of arguments: %d",
				name, line, info.name, len(args))
		}
		ops = append(ops, Op{Kind: kind, Args: args, Line: line})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "%s:%d", name, line)
	}
	return ops, nil
}

// KeyParser converts a script argument to a tree key.
type KeyParser[K cmp.Ordered] func(string) (K, error)

// IntKey parses decimal integers.
func IntKey(arg string) (int64, error) {
	return strconv.ParseInt(arg, 10, 64)
}

// FloatKey parses floating point numbers, including "NaN" and "Inf".
func FloatKey(arg string) (float64, error) {
	return strconv.ParseFloat(arg, 64)
}

// StringKey takes the argument verbatim.
func StringKey(arg string) (string, error) {
	return arg, nil
}

// Result is the outcome of one Op.
type Result struct {
	Op Op
	// Found is set by the lookups and by delete when at least one key was removed.
	Found bool
	// Value is the scalar output: a key, a count or a height.
	Value string
	// Keys is the in-order traversal, set by "traverse" only.
	Keys []string
}

// Run executes the operations in order. A failed "verify" stops the run and the
// results collected so far are returned together with the error.
func Run[K cmp.Ordered](tree *rbtree.RBTree[K], ops []Op, parse KeyParser[K]) ([]Result, error) {
	results := make([]Result, 0, len(ops))
	for _, op := range ops {
		keys := make([]K, len(op.Args))
		for i, arg := range op.Args {
			key, err := parse(arg)
			if err != nil {
				return results, errors.Wrapf(err, "line %d: %s: bad key %q", op.Line, op.Kind, arg)
			}
			keys[i] = key
		}
		result := Result{Op: op}
		switch op.Kind {
		case Insert:
			for _, key := range keys {
				tree.Insert(key)
			}
			result.Found = true
			result.Value = strconv.Itoa(len(keys))
		case Delete:
			removed := 0
			for _, key := range keys {
				if tree.Delete(key) {
					removed++
				}
			}
			result.Found = removed > 0
			result.Value = strconv.Itoa(removed)
		case Search:
			result.Found = tree.Contains(keys[0])
			if result.Found {
				result.Value = formatKey(keys[0])
			}
		case Min:
			result.Found, result.Value = formatLookup[K](tree.Minimum())
		case Max:
			result.Found, result.Value = formatLookup[K](tree.Maximum())
		case Pred:
			result.Found, result.Value = formatLookup[K](tree.Predecessor(keys[0]))
		case Succ:
			result.Found, result.Value = formatLookup[K](tree.Successor(keys[0]))
		case Traverse:
			result.Found = true
			result.Keys = make([]string, 0, tree.Len())
			for key := range tree.Keys() {
				result.Keys = append(result.Keys, formatKey(key))
			}
		case Len:
			result.Found = true
			result.Value = strconv.Itoa(tree.Len())
		case Height:
			result.Found = true
			result.Value = strconv.Itoa(tree.Height())
		case Verify:
			if err := tree.Verify(); err != nil {
				return results, errors.Wrapf(err, "line %d: verify", op.Line)
			}
			result.Found = true
			result.Value = "ok"
		case Erase:
			tree.Erase()
			result.Found = true
		default:
			return results, errors.Errorf("line %d: unsupported operation %s", op.Line, op.Kind)
		}
		results = append(results, result)
	}
	return results, nil
}

func formatLookup[K cmp.Ordered](key K, found bool) (bool, string) {
	if !found {
		return false, ""
	}
	return true, formatKey(key)
}

func formatKey[K cmp.Ordered](key K) string {
	return fmt.Sprint(key)
}
