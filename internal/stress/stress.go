// Package stress cross-checks rbtree against a reference ordered multiset on
// randomized operation sequences.
package stress

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jeffail/tunny"
	"github.com/cyraxred/ordtree/internal/core"
	"github.com/cyraxred/ordtree/rbtree"
	"github.com/google/btree"
	"github.com/minio/highwayhash"
	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// ConfigStressSeeds is the name of the option which sets Config.Seeds.
	ConfigStressSeeds = "Stress.Seeds"
	// ConfigStressOperations is the name of the option which sets Config.Operations.
	ConfigStressOperations = "Stress.Ops"
	// ConfigStressKeySpace is the name of the option which sets Config.KeySpace.
	ConfigStressKeySpace = "Stress.KeySpace"
	// ConfigStressWorkers is the name of the option which sets Config.Workers.
	ConfigStressWorkers = "Stress.Workers"
	// ConfigStressFirstSeed is the name of the option which sets Config.FirstSeed.
	ConfigStressFirstSeed = "Stress.FirstSeed"
)

// Config sets the stress run parameters.
type Config struct {
	// Seeds is the number of independent randomized sequences.
	Seeds int
	// Operations is the length of each sequence.
	Operations int
	// KeySpace bounds the generated keys to [0, KeySpace).
	KeySpace int
	// Workers is the number of concurrently checked seeds.
	Workers int
	// FirstSeed is the seed of the first sequence, the rest follow consecutively.
	FirstSeed int64
}

// ListConfigurationOptions returns the list of changeable public properties of Config.
func ListConfigurationOptions() []core.ConfigurationOption {
	options := [...]core.ConfigurationOption{{
		Name:        ConfigStressSeeds,
		Description: "Number of randomized sequences to check.",
		Type:        core.IntConfigurationOption,
		Default:     100,
	}, {
		Name:        ConfigStressOperations,
		Description: "Number of operations in each sequence.",
		Type:        core.IntConfigurationOption,
		Default:     2000,
	}, {
		Name:        ConfigStressKeySpace,
		Description: "Keys are drawn from [0, key-space). Small values produce many duplicates.",
		Type:        core.IntConfigurationOption,
		Default:     500,
	}, {
		Name:        ConfigStressWorkers,
		Description: "Number of sequences checked in parallel.",
		Type:        core.IntConfigurationOption,
		Default:     4,
	}, {
		Name:        ConfigStressFirstSeed,
		Description: "Seed of the first sequence.",
		Type:        core.IntConfigurationOption,
		Default:     1,
	}}
	return options[:]
}

// Configure sets the properties previously published by ListConfigurationOptions().
func (config *Config) Configure(facts core.Facts) {
	if val, exists := facts[ConfigStressSeeds].(int); exists {
		config.Seeds = val
	}
	if val, exists := facts[ConfigStressOperations].(int); exists {
		config.Operations = val
	}
	if val, exists := facts[ConfigStressKeySpace].(int); exists {
		config.KeySpace = val
	}
	if val, exists := facts[ConfigStressWorkers].(int); exists {
		config.Workers = val
	}
	if val, exists := facts[ConfigStressFirstSeed].(int); exists {
		config.FirstSeed = int64(val)
	}
}

// Validate checks that the parameters make sense.
func (config Config) Validate() error {
	if config.Seeds <= 0 {
		return errors.Errorf("the number of seeds must be positive, got %d", config.Seeds)
	}
	if config.Operations <= 0 {
		return errors.Errorf("the number of operations must be positive, got %d", config.Operations)
	}
	if config.KeySpace <= 0 {
		return errors.Errorf("the key space must be positive, got %d", config.KeySpace)
	}
	if config.Workers <= 0 {
		return errors.Errorf("the number of workers must be positive, got %d", config.Workers)
	}
	return nil
}

// Failure describes the first discrepancy found in a sequence.
type Failure struct {
	Seed int64
	// Step is the 0-based index of the failed operation.
	Step int
	// Op is the human readable operation, e.g. "delete 17".
	Op      string
	Message string
}

func (f Failure) String() string {
	return fmt.Sprintf("seed %d, step %d (%s): %s", f.Seed, f.Step, f.Op, f.Message)
}

// Report summarizes a stress run.
type Report struct {
	Seeds      int
	Operations int
	// Failures are sorted by seed.
	Failures []Failure
	// Digest combines the final traversal digests of all the sequences.
	Digest   uint64
	Duration time.Duration
}

// Passed is true when no sequence failed.
func (report Report) Passed() bool {
	return len(report.Failures) == 0
}

type seedTask struct {
	seed int64
}

type seedOutcome struct {
	failure *Failure
	digest  uint64
	ops     int
}

// worker keeps its allocator between the seeds, so the free slots of one
// sequence are reused by the next.
type worker struct {
	config    Config
	allocator *rbtree.Allocator[int]
}

// Process will synchronously check one seed and return the seedOutcome.
func (w *worker) Process(data interface{}) interface{} {
	task := data.(seedTask)
	tree := rbtree.NewRBTree(w.allocator)
	outcome := checkSeed(tree, w.config, task.seed)
	if outcome.failure != nil {
		// the tree may be broken, start over
		w.allocator = rbtree.NewAllocator[int]()
	} else {
		tree.Erase()
	}
	return outcome
}
func (w *worker) BlockUntilReady() {}
func (w *worker) Interrupt()       {}
func (w *worker) Terminate()       {}

// Run checks config.Seeds sequences in a pool of config.Workers goroutines.
// progress, if not nil, is called with the number of finished seeds; the calls are serialized.
func Run(config Config, progress func(done int)) (Report, error) {
	if err := config.Validate(); err != nil {
		return Report{}, err
	}
	start := time.Now()
	pool := tunny.New(config.Workers, func() tunny.Worker {
		return &worker{config: config, allocator: rbtree.NewAllocator[int]()}
	})
	defer pool.Close()

	outcomes := make([]seedOutcome, config.Seeds)
	var done int32
	progressLock := sync.Mutex{}
	wg := sync.WaitGroup{}
	wg.Add(config.Seeds)
	for i := 0; i < config.Seeds; i++ {
		go func(i int) {
			defer wg.Done()
			outcomes[i] = pool.Process(seedTask{seed: config.FirstSeed + int64(i)}).(seedOutcome)
			if progress != nil {
				progressLock.Lock()
				progress(int(atomic.AddInt32(&done, 1)))
				progressLock.Unlock()
			}
		}(i)
	}
	wg.Wait()

	report := Report{Seeds: config.Seeds}
	for _, outcome := range outcomes {
		report.Operations += outcome.ops
		report.Digest = report.Digest*31 + outcome.digest
		if outcome.failure != nil {
			report.Failures = append(report.Failures, *outcome.failure)
		}
	}
	report.Duration = time.Since(start)
	return report, nil
}

// item is a multiset element of the reference tree: equal keys are told apart by seq.
type item struct {
	key int
	seq uint64
}

// Less implements btree.Item.
func (i item) Less(than btree.Item) bool {
	other := than.(item)
	if i.key != other.key {
		return i.key < other.key
	}
	return i.seq < other.seq
}

type reference struct {
	tree *btree.BTree
	seq  uint64
}

func newReference() *reference {
	return &reference{tree: btree.New(32)}
}

func (ref *reference) insert(key int) {
	ref.seq++
	ref.tree.ReplaceOrInsert(item{key: key, seq: ref.seq})
}

func (ref *reference) first(key int) (item, bool) {
	var found item
	exists := false
	ref.tree.AscendGreaterOrEqual(item{key: key}, func(i btree.Item) bool {
		found = i.(item)
		exists = found.key == key
		return false
	})
	return found, exists
}

func (ref *reference) count(key int) int {
	count := 0
	ref.tree.AscendGreaterOrEqual(item{key: key}, func(i btree.Item) bool {
		if i.(item).key != key {
			return false
		}
		count++
		return true
	})
	return count
}

func (ref *reference) remove(key int) bool {
	found, exists := ref.first(key)
	if exists {
		ref.tree.Delete(found)
	}
	return exists
}

// strictPredecessor returns the largest key < key.
func (ref *reference) strictPredecessor(key int) (int, bool) {
	var result int
	exists := false
	ref.tree.DescendLessOrEqual(item{key: key}, func(i btree.Item) bool {
		// item{key, 0} precedes every stored item with the same key
		result = i.(item).key
		exists = true
		return false
	})
	return result, exists
}

// strictSuccessor returns the smallest key > key.
func (ref *reference) strictSuccessor(key int) (int, bool) {
	var result int
	exists := false
	ref.tree.AscendGreaterOrEqual(item{key: key + 1}, func(i btree.Item) bool {
		result = i.(item).key
		exists = true
		return false
	})
	return result, exists
}

func (ref *reference) keys() []int {
	keys := make([]int, 0, ref.tree.Len())
	ref.tree.Ascend(func(i btree.Item) bool {
		keys = append(keys, i.(item).key)
		return true
	})
	return keys
}

var hashKey = []byte{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31,
}

// digest fingerprints the in-order traversal.
func digest(tree *rbtree.RBTree[int]) uint64 {
	buffer := make([]byte, 0, tree.Len()*8)
	for key := range tree.Keys() {
		buffer = binary.LittleEndian.AppendUint64(buffer, uint64(key))
	}
	return highwayhash.Sum64(buffer, hashKey)
}

func collect(tree *rbtree.RBTree[int]) []int {
	keys := make([]int, 0, tree.Len())
	for key := range tree.Keys() {
		keys = append(keys, key)
	}
	return keys
}

// DiffKeys renders the line diff between the expected and the actual key sequences.
func DiffKeys(expected, actual []int) string {
	dmp := diffmatchpatch.New()
	src, dst, lines := dmp.DiffLinesToRunes(joinKeys(expected), joinKeys(actual))
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(dmp.DiffCleanupMerge(dmp.DiffCleanupSemanticLossless(diffs)), lines)
	builder := strings.Builder{}
	for _, diff := range diffs {
		var prefix string
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line != "" {
				builder.WriteString(prefix + line)
			}
		}
	}
	return builder.String()
}

func joinKeys(keys []int) string {
	builder := strings.Builder{}
	for _, key := range keys {
		builder.WriteString(strconv.Itoa(key))
		builder.WriteByte('\n')
	}
	return builder.String()
}

// checkSeed runs one randomized sequence against the tree, which must be empty.
func checkSeed(tree *rbtree.RBTree[int], config Config, seed int64) seedOutcome {
	rnd := rand.New(rand.NewSource(seed))
	ref := newReference()
	outcome := seedOutcome{}
	fail := func(step int, op string, format string, args ...interface{}) seedOutcome {
		outcome.failure = &Failure{Seed: seed, Step: step, Op: op, Message: fmt.Sprintf(format, args...)}
		return outcome
	}
	for step := 0; step < config.Operations; step++ {
		outcome.ops++
		key := rnd.Intn(config.KeySpace)
		var op string
		mutated := false
		switch choice := rnd.Intn(100); {
		case choice < 40:
			op = fmt.Sprintf("insert %d", key)
			tree.Insert(key)
			ref.insert(key)
			mutated = true
		case choice < 50:
			op = fmt.Sprintf("insert+delete %d", key)
			before := digest(tree)
			size := tree.Len()
			tree.Insert(key)
			if !tree.Delete(key) {
				return fail(step, op, "the inserted key was not found")
			}
			if tree.Len() != size {
				return fail(step, op, "size changed from %d to %d", size, tree.Len())
			}
			if after := digest(tree); after != before {
				return fail(step, op, "the traversal changed:\n%s", DiffKeys(ref.keys(), collect(tree)))
			}
			mutated = true
		case choice < 75:
			op = fmt.Sprintf("delete %d", key)
			expected := ref.remove(key)
			if actual := tree.Delete(key); actual != expected {
				return fail(step, op, "removed %t, expected %t", actual, expected)
			}
			mutated = true
		case choice < 85:
			op = fmt.Sprintf("search %d", key)
			_, expected := ref.first(key)
			if actual := tree.Contains(key); actual != expected {
				return fail(step, op, "found %t, expected %t", actual, expected)
			}
		case choice < 92:
			op = fmt.Sprintf("pred %d", key)
			actual, ok := tree.Predecessor(key)
			expected, exists := ref.strictPredecessor(key)
			if msg := checkNeighbor(ref.count(key), key, actual, ok, expected, exists); msg != "" {
				return fail(step, op, "%s", msg)
			}
		case choice < 99:
			op = fmt.Sprintf("succ %d", key)
			actual, ok := tree.Successor(key)
			expected, exists := ref.strictSuccessor(key)
			if msg := checkNeighbor(ref.count(key), key, actual, ok, expected, exists); msg != "" {
				return fail(step, op, "%s", msg)
			}
		default:
			op = "hibernate"
			allocator := tree.Allocator()
			allocator.Hibernate()
			allocator.Boot()
			mutated = true
		}
		if !mutated {
			continue
		}
		if err := tree.Verify(); err != nil {
			return fail(step, op, "%v", err)
		}
		if tree.Len() != ref.tree.Len() {
			return fail(step, op, "size %d, expected %d", tree.Len(), ref.tree.Len())
		}
	}
	expected := ref.keys()
	actual := collect(tree)
	if len(expected) != len(actual) {
		return fail(config.Operations, "traverse", "the traversal differs:\n%s", DiffKeys(expected, actual))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return fail(config.Operations, "traverse", "the traversal differs:\n%s", DiffKeys(expected, actual))
		}
	}
	outcome.digest = digest(tree)
	return outcome
}

// checkNeighbor validates a predecessor or successor lookup of key which occurs
// count times. The lookup starts from one of the equal nodes, so with duplicates
// it may land on another copy of key.
func checkNeighbor(count, key, actual int, ok bool, expected int, exists bool) string {
	if count == 0 {
		if ok {
			return fmt.Sprintf("the key is missing, got %d", actual)
		}
		return ""
	}
	if ok && actual == key {
		if count < 2 {
			return "got the key itself while it is unique"
		}
		return ""
	}
	if ok != exists || (ok && actual != expected) {
		return fmt.Sprintf("got (%d, %t), expected (%d, %t)", actual, ok, expected, exists)
	}
	return ""
}
