package pb

import (
	"github.com/cyraxred/ordtree/internal/script"
)

// ToSessionResults converts the script results to the corresponding Protobuf object.
// size and height describe the final state of the tree.
func ToSessionResults(header *Metadata, results []script.Result, size, height int) *SessionResults {
	message := &SessionResults{
		Header:  header,
		Results: make([]*OpResult, len(results)),
		Size:    int64(size),
		Height:  int32(height),
	}
	for i, result := range results {
		message.Results[i] = &OpResult{
			Op:    result.Op.String(),
			Line:  int32(result.Op.Line),
			Found: result.Found,
			Value: result.Value,
			Keys:  result.Keys,
		}
	}
	return message
}
