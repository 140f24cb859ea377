package sdk

import (
	"sync"

	"github.com/receptorhq/receptor-go/proto"
)

// Batch operations snapshot the registry first, then launch one independent
// operation per target. One terminal's failure never blocks or fails the
// others; partial success is the normal outcome.

// ConnectAll connects every registered terminal concurrently and returns
// one result per terminal id (nil on success).
func (s *SDK) ConnectAll(traceID string) map[string]error {
	return s.forEachTerminal(func(id string) error {
		return s.Connect(id, traceID)
	})
}

// DisconnectAll disconnects every registered terminal concurrently.
func (s *SDK) DisconnectAll() map[string]error {
	return s.forEachTerminal(func(id string) error {
		return s.Disconnect(id)
	})
}

// BatchSignal pairs a signal with its target terminal.
type BatchSignal struct {
	TerminalID string
	Signal     *proto.Signal
}

// SendSignalsBatch sends every signal concurrently and returns one result
// per input index.
func (s *SDK) SendSignalsBatch(items []BatchSignal) []error {
	results := make([]error, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item BatchSignal) {
			defer wg.Done()
			results[i] = s.SendSignal(item.TerminalID, item.Signal)
		}(i, item)
	}
	wg.Wait()
	return results
}

func (s *SDK) forEachTerminal(op func(id string) error) map[string]error {
	ids := s.Terminals()
	results := make(map[string]error, len(ids))

	var wg sync.WaitGroup
	var rmu sync.Mutex
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := op(id)
			rmu.Lock()
			results[id] = err
			rmu.Unlock()
		}(id)
	}
	wg.Wait()
	return results
}
