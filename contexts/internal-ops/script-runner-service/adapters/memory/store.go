package memory

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ccdepot/contexts/internal-ops/script-runner-service/domain/entities"
	domainerrors "ccdepot/contexts/internal-ops/script-runner-service/domain/errors"
	"ccdepot/contexts/internal-ops/script-runner-service/ports"
)

// Store keeps process records in memory for tests and local wiring.
type Store struct {
	mu        sync.RWMutex
	processes map[string]entities.Process
	sequence  uint64
}

func NewStore() *Store {
	return &Store{processes: make(map[string]entities.Process)}
}

func (s *Store) CreateProcess(_ context.Context, process entities.Process) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.processes[process.ProcessID]; exists {
		return fmt.Errorf("%w: duplicate process %s", domainerrors.ErrInvalidRequest, process.ProcessID)
	}
	s.processes[process.ProcessID] = cloneProcess(process)
	return nil
}

func (s *Store) GetProcess(_ context.Context, processID string) (entities.Process, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	process, ok := s.processes[processID]
	if !ok {
		return entities.Process{}, domainerrors.ErrProcessNotFound
	}
	return cloneProcess(process), nil
}

// ListProcesses returns newest first.
func (s *Store) ListProcesses(_ context.Context, filter ports.ProcessFilter) ([]entities.Process, string, error) {
	s.mu.RLock()
	items := make([]entities.Process, 0, len(s.processes))
	for _, process := range s.processes {
		if filter.ScriptName != "" && process.ScriptName != filter.ScriptName {
			continue
		}
		if filter.UserID != "" && process.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && process.Status != filter.Status {
			continue
		}
		items = append(items, cloneProcess(process))
	}
	s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ProcessID > items[j].ProcessID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	offset, err := decodeCursor(filter.Cursor)
	if err != nil {
		return nil, "", err
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if offset >= len(items) {
		return []entities.Process{}, "", nil
	}
	end := offset + limit
	next := ""
	if end < len(items) {
		next = encodeCursor(end)
	} else {
		end = len(items)
	}
	return items[offset:end], next, nil
}

func (s *Store) MarkRunning(_ context.Context, processID string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	process, ok := s.processes[processID]
	if !ok {
		return domainerrors.ErrProcessNotFound
	}
	if !process.Status.CanTransition(entities.ProcessRunning) {
		return domainerrors.ErrInvalidTransition
	}
	value := startedAt.UTC()
	process.Status = entities.ProcessRunning
	process.StartedAt = &value
	s.processes[processID] = process
	return nil
}

func (s *Store) FinishProcess(_ context.Context, processID string, result ports.ProcessResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	process, ok := s.processes[processID]
	if !ok {
		return domainerrors.ErrProcessNotFound
	}
	if !result.Status.Terminal() || !process.Status.CanTransition(result.Status) {
		return domainerrors.ErrInvalidTransition
	}
	finishedAt := result.FinishedAt.UTC()
	process.Status = result.Status
	process.Output = append([]byte(nil), result.Output...)
	process.Log = append([]string{}, result.Log...)
	process.Error = result.Error
	process.FinishedAt = &finishedAt
	s.processes[processID] = process
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return "proc-" + strconv.FormatUint(atomic.AddUint64(&s.sequence, 1), 10), nil
}

func cloneProcess(process entities.Process) entities.Process {
	out := process
	if process.Parameters != nil {
		out.Parameters = make(map[string]string, len(process.Parameters))
		for key, value := range process.Parameters {
			out.Parameters[key] = value
		}
	}
	out.Output = append([]byte(nil), process.Output...)
	out.Log = append([]string{}, process.Log...)
	return out
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

func decodeCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, domainerrors.ErrInvalidRequest
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0, domainerrors.ErrInvalidRequest
	}
	return offset, nil
}
