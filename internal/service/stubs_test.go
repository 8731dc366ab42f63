package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	"github.com/Boatkungg/teerute-tpat13-checker/internal/models"
)

// storeStub keeps JSON copies of values, mirroring how the real repositories behave.
type storeStub struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	setErr  error
}

func newStoreStub() *storeStub {
	return &storeStub{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *storeStub) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *storeStub) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = raw
	s.ttls[key] = ttl
	return nil
}

func (s *storeStub) Invalidate(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
			delete(s.ttls, key)
		}
	}
	return nil
}

// rawTable builds a RawTable from positional text rows; "" becomes Missing.
func rawTable(name string, headers []string, rows ...[]string) models.RawTable {
	table := models.RawTable{Name: name, Headers: headers, Rows: make([]models.Row, 0, len(rows))}
	for _, values := range rows {
		row := make(models.Row, len(headers))
		for i, h := range headers {
			if i < len(values) && values[i] != "" {
				row[h] = models.TextCell(values[i])
			} else {
				row[h] = models.MissingCell()
			}
		}
		table.Rows = append(table.Rows, row)
	}
	return table
}
