// Package session keeps uploaded datasets in memory for the lifetime of the
// process. Datasets are immutable once stored; every dashboard view computes
// over a snapshot handed out by the store.
package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"talktime/internal/callog"
)

// FieldOptions lists the distinct values of each categorical dimension,
// sorted, for filter pickers. Missing values ("") are not offered as options.
type FieldOptions struct {
	Agents       []string `json:"agents"`
	Countries    []string `json:"countries"`
	CallTypes    []string `json:"call_types"`
	CallStatuses []string `json:"call_statuses"`
}

// Dataset is one uploaded call log, fully parsed.
type Dataset struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	UploadedAt time.Time       `json:"uploaded_at"`
	Rows       int             `json:"rows"`
	Schema     callog.Schema   `json:"schema"`
	DateOrder  string          `json:"date_order"`
	Options    FieldOptions    `json:"options"`
	Records    []callog.Record `json:"-"`
}

// Store provides thread-safe storage for datasets keyed by id.
type Store struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
}

// NewStore creates a new empty Store.
func NewStore() *Store {
	return &Store{datasets: make(map[string]*Dataset)}
}

// Put registers a parsed table under a fresh id and returns the dataset.
func (s *Store) Put(name string, table callog.Table) *Dataset {
	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		UploadedAt: time.Now().In(callog.ReportingZone),
		Rows:       len(table.Records),
		Schema:     table.Schema,
		DateOrder:  table.DateOrder.String(),
		Options:    collectOptions(table.Records),
		Records:    table.Records,
	}

	s.mu.Lock()
	s.datasets[ds.ID] = ds
	s.mu.Unlock()

	log.Info().Str("dataset", ds.ID).Str("name", name).Int("rows", ds.Rows).Msg("Dataset stored")
	return ds
}

// Get returns the dataset for the given id.
func (s *Store) Get(id string) (*Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, fmt.Errorf("dataset %q not found", id)
	}
	return ds, nil
}

// Delete removes a dataset. Deleting an unknown id is not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.datasets, id)
	s.mu.Unlock()
}

// List returns dataset metadata, newest upload first.
func (s *Store) List() []*Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Count returns the number of stored datasets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

func collectOptions(records []callog.Record) FieldOptions {
	return FieldOptions{
		Agents:       distinct(records, func(r callog.Record) string { return r.Agent }),
		Countries:    distinct(records, func(r callog.Record) string { return r.Country }),
		CallTypes:    distinct(records, func(r callog.Record) string { return r.CallType }),
		CallStatuses: distinct(records, func(r callog.Record) string { return r.CallStatus }),
	}
}

func distinct(records []callog.Record, field func(callog.Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
