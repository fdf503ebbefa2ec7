package source

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/hyperengineering/healthcache/internal/record"
)

// Compile-time interface check
var _ Source = (*MemorySource)(nil)

const memTokenPrefix = "mem-"

type memRecord struct {
	BulkRecord
	end time.Time
}

// MemorySource is an in-process provider. Records and the change stream are
// held in memory; tokens are offsets into the change log, so polling the same
// token twice returns the same changes.
type MemorySource struct {
	mu       sync.Mutex
	records  map[record.Kind][]memRecord
	log      []Change
	pageSize int

	kindErrs  map[record.Kind]error
	pollErr   error
	pollAfter int
	polls     int
	epoch     int
}

// NewMemorySource returns an empty source that pages changes pageSize at a
// time. A pageSize of zero returns the whole log in one page.
func NewMemorySource(pageSize int) *MemorySource {
	return &MemorySource{
		records:  make(map[record.Kind][]memRecord),
		kindErrs: make(map[record.Kind]error),
		pageSize: pageSize,
	}
}

// Add appends rec to its kind and emits an upsert. An existing id is
// replaced in place.
func (m *MemorySource) Add(rec record.Record) error {
	fields, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rec.Kind(), err)
	}
	meta := rec.Meta()
	m.AddRaw(rec.Kind(), BulkRecord{ID: meta.ID, Origin: meta.Origin, Fields: fields})
	return nil
}

// AddRaw appends a record with raw fields and emits an upsert. The end time
// used for ReadBulk filtering is read from "end_time" or "time" when present.
func (m *MemorySource) AddRaw(kind record.Kind, br BulkRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mr := memRecord{BulkRecord: br, end: endTimeOf(br.Fields)}
	rows := m.records[kind]
	replaced := false
	for i := range rows {
		if rows[i].ID == br.ID {
			rows[i] = mr
			replaced = true
			break
		}
	}
	if !replaced {
		rows = append(rows, mr)
	}
	m.records[kind] = rows

	m.log = append(m.log, Change{
		Operation: OperationUpsert,
		Kind:      kind,
		ID:        br.ID,
		Origin:    br.Origin,
		Fields:    br.Fields,
	})
}

// Remove deletes id from every kind and emits a deletion, whether or not the
// id was present.
func (m *MemorySource) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for kind, rows := range m.records {
		kept := rows[:0]
		for _, r := range rows {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		m.records[kind] = kept
	}
	m.log = append(m.log, Change{Operation: OperationDelete, ID: id})
}

// AppendChange adds a raw change to the stream without touching the bulk
// records.
func (m *MemorySource) AppendChange(c Change) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.log = append(m.log, c)
}

// FailKind makes ReadBulk for kind return err. A nil err clears it.
func (m *MemorySource) FailKind(kind record.Kind, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.kindErrs, kind)
		return
	}
	m.kindErrs[kind] = err
}

// FailPolls makes every poll after the next `after` successful ones return
// err. A nil err clears it.
func (m *MemorySource) FailPolls(after int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pollErr = err
	m.pollAfter = after
	m.polls = 0
}

// ExpireTokens makes every token issued so far expire.
func (m *MemorySource) ExpireTokens() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
}

// ReadBulk returns the records of kind ending at or before until, in the
// order they were added.
func (m *MemorySource) ReadBulk(ctx context.Context, kind record.Kind, until time.Time) ([]BulkRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.kindErrs[kind]; err != nil {
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}

	var out []BulkRecord
	for _, r := range m.records[kind] {
		if r.end.IsZero() || !r.end.After(until) {
			out = append(out, r.BulkRecord)
		}
	}
	return out, nil
}

// GetChangeToken returns a token at the current end of the change log.
func (m *MemorySource) GetChangeToken(ctx context.Context, kinds []record.Kind) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token(len(m.log)), nil
}

func (m *MemorySource) token(offset int) string {
	return fmt.Sprintf("%s%d-%d", memTokenPrefix, m.epoch, offset)
}

// PollChanges returns up to pageSize changes after token.
func (m *MemorySource) PollChanges(ctx context.Context, token string) (*ChangeBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pollErr != nil {
		if m.polls >= m.pollAfter {
			return nil, fmt.Errorf("poll changes: %w", m.pollErr)
		}
		m.polls++
	}

	epoch, offset, err := parseMemToken(token)
	if err != nil {
		return nil, err
	}
	if epoch != m.epoch {
		return nil, fmt.Errorf("poll changes: %w", ErrTokenExpired)
	}
	if offset > len(m.log) {
		return nil, fmt.Errorf("poll changes: token %q is ahead of the log", token)
	}

	end := len(m.log)
	if m.pageSize > 0 && offset+m.pageSize < end {
		end = offset + m.pageSize
	}

	changes := make([]Change, end-offset)
	copy(changes, m.log[offset:end])
	return &ChangeBatch{
		Changes:   changes,
		NextToken: m.token(end),
		HasMore:   end < len(m.log),
	}, nil
}

func parseMemToken(token string) (epoch, offset int, err error) {
	malformed := fmt.Errorf("poll changes: malformed token %q", token)
	rest, ok := strings.CutPrefix(token, memTokenPrefix)
	if !ok {
		return 0, 0, malformed
	}
	e, o, ok := strings.Cut(rest, "-")
	if !ok {
		return 0, 0, malformed
	}
	if epoch, err = strconv.Atoi(e); err != nil {
		return 0, 0, malformed
	}
	if offset, err = strconv.Atoi(o); err != nil || offset < 0 {
		return 0, 0, malformed
	}
	return epoch, offset, nil
}

func endTimeOf(fields []byte) time.Time {
	var bounds struct {
		EndTime record.Timestamp `json:"end_time"`
		Time    record.Timestamp `json:"time"`
	}
	if err := json.Unmarshal(fields, &bounds); err != nil {
		return time.Time{}
	}
	if !bounds.EndTime.IsZero() {
		return bounds.EndTime.Time
	}
	return bounds.Time.Time
}

// seedFile is the layout LoadMemorySource reads.
type seedFile struct {
	Records map[record.Kind][]BulkRecord `json:"records"`
}

// LoadMemorySource builds a MemorySource from a JSON seed file of the form
// {"records": {"Steps": [{"id": "...", "origin": "...", "fields": {...}}]}}.
// An empty path returns an empty source.
func LoadMemorySource(path string, pageSize int) (*MemorySource, error) {
	m := NewMemorySource(pageSize)
	if path == "" {
		return m, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for kind, rows := range seed.Records {
		for _, r := range rows {
			m.AddRaw(kind, r)
		}
	}
	return m, nil
}
