package reportstore

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/roadwatch/roadwatch-web/internal/event"
	"github.com/roadwatch/roadwatch-web/internal/models"
	"github.com/roadwatch/roadwatch-web/pkg/sloger"
)

var logger *slog.Logger

func init() {
	type Empty struct{}
	pkgParts := strings.Split(reflect.TypeOf(Empty{}).PkgPath(), "/")
	// add package name to app logger
	logger = sloger.With("pkg", pkgParts[len(pkgParts)-1])
}

const (
	OriginPush  = "push"
	OriginFetch = "fetch"
)

// Store is the authoritative client-side view of all reports, keyed by id and
// ordered newest-first. The backend already returns and emits reports in that
// order, so the store never re-sorts.
//
// Push events that arrive before the first ReplaceAll are buffered and
// replayed once the initial list lands, so the initial fetch can never
// clobber a concurrently received push.
type Store struct {
	mu      sync.RWMutex
	reports []models.Report
	index   map[int64]int
	primed  bool
	pending []models.Report

	// Events receives one ReportUpserted per effective mutation.
	Events event.Publishers[*event.ReportUpserted]
}

func New() *Store {
	return &Store{
		index: make(map[int64]int),
	}
}

// ReplaceAll discards prior state and becomes exactly the given sequence.
// Used once per successful list fetch. Any merges buffered while the store
// was unprimed are replayed on top, so they win over the fetched snapshot.
func (s *Store) ReplaceAll(ctx context.Context, reports []models.Report) {
	s.mu.Lock()
	s.reports = make([]models.Report, len(reports))
	copy(s.reports, reports)
	s.reindexLocked()

	var replay []models.Report
	if !s.primed {
		s.primed = true
		replay = s.pending
		s.pending = nil
	}
	s.mu.Unlock()

	for i := range reports {
		s.Events.Publish(ctx, event.NewReportUpsertedEvent(reports[i], OriginFetch))
	}
	for i := range replay {
		logger.Debug("replaying buffered push event", "reportId", replay[i].ID)
		s.Merge(ctx, replay[i])
	}
}

// Prime marks the store primed without touching its contents and replays any
// buffered push events. Called when the initial fetch fails, so the live feed
// still flows into an empty store instead of buffering forever.
func (s *Store) Prime(ctx context.Context) {
	s.mu.Lock()
	if s.primed {
		s.mu.Unlock()
		return
	}
	s.primed = true
	replay := s.pending
	s.pending = nil
	s.mu.Unlock()

	for i := range replay {
		s.Merge(ctx, replay[i])
	}
}

// Merge applies one push event. An existing report with the same id is
// patch-merged field by field, incoming fields winning; an unknown id is
// prepended as the newest report. Idempotent for repeated identical payloads.
func (s *Store) Merge(ctx context.Context, incoming models.Report) {
	s.mu.Lock()
	if !s.primed {
		s.pending = append(s.pending, incoming)
		s.mu.Unlock()
		return
	}

	changed := false
	var merged models.Report
	if i, ok := s.index[incoming.ID]; ok {
		merged = patch(s.reports[i], incoming)
		if !reflect.DeepEqual(s.reports[i], merged) {
			s.reports[i] = merged
			changed = true
		}
	} else {
		merged = incoming
		s.reports = append([]models.Report{incoming}, s.reports...)
		s.reindexLocked()
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.Events.Publish(ctx, event.NewReportUpsertedEvent(merged, OriginPush))
	}
}

// Snapshot returns a copy of the current report list, newest first.
func (s *Store) Snapshot() []models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Store) Get(id int64) (models.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Report{}, false
	}
	return s.reports[i], true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Primed reports whether the initial list has been applied.
func (s *Store) Primed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.primed
}

func (s *Store) reindexLocked() {
	s.index = make(map[int64]int, len(s.reports))
	for i := range s.reports {
		s.index[s.reports[i].ID] = i
	}
}

// patch overlays incoming onto existing. The push payload is sparse (the
// backend broadcast omits filename, file metadata and description), so a
// zero-valued incoming field keeps the existing value. CreatedAt is immutable
// once set. Detections use replacement semantics, never append.
func patch(existing, incoming models.Report) models.Report {
	out := existing
	if incoming.Status != "" {
		out.Status = incoming.Status
	}
	if out.CreatedAt == "" {
		out.CreatedAt = incoming.CreatedAt
	}
	if incoming.Latitude != 0 || incoming.Longitude != 0 {
		out.Latitude = incoming.Latitude
		out.Longitude = incoming.Longitude
	}
	if incoming.Filename != "" {
		out.Filename = incoming.Filename
	}
	if incoming.FileType != "" {
		out.FileType = incoming.FileType
	}
	if incoming.FileSize != 0 {
		out.FileSize = incoming.FileSize
	}
	if incoming.Description != "" {
		out.Description = incoming.Description
	}
	if incoming.Detections != nil {
		out.Detections = incoming.Detections
	}
	return out
}
