package service

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// recorder collects events in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []models.SyncEvent
}

func (r *recorder) OnEvent(event models.SyncEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []models.SyncEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

func (r *recorder) kinds() []models.SyncEventKind {
	var kinds []models.SyncEventKind
	for _, e := range r.all() {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func (r *recorder) last() models.SyncEvent {
	events := r.all()
	if len(events) == 0 {
		return models.SyncEvent{}
	}
	return events[len(events)-1]
}

// fakeTransport serves folders from memory. Bodies are "body of <id>".
type fakeTransport struct {
	mu         sync.Mutex
	session    models.Session
	sessionErr error
	folders    map[string][]string

	// failMetaCall makes the n-th GetMetadata call (1-based) fail.
	failMetaCall int
	metaErr      error
	metaCalls    [][]string

	// onDownload runs before every body download.
	onDownload func(ctx context.Context, meta models.MessageMetadata) error
}

func (t *fakeTransport) FetchSession(ctx context.Context) (models.Session, error) {
	if err := ctx.Err(); err != nil {
		return models.Session{}, err
	}
	return t.session, t.sessionErr
}

func (t *fakeTransport) QueryIDs(ctx context.Context, folderID string) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids, ok := t.folders[folderID]
	if !ok {
		return nil, fmt.Errorf("%w: folder %s", adapter.ErrNotFound, folderID)
	}
	return slices.Clone(ids), nil
}

func (t *fakeTransport) GetMetadata(ctx context.Context, folderID string, ids []string) ([]models.MessageMetadata, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.metaCalls = append(t.metaCalls, slices.Clone(ids))
	if len(t.metaCalls) == t.failMetaCall {
		return nil, t.metaErr
	}

	metas := make([]models.MessageMetadata, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(t.folders[folderID], id) {
			continue
		}
		metas = append(metas, models.MessageMetadata{
			ServerID: id,
			BlobID:   "blob-" + id,
			Size:     int64(len("body of " + id)),
		})
	}
	return metas, nil
}

func (t *fakeTransport) DownloadBody(ctx context.Context, meta models.MessageMetadata) (io.ReadCloser, error) {
	if t.onDownload != nil {
		if err := t.onDownload(ctx, meta); err != nil {
			return nil, err
		}
	}
	return io.NopCloser(strings.NewReader("body of " + meta.ServerID)), nil
}

func (t *fakeTransport) Close() error { return nil }

func (t *fakeTransport) batchSizes() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var sizes []int
	for _, c := range t.metaCalls {
		sizes = append(sizes, len(c))
	}
	return sizes
}

// fakeFolder is an in-memory store.FolderHandle.
type fakeFolder struct {
	id string

	mu        sync.Mutex
	messages  map[string]string
	syncedAt  []time.Time
	createErr error
}

func newFakeFolder(id string, ids ...string) *fakeFolder {
	f := &fakeFolder{id: id, messages: make(map[string]string)}
	for _, mid := range ids {
		f.messages[mid] = "local " + mid
	}
	return f
}

func (f *fakeFolder) ID() string { return f.id }

func (f *fakeFolder) MessageServerIDs(context.Context) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := make(map[string]struct{}, len(f.messages))
	for id := range f.messages {
		set[id] = struct{}{}
	}
	return set, nil
}

func (f *fakeFolder) CreateMessage(ctx context.Context, meta models.MessageMetadata, body io.Reader) error {
	if f.createErr != nil {
		return f.createErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[meta.ServerID] = string(b)
	return nil
}

func (f *fakeFolder) DeleteMessages(_ context.Context, ids ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		delete(f.messages, id)
	}
	return nil
}

func (f *fakeFolder) MarkSynced(_ context.Context, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.syncedAt = append(f.syncedAt, at)
	return nil
}

func (f *fakeFolder) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Sorted(maps.Keys(f.messages))
}

func (f *fakeFolder) body(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[id]
}

// fakeStorage hands out fakeFolders, creating unknown ones on demand.
type fakeStorage struct {
	mu      sync.Mutex
	folders map[string]*fakeFolder
}

func newFakeStorage(folders ...*fakeFolder) *fakeStorage {
	s := &fakeStorage{folders: make(map[string]*fakeFolder)}
	for _, f := range folders {
		s.folders[f.id] = f
	}
	return s
}

func (s *fakeStorage) Folder(_ context.Context, folderID string) (store.FolderHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[folderID]
	if !ok {
		f = newFakeFolder(folderID)
		s.folders[folderID] = f
	}
	return f, nil
}

func messageIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("M%03d", i+1)
	}
	return ids
}
