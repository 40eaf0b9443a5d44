package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"worker-recording/constant"
	"worker-recording/dto"
	"worker-recording/entities"
	"worker-recording/repository"
)

type fakeRepo struct {
	mu        sync.Mutex
	byId      map[uuid.UUID]*entities.Recording
	insertErr error
	findErr   error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byId: make(map[uuid.UUID]*entities.Recording),
	}
}

func (r *fakeRepo) FindByProviderId(ctx context.Context, providerRecordingId string) (*entities.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, rec := range r.byId {
		if rec.ProviderRecordingId == providerRecordingId {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindById(ctx context.Context, id uuid.UUID) (*entities.Recording, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byId[id]
	if !ok {
		return nil, errors.New("record not found")
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeRepo) Insert(ctx context.Context, recording *entities.Recording) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	for _, rec := range r.byId {
		if rec.ProviderRecordingId == recording.ProviderRecordingId {
			return repository.ErrDuplicateRecording
		}
	}
	copied := *recording
	r.byId[recording.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdateTranscription(ctx context.Context, id uuid.UUID, status constant.TranscriptionStatus, text *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byId[id]
	if !ok {
		return errors.New("record not found")
	}
	rec.TranscriptionStatus = status
	rec.TranscriptionText = text
	return nil
}

func (r *fakeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byId)
}

func (r *fakeRepo) single() *entities.Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.byId {
		copied := *rec
		return &copied
	}
	return nil
}

func (r *fakeRepo) add(rec *entities.Recording) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byId[rec.ID] = rec
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects: make(map[string][]byte),
	}
}

func (s *fakeStore) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	if s.putErr != nil {
		return s.putErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[objectName] = body
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	body, ok := s.objects[objectName]
	s.mu.Unlock()
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

type fakeFetcher struct {
	body        []byte
	contentType string
	err         error
	calls       int
}

func (f *fakeFetcher) Fetch(ctx context.Context, mediaURL string) ([]byte, string, error) {
	f.calls++
	if f.err != nil {
		return nil, "", f.err
	}
	return f.body, f.contentType, nil
}

type fakeEnqueuer struct {
	mu       sync.Mutex
	messages []dto.EnrichmentMessage
	err      error
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, msg dto.EnrichmentMessage) error {
	if e.err != nil {
		return e.err
	}
	e.mu.Lock()
	e.messages = append(e.messages, msg)
	e.mu.Unlock()
	return nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, media io.Reader) (string, error) {
	if t.err != nil {
		return "", t.err
	}
	return t.text, nil
}
