package file_store

import (
	"context"
	"sync"
)

// FakeFileStore keeps objects in memory, for tests.
type FakeFileStore struct {
	mu      sync.Mutex
	objects map[string]FakeObject
	BaseUrl string
	Bucket  string
	// StoreErr, when set, is returned by every Store call.
	StoreErr error
}

type FakeObject struct {
	Data        []byte
	ContentType string
}

func NewFakeFileStore() *FakeFileStore {
	return &FakeFileStore{
		objects: map[string]FakeObject{},
		BaseUrl: "https://storage.test",
		Bucket:  "telegram_media",
	}
}

func (f *FakeFileStore) Store(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.StoreErr != nil {
		return f.StoreErr
	}
	if _, ok := f.objects[key]; ok {
		return ErrObjectExists
	}
	f.objects[key] = FakeObject{Data: append([]byte(nil), data...), ContentType: contentType}
	return nil
}

func (f *FakeFileStore) Fetch(ctx context.Context, key string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return obj.Data, obj.ContentType, nil
}

func (f *FakeFileStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *FakeFileStore) GetUrlFromKey(key string) string {
	return f.BaseUrl + "/" + f.Bucket + "/" + key
}

func (f *FakeFileStore) GetPublicUrlFromKey(key string) string {
	return PublicObjectUrl(f.BaseUrl, f.Bucket, key)
}

func (f *FakeFileStore) KeyFromUrl(publicUrl string) (string, bool) {
	return KeyFromPublicUrl(publicUrl, f.Bucket)
}

// Keys returns the stored keys, for assertions.
func (f *FakeFileStore) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

// Put stores an object unconditionally, for test setup.
func (f *FakeFileStore) Put(key string, data []byte, contentType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = FakeObject{Data: data, ContentType: contentType}
}
