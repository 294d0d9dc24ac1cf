package writer

import (
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/logger"
	"github.com/9ao9ai9ar/stack-exchange-backup/pkg/stackexchange"
)

// MockStorage is an in-memory QuestionStorage
type MockStorage struct {
	mu        sync.Mutex
	files     map[string]string
	saveError error
	saveDelay time.Duration
	inFlight  int32
	maxFlight int32
}

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string]string)}
}

func fileKey(site, kind string, id int64) string {
	return site + "/" + kind + "/" + strconv.FormatInt(id, 10)
}

func (m *MockStorage) IsBackedUp(site, kind string, id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[fileKey(site, kind, id)]
	return ok
}

func (m *MockStorage) Save(site, kind string, id int64, r io.Reader) (bool, error) {
	n := atomic.AddInt32(&m.inFlight, 1)
	defer atomic.AddInt32(&m.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.maxFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&m.maxFlight, peak, n) {
			break
		}
	}
	if m.saveDelay > 0 {
		time.Sleep(m.saveDelay)
	}
	if m.saveError != nil {
		return false, m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := fileKey(site, kind, id)
	if _, ok := m.files[k]; ok {
		return false, nil
	}
	m.files[k] = string(data)
	return true, nil
}

func (m *MockStorage) File(site, kind string, id int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[fileKey(site, kind, id)]
	return data, ok
}

func question(id int64) stackexchange.Question {
	return stackexchange.Question{
		QuestionID: id,
		Title:      "Question " + strconv.FormatInt(id, 10),
		Link:       "https://stackoverflow.com/q/" + strconv.FormatInt(id, 10),
	}
}

func TestGroupWritesEveryJob(t *testing.T) {
	storage := NewMockStorage()
	pool, err := NewPool(4, storage, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer pool.Release()

	g := pool.Group()
	for id := int64(1); id <= 20; id++ {
		require.NoError(t, g.Submit(Job{Site: "stackoverflow.com", Kind: "questions", Question: question(id)}))
	}
	summary, err := g.Wait()
	require.NoError(t, err)

	assert.Equal(t, 20, summary.Written)
	assert.Equal(t, 0, summary.Skipped)
	assert.Positive(t, summary.Bytes)

	doc, ok := storage.File("stackoverflow.com", "questions", 7)
	require.True(t, ok)
	assert.Contains(t, doc, "# Question 7\n")
	assert.Contains(t, doc, "Question downloaded from https://stackoverflow.com/q/7 \\\n")
}

func TestGroupSkipsExistingFiles(t *testing.T) {
	storage := NewMockStorage()
	pool, err := NewPool(2, storage, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer pool.Release()

	first := pool.Group()
	require.NoError(t, first.Submit(Job{Site: "a", Kind: "answers", Question: question(1)}))
	_, err = first.Wait()
	require.NoError(t, err)

	second := pool.Group()
	require.NoError(t, second.Submit(Job{Site: "a", Kind: "answers", Question: question(1)}))
	require.NoError(t, second.Submit(Job{Site: "a", Kind: "answers", Question: question(2)}))
	summary, err := second.Wait()
	require.NoError(t, err)
	assert.Equal(t, Summary{Written: 1, Skipped: 1, Bytes: summary.Bytes}, summary)
}

func TestGroupReportsFirstError(t *testing.T) {
	storage := NewMockStorage()
	storage.saveError = errors.New("disk full")
	log := logger.NewTestLogger()
	pool, err := NewPool(2, storage, nil, log)
	require.NoError(t, err)
	defer pool.Release()

	g := pool.Group()
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, g.Submit(Job{Site: "a", Kind: "questions", Question: question(id)}))
	}
	summary, err := g.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, summary.Written)
	assert.NotEmpty(t, log.GetMessagesByLevel("ERROR"))
}

func TestPoolBoundsConcurrency(t *testing.T) {
	storage := NewMockStorage()
	storage.saveDelay = 20 * time.Millisecond
	pool, err := NewPool(3, storage, nil, logger.NewNopLogger())
	require.NoError(t, err)
	defer pool.Release()
	assert.Equal(t, 3, pool.Size())

	g := pool.Group()
	for id := int64(1); id <= 12; id++ {
		require.NoError(t, g.Submit(Job{Site: "a", Kind: "questions", Question: question(id)}))
	}
	_, err = g.Wait()
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&storage.maxFlight), int32(3))
}
