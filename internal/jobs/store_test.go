package jobs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iso2god-desktop/internal/domain"
)

func job(source, name string) domain.Job {
	return domain.Job{
		Source:          source,
		OutputDirectory: "/out",
		Title:           domain.TitleMetadata{Name: name},
		Options:         domain.DefaultOutputOptions(),
	}
}

func TestStoreAddDedupsBySource(t *testing.T) {
	s := NewStore()
	sources := []string{"a.iso", "b.iso", "a.iso", "c.iso", "b.iso", "a.iso"}
	for _, src := range sources {
		s.Add(job(src, src))
	}

	got := s.List()
	require.Len(t, got, 3)
	seen := map[string]bool{}
	for _, j := range got {
		assert.False(t, seen[j.Source], "duplicate source %s", j.Source)
		seen[j.Source] = true
	}
}

func TestStoreDuplicateAddKeepsOriginal(t *testing.T) {
	s := NewStore()
	require.True(t, s.Add(job("bar.iso", "Original")))

	changed := s.Add(job("bar.iso", "Different"))

	assert.False(t, changed)
	got, ok := s.Get("bar.iso")
	require.True(t, ok)
	assert.Equal(t, "Original", got.Title.Name)
	assert.Equal(t, 1, s.Len())
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	s.Add(job("a.iso", "A"))
	s.Add(job("b.iso", "B"))

	assert.True(t, s.Remove("a.iso"))
	assert.False(t, s.Remove("missing.iso"))

	got := s.List()
	require.Len(t, got, 1)
	assert.Equal(t, "b.iso", got[0].Source)
}

func TestStoreRemoveAll(t *testing.T) {
	s := NewStore()
	s.Add(job("a.iso", "A"))
	s.Add(job("b.iso", "B"))

	s.RemoveAll()
	s.RemoveAll()

	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
}

func TestStoreNotifiesOnlyOnChange(t *testing.T) {
	s := NewStore()
	var notifications [][]domain.Job
	sub := s.Subscribe(func(jobs []domain.Job) { notifications = append(notifications, jobs) })

	s.Add(job("a.iso", "A"))
	s.Add(job("a.iso", "dup"))
	s.Remove("missing.iso")
	s.Add(job("b.iso", "B"))
	s.Remove("a.iso")
	s.RemoveAll()
	s.RemoveAll()

	require.Len(t, notifications, 4)
	assert.Len(t, notifications[0], 1)
	assert.Len(t, notifications[1], 2)
	assert.Len(t, notifications[2], 1)
	assert.Empty(t, notifications[3])

	sub.Cancel()
	s.Add(job("c.iso", "C"))
	assert.Len(t, notifications, 4)
}

func TestStoreListIsACopy(t *testing.T) {
	s := NewStore()
	s.Add(job("a.iso", "A"))

	list := s.List()
	list[0].Title.Name = "mutated"

	got, _ := s.Get("a.iso")
	assert.Equal(t, "A", got.Title.Name)
}

func TestConcurrentAddsReachSubscribersInOrder(t *testing.T) {
	s := NewStore()
	entered := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var sizes []int
	sub := s.Subscribe(func(list []domain.Job) {
		mu.Lock()
		first := len(sizes) == 0
		sizes = append(sizes, len(list))
		mu.Unlock()
		if first {
			close(entered)
			<-release
		}
	})
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		s.Add(job("a.iso", "A"))
		close(done)
	}()
	<-entered

	require.True(t, s.Add(job("b.iso", "B")))
	close(release)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2}, sizes)
	assert.Equal(t, s.Len(), sizes[len(sizes)-1])
}
