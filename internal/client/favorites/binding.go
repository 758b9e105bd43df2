package favorites

import (
	"sync"

	"github.com/user/bookify/internal/model"
)

// Binding 把一屏搜索结果绑定到收藏缓存：缓存一变，
// 本屏的收藏标注就地刷新，不重新请求目录接口。
type Binding struct {
	cache *Cache

	mu    sync.Mutex
	books []model.Book
}

func NewBinding(cache *Cache) *Binding {
	b := &Binding{cache: cache}
	cache.Subscribe(func(ev Event) {
		if ev == EventChanged {
			b.refresh()
		}
	})
	return b
}

// SetBooks 换一屏结果（新的搜索/翻页），立即按缓存标注
func (b *Binding) SetBooks(books []model.Book) {
	b.mu.Lock()
	b.books = make([]model.Book, len(books))
	copy(b.books, books)
	b.mu.Unlock()
	b.refresh()
}

// Books 带收藏标注的当前一屏
func (b *Binding) Books() []model.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Book, len(b.books))
	copy(out, b.books)
	return out
}

func (b *Binding) refresh() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.books {
		b.books[i].Favorited = b.cache.IsFavorited(b.books[i].BookID)
	}
}

// Annotate 一次性标注（不跟踪后续变化），首页精选等静态列表用
func (c *Cache) Annotate(books []model.Book) []model.Book {
	out := make([]model.Book, len(books))
	copy(out, books)
	for i := range out {
		out[i].Favorited = c.IsFavorited(out[i].BookID)
	}
	return out
}
