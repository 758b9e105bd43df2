package favorites

import (
	"errors"
	"log"
	"sync"

	"github.com/user/bookify/internal/client/api"
	"github.com/user/bookify/internal/model"
)

// State 单本书在本地缓存中的收藏状态
type State int

const (
	// StateUnknown 尚未与服务端对账（未登录或未 Reconcile）
	StateUnknown State = iota
	// StateNotFavorited 未收藏
	StateNotFavorited
	// StateFavorited 已收藏
	StateFavorited
	// StatePendingAdd 本地已乐观加入，等服务端确认
	StatePendingAdd
	// StatePendingRemove 本地已乐观移除，等服务端确认
	StatePendingRemove
)

// Event 缓存向界面层广播的事件
type Event int

const (
	// EventChanged 收藏集合变化，界面需要重新标注
	EventChanged Event = iota
	// EventLoginRequired 未登录状态下点了收藏，界面应弹登录
	EventLoginRequired
)

// Cache 收藏的本地乐观缓存。
// 点击收藏立即改本地状态并通知界面，网络请求在后台进行：
// 成功采纳服务端返回的权威列表，失败回滚到点击前的状态。
// 同一本书的请求在途期间再次点击会被忽略，防止连点打出乱序请求。
type Cache struct {
	client *api.Client

	mu      sync.Mutex
	entries map[string]model.Favorite
	order   []string
	pending map[string]State
	loaded  bool
	subs    []func(Event)
}

func NewCache(client *api.Client) *Cache {
	return &Cache{
		client:  client,
		entries: make(map[string]model.Favorite),
		pending: make(map[string]State),
	}
}

// Subscribe 注册事件回调。回调在持锁之外调用，可以安全地读缓存。
func (c *Cache) Subscribe(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, fn)
}

func (c *Cache) notify(ev Event) {
	c.mu.Lock()
	subs := make([]func(Event), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Reconcile 拉取服务端权威列表并整体替换本地状态。
// 会话恢复后必须调用一次，否则所有书都是 StateUnknown。
func (c *Cache) Reconcile() error {
	list, err := c.client.Favorites()
	if err != nil {
		if errors.Is(err, api.ErrUnauthenticated) {
			c.Clear()
		}
		return err
	}
	c.adopt(list)
	c.notify(EventChanged)
	return nil
}

// adopt 整体替换为服务端列表，保留服务端顺序
func (c *Cache) adopt(list []model.Favorite) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.Favorite, len(list))
	c.order = c.order[:0]
	for _, f := range list {
		if _, ok := c.entries[f.BookID]; ok {
			continue
		}
		c.entries[f.BookID] = f
		c.order = append(c.order, f.BookID)
	}
	c.loaded = true
}

// Clear 退出登录时清空，回到未对账状态
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]model.Favorite)
	c.order = nil
	c.pending = make(map[string]State)
	c.loaded = false
	c.mu.Unlock()
	c.notify(EventChanged)
}

// StateOf 查询单本书的状态
func (c *Cache) StateOf(bookID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.pending[bookID]; ok {
		return st
	}
	if !c.loaded {
		return StateUnknown
	}
	if _, ok := c.entries[bookID]; ok {
		return StateFavorited
	}
	return StateNotFavorited
}

// IsFavorited 界面标注用：在途的乐观状态也算数
func (c *Cache) IsFavorited(bookID string) bool {
	st := c.StateOf(bookID)
	return st == StateFavorited || st == StatePendingAdd
}

// Favorites 按服务端顺序返回当前快照
func (c *Cache) Favorites() []model.Favorite {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Favorite, 0, len(c.order))
	for _, id := range c.order {
		if f, ok := c.entries[id]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Count 收藏数（角标用）
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Toggle 收藏/取消收藏的唯一入口。
// 未登录不发任何请求，只广播 EventLoginRequired；
// 同一本书请求在途时的重复点击直接忽略。
func (c *Cache) Toggle(book model.Book) error {
	if c.client.Token() == "" {
		c.notify(EventLoginRequired)
		return api.ErrUnauthenticated
	}
	if book.BookID == "" {
		return errors.New("图书 ID 不能为空")
	}

	entry := book.FavoriteEntry()

	c.mu.Lock()
	if _, inflight := c.pending[book.BookID]; inflight {
		c.mu.Unlock()
		return nil
	}
	_, favorited := c.entries[book.BookID]
	var prevIdx int
	var prevEntry model.Favorite
	if favorited {
		// 乐观移除，记住原位置供回滚
		prevEntry = c.entries[book.BookID]
		prevIdx = c.indexOf(book.BookID)
		c.pending[book.BookID] = StatePendingRemove
		delete(c.entries, book.BookID)
		c.order = removeID(c.order, book.BookID)
	} else {
		// 乐观加入，追加到末尾
		c.pending[book.BookID] = StatePendingAdd
		c.entries[book.BookID] = entry
		c.order = append(c.order, book.BookID)
	}
	c.mu.Unlock()
	c.notify(EventChanged)

	// 网络请求不持锁，其他书的操作不受阻塞
	var list []model.Favorite
	var err error
	if favorited {
		list, err = c.client.RemoveFavorite(book.BookID)
	} else {
		list, err = c.client.AddFavorite(entry)
	}

	if err == nil {
		c.mu.Lock()
		delete(c.pending, book.BookID)
		c.mu.Unlock()
		c.adopt(list)
		c.notify(EventChanged)
		return nil
	}

	if !favorited && errors.Is(err, api.ErrRejected) {
		// 添加被拒通常是别的会话先收藏了同一本书。
		// 不猜错误原因，直接重拉权威列表收敛。
		if fresh, ferr := c.client.Favorites(); ferr == nil {
			c.mu.Lock()
			delete(c.pending, book.BookID)
			c.mu.Unlock()
			c.adopt(fresh)
			c.notify(EventChanged)
			return nil
		}
		log.Printf("[Favorites] 收敛拉取失败，执行回滚: %v", err)
	}

	// 回滚到点击前的状态
	c.mu.Lock()
	delete(c.pending, book.BookID)
	if favorited {
		c.entries[book.BookID] = prevEntry
		c.order = insertID(c.order, book.BookID, prevIdx)
	} else {
		delete(c.entries, book.BookID)
		c.order = removeID(c.order, book.BookID)
	}
	c.mu.Unlock()
	c.notify(EventChanged)

	if errors.Is(err, api.ErrUnauthenticated) {
		c.notify(EventLoginRequired)
	}
	return err
}

// Sync 上送本地快照换回合并后的权威列表（多端切换时用）
func (c *Cache) Sync() error {
	snapshot := c.Favorites()
	list, err := c.client.SyncFavorites(snapshot)
	if err != nil {
		return err
	}
	c.adopt(list)
	c.notify(EventChanged)
	return nil
}

// indexOf 调用方需持锁
func (c *Cache) indexOf(bookID string) int {
	for i, id := range c.order {
		if id == bookID {
			return i
		}
	}
	return -1
}

func removeID(order []string, bookID string) []string {
	for i, id := range order {
		if id == bookID {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

func insertID(order []string, bookID string, idx int) []string {
	if idx < 0 || idx >= len(order) {
		return append(order, bookID)
	}
	order = append(order, "")
	copy(order[idx+1:], order[idx:])
	order[idx] = bookID
	return order
}
