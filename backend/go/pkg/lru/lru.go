package lru

import (
	"container/list"
	"sync"
)

// entry 结构体用于存储链表节点中的实际数据。
type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache 是一个支持泛型、线程安全的固定容量 LRU 缓存。
type Cache[K comparable, V any] struct {
	capacity int
	ll       *list.List
	items    map[K]*list.Element
	lock     sync.Mutex
	hits     uint64
	misses   uint64
}

// New 创建容量为 capacity 的缓存，capacity 小于 1 时按 1 处理。
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
	}
}

// Get 根据键获取一个值，并将其标记为最近使用。
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	element, ok := c.items[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.ll.MoveToFront(element)
	return element.Value.(*entry[K, V]).value, true
}

// Put 添加或更新一个键值对，超出容量时淘汰最久未使用的元素。
func (c *Cache[K, V]) Put(key K, value V) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.items[key]; ok {
		element.Value.(*entry[K, V]).value = value
		c.ll.MoveToFront(element)
		return
	}
	c.items[key] = c.ll.PushFront(&entry[K, V]{key: key, value: value})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[K, V]).key)
	}
}

// Len 返回当前缓存中的条目数量。
func (c *Cache[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.ll.Len()
}

// Stats 返回命中与未命中次数。
func (c *Cache[K, V]) Stats() (hits, misses uint64) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.hits, c.misses
}
