package storagecache

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/Jatinnn-r/Video-Streaming-Platform/server/storage"
	"github.com/cyclopcam/logs"
)

// Cache keeps copies of blob store files on the local disk, so that the
// range-serving handler can seek inside them. Blob store readers (eg GCS)
// only support forward reads, and re-opening the blob for every requested
// byte window would be miserable for playback, where the client seeks
// constantly. With a local copy we get a real os.File, and serving a range
// is a Seek and a bounded Read.
type Cache struct {
	log      logs.Log
	upstream storage.Storage
	root     string
	maxBytes int64

	itemsLock sync.Mutex
	bytesUsed int64
	items     map[string]*item
	tick      int64 // advances on every Open, for LRU ordering
}

type item struct {
	name     string
	size     int64
	refs     int // open readers; never evicted while > 0
	lastUsed int64
}

// Reader is a seekable view of one cached blob.
type Reader struct {
	cache *Cache
	item  *item
	f     io.ReadSeekCloser
}

func (r *Reader) Read(p []byte) (int, error) {
	return r.f.Read(p)
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	return r.f.Seek(offset, whence)
}

func (r *Reader) Close() error {
	r.cache.itemsLock.Lock()
	r.item.refs--
	r.cache.itemsLock.Unlock()
	return r.f.Close()
}

// Size returns the total size of the cached blob in bytes.
func (r *Reader) Size() int64 {
	return r.item.size
}

// NewCache wipes and recreates the cache directory at root.
func NewCache(log logs.Log, upstream storage.Storage, root string, maxBytes int64) (*Cache, error) {
	os.RemoveAll(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	return &Cache{
		log:      log,
		upstream: upstream,
		root:     root,
		maxBytes: maxBytes,
		items:    map[string]*item{},
	}, nil
}

// Open returns a seekable reader over the named blob, fetching it from
// upstream on a cache miss.
func (c *Cache) Open(name string) (*Reader, error) {
	c.itemsLock.Lock()
	defer c.itemsLock.Unlock()
	it := c.items[name]
	if it == nil {
		c.evictStale()
		var err error
		if it, err = c.fetch(name); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(filepath.Join(c.root, name))
	if err != nil {
		return nil, err
	}
	it.refs++
	it.lastUsed = c.tick
	c.tick++
	return &Reader{
		cache: c,
		item:  it,
		f:     f,
	}, nil
}

// fetch downloads a blob from upstream into the cache directory.
// Called with itemsLock held.
func (c *Cache) fetch(name string) (*item, error) {
	src, err := c.upstream.ReadFile(name)
	if err != nil {
		return nil, err
	}
	defer src.Reader.Close()
	onDisk := filepath.Join(c.root, name)
	if err := os.MkdirAll(filepath.Dir(onDisk), 0755); err != nil {
		return nil, err
	}
	dst, err := os.Create(onDisk)
	if err != nil {
		return nil, err
	}
	_, err = io.Copy(dst, src.Reader)
	if err == nil {
		err = dst.Close()
	} else {
		dst.Close()
	}
	if err != nil {
		os.Remove(onDisk)
		return nil, err
	}
	it := &item{
		name:     name,
		size:     src.Size,
		lastUsed: c.tick,
	}
	c.bytesUsed += src.Size
	c.items[name] = it
	return it, nil
}

// evictStale removes least recently used unreferenced items until we're
// under budget. Called with itemsLock held.
func (c *Cache) evictStale() {
	if c.bytesUsed <= c.maxBytes {
		return
	}
	unused := []*item{}
	for _, it := range c.items {
		if it.refs == 0 {
			unused = append(unused, it)
		}
	}
	sort.Slice(unused, func(i, j int) bool {
		return unused[i].lastUsed < unused[j].lastUsed
	})
	for _, it := range unused {
		if c.bytesUsed <= c.maxBytes {
			break
		}
		c.bytesUsed -= it.size
		delete(c.items, it.name)
		os.Remove(filepath.Join(c.root, it.name))
	}
}
