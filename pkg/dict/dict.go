package dict

import (
	"math/rand/v2"

	"github.com/spaolacci/murmur3"

	"github.com/yndnr/minikv/pkg/sds"
)

// DefaultInitialSize is the default number of buckets.
const DefaultInitialSize = 16

const shrinkDivisor = 8

type entry[V any] struct {
	key   *sds.String
	hash  uint64
	value V
	next  *entry[V]
}

// Dict is a hash table from byte-string keys to values of type V.
type Dict[V any] struct {
	buckets     []*entry[V]
	mask        uint64
	count       int
	seed        uint32
	initialSize int
}

// Option configures a Dict.
type Option func(*options)

type options struct {
	initialSize int
	seed        uint32
	seeded      bool
}

// WithInitialSize sets the initial bucket count, rounded up to a power of 2.
func WithInitialSize(n int) Option {
	return func(o *options) {
		o.initialSize = n
	}
}

// WithSeed fixes the hash seed. Mostly useful for reproducible tests.
func WithSeed(seed uint32) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// New creates an empty Dict.
func New[V any](opts ...Option) *Dict[V] {
	o := options{initialSize: DefaultInitialSize}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = rand.Uint32()
	}

	size := roundPow2(o.initialSize)
	return &Dict[V]{
		buckets:     make([]*entry[V], size),
		mask:        uint64(size - 1),
		seed:        o.seed,
		initialSize: size,
	}
}

// Set inserts key with value v, replacing any existing value in place.
// The Dict stores its own copy of key.
func (d *Dict[V]) Set(key []byte, v V) {
	h := d.hash(key)
	idx := h & d.mask
	for e := d.buckets[idx]; e != nil; e = e.next {
		if e.hash == h && e.key.Equal(key) {
			e.value = v
			return
		}
	}

	d.buckets[idx] = &entry[V]{
		key:   sds.New(key),
		hash:  h,
		value: v,
		next:  d.buckets[idx],
	}
	d.count++

	if d.count > len(d.buckets) {
		d.resize(len(d.buckets) * 2)
	}
}

// Get returns the value stored for key.
func (d *Dict[V]) Get(key []byte) (V, bool) {
	if e := d.find(key); e != nil {
		return e.value, true
	}
	var zero V
	return zero, false
}

// Delete removes key and reports whether it was present.
func (d *Dict[V]) Delete(key []byte) bool {
	h := d.hash(key)
	idx := h & d.mask

	var prev *entry[V]
	for e := d.buckets[idx]; e != nil; prev, e = e, e.next {
		if e.hash != h || !e.key.Equal(key) {
			continue
		}
		if prev == nil {
			d.buckets[idx] = e.next
		} else {
			prev.next = e.next
		}
		d.count--

		if len(d.buckets) > d.initialSize && d.count < len(d.buckets)/shrinkDivisor {
			d.resize(len(d.buckets) / 2)
		}
		return true
	}
	return false
}

// Len returns the number of entries.
func (d *Dict[V]) Len() int {
	return d.count
}

func (d *Dict[V]) find(key []byte) *entry[V] {
	h := d.hash(key)
	for e := d.buckets[h&d.mask]; e != nil; e = e.next {
		if e.hash == h && e.key.Equal(key) {
			return e
		}
	}
	return nil
}

func (d *Dict[V]) hash(key []byte) uint64 {
	return murmur3.Sum64WithSeed(key, d.seed)
}

// resize moves every entry into a table of size buckets.
// Stored hashes are reused, so keys are not rehashed.
func (d *Dict[V]) resize(size int) {
	next := make([]*entry[V], size)
	mask := uint64(size - 1)
	for _, head := range d.buckets {
		for e := head; e != nil; {
			following := e.next
			idx := e.hash & mask
			e.next = next[idx]
			next[idx] = e
			e = following
		}
	}
	d.buckets = next
	d.mask = mask
}

func roundPow2(n int) int {
	if n < 1 {
		return DefaultInitialSize
	}
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
