package storage

import (
	"errors"
	"math"
	"sync"

	"github.com/yndnr/minikv/pkg/dict"
	"github.com/yndnr/minikv/pkg/sds"
)

// Engine is the key-value store. It is safe for concurrent use.
type Engine struct {
	mu   sync.Mutex
	data *dict.Dict[*Object]
}

// Option configures the Engine.
type Option func(*engineOptions)

type engineOptions struct {
	dictOpts []dict.Option
}

// WithInitialSize sets the initial bucket count of the dictionary.
func WithInitialSize(n int) Option {
	return func(o *engineOptions) {
		o.dictOpts = append(o.dictOpts, dict.WithInitialSize(n))
	}
}

// WithHashSeed fixes the dictionary hash seed.
func WithHashSeed(seed uint32) Option {
	return func(o *engineOptions) {
		o.dictOpts = append(o.dictOpts, dict.WithSeed(seed))
	}
}

// New creates an empty engine.
func New(opts ...Option) *Engine {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		data: dict.New[*Object](o.dictOpts...),
	}
}

// Set stores value under key, replacing any previous value.
func (e *Engine) Set(key, value []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if obj, ok := e.data.Get(key); ok && obj.Kind == KindString {
		obj.Payload.Replace(value)
		return
	}
	e.data.Set(key, newStringObject(value))
}

// Get returns a copy of the value stored under key.
// The second result is false when the key does not exist.
func (e *Engine) Get(key []byte) ([]byte, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, ok := e.data.Get(key)
	if !ok {
		return nil, false, nil
	}
	if obj.Kind != KindString {
		return nil, false, ErrWrongType
	}
	return obj.Payload.Clone(), true, nil
}

// Del removes key and returns the number of keys removed (0 or 1).
func (e *Engine) Del(key []byte) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.data.Delete(key) {
		return 1
	}
	return 0
}

// Incr adds one to the integer stored under key and returns the result.
// A missing key is treated as 0. On error the stored value is unchanged.
func (e *Engine) Incr(key []byte) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	obj, ok := e.data.Get(key)
	if !ok {
		e.data.Set(key, &Object{Kind: KindString, Payload: sds.FromInt64(1)})
		return 1, nil
	}
	if obj.Kind != KindString {
		return 0, ErrWrongType
	}

	n, err := obj.Payload.Int64()
	if err != nil {
		if errors.Is(err, sds.ErrNotInteger) {
			return 0, ErrNotInteger.Wrap(err)
		}
		return 0, err
	}
	if n == math.MaxInt64 {
		return 0, ErrOverflow
	}

	n++
	obj.Payload.Replace(sds.FromInt64(n).Bytes())
	return n, nil
}

// Len returns the number of keys.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Len()
}
