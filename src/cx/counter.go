package cx

import "sync/atomic"

type Countable interface {
	Inc() uint64
	Val() uint64
	Reset()
}

type uint64Counter struct {
	val uint64
}

func NewCounter() Countable {
	return &uint64Counter{}
}

func (u *uint64Counter) Inc() uint64 {
	return atomic.AddUint64(&u.val, 1)
}

func (u *uint64Counter) Val() uint64 {
	return atomic.LoadUint64(&u.val)
}

func (u *uint64Counter) Reset() {
	atomic.StoreUint64(&u.val, 0)
}
