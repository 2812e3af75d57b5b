package coreaudio

import (
	"sync/atomic"

	"github.com/go-ole/go-ole"
)

// unknown is the IUnknown half shared by the callback adapters.
//
// The count starts at one (the reference owned by whoever created the
// adapter), never drops below zero, and destroy runs exactly once when the
// last reference goes away.
type unknown struct {
	iid     *ole.GUID
	refs    atomic.Int32
	destroy func()
}

func (u *unknown) init(iid *ole.GUID, destroy func()) {
	u.iid = iid
	u.destroy = destroy
	u.refs.Store(1)
}

// AddRef returns the new count. A destroyed object stays destroyed.
func (u *unknown) AddRef() uint32 {
	for {
		n := u.refs.Load()
		if n <= 0 {
			return 0
		}
		if u.refs.CompareAndSwap(n, n+1) {
			return uint32(n + 1)
		}
	}
}

// Release returns the new count. Releasing past zero is a no-op.
func (u *unknown) Release() uint32 {
	for {
		n := u.refs.Load()
		if n <= 0 {
			return 0
		}
		if u.refs.CompareAndSwap(n, n-1) {
			if n == 1 && u.destroy != nil {
				u.destroy()
			}
			return uint32(n - 1)
		}
	}
}

func (u *unknown) refCount() int32 { return u.refs.Load() }

func (u *unknown) supports(riid *ole.GUID) bool {
	if riid == nil {
		return false
	}
	return ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, u.iid)
}

// QueryInterface reports whether riid names IUnknown or the implemented
// interface. On success the caller gets a new reference.
func (u *unknown) QueryInterface(riid *ole.GUID) HRESULT {
	if !u.supports(riid) {
		return E_NOINTERFACE
	}
	if u.AddRef() == 0 {
		return E_NOINTERFACE
	}
	return S_OK
}
