package coreaudio

import (
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
)

type adapter interface {
	AddRef() uint32
	Release() uint32
	QueryInterface(riid *ole.GUID) HRESULT
}

// comObject is the only part of an adapter the OS ever sees: the vtable
// pointer at offset zero. Its address is the COM identity.
type comObject struct {
	lpVtbl uintptr
}

type binding struct {
	obj     *comObject
	adapter adapter
}

// live keeps every bound adapter reachable until its last Release, since the
// OS holds the only other references as raw pointers.
var live = struct {
	sync.Mutex
	m map[uintptr]binding
}{m: make(map[uintptr]binding)}

func bind(a adapter, vtbl uintptr) uintptr {
	obj := &comObject{lpVtbl: vtbl}
	this := uintptr(unsafe.Pointer(obj))

	live.Lock()
	live.m[this] = binding{obj: obj, adapter: a}
	live.Unlock()

	return this
}

func unbind(this uintptr) {
	if this == 0 {
		return
	}
	live.Lock()
	delete(live.m, this)
	live.Unlock()
}

func lookup(this uintptr) adapter {
	live.Lock()
	defer live.Unlock()
	b, ok := live.m[this]
	if !ok {
		return nil
	}
	return b.adapter
}

func liveCount() int {
	live.Lock()
	defer live.Unlock()
	return len(live.m)
}

// queryInterface implements IUnknown::QueryInterface for a bound adapter.
func queryInterface(this uintptr, riid *ole.GUID, ppv *uintptr) HRESULT {
	if ppv == nil {
		return E_POINTER
	}
	a := lookup(this)
	if a == nil {
		*ppv = 0
		return E_NOINTERFACE
	}
	if hr := a.QueryInterface(riid); hr.Failed() {
		*ppv = 0
		return hr
	}
	*ppv = this
	return S_OK
}

func addRef(this uintptr) uint32 {
	if a := lookup(this); a != nil {
		return a.AddRef()
	}
	return 0
}

func release(this uintptr) uint32 {
	if a := lookup(this); a != nil {
		return a.Release()
	}
	return 0
}
