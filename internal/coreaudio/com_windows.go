//go:build windows

package coreaudio

import (
	"errors"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

var (
	modole32 = windows.NewLazySystemDLL("ole32.dll")

	procPropVariantClear = modole32.NewProc("PropVariantClear")
)

func propVariantClear(pv unsafe.Pointer) HRESULT {
	hr, _, _ := procPropVariantClear.Call(uintptr(pv))
	return HRESULT(hr)
}

// Apartment keeps the process in the multithreaded apartment. The thread that
// entered it stays locked and parked until Close, so every other thread of
// the process can use COM through the implicit MTA.
type Apartment struct {
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

// EnterMTA initialises COM with COINIT_MULTITHREADED on a dedicated thread.
func EnterMTA() (*Apartment, error) {
	a := &Apartment{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(a.done)

		if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
			var oleErr *ole.OleError
			// S_FALSE: already initialised on this thread, still needs the matching uninit.
			if !errors.As(err, &oleErr) || HRESULT(oleErr.Code()) != S_FALSE {
				errCh <- err
				return
			}
		}
		errCh <- nil

		<-a.quit
		ole.CoUninitialize()
	}()

	if err := <-errCh; err != nil {
		return nil, err
	}
	return a, nil
}

// Close leaves the apartment and waits for the thread to finish.
func (a *Apartment) Close() {
	a.once.Do(func() {
		close(a.quit)
		<-a.done
	})
}
