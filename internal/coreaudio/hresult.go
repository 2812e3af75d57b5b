package coreaudio

import (
	"errors"
	"fmt"

	"github.com/go-ole/go-ole"
)

// HRESULT is a Windows status code. Negative values (high bit set) are failures.
type HRESULT uint32

const (
	S_OK          HRESULT = 0x00000000
	S_FALSE       HRESULT = 0x00000001
	E_NOTIMPL     HRESULT = 0x80004001
	E_NOINTERFACE HRESULT = 0x80004002
	E_POINTER     HRESULT = 0x80004003
	E_FAIL        HRESULT = 0x80004005
	E_INVALIDARG  HRESULT = 0x80070057

	// AUDCLNT_E_DEVICE_INVALIDATED is returned once an endpoint has been removed.
	AUDCLNT_E_DEVICE_INVALIDATED HRESULT = 0x88890004
)

func (hr HRESULT) Succeeded() bool { return int32(hr) >= 0 }

func (hr HRESULT) Failed() bool { return int32(hr) < 0 }

func (hr HRESULT) String() string { return fmt.Sprintf("0x%08x", uint32(hr)) }

// Err converts hr into the error value returned by the wrappers: nil for
// success codes, otherwise an *ole.OleError carrying hr unchanged.
func (hr HRESULT) Err() error {
	if hr.Succeeded() {
		return nil
	}
	return ole.NewError(uintptr(hr))
}

// HResultOf recovers the result code carried by err. A nil error is S_OK and
// errors that do not come from a COM call map to E_FAIL.
func HResultOf(err error) HRESULT {
	if err == nil {
		return S_OK
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		return HRESULT(uint32(oleErr.Code()))
	}
	return E_FAIL
}

// resultOf maps a Go callback error to the code handed back to the OS.
func resultOf(err error) HRESULT {
	if err == nil {
		return S_OK
	}
	if hr := HResultOf(err); hr.Failed() {
		return hr
	}
	return E_FAIL
}
