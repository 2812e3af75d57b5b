// Package coreaudio is a thin binding over the Windows Core Audio COM API.
//
// Calls go to the OS objects directly and hand back their result codes
// unchanged; a failing call returns an *ole.OleError and HResultOf recovers
// the HRESULT. Anything returned by a New/Activate/Open/Item call is owned by
// the caller and must be given back through its Release method.
//
// The two notification interfaces the OS calls into, IMMNotificationClient
// and IAudioEndpointVolumeCallback, are implemented by NotificationClient and
// VolumeCallback. They are reference counted COM objects whose method calls
// land in plain Go handlers.
package coreaudio
