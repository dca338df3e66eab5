//go:build !whispercpp

package client

import "context"

// NativeAvailable reports whether the native whisper backend is compiled in.
func NativeAvailable() bool { return false }

// NativeClient is a placeholder when the binary is built without whispercpp.
type NativeClient struct{}

// NewNativeClient always fails with ErrNativeUnavailable.
func NewNativeClient(modelDir string) (*NativeClient, error) {
	return nil, ErrNativeUnavailable
}

func (c *NativeClient) Transcribe(ctx context.Context, audioPath string, opts TranscribeOptions) (*TranscriptionResult, error) {
	return nil, ErrNativeUnavailable
}

func (c *NativeClient) Close() error { return nil }
