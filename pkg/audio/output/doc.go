// ABOUTME: Audio output package for playing rendered audio
// ABOUTME: Provides the Output interface with oto, beep and headless backends
// Package output provides audio playback devices.
//
// Devices pull frames from an audio.Renderer instead of being pushed to.
// The oto backend is the default; beep drives the same renderer through
// its speaker package, and null renders nothing audible for headless runs
// and tests.
//
// Example:
//
//	out, err := output.New("oto")
//	err = out.Open(audio.Format{SampleRate: 48000, Channels: 2}, renderer)
//	err = out.Resume()
package output
