// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Buffer types and sample conversion functions
// Package audio provides fundamental audio types shared by the synthesizer,
// the audio graph and the output devices.
//
// This package defines:
//   - Format: sample rate and channel count of a PCM stream
//   - Buffer: planar float32 PCM, one slice per channel
//
// It also provides helpers for clipping and converting float samples to
// signed 16-bit PCM for devices that do not accept float input.
//
// Example:
//
//	buf, err := audio.NewBuffer(audio.Format{SampleRate: 48000, Channels: 2}, 96000)
//	left := buf.ChannelData(0)
package audio
