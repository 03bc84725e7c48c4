// ABOUTME: Noise synthesis package
// ABOUTME: Generates and caches looping stereo noise buffers
// Package noise synthesizes the six ambient noise colorations entirely
// algorithmically: white, pink, brown, rain, ocean and fan.
//
// Every loop is two seconds of stereo float32 audio at the requested sample
// rate. Each channel is generated from independent random draws so the two
// sides never cancel.
//
// A Synthesizer memoizes loops per sound type and sample rate:
//
//	synth := noise.NewSynthesizer()
//	buf, err := synth.Buffer(noise.Pink, 48000)
package noise
