// ABOUTME: Software audio graph package
// ABOUTME: Buffer source, gain and destination nodes mixed on demand
// Package graph is a minimal software audio graph modeled on the browser
// audio API: a Context creates buffers, single-use buffer sources and gain
// nodes, and an output device pulls mixed frames from it.
//
// Example:
//
//	ctx, err := graph.NewContext(output.NewOto(), audio.Format{SampleRate: 48000, Channels: 2})
//	gain := ctx.CreateGain()
//	gain.Connect(ctx.Destination())
//	src := ctx.CreateBufferSource(buf)
//	src.SetLoop(true)
//	src.Connect(gain)
//	err = ctx.Resume()
//	err = src.Start(0)
package graph
