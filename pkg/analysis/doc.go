// ABOUTME: Spectral analysis package
// ABOUTME: Measures how noise energy is spread across frequency bands
// Package analysis measures the spectral shape of generated noise using
// gonum's real FFT and a Hann window.
//
// It backs the analyze command and the tests that check each coloration
// tilts the way it should: pink below white, brown below pink.
package analysis
