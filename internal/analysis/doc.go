// Package analysis turns recorded runs into numbers worth looking at.
//
//   - [PowerSpectrum]: amplitude spectrum of a metric series, e.g. the
//     sloshing frequency of mean_height
//   - [Sweep]: parameter sweep with the standard run metrics per value
//
// # Sloshing
//
// A block released in the box sloshes at a frequency set mostly by box
// width and gravity:
//
//	s, _ := analysis.PowerSpectrum(heights, dt)
//	f, _ := s.Dominant()
package analysis
