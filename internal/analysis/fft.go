package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/stat"
)

var ErrShortSeries = errors.New("analysis: series too short")

// Spectrum is the one-sided amplitude spectrum of a uniformly sampled
// series. Freqs[i] is in Hz when dt is in seconds.
type Spectrum struct {
	Freqs []float64
	Power []float64
}

// PowerSpectrum removes the mean, applies a Hann window and returns the
// magnitudes of the non-negative frequency bins. Any length of at least 4
// is accepted.
func PowerSpectrum(data []float64, dt float64) (*Spectrum, error) {
	n := len(data)
	if n < 4 || dt <= 0 {
		return nil, ErrShortSeries
	}

	x := make([]float64, n)
	mean := stat.Mean(data, nil)
	for i, v := range data {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	bins := n/2 + 1
	s := &Spectrum{
		Freqs: make([]float64, bins),
		Power: make([]float64, bins),
	}
	for k := 0; k < bins; k++ {
		s.Freqs[k] = float64(k) / (float64(n) * dt)
		s.Power[k] = cmplx.Abs(coeffs[k])
	}
	return s, nil
}

// Dominant returns the strongest non-DC bin.
func (s *Spectrum) Dominant() (freq, power float64) {
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > power {
			freq, power = s.Freqs[k], s.Power[k]
		}
	}
	return freq, power
}

// Peaks returns the indices of up to n local maxima, strongest first.
func (s *Spectrum) Peaks(n int) []int {
	var idx []int
	for k := 1; k < len(s.Power)-1; k++ {
		if s.Power[k] > s.Power[k-1] && s.Power[k] >= s.Power[k+1] {
			idx = append(idx, k)
		}
	}
	// insertion sort; peak lists are short
	for i := 1; i < len(idx); i++ {
		for j := i; j > 0 && s.Power[idx[j]] > s.Power[idx[j-1]]; j-- {
			idx[j], idx[j-1] = idx[j-1], idx[j]
		}
	}
	if len(idx) > n {
		idx = idx[:n]
	}
	return idx
}
