package analysis

import (
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of each frequency bin of signal after
// removing its mean. Bin i is i/len(signal) cycles per sample.
func PowerSpectrum(signal []float64) []float64 {
	if len(signal) < 2 {
		return nil
	}
	mean := stat.Mean(signal, nil)
	centered := make([]float64, len(signal))
	for i, v := range signal {
		centered[i] = v - mean
	}

	coeff := fourier.NewFFT(len(centered)).Coefficients(nil, centered)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod returns the period of the strongest non-constant component of
// a signal sampled every interval, or 0 when the signal is flat or too short.
func DominantPeriod(signal []float64, interval time.Duration) time.Duration {
	ps := PowerSpectrum(signal)
	if len(ps) < 2 {
		return 0
	}
	best := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[best] {
			best = i
		}
	}
	if ps[best] < 1e-9 {
		return 0
	}

	fft := fourier.NewFFT(len(signal))
	cyclesPerSample := fft.Freq(best)
	return time.Duration(float64(interval) / cyclesPerSample)
}
