// Package analysis inspects recorded shows.
//
// A show is reduced to a brightness series (mean luma per frame) whose
// spectrum reveals how often the animation repeats:
//
//   - [BrightnessSeries]: mean luma of each frame
//   - [PowerSpectrum]: magnitude spectrum via gonum's real FFT
//   - [DominantPeriod]: the strongest non-constant cycle, in seconds
package analysis
