package conditioning

// largeChangeThreshold is the output-domain jump that overrides rate
// limiting and forces a follow-up emission. It is deliberately a fixed
// constant, independent of the configurable deadband.
const largeChangeThreshold = 8

// SmootherParams tunes one analog channel.
type SmootherParams struct {
	// Alpha is the fixed-point EMA coefficient in 0..255, approximating
	// a time constant of 256/Alpha samples. 64 ≈ 0.25.
	Alpha uint8

	// Deadband is the minimum output-domain change that counts as
	// significant.
	Deadband uint8

	// RateLimit is the minimum time between emissions. Zero means every
	// significant change is eligible to emit immediately.
	RateLimit Millis
}

// Smoother conditions one analog channel: a single-pole EMA filter in
// fixed-point arithmetic, a clamped linear mapping from the raw domain
// (0..MaxRawSample) to the output domain (0..MaxOutput), and a
// deadband/rate-limit emission policy.
//
// "Significant change" (Changed) is independent of, and a superset of,
// "should emit now" (the Update return): callers can detect motion
// without coupling to the transport policy.
type Smoother struct {
	params SmootherParams

	filtered     uint16 // raw domain
	value        uint8  // output domain
	lastSent     uint8
	lastSendTime Millis
	significant  bool
	forcePending bool
}

// NewSmoother creates a smoother with the given tuning. State starts at
// zero; call Reset with the first real sample before use to avoid a
// filter-attack transient sweeping up from zero.
func NewSmoother(params SmootherParams) Smoother {
	return Smoother{params: params}
}

// Update feeds one raw sample into the filter and reports whether the
// conditioned value should be emitted now.
//
// Emission policy, first match wins:
//  1. a pending force from a prior large jump emits unconditionally
//  2. change ≥ deadband and rate limit elapsed
//  3. change ≥ the large-change threshold emits immediately and forces
//     the next call to emit too, so a fast ramp never stalls on the
//     rate limit twice
func (s *Smoother) Update(raw uint16, now Millis) bool {
	s.significant = false

	// filtered += (raw - filtered) * alpha / 256
	delta := (int32(raw) - int32(s.filtered)) * int32(s.params.Alpha) >> 8
	s.filtered = uint16(int32(s.filtered) + delta)

	s.value = mapToOutput(s.filtered)

	change := absDiff(s.value, s.lastSent)
	if change >= s.params.Deadband {
		s.significant = true
	}

	shouldSend := false
	switch {
	case s.forcePending:
		shouldSend = true
		s.forcePending = false
	case s.significant && now-s.lastSendTime >= s.params.RateLimit:
		shouldSend = true
	case change >= largeChangeThreshold:
		shouldSend = true
		s.forcePending = true
	}

	if shouldSend {
		s.lastSent = s.value
		s.lastSendTime = now
	}
	return shouldSend
}

// Value returns the current conditioned value in the output domain.
func (s *Smoother) Value() uint8 { return s.value }

// Filtered returns the raw-domain filter state.
func (s *Smoother) Filtered() uint16 { return s.filtered }

// Changed reports whether the most recent Update saw a significant
// change, regardless of whether an emission actually happened.
func (s *Smoother) Changed() bool { return s.significant }

// Reset seeds the filter, the current output, and the last-sent value
// from a raw sample and clears timers and flags. Required at startup so
// the filter starts at the true sensor position.
func (s *Smoother) Reset(raw uint16) {
	s.filtered = raw
	s.value = mapToOutput(raw)
	s.lastSent = s.value
	s.lastSendTime = 0
	s.significant = false
	s.forcePending = false
}

// mapToOutput scales a raw-domain value into the output domain,
// clamping at the top so rounding can never exceed MaxOutput.
func mapToOutput(raw uint16) uint8 {
	v := uint32(raw) * MaxOutput / MaxRawSample
	if v > MaxOutput {
		v = MaxOutput
	}
	return uint8(v)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
