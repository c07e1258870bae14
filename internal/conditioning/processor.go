package conditioning

// Tuning carries the static conditioning parameters for the whole
// control surface. It is built once from configuration at startup and
// never changes at runtime.
type Tuning struct {
	// ButtonDebounce is the settle window for the ten buttons.
	ButtonDebounce Millis

	// SwitchDebounce is the settle window for the three toggle switches.
	SwitchDebounce Millis

	// JoystickDebounce is the settle window for the joystick directions.
	JoystickDebounce Millis

	// JoystickRearm is the suppression window applied after a confirmed
	// joystick press: raw reads for that direction are forced neutral
	// until it expires, giving single-pulse, no-auto-repeat semantics.
	JoystickRearm Millis

	// IdleTimeout is the inactivity duration after which the surface is
	// considered dormant.
	IdleTimeout Millis

	// Pots tunes each analog channel individually.
	Pots [PotCount]SmootherParams
}

// Processor owns one Debouncer per digital channel and one Smoother per
// analog channel and runs a full conditioning pass per scan cycle. It
// also maintains the single activity timestamp used for idle detection.
//
// All per-call timestamps are supplied by the caller; the processor
// never reads a clock. There is exactly one execution context, so no
// locking is needed.
//
// Accessors taking a channel index return the zero value (inactive /
// zero) for an out-of-range index.
type Processor struct {
	tuning Tuning

	buttons  [ButtonCount]Debouncer
	joystick [JoystickCount]Debouncer
	switches [SwitchCount]Debouncer
	pots     [PotCount]Smoother

	// Per-direction suppression after a confirmed joystick press. While
	// suppressed, raw reads for the direction are forced neutral before
	// they reach the debouncer.
	joySuppressed [JoystickCount]bool
	joyPressedAt  [JoystickCount]Millis

	lastActivity Millis
}

// NewProcessor creates a processor with the given tuning. Call Seed
// with the first scan before the first Update so boot state produces no
// false edges or filter transients.
func NewProcessor(tuning Tuning) *Processor {
	p := &Processor{tuning: tuning}
	for i := range p.buttons {
		p.buttons[i] = NewDebouncer(tuning.ButtonDebounce)
	}
	for i := range p.joystick {
		p.joystick[i] = NewDebouncer(tuning.JoystickDebounce)
	}
	for i := range p.switches {
		p.switches[i] = NewDebouncer(tuning.SwitchDebounce)
	}
	for i := range p.pots {
		p.pots[i] = NewSmoother(tuning.Pots[i])
	}
	return p
}

// Seed adopts an initial scan as the starting state: debouncers take
// the current digital readings as already stable, smoothers start at
// the current pot positions, and the activity timer starts at now.
func (p *Processor) Seed(frame Frame, now Millis) {
	for i := range p.buttons {
		p.buttons[i].Seed(frame.Buttons[i], now)
	}
	for i := range p.joystick {
		// Joystick channels seed neutral: a direction held across boot
		// must still debounce as a fresh press.
		p.joystick[i].Seed(false, now)
		p.joySuppressed[i] = false
	}
	for i := range p.switches {
		p.switches[i].Seed(frame.Switches[i], now)
	}
	for i := range p.pots {
		p.pots[i].Reset(frame.Pots[i])
	}
	p.lastActivity = now
}

// Update runs one conditioning pass over a raw frame. Channel order is
// fixed (buttons, joystick, switches, pots, each in index order) so
// cross-channel observation order is deterministic. The activity
// timestamp advances only on confirmed transitions and confirmed
// emissions, never on raw noise.
func (p *Processor) Update(frame Frame, now Millis) {
	for i := range p.buttons {
		if p.buttons[i].Update(frame.Buttons[i], now) {
			p.lastActivity = now
		}
	}

	for i := range p.joystick {
		raw := frame.Joystick[i]
		if p.joySuppressed[i] {
			if now-p.joyPressedAt[i] < p.tuning.JoystickRearm {
				raw = false
			} else {
				p.joySuppressed[i] = false
			}
		}
		if p.joystick[i].Update(raw, now) && p.joystick[i].JustPressed() {
			p.joySuppressed[i] = true
			p.joyPressedAt[i] = now
			p.lastActivity = now
		}
	}

	for i := range p.switches {
		if p.switches[i].Update(frame.Switches[i], now) {
			p.lastActivity = now
		}
	}

	for i := range p.pots {
		if p.pots[i].Update(frame.Pots[i], now) {
			p.lastActivity = now
		}
	}
}

// ButtonState returns the stable state of a button.
func (p *Processor) ButtonState(i int) bool {
	if i < 0 || i >= ButtonCount {
		return false
	}
	return p.buttons[i].Pressed()
}

// ButtonPressed reports a rising edge confirmed this cycle.
func (p *Processor) ButtonPressed(i int) bool {
	if i < 0 || i >= ButtonCount {
		return false
	}
	return p.buttons[i].JustPressed()
}

// ButtonReleased reports a falling edge confirmed this cycle.
func (p *Processor) ButtonReleased(i int) bool {
	if i < 0 || i >= ButtonCount {
		return false
	}
	return p.buttons[i].JustReleased()
}

// JoystickState returns the stable state of a joystick direction.
// During the rearm window this is false even if the stick is held.
func (p *Processor) JoystickState(d JoystickDir) bool {
	if int(d) >= JoystickCount {
		return false
	}
	return p.joystick[d].Pressed()
}

// JoystickPressed reports a confirmed press for a direction this cycle.
func (p *Processor) JoystickPressed(d JoystickDir) bool {
	if int(d) >= JoystickCount {
		return false
	}
	return p.joystick[d].JustPressed()
}

// SwitchState returns the stable state of a toggle switch.
func (p *Processor) SwitchState(i int) bool {
	if i < 0 || i >= SwitchCount {
		return false
	}
	return p.switches[i].Pressed()
}

// SwitchChanged reports a toggle confirmed this cycle, in either
// direction.
func (p *Processor) SwitchChanged(i int) bool {
	if i < 0 || i >= SwitchCount {
		return false
	}
	return p.switches[i].JustPressed() || p.switches[i].JustReleased()
}

// PotValue returns the conditioned output-domain value of a pot.
func (p *Processor) PotValue(i int) uint8 {
	if i < 0 || i >= PotCount {
		return 0
	}
	return p.pots[i].Value()
}

// PotFiltered returns the raw-domain filter state of a pot.
func (p *Processor) PotFiltered(i int) uint16 {
	if i < 0 || i >= PotCount {
		return 0
	}
	return p.pots[i].Filtered()
}

// PotChanged reports whether a pot saw a significant change this
// cycle, independent of whether the change was emitted.
func (p *Processor) PotChanged(i int) bool {
	if i < 0 || i >= PotCount {
		return false
	}
	return p.pots[i].Changed()
}

// SinceActivity returns the time elapsed since the last confirmed
// transition or emission anywhere on the surface.
func (p *Processor) SinceActivity(now Millis) Millis {
	return now - p.lastActivity
}

// Idle reports whether the surface has been inactive for at least the
// idle timeout.
func (p *Processor) Idle(now Millis) bool {
	return p.SinceActivity(now) >= p.tuning.IdleTimeout
}
