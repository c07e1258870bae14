package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
	"github.com/mystery-melody-machine/melodeck/internal/mapping"
	"github.com/mystery-melody-machine/melodeck/internal/midiout"
	"github.com/mystery-melody-machine/melodeck/internal/source"
)

// fakeClock returns a fixed start time on the first call and advances
// one millisecond per subsequent call, matching a 1 kHz scan driven
// tick by tick.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(time.Millisecond)
	return now
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// recordingPublisher captures status publications.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

type publishedMessage struct {
	topic    string
	payload  string
	retained bool
}

func (p *recordingPublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic: topic, payload: string(payload), retained: retained})
	return nil
}

func (p *recordingPublisher) IsConnected() bool { return true }

func (p *recordingPublisher) onTopic(topic string) []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMessage
	for _, m := range p.messages {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// testTuning removes debounce delays so engine tests exercise wiring,
// not settle timing.
func testTuning() conditioning.Tuning {
	var pots [conditioning.PotCount]conditioning.SmootherParams
	for i := range pots {
		pots[i] = conditioning.SmootherParams{Alpha: 255, Deadband: 2, RateLimit: 0}
	}
	return conditioning.Tuning{
		ButtonDebounce:   0,
		SwitchDebounce:   0,
		JoystickDebounce: 0,
		JoystickRearm:    120,
		IdleTimeout:      5,
		Pots:             pots,
	}
}

func testMap() mapping.Map {
	m := mapping.Map{Channel: 1, Velocity: 100}
	for i := range m.ButtonNotes {
		m.ButtonNotes[i] = uint8(60 + i)
	}
	for i := range m.PotCCs {
		m.PotCCs[i] = uint8(1 + i)
	}
	for i := range m.JoystickCCs {
		m.JoystickCCs[i] = uint8(10 + i)
	}
	for i := range m.SwitchCCs {
		m.SwitchCCs[i] = uint8(20 + i)
	}
	return m
}

// harness runs runLoop on its own goroutine, driven by the test.
type harness struct {
	engine *Engine
	sink   *midiout.CaptureSink
	status *recordingPublisher
	tick   chan time.Time
	cancel context.CancelFunc
	done   chan error
}

func newHarness(t *testing.T, reader source.Reader, opts Options) *harness {
	t.Helper()

	proc := conditioning.NewProcessor(testTuning())
	sink := &midiout.CaptureSink{}
	mapper := mapping.New(proc, sink, testMap())

	e := New(reader, proc, mapper, nopLogger{}, opts)
	status := &recordingPublisher{}
	e.SetStatusPublisher(status)

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{
		engine: e,
		sink:   sink,
		status: status,
		tick:   make(chan time.Time),
		cancel: cancel,
		done:   make(chan error, 1),
	}

	clock := newFakeClock()
	go func() {
		h.done <- e.runLoop(ctx, h.tick, clock.Now)
	}()

	return h
}

// step delivers n scan ticks. Each send returns only after the loop
// has fully processed the previous tick, so after stop() all effects
// are visible.
func (h *harness) step(n int) {
	for i := 0; i < n; i++ {
		h.tick <- time.Time{}
	}
}

// stop cancels the loop and waits for it to exit.
func (h *harness) stop(t *testing.T) error {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("scan loop did not stop")
		return nil
	}
}

// beforeShutdown strips the unconditional all-notes-off flush that
// shutdown appends (one note-off per button).
func (h *harness) beforeShutdown(t *testing.T) []midiout.Event {
	t.Helper()
	n := len(h.sink.Events)
	if n < conditioning.ButtonCount {
		t.Fatalf("events = %d, want at least the %d-event shutdown flush", n, conditioning.ButtonCount)
	}
	for _, ev := range h.sink.Events[n-conditioning.ButtonCount:] {
		if ev.Kind != midiout.KindNoteOff {
			t.Fatalf("shutdown flush contains %+v, want note-offs only", ev)
		}
	}
	return h.sink.Events[:n-conditioning.ButtonCount]
}

func pressedFrame(button int) conditioning.Frame {
	var f conditioning.Frame
	f.Buttons[button] = true
	return f
}

func TestRunLoop_SeedSuppressesBootEvents(t *testing.T) {
	// Hardware boots with button 3 already held down.
	reader := source.NewFakeReader(pressedFrame(3))

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(3)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	events := h.beforeShutdown(t)
	if len(events) != 0 {
		t.Errorf("events after boot with held button = %d, want 0", len(events))
	}
}

func TestRunLoop_PressAndRelease(t *testing.T) {
	reader := source.NewFakeReader(
		conditioning.Frame{}, // seed
		pressedFrame(0),      // tick 1
		conditioning.Frame{}, // tick 2 onward
	)

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(2)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	events := h.beforeShutdown(t)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}

	on := events[0]
	if on.Kind != midiout.KindNoteOn || on.Data1 != 60 || on.Data2 != 100 || on.Channel != 1 {
		t.Errorf("first event = %+v, want note-on 60 vel 100 ch 1", on)
	}

	off := events[1]
	if off.Kind != midiout.KindNoteOff || off.Data1 != 60 {
		t.Errorf("second event = %+v, want note-off 60", off)
	}
}

func TestRunLoop_PanicFlushesAndRescans(t *testing.T) {
	reader := source.NewFakeReader(
		conditioning.Frame{}, // seed
		pressedFrame(2),      // held from tick 1 on
	)

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(1)
	h.engine.Panic()
	h.step(1)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	events := h.beforeShutdown(t)

	// Tick 1: note-on. Tick 2: panic flush (note-off per button), then
	// the held button re-registers against the cleared snapshot.
	want := 1 + conditioning.ButtonCount + 1
	if len(events) != want {
		t.Fatalf("events = %d, want %d", len(events), want)
	}

	if events[0].Kind != midiout.KindNoteOn || events[0].Data1 != 62 {
		t.Errorf("first event = %+v, want note-on 62", events[0])
	}
	for _, ev := range events[1 : 1+conditioning.ButtonCount] {
		if ev.Kind != midiout.KindNoteOff {
			t.Errorf("panic flush event = %+v, want note-off", ev)
		}
	}
	last := events[len(events)-1]
	if last.Kind != midiout.KindNoteOn || last.Data1 != 62 {
		t.Errorf("post-panic event = %+v, want note-on 62 re-emission", last)
	}
}

func TestRunLoop_ShutdownReleasesHeldNotes(t *testing.T) {
	reader := source.NewFakeReader(
		conditioning.Frame{},
		pressedFrame(5),
	)

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(1)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	// beforeShutdown verifies the trailing flush is all note-offs.
	events := h.beforeShutdown(t)
	if len(events) != 1 {
		t.Fatalf("events before shutdown = %d, want 1", len(events))
	}
	if events[0].Kind != midiout.KindNoteOn || events[0].Data1 != 65 {
		t.Errorf("event = %+v, want note-on 65", events[0])
	}

	// The held note's release must be part of the flush.
	found := false
	for _, ev := range h.sink.Events[1:] {
		if ev.Kind == midiout.KindNoteOff && ev.Data1 == 65 {
			found = true
		}
	}
	if !found {
		t.Error("shutdown flush did not release note 65")
	}
}

func TestRunLoop_IdleTransitionPublished(t *testing.T) {
	// Idle timeout is 5ms in testTuning; nothing ever moves.
	reader := source.NewFakeReader(conditioning.Frame{})

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(8)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	msgs := h.status.onTopic("melodeck/activity/state")
	if len(msgs) != 2 {
		t.Fatalf("activity publications = %d, want 2 (startup active, then idle)", len(msgs))
	}

	if !msgs[0].retained || !msgs[1].retained {
		t.Error("activity state publications should be retained")
	}

	if want := `"state":"active"`; !strings.Contains(msgs[0].payload, want) {
		t.Errorf("startup payload %q missing %q", msgs[0].payload, want)
	}
	if want := `"state":"idle"`; !strings.Contains(msgs[1].payload, want) {
		t.Errorf("idle payload %q missing %q", msgs[1].payload, want)
	}
}

func TestRunLoop_ActivityEndsIdle(t *testing.T) {
	frames := []conditioning.Frame{{}}
	// Stay still long past the idle timeout, then press a button.
	for i := 0; i < 8; i++ {
		frames = append(frames, conditioning.Frame{})
	}
	frames = append(frames, pressedFrame(0))

	reader := source.NewFakeReader(frames...)

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(9)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	msgs := h.status.onTopic("melodeck/activity/state")
	if len(msgs) != 3 {
		t.Fatalf("activity publications = %d, want 3 (active, idle, active)", len(msgs))
	}
	if want := `"state":"active"`; !strings.Contains(msgs[2].payload, want) {
		t.Errorf("final payload %q missing %q", msgs[2].payload, want)
	}
}

func TestRunLoop_HeartbeatCadence(t *testing.T) {
	reader := source.NewFakeReader(conditioning.Frame{})

	h := newHarness(t, reader, Options{
		ScanPeriod: time.Millisecond,
		Heartbeat:  5 * time.Millisecond,
	})
	h.step(12)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	msgs := h.status.onTopic("melodeck/activity/heartbeat")
	if len(msgs) != 2 {
		t.Fatalf("heartbeats = %d, want 2", len(msgs))
	}

	if want := `"uptime_s":0`; !strings.Contains(msgs[0].payload, want) {
		t.Errorf("heartbeat payload %q missing %q", msgs[0].payload, want)
	}
	if want := `"events"`; !strings.Contains(msgs[0].payload, want) {
		t.Errorf("heartbeat payload %q missing %q", msgs[0].payload, want)
	}
}

func TestRunLoop_InitialReadErrorFails(t *testing.T) {
	reader := source.NewFakeReader()
	reader.ReadError = errors.New("spi bus gone")

	proc := conditioning.NewProcessor(testTuning())
	sink := &midiout.CaptureSink{}
	mapper := mapping.New(proc, sink, testMap())
	e := New(reader, proc, mapper, nopLogger{}, Options{ScanPeriod: time.Millisecond})

	err := e.runLoop(context.Background(), make(chan time.Time), newFakeClock().Now)
	if err == nil {
		t.Fatal("runLoop should fail when the initial read fails")
	}
}

func TestRunLoop_TransientReadErrorSkipsCycle(t *testing.T) {
	reader := &flakyReader{
		frames:  source.NewFakeReader(conditioning.Frame{}, pressedFrame(0)),
		failOn:  2, // second post-seed read fails
		failErr: errors.New("transient"),
	}

	h := newHarness(t, reader, Options{ScanPeriod: time.Millisecond})
	h.step(3)
	if err := h.stop(t); err != nil {
		t.Fatalf("runLoop error = %v", err)
	}

	// Tick 1 presses (note-on), tick 2's read fails and is skipped,
	// tick 3 repeats the held frame with no state change.
	events := h.beforeShutdown(t)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Kind != midiout.KindNoteOn {
		t.Errorf("event = %+v, want note-on", events[0])
	}
}

// flakyReader fails exactly one post-seed read.
type flakyReader struct {
	frames  *source.FakeReader
	reads   int
	failOn  int
	failErr error
}

func (r *flakyReader) Read() (conditioning.Frame, error) {
	r.reads++
	if r.reads-1 == r.failOn { // reads-1 skips the seed read
		return conditioning.Frame{}, r.failErr
	}
	return r.frames.Read()
}

func (r *flakyReader) Close() error { return r.frames.Close() }
