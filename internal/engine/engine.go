package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mystery-melody-machine/melodeck/internal/conditioning"
	"github.com/mystery-melody-machine/melodeck/internal/infrastructure/mqtt"
	"github.com/mystery-melody-machine/melodeck/internal/mapping"
	"github.com/mystery-melody-machine/melodeck/internal/source"
)

// maxConsecutiveReadErrors is the number of back-to-back source read
// failures tolerated before the engine gives up. At the default 1 kHz
// scan rate this is one second of a dead input source.
const maxConsecutiveReadErrors = 1000

// Logger is the logging interface the engine needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// StatusPublisher publishes observability messages. Satisfied by the
// mqtt client. Nil means status publishing is disabled.
type StatusPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// TelemetrySink records filter-tuning telemetry. Satisfied by the
// influxdb client. Nil means telemetry is disabled.
type TelemetrySink interface {
	WritePotSample(channel int, raw uint16, filtered uint16, value uint8)
	WriteEventCounts(noteOn, noteOff, controlChange uint64)
	WriteCycleStats(cycleDuration time.Duration, idle bool)
}

// Options tunes the engine's periodic work.
type Options struct {
	// ScanPeriod is the time between input scans.
	ScanPeriod time.Duration

	// Heartbeat is the interval between heartbeat publications.
	// Zero disables the heartbeat.
	Heartbeat time.Duration

	// Telemetry is the interval between telemetry samples.
	// Zero disables telemetry.
	Telemetry time.Duration

	// QoS is the MQTT QoS level for status publications.
	QoS byte
}

// Engine owns the scan loop: read the input source, advance the
// conditioning processor, let the mapper emit MIDI, and publish status
// on the side.
//
// The conditioning and mapping layers never see a wall clock; the
// engine is the single place where real time is converted to the
// wrapping millisecond timestamps they consume.
type Engine struct {
	src    source.Reader
	proc   *conditioning.Processor
	mapper *mapping.Mapper
	log    Logger
	opts   Options

	status    StatusPublisher
	telemetry TelemetrySink

	// panicRequests carries remote all-notes-off requests into the
	// scan loop. Capacity 1: a pending panic makes further requests
	// redundant.
	panicRequests chan struct{}
}

// New creates an Engine. The status publisher and telemetry sink are
// optional; set them before calling Run.
func New(src source.Reader, proc *conditioning.Processor, mapper *mapping.Mapper, log Logger, opts Options) *Engine {
	return &Engine{
		src:           src,
		proc:          proc,
		mapper:        mapper,
		log:           log,
		opts:          opts,
		panicRequests: make(chan struct{}, 1),
	}
}

// SetStatusPublisher enables status publishing. Must be called before Run.
func (e *Engine) SetStatusPublisher(p StatusPublisher) {
	e.status = p
}

// SetTelemetrySink enables telemetry recording. Must be called before Run.
func (e *Engine) SetTelemetrySink(t TelemetrySink) {
	e.telemetry = t
}

// Panic requests an all-notes-off flush from outside the scan loop.
// Safe to call from any goroutine, including MQTT handler goroutines.
// The flush happens on the loop goroutine at the start of the next
// scan cycle, so all MIDI emission stays single-threaded.
func (e *Engine) Panic() {
	select {
	case e.panicRequests <- struct{}{}:
	default:
	}
}

// Run executes the scan loop until ctx is cancelled.
//
// On startup the first frame seeds the conditioning layer and the
// mapper so stale hardware state produces no events. On shutdown all
// tracked notes are released before returning.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.opts.ScanPeriod)
	defer ticker.Stop()

	return e.runLoop(ctx, ticker.C, time.Now)
}

// runLoop is the core loop, driven by an injected tick channel and
// clock so tests can run it deterministically.
func (e *Engine) runLoop(ctx context.Context, tick <-chan time.Time, now func() time.Time) error {
	epoch := now()

	// Boot seeding: adopt whatever state the hardware is already in.
	frame, err := e.src.Read()
	if err != nil {
		return fmt.Errorf("initial source read: %w", err)
	}
	e.proc.Seed(frame, conditioning.MillisSince(epoch, epoch))
	e.mapper.Seed()

	e.log.Info("scan loop started",
		"scan_period", e.opts.ScanPeriod,
		"heartbeat", e.opts.Heartbeat,
	)

	e.publishActivity(epoch, epoch, false)

	lastHeartbeat := epoch
	lastTelemetry := epoch
	wasIdle := false
	readErrors := 0
	lastFrame := frame

	for {
		select {
		case <-ctx.Done():
			e.flushNotes("shutdown")
			e.log.Info("scan loop stopped", "uptime", now().Sub(epoch).Round(time.Second))
			return nil

		case <-tick:
			t := now()
			cycleStart := time.Now()

			// Service any queued panic request before the scan so the
			// flush and the re-scan land in a known order.
			select {
			case <-e.panicRequests:
				e.flushNotes("panic request")
			default:
			}

			frame, err := e.src.Read()
			if err != nil {
				readErrors++
				if readErrors >= maxConsecutiveReadErrors {
					return fmt.Errorf("source read failing persistently: %w", err)
				}
				if readErrors == 1 {
					e.log.Error("source read error", "error", err)
				}
				continue
			}
			readErrors = 0
			lastFrame = frame

			ms := conditioning.MillisSince(epoch, t)
			e.proc.Update(frame, ms)
			e.mapper.Process()

			idle := e.proc.Idle(ms)
			if idle != wasIdle {
				wasIdle = idle
				if idle {
					e.log.Info("performer idle", "since_activity", e.proc.SinceActivity(ms))
				} else {
					e.log.Info("performer active")
				}
				e.publishActivity(epoch, t, idle)
			}

			if e.opts.Heartbeat > 0 && t.Sub(lastHeartbeat) >= e.opts.Heartbeat {
				lastHeartbeat = t
				e.publishHeartbeat(epoch, t, idle, ms)
			}

			if e.telemetry != nil && e.opts.Telemetry > 0 && t.Sub(lastTelemetry) >= e.opts.Telemetry {
				lastTelemetry = t
				e.recordTelemetry(lastFrame, time.Since(cycleStart), idle)
			}
		}
	}
}

// flushNotes releases every tracked note.
func (e *Engine) flushNotes(reason string) {
	e.log.Info("releasing all notes", "reason", reason)
	e.mapper.AllNotesOff()
}

// activityPayload is the JSON body published on activity transitions.
type activityPayload struct {
	Timestamp       string `json:"timestamp"`
	State           string `json:"state"`
	SinceActivityMs uint32 `json:"since_activity_ms"`
}

// heartbeatPayload is the JSON body published on the heartbeat topic.
type heartbeatPayload struct {
	Timestamp       string      `json:"timestamp"`
	UptimeS         int64       `json:"uptime_s"`
	State           string      `json:"state"`
	SinceActivityMs uint32      `json:"since_activity_ms"`
	Events          eventCounts `json:"events"`
}

type eventCounts struct {
	NoteOn        uint64 `json:"note_on"`
	NoteOff       uint64 `json:"note_off"`
	ControlChange uint64 `json:"control_change"`
	Total         uint64 `json:"total"`
}

// publishActivity publishes the retained activity state. Publish
// failures are logged and dropped; status is best-effort and must
// never stall the scan loop.
func (e *Engine) publishActivity(epoch, t time.Time, idle bool) {
	if e.status == nil {
		return
	}

	ms := conditioning.MillisSince(epoch, t)
	payload, err := json.Marshal(activityPayload{
		Timestamp:       t.UTC().Format(time.RFC3339),
		State:           activityState(idle),
		SinceActivityMs: uint32(e.proc.SinceActivity(ms)),
	})
	if err != nil {
		return
	}

	topic := mqtt.Topics{}.ActivityState()
	if err := e.status.Publish(topic, payload, e.opts.QoS, true); err != nil {
		e.log.Warn("activity publish failed", "error", err)
	}
}

// publishHeartbeat publishes the periodic heartbeat.
func (e *Engine) publishHeartbeat(epoch, t time.Time, idle bool, ms conditioning.Millis) {
	if e.status == nil {
		return
	}

	counts := e.mapper.Counts()
	payload, err := json.Marshal(heartbeatPayload{
		Timestamp:       t.UTC().Format(time.RFC3339),
		UptimeS:         int64(t.Sub(epoch).Seconds()),
		State:           activityState(idle),
		SinceActivityMs: uint32(e.proc.SinceActivity(ms)),
		Events: eventCounts{
			NoteOn:        counts.NoteOn,
			NoteOff:       counts.NoteOff,
			ControlChange: counts.ControlChange,
			Total:         counts.Total(),
		},
	})
	if err != nil {
		return
	}

	topic := mqtt.Topics{}.ActivityHeartbeat()
	if err := e.status.Publish(topic, payload, e.opts.QoS, false); err != nil {
		e.log.Warn("heartbeat publish failed", "error", err)
	}
}

// recordTelemetry writes one telemetry sample per analog channel plus
// the event counters and cycle timing.
func (e *Engine) recordTelemetry(frame conditioning.Frame, cycleDuration time.Duration, idle bool) {
	for i := 0; i < conditioning.PotCount; i++ {
		e.telemetry.WritePotSample(i, frame.Pots[i], e.proc.PotFiltered(i), e.proc.PotValue(i))
	}

	counts := e.mapper.Counts()
	e.telemetry.WriteEventCounts(counts.NoteOn, counts.NoteOff, counts.ControlChange)
	e.telemetry.WriteCycleStats(cycleDuration, idle)
}

func activityState(idle bool) string {
	if idle {
		return "idle"
	}
	return "active"
}
