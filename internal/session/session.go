// Package session composes the capture loop, selection engine and
// visualization dispatcher into one session lifecycle:
//
//	Idle --capture--> Captured --select--> Selected --visualize--> Visualizing
//
// and back to Idle via reset/retake from any state. Exactly one session is
// live at a time; a second capture or visualize while one is pending is
// rejected, never interleaved.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Shocam7/WhichisViz/internal/capture"
	apperrors "github.com/Shocam7/WhichisViz/internal/errors"
	"github.com/Shocam7/WhichisViz/internal/eventlog"
	"github.com/Shocam7/WhichisViz/internal/geometry"
	"github.com/Shocam7/WhichisViz/internal/logger"
	"github.com/Shocam7/WhichisViz/internal/selection"
	"github.com/Shocam7/WhichisViz/internal/storage"
	"github.com/Shocam7/WhichisViz/internal/visualize"

	"github.com/google/uuid"
)

// State names one node of the session lifecycle.
type State string

const (
	StateIdle        State = "idle"
	StateCaptured    State = "captured"
	StateSelected    State = "selected"
	StateVisualizing State = "visualizing"
)

// Machine is the orchestrating state machine. All mutation goes through it.
type Machine struct {
	loop     *capture.Loop
	sel      *selection.Engine
	disp     *visualize.Dispatcher
	archiver storage.Archiver
	log      *eventlog.Log

	mu        sync.Mutex
	state     State
	sessionID string
	viz       *visualize.Visualization
	busy      bool   // a capture or visualize remote call is pending
	epoch     uint64 // bumped by Reset; supersedes pending remote results
}

// NewMachine wires a session machine starting in Idle.
func NewMachine(loop *capture.Loop, sel *selection.Engine, disp *visualize.Dispatcher, archiver storage.Archiver, log *eventlog.Log) *Machine {
	if archiver == nil {
		archiver = storage.NoopArchiver{}
	}
	return &Machine{
		loop:     loop,
		sel:      sel,
		disp:     disp,
		archiver: archiver,
		log:      log,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID returns the ID of the live captured session, empty in Idle.
func (m *Machine) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Blocks returns the currently displayed block list.
func (m *Machine) Blocks() []geometry.Block {
	return m.loop.Blocks()
}

// Visualization returns the live visualization, if any.
func (m *Machine) Visualization() *visualize.Visualization {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.viz
}

// SetScanning toggles continuous-mode scanning; only meaningful in Idle.
func (m *Machine) SetScanning(enabled bool) {
	m.loop.SetScanning(enabled)
	if enabled {
		m.log.Info("Continuous scanning enabled")
	} else {
		m.log.Info("Continuous scanning paused")
	}
}

// Capture freezes the live frame, runs one detection, and opens a captured
// session. Rejected outside Idle or while another remote call is pending.
func (m *Machine) Capture(ctx context.Context) ([]geometry.Block, error) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil, apperrors.NewStateError(fmt.Sprintf("cannot capture in state %q", m.state))
	}
	if m.busy {
		m.mu.Unlock()
		return nil, apperrors.NewStateError("another capture is already pending")
	}
	m.busy = true
	epoch := m.epoch
	m.mu.Unlock()

	blocks, err := m.loop.Capture(ctx)

	m.mu.Lock()
	m.busy = false
	if m.epoch != epoch {
		// Reset ran while the detection was pending; the result belongs to
		// a superseded session and must not open a new one.
		m.mu.Unlock()
		return nil, apperrors.NewStateError("session was reset while capture was pending")
	}
	if err != nil {
		// Detection failure keeps the frozen frame; device failure or a
		// single-flight rejection leaves Idle untouched.
		if _, frozen := m.loop.Frozen(); frozen {
			m.state = StateCaptured
			m.sessionID = uuid.NewString()
		}
		m.mu.Unlock()
		return nil, err
	}
	m.state = StateCaptured
	m.sessionID = uuid.NewString()
	sessionID := m.sessionID
	m.mu.Unlock()

	m.archiveFrozenFrame(sessionID)
	return blocks, nil
}

// archiveFrozenFrame uploads the captured frame in the background; failures
// are logged, never surfaced.
func (m *Machine) archiveFrozenFrame(sessionID string) {
	frame, ok := m.loop.Frozen()
	if !ok {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.archiver.ArchiveFrame(ctx, sessionID, frame); err != nil {
			logger.ForComponent("session").WithError(err).Warn("Frame archive failed")
		}
	}()
}

// Select resolves a pointer event, given in display pixels of the canvas it
// landed on, against the current block list and toggles the hit block.
// Legal in Captured and Selected; a miss changes nothing.
func (m *Machine) Select(canvas geometry.Canvas, displayX, displayY float64) (geometry.Block, bool, error) {
	m.mu.Lock()
	if m.state != StateCaptured && m.state != StateSelected {
		m.mu.Unlock()
		return geometry.Block{}, false, apperrors.NewStateError(fmt.Sprintf("cannot select in state %q", m.state))
	}
	m.mu.Unlock()

	point := canvas.NormalizeDisplayPoint(displayX, displayY)
	hit, nowSelected, ok := m.sel.Toggle(m.loop.Blocks(), point)
	if !ok {
		return geometry.Block{}, false, nil
	}

	if nowSelected {
		m.log.Info(fmt.Sprintf("Selected %q", hit.Text))
	} else {
		m.log.Info(fmt.Sprintf("Deselected %q", hit.Text))
	}

	m.mu.Lock()
	if m.sel.Count() > 0 {
		m.state = StateSelected
	} else {
		m.state = StateCaptured
	}
	m.mu.Unlock()
	return hit, nowSelected, nil
}

// Visualize plans the current selection and starts the planned strategy.
// Requires a non-empty selection; on any failure the session stays exactly
// where it was.
func (m *Machine) Visualize(ctx context.Context) (*visualize.Visualization, error) {
	m.mu.Lock()
	if m.state != StateSelected {
		m.mu.Unlock()
		return nil, apperrors.NewStateError(fmt.Sprintf("cannot visualize in state %q: select text first", m.state))
	}
	if m.busy {
		m.mu.Unlock()
		return nil, apperrors.NewStateError("a visualize action is already pending")
	}
	m.busy = true
	epoch := m.epoch
	m.mu.Unlock()

	text := m.sel.SelectedText(m.loop.Blocks())
	viz, err := m.disp.Visualize(ctx, text)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = false
	if m.epoch != epoch {
		// Reset ran while the plan/fetch was pending; tear the late result
		// down instead of resurrecting the superseded session.
		if viz != nil {
			viz.Teardown()
		}
		return nil, apperrors.NewStateError("session was reset while visualize was pending")
	}
	if err != nil {
		// Pre-visualize state preserved: still Selected.
		return nil, err
	}
	if m.viz != nil {
		// Replacing a visualization tears the old one down atomically.
		m.viz.Teardown()
	}
	m.viz = viz
	m.state = StateVisualizing
	return viz, nil
}

// Reset returns to Idle from any state, discarding the frozen frame, block
// list, selection, and any live visualization resource. Used for both
// "retake" and full reset.
func (m *Machine) Reset() {
	m.mu.Lock()
	viz := m.viz
	m.viz = nil
	m.state = StateIdle
	m.sessionID = ""
	m.epoch++
	m.mu.Unlock()

	if viz != nil {
		viz.Teardown()
	}
	m.sel.Clear()
	m.loop.Reset()
	m.log.Info("Session reset")
}

// Status is a coherent snapshot of the machine for the API layer.
type Status struct {
	State       State            `json:"state"`
	SessionID   string           `json:"session_id,omitempty"`
	Scanning    bool             `json:"scanning"`
	Degraded    bool             `json:"degraded"`
	Blocks      []geometry.Block `json:"blocks"`
	SelectedIDs []string         `json:"selected_ids"`
	Plan        *visualize.Plan  `json:"plan,omitempty"`
	AssetURL    string           `json:"asset_url,omitempty"`
	FrameCount  int              `json:"frame_count,omitempty"`
}

// Snapshot assembles the current status.
func (m *Machine) Snapshot() Status {
	blocks := m.loop.Blocks()

	m.mu.Lock()
	status := Status{
		State:       m.state,
		SessionID:   m.sessionID,
		Blocks:      blocks,
		SelectedIDs: m.sel.SelectedIDs(blocks),
	}
	if m.viz != nil {
		plan := m.viz.Plan()
		status.Plan = &plan
		status.FrameCount = m.viz.FrameCount()
		if asset := m.viz.Asset(); asset != nil {
			status.AssetURL = asset.URL()
		}
	}
	m.mu.Unlock()

	status.Scanning = m.loop.Scanning()
	status.Degraded = m.loop.Degraded()
	return status
}
