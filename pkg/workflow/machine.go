package workflow

import (
	"context"
	"errors"
	"image"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/menta2k/viewfinder/pkg/frames"
	"github.com/menta2k/viewfinder/pkg/types"
)

// Annotator burns a gesture into a frame in place
type Annotator interface {
	Annotate(frame *image.NRGBA, g types.Gesture) *image.NRGBA
}

// Pipeline sends an annotated frame to the remote model and extracts its
// results. The frame must be treated as read-only.
type Pipeline interface {
	Process(ctx context.Context, frame *image.NRGBA) (string, []types.Action, error)
}

// PipelineFunc adapts a function to Pipeline
type PipelineFunc func(ctx context.Context, frame *image.NRGBA) (string, []types.Action, error)

// Process calls f
func (f PipelineFunc) Process(ctx context.Context, frame *image.NRGBA) (string, []types.Action, error) {
	return f(ctx, frame)
}

// ErrClosed ends a request that was still in flight when the machine closed
var ErrClosed = errors.New("viewfinder closed before the model answered")

// Option configures a Machine
type Option func(*Machine)

// WithLogger routes transition logs to l
func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		m.logger = l
	}
}

// Machine owns the current state and the frozen frame. All methods are safe
// to call from any goroutine; transitions are serialized.
type Machine struct {
	mu       sync.Mutex
	state    State
	changed  chan struct{}
	subs     []chan State
	session  string
	closed   bool
	inFlight bool

	frames    *frames.Buffer
	annotator Annotator
	pipeline  Pipeline
	logger    *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a machine in Previewing
func New(buf *frames.Buffer, annotator Annotator, pipeline Pipeline, opts ...Option) *Machine {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		state:     Previewing{},
		changed:   make(chan struct{}),
		frames:    buf,
		annotator: annotator,
		pipeline:  pipeline,
		logger:    log.Default(),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current state
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns the id of the current capture, "" while previewing
func (m *Machine) Session() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Frozen returns the frozen frame while one is held
func (m *Machine) Frozen() *frames.Frame {
	return m.frames.Frozen()
}

// Capture freezes the live frame and starts region selection. It does
// nothing outside Previewing or when no live frame has arrived yet.
func (m *Machine) Capture() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if _, ok := m.state.(Previewing); !ok {
		return false
	}
	frame, ok := m.frames.Freeze()
	if !ok {
		return false
	}
	m.session = uuid.NewString()
	m.logger.Printf("workflow: session=%s froze frame seq=%d %dx%d", m.session, frame.Seq, frame.Width(), frame.Height())
	m.apply(CaptureRequested{})
	return true
}

// SubmitGesture hands the result of a finished gesture to the machine. A
// discarded gesture keeps the machine in Selecting. A complete one is burnt
// into the frozen frame and sent to the remote model. It returns whether a
// request was started.
func (m *Machine) SubmitGesture(g types.Gesture, ok bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if _, selecting := m.state.(Selecting); !selecting {
		return false
	}
	if !ok || !g.Complete() {
		m.apply(GestureDiscarded{})
		return false
	}
	if m.inFlight {
		return false
	}

	frozen := m.frames.Frozen()
	if frozen.Released() {
		m.logger.Printf("workflow: session=%s no frozen frame to annotate, dropping gesture", m.session)
		return false
	}

	img := m.annotator.Annotate(frozen.Image, g)
	m.apply(GestureCompleted{})

	m.inFlight = true
	m.wg.Add(1)
	go m.run(m.session, img)
	return true
}

// Reset returns from Success or Error to Previewing and releases the
// frozen frame. It is ignored in every other state.
func (m *Machine) Reset() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.(type) {
	case Success, Error:
	default:
		return false
	}
	m.apply(ResetRequested{})
	m.frames.ReleaseFrozen()
	m.session = ""
	return true
}

// Subscribe returns a channel that receives every new state. Slow readers
// only see the latest one.
func (m *Machine) Subscribe() <-chan State {
	ch := make(chan State, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Wait blocks until the machine is not Loading and returns that state
func (m *Machine) Wait(ctx context.Context) (State, error) {
	for {
		m.mu.Lock()
		s, ch := m.state, m.changed
		m.mu.Unlock()

		if _, loading := s.(Loading); !loading {
			return s, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return s, ctx.Err()
		}
	}
}

// Close cancels an in-flight remote sequence, waits for it and releases
// the frozen frame. A request still Loading ends in Error(ErrClosed) so
// waiters return. The machine rejects further events.
func (m *Machine) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, loading := m.state.(Loading); loading {
		m.apply(RemoteFailed{Err: ErrClosed})
	}
	m.frames.ReleaseFrozen()
	st := m.frames.Stats()
	m.logger.Printf("workflow: closed frames received=%d replaced=%d freezes=%d releases=%d",
		st.Received, st.Replaced, st.Freezes, st.Releases)
	for _, ch := range m.subs {
		close(ch)
	}
	m.subs = nil
}

func (m *Machine) run(session string, img *image.NRGBA) {
	defer m.wg.Done()

	description, actions, err := m.pipeline.Process(m.ctx, img)

	var ev Event = RemoteSucceeded{Description: description, Actions: actions}
	if err != nil {
		ev = RemoteFailed{Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.inFlight = false
	if m.closed || m.session != session {
		m.logger.Printf("workflow: session=%s discarding stale result", session)
		return
	}
	if err != nil {
		m.logger.Printf("workflow: session=%s remote sequence failed: %v", session, err)
	}
	m.apply(ev)
}

// apply runs a transition; the caller holds m.mu
func (m *Machine) apply(e Event) {
	prev := m.state
	next := Next(prev, e)
	m.state = next
	if prev.Kind() == next.Kind() {
		return
	}
	m.logger.Printf("workflow: session=%s %s -> %s", m.session, prev.Kind(), next.Kind())

	close(m.changed)
	m.changed = make(chan struct{})
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}
