package kernel

import "sync"

const (
	maxTasks     = 32
	maxEndpoints = 32
	mailboxSlots = 8
)

type TaskID uint8

// Rights define which operations are allowed for a capability.
type Rights uint8

const (
	RightSend Rights = 1 << iota
	RightRecv
)

// Endpoint identifies an IPC destination.
type Endpoint uint8

// Capability grants access to an IPC endpoint.
//
// It is opaque by construction (no exported fields) and may be transferred via IPC.
type Capability struct {
	ep     Endpoint
	rights Rights
}

func (c Capability) valid() bool {
	return c.rights != 0
}

func (c Capability) Valid() bool { return c.valid() }

func (c Capability) canSend() bool { return c.rights&RightSend != 0 }
func (c Capability) canRecv() bool { return c.rights&RightRecv != 0 }

// Restrict returns a capability with a reduced set of rights.
func (c Capability) Restrict(rights Rights) Capability {
	if !c.valid() {
		return Capability{}
	}
	r := c.rights & rights
	if r == 0 {
		return Capability{}
	}
	return Capability{ep: c.ep, rights: r}
}

// Message is a fixed-size IPC envelope.
type Message struct {
	To   Endpoint
	Kind uint16
	Len  uint16
	Data [MaxMessageBytes]byte
	Cap  Capability
}

// Payload returns the valid part of Data.
func (m *Message) Payload() []byte {
	n := int(m.Len)
	if n > MaxMessageBytes {
		n = MaxMessageBytes
	}
	return m.Data[:n]
}

// MaxMessageBytes is the maximum payload size for IPC messages.
//
// Larger transfers should use shared buffers + notify protocols, not mailbox copies.
const MaxMessageBytes = 128

// SendResult describes the outcome of a send attempt.
type SendResult uint8

const (
	SendOK SendResult = iota
	SendErrInvalidToCap
	SendErrToNoSendRight
	SendErrNoEndpoint
	SendErrPayloadTooLarge
	SendErrQueueFull
)

func (r SendResult) String() string {
	switch r {
	case SendOK:
		return "ok"
	case SendErrInvalidToCap:
		return "invalid to capability"
	case SendErrToNoSendRight:
		return "to capability has no send right"
	case SendErrNoEndpoint:
		return "no such endpoint"
	case SendErrPayloadTooLarge:
		return "payload too large"
	case SendErrQueueFull:
		return "queue full"
	default:
		return "unknown"
	}
}

// Task is a unit of execution.
//
// Each task runs on its own goroutine. Run should return once ctx.Done is closed.
type Task interface {
	Run(*Context)
}

type endpointState struct {
	ch chan Message
}

// Kernel routes IPC between tasks and distributes the tick.
type Kernel struct {
	mu            sync.Mutex
	endpoints     [maxEndpoints]endpointState
	endpointCount Endpoint
	taskCount     TaskID

	tick   uint64
	tickCh chan struct{}

	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a kernel instance.
func New() *Kernel {
	return &Kernel{
		tickCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// NewEndpoint allocates a new endpoint and returns a capability for it.
func (k *Kernel) NewEndpoint(rights Rights) Capability {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.endpointCount >= maxEndpoints {
		return Capability{}
	}
	ep := k.endpointCount
	k.endpointCount++
	k.endpoints[ep] = endpointState{ch: make(chan Message, mailboxSlots)}
	return Capability{ep: ep, rights: rights}
}

// AddTask registers a task, starts it, and returns its ID.
func (k *Kernel) AddTask(t Task) TaskID {
	k.mu.Lock()
	if k.taskCount >= maxTasks || t == nil {
		k.mu.Unlock()
		return 0
	}
	id := k.taskCount
	k.taskCount++
	k.mu.Unlock()

	k.wg.Add(1)
	go k.run(id, t)
	return id
}

func (k *Kernel) run(id TaskID, t Task) {
	defer k.wg.Done()
	defer func() {
		if v := recover(); v != nil {
			triggerPanic(PanicInfo{TaskID: id, Value: v})
		}
	}()

	if InPanicMode() {
		return
	}
	t.Run(&Context{k: k, taskID: id})
}

// Close signals Done to all tasks and waits for them to return.
func (k *Kernel) Close() {
	k.doneOnce.Do(func() { close(k.done) })
	k.wg.Wait()
}

// Tick advances the tick by one.
func (k *Kernel) Tick() {
	k.mu.Lock()
	seq := k.tick + 1
	k.mu.Unlock()
	k.TickTo(seq)
}

// TickTo advances the tick to seq and wakes tasks blocked on the tick.
func (k *Kernel) TickTo(seq uint64) {
	k.mu.Lock()
	if seq <= k.tick {
		k.mu.Unlock()
		return
	}
	k.tick = seq
	close(k.tickCh)
	k.tickCh = make(chan struct{})
	k.mu.Unlock()
}

func (k *Kernel) nowTick() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.tick
}

// tickChan returns a channel closed once the tick is past after.
func (k *Kernel) tickChan(after uint64) <-chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.tick > after {
		return closedChan
	}
	return k.tickCh
}

func (k *Kernel) waitTick(after uint64) uint64 {
	for {
		select {
		case <-k.tickChan(after):
		case <-k.done:
			return k.nowTick()
		}
		if now := k.nowTick(); now > after {
			return now
		}
	}
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func (k *Kernel) endpointChan(ep Endpoint) chan Message {
	k.mu.Lock()
	defer k.mu.Unlock()
	if ep >= k.endpointCount {
		return nil
	}
	return k.endpoints[ep].ch
}

func (k *Kernel) send(to Endpoint, kind uint16, payload []byte, xfer Capability) (res SendResult) {
	if len(payload) > MaxMessageBytes {
		return SendErrPayloadTooLarge
	}
	ch := k.endpointChan(to)
	if ch == nil {
		return SendErrNoEndpoint
	}

	var msg Message
	msg.To = to
	msg.Kind = kind
	msg.Len = uint16(len(payload))
	copy(msg.Data[:], payload)
	msg.Cap = xfer

	// A closed endpoint panics on send; report it as gone.
	defer func() {
		if recover() != nil {
			res = SendErrNoEndpoint
		}
	}()
	select {
	case ch <- msg:
		return SendOK
	default:
		return SendErrQueueFull
	}
}
