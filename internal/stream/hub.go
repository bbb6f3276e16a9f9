// Package stream publishes the position buffer to external renderers over
// websockets and carries their pointer and parameter commands back to the
// frame loop.
package stream

import (
	"encoding/binary"
	"math"
	"sync"
)

// headerSize is the frame and count prefix of every snapshot message.
const headerSize = 8

// Hub holds the latest encoded snapshot and wakes subscribers when it
// changes. Publish is called from the frame loop; subscribers read from
// their own goroutines.
type Hub struct {
	mu      sync.Mutex
	frame   int
	payload []byte
	subs    map[chan struct{}]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan struct{}]struct{})}
}

// Publish copies buf into a new snapshot. The message layout is
// little-endian: uint32 frame, uint32 particle count, then count x,y,z
// float32 triples.
func (h *Hub) Publish(frame int, buf []float32) {
	msg := make([]byte, headerSize+4*len(buf))
	binary.LittleEndian.PutUint32(msg[0:], uint32(frame))
	binary.LittleEndian.PutUint32(msg[4:], uint32(len(buf)/3))
	for i, v := range buf {
		binary.LittleEndian.PutUint32(msg[headerSize+4*i:], math.Float32bits(v))
	}

	h.mu.Lock()
	h.frame = frame
	h.payload = msg
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// Snapshot returns the latest message and its frame. The slice must not be
// modified.
func (h *Hub) Snapshot() (int, []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.payload
}

// Subscribe returns a channel that receives a signal after each Publish.
// Signals coalesce, so a slow reader only sees the newest snapshot.
func (h *Hub) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Subscribers is the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Decode parses a snapshot message back into its frame and positions.
func Decode(msg []byte) (frame int, pos []float32, ok bool) {
	if len(msg) < headerSize {
		return 0, nil, false
	}
	frame = int(binary.LittleEndian.Uint32(msg[0:]))
	n := int(binary.LittleEndian.Uint32(msg[4:]))
	if len(msg) != headerSize+12*n {
		return 0, nil, false
	}
	pos = make([]float32, 3*n)
	for i := range pos {
		pos[i] = math.Float32frombits(binary.LittleEndian.Uint32(msg[headerSize+4*i:]))
	}
	return frame, pos, true
}
