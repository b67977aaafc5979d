/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package sockmgr

import (
	"bytes"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/sabouaram/rpccore/socket"
)

// SocketSnapshot is one socket's state as of a tick, encoded alongside
// its siblings into a Snapshot for structured trace logging.
type SocketSnapshot struct {
	Fd     int           `cbor:"fd"`
	Remote string        `cbor:"remote"`
	Status socket.Status `cbor:"status"`
	IdleMs int64         `cbor:"idle_ms"`
}

// Snapshot is the full per-tick state of every still-live watched
// socket, CBOR-encoded and kept in the Manager's short-lived history
// cache for introspection (cmd/rpcctl's "heartbeat" subcommand reads it).
type Snapshot struct {
	TakenAt time.Time        `cbor:"taken_at"`
	Sockets []SocketSnapshot `cbor:"sockets"`
}

func newSnapshot(live []socket.Socket) Snapshot {
	snap := Snapshot{TakenAt: time.Now(), Sockets: make([]SocketSnapshot, 0, len(live))}
	for _, sock := range live {
		snap.Sockets = append(snap.Sockets, SocketSnapshot{
			Fd:     sock.Fd(),
			Remote: sock.Remote().String(),
			Status: sock.Status(),
			IdleMs: time.Since(sock.LastActiveTime()).Milliseconds(),
		})
	}
	return snap
}

// encodeSnapshot CBOR-encodes snap for the history cache, streaming
// through a cbor.Encoder onto a buffer rather than a one-shot
// cbor.Marshal - the same stream-oriented encode/decode shape used to
// frame keyed messages over a single connection, favoring CBOR over
// JSON for compactness on a hot path.
func encodeSnapshot(snap Snapshot) []byte {
	var buf bytes.Buffer
	if err := cbor.NewEncoder(&buf).Encode(snap); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Snapshots returns every still-cached tick snapshot, most recent
// last, CBOR-decoded back into Snapshot values through a streaming
// cbor.Decoder.
func (m *Manager) Snapshots() []Snapshot {
	var out []Snapshot
	m.history.Walk(func(_ uint64, raw []byte, _ time.Duration) bool {
		var snap Snapshot
		if cbor.NewDecoder(bytes.NewReader(raw)).Decode(&snap) == nil {
			out = append(out, snap)
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].TakenAt.Before(out[j].TakenAt) })
	return out
}
