// Package protocol implements the binary wire protocol between an edom
// engine running on the server and the host tree it drives in a browser.
//
// Host operations flow from server to client; listener firings flow from
// client to server. Both travel over one WebSocket connection.
//
// # Wire Format
//
// All messages are framed with a 6-byte header:
//
//	+------------+-----------+--------------------------------+
//	| Frame Type | Flags     | Payload Length                 |
//	| (1 byte)   | (1 byte)  | (4 bytes, big-endian)          |
//	+------------+-----------+--------------------------------+
//
// # Frame Types
//
//   - FrameHandshake (0x00): ClientHello / ServerHello
//   - FrameEvent (0x01): one Event
//   - FrameOps (0x02): an OpsFrame, the host operations of one pass
//   - FrameControl (0x03): ping, pong, close
//   - FrameError (0x05): an ErrorMessage
//
// # Host Operations
//
// Nodes are addressed by ids allocated in creation order, starting at 1.
// Both ends allocate ids the same way, so CreateElement, CreateText,
// SetTextContent and Clone carry the id the receiver must end up with and
// the receiver checks it instead of mapping ids.
//
// # Encoding
//
//   - Varint: unsigned integers, protobuf-style
//   - Length-prefixed: strings and byte arrays prefixed with varint length
//   - Big-endian: fixed-width integers
//   - msgpack: the Data map of an Event
package protocol
