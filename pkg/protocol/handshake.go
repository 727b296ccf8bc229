package protocol

// HandshakeStatus represents the result of a handshake.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeSessionNotFound HandshakeStatus = 0x03
	HandshakeServerBusy      HandshakeStatus = 0x04
	HandshakeInvalidFormat   HandshakeStatus = 0x06
	HandshakeInternalError   HandshakeStatus = 0x08
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeSessionNotFound:
		return "SessionNotFound"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInvalidFormat:
		return "InvalidFormat"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// ProtocolVersion represents a protocol version as major.minor.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the current protocol version.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// Compatible reports whether v can talk to CurrentVersion.
func (v ProtocolVersion) Compatible() bool {
	return v.Major == CurrentVersion.Major
}

// ClientHello is sent by the client after the WebSocket is established.
// SessionID names the session whose page the client loaded.
type ClientHello struct {
	Version   ProtocolVersion
	SessionID string
}

// ServerHello is the server's response to ClientHello. RootID is the node
// id of the mount element; the client binds it to its own mount point
// before applying the first ops frame.
type ServerHello struct {
	Status    HandshakeStatus
	SessionID string
	RootID    uint64
	NextSeq   uint64
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	EncodeClientHelloTo(e, ch)
	return e.Bytes()
}

// EncodeClientHelloTo encodes a ClientHello using the provided encoder.
func EncodeClientHelloTo(e *Encoder, ch *ClientHello) {
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.SessionID)
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	return DecodeClientHelloFrom(NewDecoder(data))
}

// DecodeClientHelloFrom decodes a ClientHello from a decoder.
func DecodeClientHelloFrom(d *Decoder) (*ClientHello, error) {
	ch := &ClientHello{}

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ch.Version = ProtocolVersion{Major: major, Minor: minor}

	ch.SessionID, err = d.ReadString()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	EncodeServerHelloTo(e, sh)
	return e.Bytes()
}

// EncodeServerHelloTo encodes a ServerHello using the provided encoder.
func EncodeServerHelloTo(e *Encoder, sh *ServerHello) {
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUvarint(sh.RootID)
	e.WriteUvarint(sh.NextSeq)
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	return DecodeServerHelloFrom(NewDecoder(data))
}

// DecodeServerHelloFrom decodes a ServerHello from a decoder.
func DecodeServerHelloFrom(d *Decoder) (*ServerHello, error) {
	sh := &ServerHello{}

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)

	if sh.SessionID, err = d.ReadString(); err != nil {
		return nil, err
	}
	if sh.RootID, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	if sh.NextSeq, err = d.ReadUvarint(); err != nil {
		return nil, err
	}
	return sh, nil
}

// NewClientHello creates a ClientHello for sessionID with the current version.
func NewClientHello(sessionID string) *ClientHello {
	return &ClientHello{
		Version:   CurrentVersion,
		SessionID: sessionID,
	}
}

// NewServerHello creates a successful ServerHello.
func NewServerHello(sessionID string, rootID, nextSeq uint64) *ServerHello {
	return &ServerHello{
		Status:    HandshakeOK,
		SessionID: sessionID,
		RootID:    rootID,
		NextSeq:   nextSeq,
	}
}

// NewServerHelloError creates a ServerHello with an error status.
func NewServerHelloError(status HandshakeStatus) *ServerHello {
	return &ServerHello{
		Status: status,
	}
}
