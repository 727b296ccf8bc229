package protocol

import errs "github.com/edom-dev/edom/internal/errors"

// ErrorMessage is sent when the server rejects a frame or the engine
// aborts. Code is an edom error code such as "E120".
type ErrorMessage struct {
	Code    string
	Message string
	Fatal   bool // the connection will be closed
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	EncodeErrorMessageTo(e, em)
	return e.Bytes()
}

// EncodeErrorMessageTo encodes an ErrorMessage using the provided encoder.
func EncodeErrorMessageTo(e *Encoder, em *ErrorMessage) {
	e.WriteString(em.Code)
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	return DecodeErrorMessageFrom(NewDecoder(data))
}

// DecodeErrorMessageFrom decodes an ErrorMessage from a decoder.
func DecodeErrorMessageFrom(d *Decoder) (*ErrorMessage, error) {
	em := &ErrorMessage{}
	var err error

	if em.Code, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Message, err = d.ReadString(); err != nil {
		return nil, err
	}
	if em.Fatal, err = d.ReadBool(); err != nil {
		return nil, err
	}
	return em, nil
}

// NewErrorMessage builds a message from err. Coded errors keep their code;
// anything else is reported as E140.
func NewErrorMessage(err error, fatal bool) *ErrorMessage {
	code := errs.Code(err)
	if code == "" {
		code = "E140"
	}
	return &ErrorMessage{Code: code, Message: err.Error(), Fatal: fatal}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	return em.Code + ": " + em.Message
}
