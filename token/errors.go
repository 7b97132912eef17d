package token

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why an access token failed verification. Only Expired
// is recoverable through a refresh.
type ErrorKind int

const (
	Malformed ErrorKind = iota + 1
	InvalidSignature
	Expired
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case InvalidSignature:
		return "invalid_signature"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// VerifyError is returned by Codec.Verify for every rejected token
type VerifyError struct {
	Kind ErrorKind
	Err  error
}

func (e *VerifyError) Error() string {
	if e.Err == nil {
		return "access token " + e.Kind.String()
	}
	return fmt.Sprintf("access token %s: %v", e.Kind, e.Err)
}

func (e *VerifyError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err, if any
func KindOf(err error) (ErrorKind, bool) {
	var ve *VerifyError
	if errors.As(err, &ve) {
		return ve.Kind, true
	}
	return 0, false
}
