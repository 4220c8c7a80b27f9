package cli

import "errors"

// ErrUsage matches every error caused by bad flags, config or input, as
// opposed to failures while generating.
var ErrUsage = errors.New("cli usage error")

// usageError is reported to the user as-is. hint, when set, is printed on
// its own line after the message.
type usageError struct {
	msg   string
	hint  string
	cause error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// withHint wraps cause so errors.Is still reaches it, e.g. naming.ErrNoTranslator.
func withHint(msg, hint string, cause error) error {
	return usageError{msg: msg, hint: hint, cause: cause}
}

func (e usageError) Error() string {
	if e.hint == "" {
		return e.msg
	}
	return e.msg + "\nHint: " + e.hint
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

func (e usageError) Unwrap() error { return e.cause }
