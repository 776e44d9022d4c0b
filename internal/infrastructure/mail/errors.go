package mail

// TemporaryError marks a retriable failure (network, SMTP 4xx).
type TemporaryError struct{ msg string }

func (e TemporaryError) Error() string   { return e.msg }
func (e TemporaryError) Temporary() bool { return true }
func (e TemporaryError) Permanent() bool { return false }

// PermanentError marks a failure that will not succeed on retry
// (bad address, rejected credentials).
type PermanentError struct{ msg string }

func (e PermanentError) Error() string   { return e.msg }
func (e PermanentError) Permanent() bool { return true }
