package errors

import (
	stderrors "errors"
	"testing"

	"github.com/aws/smithy-go"
)

func TestAppErrorFormatting(t *testing.T) {
	err := Newf(Transient, "transcribe call failed after %d bytes", 4096)
	want := "[transient] transcribe call failed after 4096 bytes"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(cause, ConnectionClosed, "read frame")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}
	if !IsCode(err, ConnectionClosed) {
		t.Error("IsCode should match the wrapping code")
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := New(InvariantViolation, "flight latch released while idle")
	outer := Wrapf(inner, InvariantViolation, "session %s", "abc")

	if !IsCode(outer, InvariantViolation) {
		t.Error("IsCode should unwrap through wrapped errors")
	}
	if IsCode(outer, Transient) {
		t.Error("IsCode should not match a different code")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if !IsTransient(New(Transient, "empty transcript")) {
		t.Error("Transient code should classify transient")
	}
	if IsTransient(New(InvariantViolation, "boom")) {
		t.Error("invariant violations are not transient")
	}

	apiErr := &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
	if !IsTransient(apiErr) {
		t.Error("AWS API errors should classify transient")
	}
}

func TestCodeStrings(t *testing.T) {
	cases := map[Code]string{
		Unknown:            "unknown",
		Transient:          "transient",
		MalformedFrame:     "malformed_frame",
		ConnectionClosed:   "connection_closed",
		InvariantViolation: "invariant_violation",
		ConfigInvalid:      "config_invalid",
	}
	for code, want := range cases {
		if code.String() != want {
			t.Errorf("%d.String() = %q, want %q", code, code.String(), want)
		}
	}
}
