package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"testing"
)

func TestNew_RegisteredCode(t *testing.T) {
	err := New("C002")
	if err.Category != CategoryConfig {
		t.Errorf("Category = %q, want %q", err.Category, CategoryConfig)
	}
	if err.Message != "Invalid listen address" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Suggestion == "" {
		t.Error("expected default suggestion from registry")
	}
}

func TestNew_UnknownCode(t *testing.T) {
	err := New("X999")
	if err.Message != "Unknown error" {
		t.Errorf("Message = %q, want Unknown error", err.Message)
	}
}

func TestError_WrapAndUnwrap(t *testing.T) {
	cause := stderrors.New("address already in use")
	err := New("S002").Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("errors.Is did not find wrapped cause")
	}
	if !strings.Contains(err.Error(), "S002: Failed to start web server") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "address already in use") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "S002") != nil {
		t.Fatal("FromError(nil) != nil")
	}

	orig := New("C001")
	wrapped := fmt.Errorf("loading: %w", orig)
	if got := FromError(wrapped, "S002"); got != orig {
		t.Fatalf("FromError returned %v, want original *Error", got)
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "S002")
	if got.Code != "S002" || !stderrors.Is(got, plain) {
		t.Fatalf("FromError(plain) = %+v", got)
	}
}

func TestFormat(t *testing.T) {
	err := New("C004").WithDetail(`unknown level "loud"`).Wrap(stderrors.New("parse"))

	plain := err.Format(false)
	for _, want := range []string{
		"ERROR C004: Invalid log level",
		`  unknown level "loud"`,
		"Caused by: parse",
		"Hint: Use one of debug, info, warn or error.",
	} {
		if !strings.Contains(plain, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, plain)
		}
	}
	if strings.Contains(plain, "\033[") {
		t.Error("Format(false) contains ANSI codes")
	}

	colored := err.Format(true)
	if !strings.Contains(colored, ansiBold+ansiRed+"ERROR C004:"+ansiReset) {
		t.Errorf("Format(true) headline not colored:\n%q", colored)
	}
}

func TestFormat_WithoutCode(t *testing.T) {
	err := &Error{Message: "boom"}
	if got := err.Format(false); !strings.HasPrefix(got, "\nERROR: boom\n") {
		t.Errorf("Format(false) = %q", got)
	}
}

func TestFprint_NonTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	if err := New("S002").Fprint(&buf); err != nil {
		t.Fatalf("Fprint() error = %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR S002: Failed to start web server") {
		t.Errorf("Fprint() = %q", buf.String())
	}
	if strings.Contains(buf.String(), "\033[") {
		t.Error("Fprint() to a buffer contains ANSI codes")
	}
}

func TestUseColor(t *testing.T) {
	if UseColor(&bytes.Buffer{}) {
		t.Error("UseColor(buffer) = true")
	}

	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if UseColor(f) {
		t.Error("UseColor(regular file) = true")
	}

	t.Setenv("NO_COLOR", "1")
	if UseColor(os.Stderr) {
		t.Error("UseColor() = true with NO_COLOR set")
	}
}
