package reference

import (
	"fmt"
	"testing"
)

func TestFromInvoiceNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{1, "00013"},
		{0, "00000"},
		{-5, "00000"},
		{1001, "10016"},
		{123, "01232"},
		{123456, "1234561"},
		{99999, "999991"},
	}

	for _, tt := range tests {
		if got := FromInvoiceNumber(tt.n); got != tt.want {
			t.Errorf("FromInvoiceNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFromInput(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"1", "00013"},
		{"abc", "00000"},
		{"", "00000"},
		{nil, "00000"},
		{1001.9, "10016"},
		{"1e999999999", "00000"},
		{"99999999999999999999999", "00000"},
		{uint64(18446744073709551615), "00000"},
		{1e19, "00000"},
	}

	for _, tt := range tests {
		if got := FromInput(tt.in); got != tt.want {
			t.Errorf("FromInput(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChecksumProperty(t *testing.T) {
	for n := int64(1); n <= 999999; n++ {
		ref := FromInvoiceNumber(n)
		last := len(ref) - 1
		if got := CheckDigit(ref[:last]); got != int(ref[last]-'0') {
			t.Fatalf("reference %q for %d does not verify (check %d)", ref, n, got)
		}
		if len(ref) < MinBaseLength+1 {
			t.Fatalf("reference %q for %d is shorter than %d", ref, n, MinBaseLength+1)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"00013", true},
		{"12 34561", true},
		{"1234561", true},
		{"1234562", false},
		{"123", false},
		{"12a45", false},
		{"123456789012345678901", false},
	}

	for _, tt := range tests {
		if got := Valid(tt.ref); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"00013", "00013"},
		{"1234561", "12 34561"},
		{"1234567890", "12345 67890"},
		{"12345678901", "1 23456 78901"},
	}

	for _, tt := range tests {
		if got := Format(tt.ref); got != tt.want {
			t.Errorf("Format(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(" 00 013"); got != "13" {
		t.Errorf("Normalize = %q, want 13", got)
	}
	if got := Normalize("0000"); got != "0" {
		t.Errorf("Normalize = %q, want 0", got)
	}
}

func ExampleFromInvoiceNumber() {
	fmt.Println(FromInvoiceNumber(1))
	fmt.Println(Format(FromInvoiceNumber(123456)))
	// Output:
	// 00013
	// 12 34561
}
