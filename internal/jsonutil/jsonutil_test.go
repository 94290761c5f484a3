package jsonutil

import (
	"strings"
	"testing"
)

func TestUnmarshalWithContext(t *testing.T) {
	type TestStruct struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name:    "valid JSON",
			data:    []byte(`{"name":"test"}`),
			wantErr: false,
		},
		{
			name:    "invalid JSON",
			data:    []byte(`not json`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v TestStruct
			err := UnmarshalWithContext(tt.data, &v, "test context")
			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalWithContext() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), "test context") {
				t.Errorf("UnmarshalWithContext() error %q missing context", err)
			}
			if !tt.wantErr && v.Name != "test" {
				t.Errorf("UnmarshalWithContext() v.Name = %q, want %q", v.Name, "test")
			}
		})
	}
}

func TestDecodeStrict(t *testing.T) {
	type args struct {
		ID int64 `json:"id"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"known fields", `{"id":5}`, false},
		{"unknown field", `{"id":5,"extra":true}`, true},
		{"trailing value", `{"id":5}{"id":6}`, true},
		{"empty body", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a args
			err := DecodeStrict(strings.NewReader(tt.body), &a, "args")
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeStrict(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
		})
	}
}

func TestUnmarshalArrayAllowEmpty(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantLen int
		wantErr bool
	}{
		{"array", `[1,2,3]`, 3, false},
		{"empty array", `[]`, 0, false},
		{"null", `null`, 0, false},
		{"blank", ``, 0, false},
		{"object", `{"a":1}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalArrayAllowEmpty[int]([]byte(tt.data), "ints")
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalArrayAllowEmpty(%q) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got == nil {
				t.Errorf("UnmarshalArrayAllowEmpty(%q) returned nil slice", tt.data)
			}
			if len(got) != tt.wantLen {
				t.Errorf("UnmarshalArrayAllowEmpty(%q) len = %d, want %d", tt.data, len(got), tt.wantLen)
			}
		})
	}
}

func TestUnmarshalOptional(t *testing.T) {
	got, err := UnmarshalOptional[string]([]byte(`null`), "value")
	if err != nil || got != nil {
		t.Errorf("UnmarshalOptional(null) = %v, %v; want nil, nil", got, err)
	}

	got, err = UnmarshalOptional[string]([]byte(`"hello"`), "value")
	if err != nil {
		t.Fatalf("UnmarshalOptional: %v", err)
	}
	if got == nil || *got != "hello" {
		t.Errorf("UnmarshalOptional = %v, want hello", got)
	}
}
