package state

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind tags the variant stored in a Value.
type ValueKind uint8

const (
	ValueText ValueKind = iota
	ValueBool
	ValueOption
	ValueOptions
	ValueFile
)

func (k ValueKind) String() string {
	switch k {
	case ValueText:
		return "text"
	case ValueBool:
		return "bool"
	case ValueOption:
		return "option"
	case ValueOptions:
		return "options"
	case ValueFile:
		return "file"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// FileHandle is the opaque reference kept for a selected file. Content is
// never read into the record.
type FileHandle struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType,omitempty"`
}

// Value is an immutable field value. The zero Value is empty text.
type Value struct {
	kind    ValueKind
	text    string
	flag    bool
	options []string
	file    *FileHandle
}

// Text wraps a raw string value.
func Text(s string) Value { return Value{kind: ValueText, text: s} }

// Bool wraps a checkbox value.
func Bool(b bool) Value { return Value{kind: ValueBool, flag: b} }

// Option wraps a single selected option (radio, select).
func Option(s string) Value { return Value{kind: ValueOption, text: s} }

// Options wraps an ordered list of selected options. The slice is copied.
func Options(values []string) Value {
	return Value{kind: ValueOptions, options: append([]string{}, values...)}
}

// File wraps a file handle; nil means no file selected.
func File(handle *FileHandle) Value {
	if handle == nil {
		return Value{kind: ValueFile}
	}
	clone := *handle
	return Value{kind: ValueFile, file: &clone}
}

// Kind reports the variant.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the text of text/option values, "true"/"false" for booleans,
// a comma separated list for options and the file name for files.
func (v Value) String() string {
	switch v.kind {
	case ValueBool:
		if v.flag {
			return "true"
		}
		return "false"
	case ValueOptions:
		return strings.Join(v.options, ", ")
	case ValueFile:
		if v.file == nil {
			return ""
		}
		return v.file.Name
	default:
		return v.text
	}
}

// Bool returns the checkbox state; false for other variants.
func (v Value) Bool() bool { return v.kind == ValueBool && v.flag }

// Selected returns a copy of the selected options.
func (v Value) Selected() []string {
	if v.kind != ValueOptions {
		return nil
	}
	return append([]string{}, v.options...)
}

// File returns a copy of the file handle, or nil.
func (v Value) File() *FileHandle {
	if v.kind != ValueFile || v.file == nil {
		return nil
	}
	clone := *v.file
	return &clone
}

// Any converts the value into a plain Go value suitable for logging, JSON and
// template contexts.
func (v Value) Any() any {
	switch v.kind {
	case ValueBool:
		return v.flag
	case ValueOptions:
		return v.Selected()
	case ValueFile:
		return v.File()
	default:
		return v.text
	}
}

// Equal reports whether both values hold the same variant and content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case ValueBool:
		return v.flag == other.flag
	case ValueOptions:
		if len(v.options) != len(other.options) {
			return false
		}
		for i := range v.options {
			if v.options[i] != other.options[i] {
				return false
			}
		}
		return true
	case ValueFile:
		if v.file == nil || other.file == nil {
			return v.file == other.file
		}
		return *v.file == *other.file
	default:
		return v.text == other.text
	}
}

// MarshalJSON encodes the plain value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}
