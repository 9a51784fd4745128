package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ParseError reports malformed bulk input. Index is the zero-based position of
// the offending element, or -1 when the surrounding array is malformed.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("parse json array: %v", e.Err)
	}
	return fmt.Sprintf("parse json array element %d: %v", e.Index, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// arrayDecoder yields the elements of a top-level JSON array one at a time
// without reading the whole array into memory.
type arrayDecoder struct {
	dec     *json.Decoder
	index   int
	started bool
	done    bool
}

func newArrayDecoder(r io.Reader) *arrayDecoder {
	return &arrayDecoder{dec: json.NewDecoder(r)}
}

// Next returns the next element, or io.EOF once the closing bracket has been
// read and nothing but whitespace follows it.
func (d *arrayDecoder) Next() (json.RawMessage, error) {
	if d.done {
		return nil, io.EOF
	}
	if !d.started {
		if err := d.open(); err != nil {
			return nil, err
		}
	}

	if d.dec.More() {
		var raw json.RawMessage
		if err := d.dec.Decode(&raw); err != nil {
			return nil, &ParseError{Index: d.index, Err: unexpectedEOF(err)}
		}
		d.index++
		return raw, nil
	}

	if err := d.close(); err != nil {
		return nil, err
	}
	d.done = true
	return nil, io.EOF
}

func (d *arrayDecoder) open() error {
	tok, err := d.dec.Token()
	if err != nil {
		return &ParseError{Index: -1, Err: unexpectedEOF(err)}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return &ParseError{Index: -1, Err: errors.New("expected a json array")}
	}
	d.started = true
	return nil
}

func (d *arrayDecoder) close() error {
	tok, err := d.dec.Token()
	if err != nil {
		return &ParseError{Index: d.index, Err: unexpectedEOF(err)}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != ']' {
		return &ParseError{Index: d.index, Err: fmt.Errorf("unexpected token %v", tok)}
	}
	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		return &ParseError{Index: -1, Err: errors.New("extra data after json array")}
	}
	return nil
}

func unexpectedEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
