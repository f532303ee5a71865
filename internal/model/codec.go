package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// DiscriminatorField is the JSON field naming the variant of an encoded notification.
const DiscriminatorField = "notificationType"

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("decode notification")

// DecodeError reports a payload whose discriminator is missing, unknown or
// inconsistent with the rest of the payload.
type DecodeError struct {
	Type   NotificationType
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode notification"
	if e.Type != "" {
		msg += " " + string(e.Type)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Codec encodes and decodes notifications through a TypeTable.
type Codec struct {
	table    TypeTable
	validate *validator.Validate
}

// DefaultCodec uses DefaultTypeTable.
var DefaultCodec = MustCodec(DefaultTypeTable)

// NewCodec returns a Codec for the table, failing when the table is not a bijection.
func NewCodec(table TypeTable) (*Codec, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	return &Codec{table: table, validate: validator.New()}, nil
}

// MustCodec is NewCodec that panics on an invalid table.
func MustCodec(table TypeTable) *Codec {
	c, err := NewCodec(table)
	if err != nil {
		panic(err)
	}

	return c
}

// Marshal encodes n with its discriminator as the first field.
func (c *Codec) Marshal(n Notification) ([]byte, error) {
	if n == nil || reflect.ValueOf(n).IsNil() {
		return nil, fmt.Errorf("encode notification: nil notification")
	}

	tag, ok := c.table.TagOf(n)
	if !ok {
		return nil, fmt.Errorf("encode notification: no discriminator for %T", n)
	}

	body, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}

	tagJSON, err := json.Marshal(tag)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}

	out := make([]byte, 0, len(body)+len(DiscriminatorField)+len(tagJSON)+4)
	out = append(out, `{"`+DiscriminatorField+`":`...)
	out = append(out, tagJSON...)
	if len(body) > 2 {
		out = append(out, ',')
	}
	out = append(out, body[1:]...)

	return out, nil
}

// Unmarshal decodes a single notification. The discriminator is resolved
// first; the remaining fields must fit the resolved variant exactly.
func (c *Codec) Unmarshal(data []byte) (Notification, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &DecodeError{Reason: "payload is not a JSON object", Err: err}
	}

	rawTag, ok := fields[DiscriminatorField]
	if !ok || bytes.Equal(bytes.TrimSpace(rawTag), []byte("null")) {
		return nil, &DecodeError{Reason: "missing " + DiscriminatorField}
	}

	var tag NotificationType
	if err := json.Unmarshal(rawTag, &tag); err != nil {
		return nil, &DecodeError{Reason: DiscriminatorField + " is not a string", Err: err}
	}

	binding, ok := c.table.Lookup(tag)
	if !ok {
		return nil, &DecodeError{Type: tag, Reason: "unknown " + DiscriminatorField}
	}

	delete(fields, DiscriminatorField)
	rest, err := json.Marshal(fields)
	if err != nil {
		return nil, &DecodeError{Type: tag, Reason: "malformed payload", Err: err}
	}

	n := binding.New()
	dec := json.NewDecoder(bytes.NewReader(rest))
	dec.DisallowUnknownFields()
	if err := dec.Decode(n); err != nil {
		return nil, &DecodeError{Type: tag, Reason: "payload does not match variant", Err: err}
	}

	if err := c.validate.Struct(n); err != nil {
		return nil, &DecodeError{Type: tag, Reason: "payload does not match variant", Err: err}
	}

	return n, nil
}

// UnmarshalBatch decodes a JSON array of notifications. A null or empty
// array yields an empty slice.
func (c *Codec) UnmarshalBatch(data []byte) ([]Notification, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, &DecodeError{Reason: "payload is not a JSON array", Err: err}
	}

	out := make([]Notification, 0, len(items))
	for i, raw := range items {
		n, err := c.Unmarshal(raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, n)
	}

	return out, nil
}

// TagOf returns the discriminator this codec writes for n.
func (c *Codec) TagOf(n Notification) (NotificationType, bool) {
	return c.table.TagOf(n)
}

// Encode encodes n with DefaultCodec.
func Encode(n Notification) ([]byte, error) { return DefaultCodec.Marshal(n) }

// Decode decodes a notification with DefaultCodec.
func Decode(data []byte) (Notification, error) { return DefaultCodec.Unmarshal(data) }

// DecodeBatch decodes a JSON array of notifications with DefaultCodec.
func DecodeBatch(data []byte) ([]Notification, error) { return DefaultCodec.UnmarshalBatch(data) }
