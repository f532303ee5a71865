package model

import (
	"fmt"
	"reflect"
)

// TypeBinding ties one discriminator value to one concrete variant.
type TypeBinding struct {
	Tag NotificationType
	New func() Notification
}

// TypeTable is the discriminator-to-variant mapping used by a Codec.
type TypeTable []TypeBinding

// DefaultTypeTable maps every variant to the discriminator carrying its own name.
var DefaultTypeTable = TypeTable{
	{Tag: TypeEmail, New: func() Notification { return &EmailNotification{} }},
	{Tag: TypeSms, New: func() Notification { return &SmsNotification{} }},
	{Tag: TypePush, New: func() Notification { return &PushNotification{} }},
}

// SwappedTypeTable reproduces the legacy wire mapping in which the email and
// sms discriminators are exchanged. It is a bijection, so a Codec accepts it,
// but payloads produced with it do not agree with DefaultTypeTable.
var SwappedTypeTable = TypeTable{
	{Tag: TypeSms, New: func() Notification { return &EmailNotification{} }},
	{Tag: TypeEmail, New: func() Notification { return &SmsNotification{} }},
	{Tag: TypePush, New: func() Notification { return &PushNotification{} }},
}

var variantTypes = []reflect.Type{
	reflect.TypeOf(&EmailNotification{}),
	reflect.TypeOf(&SmsNotification{}),
	reflect.TypeOf(&PushNotification{}),
}

// Validate reports whether the table is a total bijection between
// discriminator values and variants.
func (t TypeTable) Validate() error {
	tags := make(map[NotificationType]struct{}, len(t))
	types := make(map[reflect.Type]NotificationType, len(t))

	for _, b := range t {
		if b.Tag == "" {
			return fmt.Errorf("type table: empty discriminator")
		}
		if b.New == nil {
			return fmt.Errorf("type table: %s has no constructor", b.Tag)
		}
		if _, dup := tags[b.Tag]; dup {
			return fmt.Errorf("type table: discriminator %s bound twice", b.Tag)
		}
		tags[b.Tag] = struct{}{}

		typ := reflect.TypeOf(b.New())
		if prev, dup := types[typ]; dup {
			return fmt.Errorf("type table: %s bound to both %s and %s", typ, prev, b.Tag)
		}
		types[typ] = b.Tag
	}

	for _, typ := range variantTypes {
		if _, ok := types[typ]; !ok {
			return fmt.Errorf("type table: no discriminator for %s", typ)
		}
	}

	if len(types) != len(variantTypes) {
		return fmt.Errorf("type table: binds %d types, want %d", len(types), len(variantTypes))
	}

	return nil
}

// TagOf returns the discriminator bound to the concrete type of n.
func (t TypeTable) TagOf(n Notification) (NotificationType, bool) {
	typ := reflect.TypeOf(n)
	for _, b := range t {
		if reflect.TypeOf(b.New()) == typ {
			return b.Tag, true
		}
	}

	return "", false
}

// Lookup returns the binding for a discriminator value.
func (t TypeTable) Lookup(tag NotificationType) (TypeBinding, bool) {
	for _, b := range t {
		if b.Tag == tag {
			return b, true
		}
	}

	return TypeBinding{}, false
}
