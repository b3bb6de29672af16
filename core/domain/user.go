package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

const (
	FieldID    = "id"
	FieldName  = "name"
	FieldAge   = "age"
	FieldEmail = "email"
)

// User is an open record: the well-known fields sit in their own slots,
// anything else a client adds through an update lands in Extra and survives
// load/save. Name and Email hold whatever the document stored; requests can
// only set them to strings.
type User struct {
	ID    int
	Name  any
	Age   any
	Email any
	Extra map[string]any

	// missing marks known keys the record does not carry. A stored null is
	// a value, not a missing key, and is written back as null.
	missing fieldSet
}

type fieldSet uint8

const (
	nameBit fieldSet = 1 << iota
	ageBit
	emailBit
)

func NewUser(id int, name string, age any, email string) User {
	u := User{
		ID:    id,
		Name:  name,
		Age:   age,
		Email: email,
	}
	if age == nil {
		u.missing = ageBit
	}
	return u
}

// HasAge reports whether the record carries an age key, possibly null.
func (u User) HasAge() bool {
	return u.missing&ageBit == 0
}

// NextID returns the id for a user appended to users: one past the id of the
// last element, or 1 for an empty collection.
func NextID(users []User) int {
	if len(users) == 0 {
		return 1
	}
	return users[len(users)-1].ID + 1
}

func (u User) Clone() User {
	if u.Extra != nil {
		u.Extra = maps.Clone(u.Extra)
	}
	return u
}

// Merge applies patch over the user field by field. The id is never taken
// from the patch.
func (u *User) Merge(patch map[string]any) error {
	for key, value := range patch {
		switch key {
		case FieldName, FieldEmail:
			if _, ok := value.(string); !ok {
				return fmt.Errorf("%w: %s must be a string", ErrInvalidInput, key)
			}
		}
	}

	for key, value := range patch {
		switch key {
		case FieldID:
			continue
		case FieldName:
			u.Name = value
			u.missing &^= nameBit
		case FieldEmail:
			u.Email = value
			u.missing &^= emailBit
		case FieldAge:
			u.Age = value
			u.missing &^= ageBit
		default:
			if u.Extra == nil {
				u.Extra = make(map[string]any)
			}
			u.Extra[key] = value
		}
	}

	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	if err := writeField(&buf, FieldID, u.ID); err != nil {
		return nil, err
	}
	known := []struct {
		key  string
		flag fieldSet
		val  any
	}{
		{FieldName, nameBit, u.Name},
		{FieldAge, ageBit, u.Age},
		{FieldEmail, emailBit, u.Email},
	}
	for _, f := range known {
		if u.missing&f.flag != 0 {
			continue
		}
		if err := writeField(&buf, f.key, f.val); err != nil {
			return nil, err
		}
	}

	for _, key := range slices.Sorted(maps.Keys(u.Extra)) {
		if err := writeField(&buf, key, u.Extra[key]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (u *User) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("user record must be an object")
	}

	number, ok := raw[FieldID].(json.Number)
	if !ok {
		return fmt.Errorf("user record has no numeric id")
	}
	id, err := number.Int64()
	if err != nil {
		return fmt.Errorf("user id %q is not an integer", number)
	}

	decoded := User{ID: int(id), missing: nameBit | ageBit | emailBit}

	for key, value := range raw {
		switch key {
		case FieldID:
		case FieldName:
			decoded.Name = value
			decoded.missing &^= nameBit
		case FieldEmail:
			decoded.Email = value
			decoded.missing &^= emailBit
		case FieldAge:
			decoded.Age = value
			decoded.missing &^= ageBit
		default:
			if decoded.Extra == nil {
				decoded.Extra = make(map[string]any)
			}
			decoded.Extra[key] = value
		}
	}

	*u = decoded
	return nil
}

func writeField(buf *bytes.Buffer, key string, value any) error {
	if buf.Len() > 1 {
		buf.WriteByte(',')
	}

	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("field %s: %w", key, err)
	}

	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Truthy reports whether v counts as a supplied value: nil, false, zero,
// NaN and the empty string do not.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return true
		}
		return f != 0
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	default:
		return true
	}
}
