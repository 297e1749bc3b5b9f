package json

// Raw is a raw encoded JSON value. It implements json.Marshaler and
// json.Unmarshaler and can be used to delay JSON decoding or precompute a
// JSON encoding. It's taken from encoding/json.
type Raw []byte

// MarshalJSON returns m as the JSON encoding of m.
func (m Raw) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return m, nil
}

func (m *Raw) UnmarshalJSON(data []byte) error {
	*m = append((*m)[0:0], data...)
	return nil
}

// UnmarshalTo decodes the raw value into v using the default driver.
func (m Raw) UnmarshalTo(v interface{}) error {
	// Leave as nil for no data.
	if len(m) == 0 {
		return nil
	}
	return Unmarshal(m, v)
}

func (m Raw) String() string {
	return string(m)
}
