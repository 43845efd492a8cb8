package skeleton

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Sections is an insertion-ordered mapping of component name to text. It
// marshals to a JSON object whose key order matches the section order.
type Sections struct {
	names []string
	text  map[string]string
}

// Set writes a section, appending it if the name is new.
func (s *Sections) Set(name, text string) {
	if s.text == nil {
		s.text = make(map[string]string)
	}
	if _, ok := s.text[name]; !ok {
		s.names = append(s.names, name)
	}
	s.text[name] = text
}

// Get returns a section's text.
func (s *Sections) Get(name string) (string, bool) {
	t, ok := s.text[name]
	return t, ok
}

// Has reports whether name is a section.
func (s *Sections) Has(name string) bool {
	_, ok := s.text[name]
	return ok
}

// Names returns section names in order.
func (s *Sections) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *Sections) Len() int { return len(s.names) }

// Clone returns an independent copy.
func (s *Sections) Clone() Sections {
	var out Sections
	for _, n := range s.names {
		out.Set(n, s.text[n])
	}
	return out
}

func (s Sections) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.text[name])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Sections) UnmarshalJSON(data []byte) error {
	*s = Sections{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("sections: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sections: expected string key, got %v", tok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("sections: value for %q: %w", name, err)
		}
		s.Set(name, text)
	}
	_, err = dec.Token()
	return err
}
