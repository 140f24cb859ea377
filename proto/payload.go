package proto

import "github.com/spf13/cast"

// Payload is the generic string-keyed body of a signal. Typed getters apply
// the same coercion and default-fallback rules as directive parameters.
type Payload map[string]any

func (p Payload) Set(key string, value any) Payload {
	p[key] = value
	return p
}

func (p Payload) SetString(key, value string) Payload  { return p.Set(key, value) }
func (p Payload) SetInt(key string, value int) Payload { return p.Set(key, value) }
func (p Payload) SetFloat(key string, value float64) Payload {
	return p.Set(key, value)
}
func (p Payload) SetBool(key string, value bool) Payload { return p.Set(key, value) }
func (p Payload) SetObject(key string, value map[string]any) Payload {
	return p.Set(key, value)
}

func (p Payload) GetString(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

func (p Payload) GetInt(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (p Payload) GetFloat(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

func (p Payload) GetBool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

func (p Payload) GetObject(key string, def map[string]any) map[string]any {
	v, ok := p[key]
	if !ok {
		return def
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return def
	}
	return obj
}
