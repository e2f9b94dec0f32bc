package badgerstore

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"semcache/internal/ports"
)

// Container field numbers of the wire encoding
const (
	fieldKey      protowire.Number = 1
	fieldResult   protowire.Number = 2
	fieldContinue protowire.Number = 3
	fieldCount    protowire.Number = 4
	fieldLinked   protowire.Number = 5
	fieldTTL      protowire.Number = 6
)

// encodeContainer serializes c in protobuf wire format
func encodeContainer(c *ports.Container) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendString(b, c.Key)
	for _, r := range c.Results {
		b = protowire.AppendTag(b, fieldResult, protowire.BytesType)
		b = protowire.AppendString(b, r)
	}
	if c.Continue {
		b = protowire.AppendTag(b, fieldContinue, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if c.Count > 0 {
		b = protowire.AppendTag(b, fieldCount, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.Count))
	}
	for _, l := range c.Linked {
		b = protowire.AppendTag(b, fieldLinked, protowire.BytesType)
		b = protowire.AppendString(b, l)
	}
	if c.TTL > 0 {
		b = protowire.AppendTag(b, fieldTTL, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(c.TTL))
	}
	return b
}

// decodeContainer parses the output of encodeContainer. Unknown fields
// are skipped.
func decodeContainer(b []byte) (*ports.Container, error) {
	c := &ports.Container{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("decode container tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case typ == protowire.BytesType && (num == fieldKey || num == fieldResult || num == fieldLinked):
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("decode container field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldKey:
				c.Key = s
			case fieldResult:
				c.Results = append(c.Results, s)
			default:
				c.Linked = append(c.Linked, s)
			}
		case typ == protowire.VarintType && (num == fieldContinue || num == fieldCount || num == fieldTTL):
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("decode container field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			switch num {
			case fieldContinue:
				c.Continue = v != 0
			case fieldCount:
				c.Count = int(v)
			default:
				c.TTL = time.Duration(v)
			}
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("skip container field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return c, nil
}
