package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/danderson/dbuswire"
	"github.com/danderson/dbuswire/wirebuf"
	"gopkg.in/yaml.v3"
)

type indenter struct {
	prefix     string
	indentNext bool
}

func (i *indenter) f(msg string, args ...any) {
	fmt.Fprintf(i, msg+"\n", args...)
}

func (i *indenter) Write(bs []byte) (int, error) {
	ret := 0
	for len(bs) > 0 {
		if i.indentNext {
			i.indentNext = false
			_, err := io.WriteString(os.Stdout, i.prefix)
			if err != nil {
				return ret, err
			}
		}

		var wr []byte
		idx := bytes.IndexByte(bs, '\n')
		if idx >= 0 {
			i.indentNext = true
			wr, bs = bs[:idx+1], bs[idx+1:]
		} else {
			wr, bs = bs, nil
		}

		n, err := os.Stdout.Write(wr)
		ret += n
		if err != nil {
			return ret, err
		}
	}
	return ret, nil
}

func (i *indenter) indent(n int) {
	i.prefix = strings.Repeat("  ", n)
}

// dumper prints the layout of validated wire data.
type dumper struct {
	b     *wirebuf.Buffer
	order dbuswire.ByteOrder
	out   *indenter
	depth int
}

func (d *dumper) nest(fn func()) {
	d.depth++
	d.out.indent(d.depth)
	fn()
	d.depth--
	d.out.indent(d.depth)
}

func (d *dumper) value(sig string, pos int) int {
	switch t := dbuswire.Type(sig[0]); t {
	case dbuswire.TypeArray:
		elem := sig[1:]
		lenPos := wirebuf.Align(pos, 4)
		ln, start := dbuswire.DemarshalUint32(d.b, d.order, pos)
		start = wirebuf.Align(start, dbuswire.Type(elem[0]).Alignment())
		end := start + int(ln)
		d.out.f("%04x: ARRAY of %s, %d bytes at %04x", lenPos, elem, ln, start)
		d.nest(func() {
			for p := start; p < end; {
				p = d.value(elem, p)
			}
		})
		return end
	case dbuswire.TypeDict:
		lenPos := wirebuf.Align(pos, 4)
		ln, start := dbuswire.DemarshalUint32(d.b, d.order, pos)
		end := start + int(ln)
		d.out.f("%04x: DICT, %d bytes", lenPos, ln)
		d.nest(func() {
			for p := start; p < end; {
				namePos := wirebuf.Align(p, 4)
				var name string
				name, p = dbuswire.DemarshalString(d.b, d.order, p)
				tags, vpos, _ := dbuswire.ValidateType(d.b, p)
				d.out.f("%04x: %q (%s)", namePos, name, tags)
				d.nest(func() {
					p = d.value(tags, vpos)
				})
			}
		})
		return end
	default:
		v, end := dbuswire.DemarshalValue(d.b, d.order, sig, pos)
		start := pos
		if t != dbuswire.TypeNil {
			start = wirebuf.Align(pos, t.Alignment())
		}
		d.out.f("%04x: %s %#v", start, t, v)
		return end
	}
}

// comparePaths orders object paths so that parents come before their
// children, and siblings sort by name.
func comparePaths(a, b dbuswire.ObjectPath) int {
	return slices.Compare(a.Components(), b.Components())
}

// bodyFromYAML converts a YAML sequence into values of the types in
// sig.
func bodyFromYAML(sig dbuswire.Signature, doc *yaml.Node) ([]any, error) {
	n := doc
	if n.Kind == yaml.DocumentNode {
		n = n.Content[0]
	}
	if n.Kind == 0 && sig.IsZero() {
		return []any{}, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: body must be a YAML sequence", n.Line)
	}
	if len(n.Content) != sig.Len() {
		return nil, fmt.Errorf("line %d: got %d values for signature %q, want %d", n.Line, len(n.Content), sig, sig.Len())
	}
	ret := make([]any, 0, sig.Len())
	for i, typ := range sig.Types() {
		v, err := fromYAML(typ, n.Content[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, v)
	}
	return ret, nil
}

func fromYAML(sig string, n *yaml.Node) (any, error) {
	badf := func(msg string, args ...any) error {
		return fmt.Errorf("line %d: %s value: %s", n.Line, sig, fmt.Sprintf(msg, args...))
	}
	scalar := func() (string, error) {
		if n.Kind != yaml.ScalarNode {
			return "", badf("must be a scalar")
		}
		return n.Value, nil
	}

	t := dbuswire.Type(sig[0])
	switch t {
	case dbuswire.TypeNil:
		if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!null" {
			return nil, badf("must be null")
		}
		return nil, nil
	case dbuswire.TypeByte, dbuswire.TypeUint32, dbuswire.TypeUint64:
		s, err := scalar()
		if err != nil {
			return nil, err
		}
		bits := map[dbuswire.Type]int{dbuswire.TypeByte: 8, dbuswire.TypeUint32: 32, dbuswire.TypeUint64: 64}[t]
		u, err := strconv.ParseUint(s, 0, bits)
		if err != nil {
			return nil, badf("%v", err)
		}
		switch t {
		case dbuswire.TypeByte:
			return uint8(u), nil
		case dbuswire.TypeUint32:
			return uint32(u), nil
		}
		return u, nil
	case dbuswire.TypeInt32, dbuswire.TypeInt64:
		s, err := scalar()
		if err != nil {
			return nil, err
		}
		if t == dbuswire.TypeInt32 {
			i, err := strconv.ParseInt(s, 0, 32)
			if err != nil {
				return nil, badf("%v", err)
			}
			return int32(i), nil
		}
		i, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, badf("%v", err)
		}
		return i, nil
	case dbuswire.TypeBoolean:
		s, err := scalar()
		if err != nil {
			return nil, err
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, badf("%v", err)
		}
		return b, nil
	case dbuswire.TypeDouble:
		s, err := scalar()
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, badf("%v", err)
		}
		return f, nil
	case dbuswire.TypeString:
		return scalar()
	case dbuswire.TypeObjectPath:
		s, err := scalar()
		if err != nil {
			return nil, err
		}
		return dbuswire.ObjectPath(s), nil
	case dbuswire.TypeCustom:
		if n.Kind != yaml.MappingNode {
			return nil, badf("must be a mapping with name and data")
		}
		var raw struct {
			Name string `yaml:"name"`
			Data string `yaml:"data"`
		}
		if err := n.Decode(&raw); err != nil {
			return nil, badf("%v", err)
		}
		data, err := hex.DecodeString(raw.Data)
		if err != nil {
			return nil, badf("data: %v", err)
		}
		return dbuswire.Custom{Name: raw.Name, Data: data}, nil
	case dbuswire.TypeDict:
		if n.Kind != yaml.MappingNode {
			return nil, badf("must be a mapping")
		}
		ret := dbuswire.NewDict()
		for i := 0; i < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if v.Kind != yaml.MappingNode || len(v.Content) != 2 {
				return nil, badf("entry %q must be a mapping of one type signature to a value", k.Value)
			}
			tag := v.Content[0].Value
			if _, err := dbuswire.GoType(tag); err != nil {
				return nil, badf("entry %q: %v", k.Value, err)
			}
			val, err := fromYAML(tag, v.Content[1])
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", k.Value, err)
			}
			ret.Set(k.Value, val)
		}
		return ret, nil
	case dbuswire.TypeArray:
		if n.Kind != yaml.SequenceNode {
			return nil, badf("must be a sequence")
		}
		typ, err := dbuswire.GoType(sig)
		if err != nil {
			return nil, badf("%v", err)
		}
		ret := reflect.MakeSlice(typ, 0, len(n.Content))
		for _, elem := range n.Content {
			v, err := fromYAML(sig[1:], elem)
			if err != nil {
				return nil, err
			}
			ret = reflect.Append(ret, reflect.ValueOf(v))
		}
		return ret.Interface(), nil
	}
	return nil, badf("unknown type")
}

func bodyToYAML(vals []any) (*yaml.Node, error) {
	ret := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range vals {
		n, err := toYAML(v)
		if err != nil {
			return nil, err
		}
		ret.Content = append(ret.Content, n)
	}
	return ret, nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toYAML(v any) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil:
		return scalarNode("!!null", "null"), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(v)), nil
	case uint8, int32, uint32, int64, uint64:
		return scalarNode("!!int", fmt.Sprint(v)), nil
	case float64:
		return scalarNode("!!float", strconv.FormatFloat(v, 'g', -1, 64)), nil
	case string:
		return scalarNode("!!str", v), nil
	case dbuswire.ObjectPath:
		return scalarNode("!!str", string(v)), nil
	case dbuswire.Custom:
		return &yaml.Node{
			Kind: yaml.MappingNode,
			Content: []*yaml.Node{
				scalarNode("!!str", "name"), scalarNode("!!str", v.Name),
				scalarNode("!!str", "data"), scalarNode("!!str", hex.EncodeToString(v.Data)),
			},
		}, nil
	case *dbuswire.Dict:
		ret := &yaml.Node{Kind: yaml.MappingNode}
		for k, val := range v.All() {
			sig, err := dbuswire.SignatureOf(val)
			if err != nil {
				return nil, err
			}
			vn, err := toYAML(val)
			if err != nil {
				return nil, err
			}
			ret.Content = append(ret.Content,
				scalarNode("!!str", k),
				&yaml.Node{
					Kind:    yaml.MappingNode,
					Style:   yaml.FlowStyle,
					Content: []*yaml.Node{scalarNode("!!str", sig.String()), vn},
				})
		}
		return ret, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("cannot convert %T to YAML", v)
	}
	ret := &yaml.Node{Kind: yaml.SequenceNode}
	if rv.Len() == 0 {
		ret.Style = yaml.FlowStyle
	}
	for i := range rv.Len() {
		n, err := toYAML(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		ret.Content = append(ret.Content, n)
	}
	return ret, nil
}

// toCBOR converts decoded values into types with a natural CBOR
// encoding.
func toCBOR(v any) any {
	switch v := v.(type) {
	case nil, []byte:
		return v
	case dbuswire.ObjectPath:
		return string(v)
	case dbuswire.Custom:
		return map[string]any{"name": v.Name, "data": v.Data}
	case *dbuswire.Dict:
		ret := make(map[string]any, v.Len())
		for k, val := range v.All() {
			ret[k] = toCBOR(val)
		}
		return ret
	case []any:
		ret := make([]any, len(v))
		for i, e := range v {
			ret[i] = toCBOR(e)
		}
		return ret
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return v
	}
	ret := make([]any, rv.Len())
	for i := range ret {
		ret[i] = toCBOR(rv.Index(i).Interface())
	}
	return ret
}
