package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/creachadair/mds/heapq"
	"github.com/creachadair/mds/mapset"
	"github.com/creachadair/mds/slice"
	"github.com/danderson/dbuswire"
	"github.com/danderson/dbuswire/wirebuf"
	"github.com/fxamacker/cbor/v2"
	"github.com/kr/pretty"
	"gopkg.in/yaml.v3"
)

var globalArgs struct {
	Order     string `flag:"order,default=l,Byte order of wire data (l or B)"`
	MaxLength int    `flag:"max-length,default=134217728,Maximum size of wire data buffers"`
}

var decodeArgs struct {
	Format string `flag:"format,default=pretty,Output format (pretty or yaml or cbor)"`
	Offset int    `flag:"offset,Offset of the body in the input"`
}

var validateArgs struct {
	Offset int `flag:"offset,Offset of the body in the input"`
}

var sortArgs struct {
	Filter string `flag:"filter,Only print paths matching this regexp"`
}

var formats = mapset.New("pretty", "yaml", "cbor")

func main() {
	root := &command.C{
		Name:     "dbuswire",
		Usage:    "command args...",
		SetFlags: command.Flags(flax.MustBind, &globalArgs),
		Commands: []*command.C{
			{
				Name:  "encode",
				Usage: "encode signature",
				Help: `Encode values read from stdin as YAML.

Stdin must hold a YAML sequence with one element per complete type in
the signature. Arrays are YAML sequences. A dict is a YAML mapping from
names to single-entry mappings of a type signature to a value:

  - {count: {u: 3}, tags: {as: [a, b]}, none: {v: null}}

A custom value is a mapping with a name and hex data:

  - {name: blob, data: "0102"}

The encoded body is printed as hex.`,
				Run: command.Adapt(runEncode),
			},
			{
				Name:     "validate",
				Usage:    "validate signature hex",
				Help:     "Check that hex-encoded wire data is a well-formed body of the given signature.",
				SetFlags: command.Flags(flax.MustBind, &validateArgs),
				Run:      command.Adapt(runValidate),
			},
			{
				Name:     "decode",
				Usage:    "decode signature hex",
				Help:     "Validate and decode hex-encoded wire data.",
				SetFlags: command.Flags(flax.MustBind, &decodeArgs),
				Run:      command.Adapt(runDecode),
			},
			{
				Name:     "dump",
				Usage:    "dump signature hex",
				Help:     "Print the layout of hex-encoded wire data, with the offset of every value.",
				SetFlags: command.Flags(flax.MustBind, &validateArgs),
				Run:      command.Adapt(runDump),
			},
			{
				Name:  "path",
				Usage: "path args...",
				Commands: []*command.C{
					{
						Name:  "check",
						Usage: "check path",
						Help:  "Check that path is a valid object path.",
						Run:   command.Adapt(runPathCheck),
					},
					{
						Name:  "split",
						Usage: "split path",
						Help:  "Print the components of an object path, one per line.",
						Run:   command.Adapt(runPathSplit),
					},
					{
						Name:  "join",
						Usage: "join component...",
						Help:  "Print the object path with the given components.",
						Run:   runPathJoin,
					},
					{
						Name:  "encode",
						Usage: "encode component...",
						Help:  "Print the wire encoding of the object path with the given components.",
						Run:   runPathEncode,
					},
					{
						Name:     "sort",
						Usage:    "sort",
						Help:     "Read object paths from stdin, and print them in tree order.",
						SetFlags: command.Flags(flax.MustBind, &sortArgs),
						Run:      runPathSort,
					},
				},
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}

	env := root.NewEnv(nil)
	command.RunOrFail(env, os.Args[1:])
}

func byteOrder() (dbuswire.ByteOrder, error) {
	if len(globalArgs.Order) != 1 {
		return 0, fmt.Errorf("invalid byte order %q", globalArgs.Order)
	}
	return dbuswire.ParseByteOrder(globalArgs.Order[0])
}

// readHex returns a buffer holding the data encoded in hex.
func readHex(hex string) (*wirebuf.Buffer, error) {
	ret, err := wirebuf.New(globalArgs.MaxLength)
	if err != nil {
		return nil, err
	}
	hex = strings.Join(strings.Fields(hex), "")
	if err := wirebuf.HexDecode(wirebuf.ConstString(hex), 0, ret, 0); err != nil {
		return nil, err
	}
	return ret, nil
}

func printHex(b *wirebuf.Buffer) error {
	out, err := wirebuf.New(wirebuf.Unlimited)
	if err != nil {
		return err
	}
	defer out.Free()
	if err := wirebuf.HexEncode(b, 0, out, 0); err != nil {
		return err
	}
	if err := out.AppendByte('\n'); err != nil {
		return err
	}
	_, err = os.Stdout.Write(out.Bytes())
	return err
}

func runEncode(env *command.Env, sigStr string) error {
	order, err := byteOrder()
	if err != nil {
		return err
	}
	sig, err := dbuswire.ParseSignature(sigStr)
	if err != nil {
		return err
	}
	in, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(in, &doc); err != nil {
		return fmt.Errorf("parsing stdin: %w", err)
	}
	vals, err := bodyFromYAML(sig, &doc)
	if err != nil {
		return err
	}

	b, err := wirebuf.New(globalArgs.MaxLength)
	if err != nil {
		return err
	}
	gotSig, err := dbuswire.MarshalBody(b, order, vals...)
	if err != nil {
		return err
	}
	if gotSig.String() != sig.String() {
		return fmt.Errorf("values encoded as signature %q, want %q", gotSig, sig)
	}
	return printHex(b)
}

func runValidate(env *command.Env, sig, hex string) error {
	order, err := byteOrder()
	if err != nil {
		return err
	}
	b, err := readHex(hex)
	if err != nil {
		return err
	}
	end, err := dbuswire.ValidateBody(b, order, sig, validateArgs.Offset)
	if err != nil {
		return err
	}
	fmt.Printf("valid, %d bytes", end-validateArgs.Offset)
	if end != b.Len() {
		fmt.Printf(" (%d trailing bytes)", b.Len()-end)
	}
	fmt.Println()
	return nil
}

func runDecode(env *command.Env, sig, hex string) error {
	if !formats.Has(decodeArgs.Format) {
		return env.Usagef("unknown output format %q, must be one of %q", decodeArgs.Format, slices.Sorted(maps.Keys(formats)))
	}
	order, err := byteOrder()
	if err != nil {
		return err
	}
	b, err := readHex(hex)
	if err != nil {
		return err
	}
	vals, _, err := dbuswire.DecodeBody(b, order, sig, decodeArgs.Offset)
	if err != nil {
		return err
	}

	switch decodeArgs.Format {
	case "pretty":
		for _, v := range vals {
			fmt.Printf("%# v\n", pretty.Formatter(v))
		}
	case "yaml":
		node, err := bodyToYAML(vals)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(node); err != nil {
			return err
		}
		return enc.Close()
	case "cbor":
		em, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return err
		}
		bs, err := em.Marshal(toCBOR(vals))
		if err != nil {
			return err
		}
		return printHex(wirebuf.Const(bs))
	}
	return nil
}

func runDump(env *command.Env, sig, hex string) error {
	order, err := byteOrder()
	if err != nil {
		return err
	}
	b, err := readHex(hex)
	if err != nil {
		return err
	}
	s, err := dbuswire.ParseSignature(sig)
	if err != nil {
		return err
	}
	if _, err := dbuswire.ValidateBody(b, order, sig, validateArgs.Offset); err != nil {
		return err
	}
	d := dumper{b: b, order: order, out: &indenter{indentNext: true}}
	pos := validateArgs.Offset
	for _, typ := range s.Types() {
		pos = d.value(typ, pos)
	}
	if pos != b.Len() {
		d.out.f("%04x: %d trailing bytes", pos, b.Len()-pos)
	}
	return nil
}

func runPathCheck(env *command.Env, path string) error {
	if err := dbuswire.ValidatePath(path); err != nil {
		return err
	}
	fmt.Println("valid")
	return nil
}

func runPathSplit(env *command.Env, path string) error {
	comps, err := dbuswire.DecomposePath(path)
	if err != nil {
		return err
	}
	for _, c := range comps {
		fmt.Println(c)
	}
	return nil
}

func runPathJoin(env *command.Env) error {
	p, err := dbuswire.PathFromComponents(env.Args)
	if err != nil {
		return err
	}
	fmt.Println(p)
	return nil
}

func runPathEncode(env *command.Env) error {
	order, err := byteOrder()
	if err != nil {
		return err
	}
	b, err := wirebuf.New(globalArgs.MaxLength)
	if err != nil {
		return err
	}
	if err := dbuswire.MarshalObjectPath(b, order, env.Args); err != nil {
		return err
	}
	return printHex(b)
}

func runPathSort(env *command.Env) error {
	filter, err := regexp.Compile(sortArgs.Filter)
	if err != nil {
		return err
	}

	var paths []dbuswire.ObjectPath
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		p := dbuswire.ObjectPath(line)
		if !p.Valid() {
			return fmt.Errorf("invalid object path %q", line)
		}
		paths = append(paths, p)
	}
	if err := sc.Err(); err != nil {
		return err
	}

	seen := mapset.New[dbuswire.ObjectPath]()
	q := heapq.New(comparePaths)
	for p := range slice.Select(paths, func(p dbuswire.ObjectPath) bool {
		return filter.MatchString(string(p))
	}) {
		if seen.Has(p) {
			continue
		}
		seen.Add(p)
		q.Add(p)
	}
	for !q.IsEmpty() {
		p, _ := q.Pop()
		fmt.Println(p)
	}
	return nil
}
