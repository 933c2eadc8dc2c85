// Package blueprint parses HuJSON template documents into field trees.
//
// A blueprint is a JSON document (comments and trailing commas allowed)
// whose root describes a container. Each node carries a "kind"
// discriminator plus the construction parameters of that kind:
//
//	{
//	    // HTTP GET request line
//	    "name": "request",
//	    "fields": [
//	        {"kind": "group", "name": "method", "values": ["GET", "POST"]},
//	        {"kind": "delimiter", "value": " "},
//	        {"kind": "string", "name": "path", "value": "/index.html"},
//	        {"kind": "size_in_bytes", "name": "len", "target": "path", "length": 32, "fuzzable": false},
//	    ],
//	}
//
// Binary values can be given hex-encoded via "value_hex" instead of
// "value". Document-shape problems are reported as [ErrDocument];
// parameter problems surface the model package's construction errors.
package blueprint

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/proteus-fuzz/proteus/pkg/model"
)

// ErrDocument is returned when a blueprint document cannot be decoded
// or names an unknown kind. Callers match it with [errors.Is].
var ErrDocument = errors.New("blueprint: invalid document")

// fieldDef is the raw decoded form of one blueprint node. One struct
// covers every kind; buildField picks the relevant parameters.
type fieldDef struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Fuzzable *bool  `json:"fuzzable"`

	// Value is kind-dependent: a JSON string for byte-valued kinds, a
	// JSON number for integer kinds.
	Value    json.RawMessage `json:"value"`
	ValueHex string          `json:"value_hex"`
	Values   []string        `json:"values"`

	MaxSize int `json:"max_size"`

	Key string `json:"key"`

	Length   int    `json:"length"`
	Signed   bool   `json:"signed"`
	MinValue *int64 `json:"min_value"`
	MaxValue *int64 `json:"max_value"`

	MinLength    int    `json:"min_length"`
	MaxLength    int    `json:"max_length"`
	Step         int    `json:"step"`
	NumMutations int    `json:"num_mutations"`
	UnusedBits   int    `json:"unused_bits"`
	Seed         uint64 `json:"seed"`

	Target    string `json:"target"`
	Algorithm string `json:"algorithm"`

	Fields []fieldDef `json:"fields"`
}

// fuzzableOr resolves the tri-state fuzzable flag against the kind's
// default.
func (d *fieldDef) fuzzableOr(def bool) bool {
	if d.Fuzzable == nil {
		return def
	}

	return *d.Fuzzable
}

// stringValue decodes "value" as a JSON string.
func (d *fieldDef) stringValue() (string, error) {
	if d.Value == nil {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(d.Value, &s); err != nil {
		return "", fmt.Errorf("%s %q: value must be a string: %w", d.Kind, d.Name, ErrDocument)
	}

	return s, nil
}

// bytesValue decodes the node's byte payload: "value_hex" when set,
// otherwise the raw bytes of the "value" string.
func (d *fieldDef) bytesValue() ([]byte, error) {
	if d.ValueHex != "" {
		b, err := hex.DecodeString(d.ValueHex)
		if err != nil {
			return nil, fmt.Errorf("%s %q: bad value_hex: %w", d.Kind, d.Name, ErrDocument)
		}

		return b, nil
	}

	s, err := d.stringValue()
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// intValue decodes "value" as a JSON number.
func (d *fieldDef) intValue() (int64, error) {
	if d.Value == nil {
		return 0, nil
	}

	var v int64
	if err := json.Unmarshal(d.Value, &v); err != nil {
		return 0, fmt.Errorf("%s %q: value must be an integer: %w", d.Kind, d.Name, ErrDocument)
	}

	return v, nil
}

// Load reads and parses a blueprint file.
func Load(path string) (*model.Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("blueprint: read %s: %w", path, err)
	}

	tree, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tree, nil
}

// Parse decodes a HuJSON blueprint document into a field tree. The
// document root is a container; its "kind" may be omitted.
func Parse(data []byte) (*model.Container, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("invalid HuJSON: %v: %w", err, ErrDocument)
	}

	var root fieldDef
	if err := json.Unmarshal(standardized, &root); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v: %w", err, ErrDocument)
	}

	if root.Kind == "" {
		root.Kind = "container"
	}

	if root.Kind != "container" {
		return nil, fmt.Errorf("document root must be a container, got kind %q: %w", root.Kind, ErrDocument)
	}

	return buildContainer(&root)
}

func buildContainer(d *fieldDef) (*model.Container, error) {
	children := make([]model.Field, 0, len(d.Fields))

	for i := range d.Fields {
		child, err := buildField(&d.Fields[i])
		if err != nil {
			return nil, err
		}

		children = append(children, child)
	}

	return model.NewContainer(children, model.ContainerOptions{
		Name:     d.Name,
		Fuzzable: d.fuzzableOr(true),
	})
}

func buildField(d *fieldDef) (model.Field, error) {
	switch d.Kind {
	case "container":
		return buildContainer(d)

	case "string":
		v, err := d.stringValue()
		if err != nil {
			return nil, err
		}

		return model.NewString(v, model.StringOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(true), MaxSize: d.MaxSize,
		})

	case "delimiter":
		v, err := d.stringValue()
		if err != nil {
			return nil, err
		}

		return model.NewDelimiter(v, model.StringOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(true), MaxSize: d.MaxSize,
		})

	case "static":
		v, err := d.bytesValue()
		if err != nil {
			return nil, err
		}

		return model.NewStatic(v, model.StaticOptions{Name: d.Name}), nil

	case "group":
		values := make([][]byte, 0, len(d.Values))
		for _, s := range d.Values {
			values = append(values, []byte(s))
		}

		return model.NewGroup(values, model.GroupOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(true),
		})

	case "dynamic":
		v, err := d.bytesValue()
		if err != nil {
			return nil, err
		}

		return model.NewDynamic(d.Key, v, model.DynamicOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(true), Length: d.Length,
		})

	case "bitfield":
		v, err := d.intValue()
		if err != nil {
			return nil, err
		}

		return model.NewBitField(model.BitFieldOptions{
			Value:    v,
			Length:   d.Length,
			Signed:   d.Signed,
			MinValue: d.MinValue,
			MaxValue: d.MaxValue,
			Name:     d.Name,
			Fuzzable: d.fuzzableOr(true),
		})

	case "uint8", "uint16", "uint32", "uint64", "sint8", "sint16", "sint32", "sint64":
		return buildAlignedInt(d)

	case "random_bits":
		v, err := d.bytesValue()
		if err != nil {
			return nil, err
		}

		return model.NewRandomBits(v, model.RandomBitsOptions{
			Name:         d.Name,
			Fuzzable:     d.fuzzableOr(true),
			MinLength:    d.MinLength,
			MaxLength:    d.MaxLength,
			Step:         d.Step,
			NumMutations: d.NumMutations,
			UnusedBits:   d.UnusedBits,
			Seed:         d.Seed,
		})

	case "random_bytes":
		v, err := d.bytesValue()
		if err != nil {
			return nil, err
		}

		return model.NewRandomBytes(v, model.RandomBytesOptions{
			Name:         d.Name,
			Fuzzable:     d.fuzzableOr(true),
			MinLength:    d.MinLength,
			MaxLength:    d.MaxLength,
			Step:         d.Step,
			NumMutations: d.NumMutations,
			Seed:         d.Seed,
		})

	case "clone":
		return model.NewClone(d.Target, model.CalcOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false),
		})

	case "size":
		return model.NewSize(d.Target, model.SizeOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false), Length: d.Length,
		})

	case "size_in_bytes":
		return model.NewSizeInBytes(d.Target, model.SizeInBytesOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false), Length: d.Length,
		})

	case "element_count":
		return model.NewElementCount(d.Target, model.ElementCountOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false), Length: d.Length,
		})

	case "index_of":
		return model.NewIndexOf(d.Target, model.IndexOfOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false), Length: d.Length,
		})

	case "hash":
		alg, err := hashAlgorithm(d.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("hash %q: %w", d.Name, err)
		}

		return model.NewHash(d.Target, alg, model.CalcOptions{
			Name: d.Name, Fuzzable: d.fuzzableOr(false),
		})

	case "":
		return nil, fmt.Errorf("field %q: missing kind: %w", d.Name, ErrDocument)

	default:
		return nil, fmt.Errorf("field %q: unknown kind %q: %w", d.Name, d.Kind, ErrDocument)
	}
}

func buildAlignedInt(d *fieldDef) (model.Field, error) {
	v, err := d.intValue()
	if err != nil {
		return nil, err
	}

	opts := model.IntOptions{
		Name:     d.Name,
		Fuzzable: d.fuzzableOr(true),
		MinValue: d.MinValue,
		MaxValue: d.MaxValue,
	}

	outOfRange := func() error {
		return fmt.Errorf("%s %q: value %d out of range: %w", d.Kind, d.Name, v, model.ErrConfiguration)
	}

	switch d.Kind {
	case "uint8":
		if v < 0 || v > 0xff {
			return nil, outOfRange()
		}

		return model.NewUInt8(uint8(v), opts)
	case "uint16":
		if v < 0 || v > 0xffff {
			return nil, outOfRange()
		}

		return model.NewUInt16(uint16(v), opts)
	case "uint32":
		if v < 0 || v > 0xffffffff {
			return nil, outOfRange()
		}

		return model.NewUInt32(uint32(v), opts)
	case "uint64":
		if v < 0 {
			return nil, outOfRange()
		}

		return model.NewUInt64(uint64(v), opts)
	case "sint8":
		if v < -0x80 || v > 0x7f {
			return nil, outOfRange()
		}

		return model.NewSInt8(int8(v), opts)
	case "sint16":
		if v < -0x8000 || v > 0x7fff {
			return nil, outOfRange()
		}

		return model.NewSInt16(int16(v), opts)
	case "sint32":
		if v < -0x80000000 || v > 0x7fffffff {
			return nil, outOfRange()
		}

		return model.NewSInt32(int32(v), opts)
	case "sint64":
		return model.NewSInt64(v, opts)
	default:
		return nil, fmt.Errorf("field %q: unknown kind %q: %w", d.Name, d.Kind, ErrDocument)
	}
}

func hashAlgorithm(name string) (model.HashAlgorithm, error) {
	switch name {
	case "md5":
		return model.Md5, nil
	case "sha1":
		return model.Sha1, nil
	case "sha224":
		return model.Sha224, nil
	case "sha256":
		return model.Sha256, nil
	case "sha384":
		return model.Sha384, nil
	case "sha512":
		return model.Sha512, nil
	default:
		return 0, fmt.Errorf("unknown algorithm %q: %w", name, ErrDocument)
	}
}
