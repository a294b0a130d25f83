package sui

import (
	"fmt"
	"strings"
)

// TypeTag is a parsed Move type as reported in object type strings. The
// accepted grammar is:
//
//	TypeTag   = Primitive | Vector | StructTag
//	Primitive = "bool" | "u8" | "u16" | "u32" | "u64" | "u128" | "u256" | "address" | "signer"
//	Vector    = "vector" "<" TypeTag ">"
//	StructTag = Address "::" Ident "::" Ident [ "<" TypeTag { "," TypeTag } ">" ]
//	Address   = "0x" hexdigit{1,64}
//	Ident     = ( letter | "_" ) { letter | digit | "_" }
//
// Whitespace around separators is ignored.
type TypeTag struct {
	Primitive  string    // set for primitive types
	Elem       *TypeTag  // set for vector types
	Address    string    // struct address as written
	Module     string    // struct module
	Name       string    // struct name
	TypeParams []TypeTag // struct generic arguments
}

var primitives = map[string]bool{
	"bool": true, "u8": true, "u16": true, "u32": true, "u64": true,
	"u128": true, "u256": true, "address": true, "signer": true,
}

// IsStruct reports whether t is a struct type.
func (t TypeTag) IsStruct() bool { return t.Name != "" }

// String renders t with addresses as written.
func (t TypeTag) String() string { return t.render(false) }

// Canonical renders t with every address normalised to 64 hex digits.
func (t TypeTag) Canonical() string { return t.render(true) }

func (t TypeTag) render(canonical bool) string {
	switch {
	case t.Primitive != "":
		return t.Primitive
	case t.Elem != nil:
		return "vector<" + t.Elem.render(canonical) + ">"
	}
	addr := t.Address
	if canonical {
		addr = MustNormalizeAddress(addr)
	}
	var b strings.Builder
	b.WriteString(addr)
	b.WriteString("::")
	b.WriteString(t.Module)
	b.WriteString("::")
	b.WriteString(t.Name)
	if len(t.TypeParams) > 0 {
		b.WriteByte('<')
		for i, p := range t.TypeParams {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.render(canonical))
		}
		b.WriteByte('>')
	}
	return b.String()
}

// ParseTypeTag parses s according to the TypeTag grammar. Trailing input is
// an error.
func ParseTypeTag(s string) (TypeTag, error) {
	p := &tagParser{src: s}
	tag, err := p.typeTag()
	if err != nil {
		return TypeTag{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return TypeTag{}, p.errorf("unexpected trailing input")
	}
	return tag, nil
}

// SettlementAsset extracts the generic settlement-asset parameter from an
// object type such as "0xabc::market::Market<0x2::sui::SUI>". The object
// type must be a struct with exactly one type parameter.
func SettlementAsset(objectType string) (string, error) {
	tag, err := ParseTypeTag(objectType)
	if err != nil {
		return "", err
	}
	if !tag.IsStruct() || len(tag.TypeParams) != 1 {
		return "", fmt.Errorf("sui: type %q has %d type parameters, want 1", objectType, len(tag.TypeParams))
	}
	return tag.TypeParams[0].String(), nil
}

// StructType builds "<pkg>::<module>::<name><<typeArg>>".
func StructType(pkg, module, name, typeArg string) string {
	return pkg + "::" + module + "::" + name + "<" + typeArg + ">"
}

type tagParser struct {
	src string
	pos int
}

func (p *tagParser) errorf(format string, args ...any) error {
	return fmt.Errorf("sui: parse type %q at %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *tagParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *tagParser) consume(tok string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *tagParser) typeTag() (TypeTag, error) {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "0x") {
		return p.structTag()
	}
	ident, err := p.ident()
	if err != nil {
		return TypeTag{}, err
	}
	if ident == "vector" {
		if !p.consume("<") {
			return TypeTag{}, p.errorf("expected '<' after vector")
		}
		elem, err := p.typeTag()
		if err != nil {
			return TypeTag{}, err
		}
		if !p.consume(">") {
			return TypeTag{}, p.errorf("expected '>' closing vector")
		}
		return TypeTag{Elem: &elem}, nil
	}
	if !primitives[ident] {
		return TypeTag{}, p.errorf("unknown primitive %q", ident)
	}
	return TypeTag{Primitive: ident}, nil
}

func (p *tagParser) structTag() (TypeTag, error) {
	start := p.pos
	p.pos += 2
	for p.pos < len(p.src) && isHex(p.src[p.pos]) {
		p.pos++
	}
	addr := p.src[start:p.pos]
	if len(addr) == 2 || len(addr) > 66 {
		return TypeTag{}, p.errorf("invalid address %q", addr)
	}
	if !p.consume("::") {
		return TypeTag{}, p.errorf("expected '::' after address")
	}
	module, err := p.ident()
	if err != nil {
		return TypeTag{}, err
	}
	if !p.consume("::") {
		return TypeTag{}, p.errorf("expected '::' after module")
	}
	name, err := p.ident()
	if err != nil {
		return TypeTag{}, err
	}
	tag := TypeTag{Address: addr, Module: module, Name: name}
	if !p.consume("<") {
		return tag, nil
	}
	for {
		param, err := p.typeTag()
		if err != nil {
			return TypeTag{}, err
		}
		tag.TypeParams = append(tag.TypeParams, param)
		if p.consume(",") {
			continue
		}
		if p.consume(">") {
			return tag, nil
		}
		return TypeTag{}, p.errorf("expected ',' or '>' in type parameters")
	}
}

func (p *tagParser) ident() (string, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '_' || isLetter(c) || (p.pos > start && isDigit(c)) {
			p.pos++
			continue
		}
		break
	}
	if p.pos == start {
		return "", p.errorf("expected identifier")
	}
	return p.src[start:p.pos], nil
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
