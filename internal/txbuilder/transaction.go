package txbuilder

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sebikillmachin/SUI/internal/platform/sui"
)

// ArgKind discriminates command arguments.
type ArgKind string

const (
	ArgGasCoin      ArgKind = "GasCoin"
	ArgInput        ArgKind = "Input"
	ArgResult       ArgKind = "Result"
	ArgNestedResult ArgKind = "NestedResult"
)

// Argument refers to a transaction input, the gas coin, or the result of an
// earlier command.
type Argument struct {
	Kind ArgKind
	// Index is the input index (ArgInput) or command index (ArgResult,
	// ArgNestedResult).
	Index uint16
	// Sub is the result slot of ArgNestedResult.
	Sub uint16
	// object marks inputs that refer to objects rather than pure values.
	object bool
}

// MarshalJSON renders the argument in the wallet's tagged-union format.
func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case ArgGasCoin:
		return json.Marshal(map[string]any{"$kind": a.Kind, "GasCoin": true})
	case ArgInput:
		typ := "pure"
		if a.object {
			typ = "object"
		}
		return json.Marshal(map[string]any{"$kind": a.Kind, "Input": a.Index, "type": typ})
	case ArgResult:
		return json.Marshal(map[string]any{"$kind": a.Kind, "Result": a.Index})
	case ArgNestedResult:
		return json.Marshal(map[string]any{"$kind": a.Kind, "NestedResult": [2]uint16{a.Index, a.Sub}})
	default:
		return nil, fmt.Errorf("txbuilder: unknown argument kind %q", a.Kind)
	}
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgGasCoin:
		return "GasCoin"
	case ArgNestedResult:
		return fmt.Sprintf("NestedResult(%d,%d)", a.Index, a.Sub)
	default:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Index)
	}
}

// Input is a pure value or an object reference whose version and digest the
// wallet resolves at signing time.
type Input struct {
	// Pure holds the BCS bytes of a pure input; nil for object inputs.
	Pure []byte
	// ObjectID is set for object inputs.
	ObjectID string
	// PureType is the Move type the pure bytes encode, for display.
	PureType string
}

// IsObject reports whether in refers to an object.
func (in Input) IsObject() bool { return in.ObjectID != "" }

// MarshalJSON renders the input in the wallet's tagged-union format.
func (in Input) MarshalJSON() ([]byte, error) {
	if in.IsObject() {
		return json.Marshal(map[string]any{
			"$kind":            "UnresolvedObject",
			"UnresolvedObject": map[string]string{"objectId": in.ObjectID},
		})
	}
	return json.Marshal(map[string]any{
		"$kind": "Pure",
		"Pure":  map[string]string{"bytes": base64.StdEncoding.EncodeToString(in.Pure)},
	})
}

// MoveCall invokes a public entry function.
type MoveCall struct {
	Package       string     `json:"package"`
	Module        string     `json:"module"`
	Function      string     `json:"function"`
	TypeArguments []string   `json:"typeArguments"`
	Arguments     []Argument `json:"arguments"`
}

// Target returns "<package>::<module>::<function>".
func (m MoveCall) Target() string {
	return m.Package + "::" + m.Module + "::" + m.Function
}

// SplitCoins carves amounts out of a coin.
type SplitCoins struct {
	Coin    Argument   `json:"coin"`
	Amounts []Argument `json:"amounts"`
}

// Command is one step of a programmable transaction. Exactly one field is
// set.
type Command struct {
	MoveCall   *MoveCall
	SplitCoins *SplitCoins
}

// MarshalJSON renders the command in the wallet's tagged-union format.
func (c Command) MarshalJSON() ([]byte, error) {
	switch {
	case c.MoveCall != nil:
		return json.Marshal(map[string]any{"$kind": "MoveCall", "MoveCall": c.MoveCall})
	case c.SplitCoins != nil:
		return json.Marshal(map[string]any{"$kind": "SplitCoins", "SplitCoins": c.SplitCoins})
	default:
		return nil, fmt.Errorf("txbuilder: empty command")
	}
}

// Transaction is an unsigned programmable transaction. Builders only
// assemble it; gas selection, object versions and signing are left to the
// wallet.
type Transaction struct {
	Sender   string
	Inputs   []Input
	Commands []Command

	objects map[string]uint16
}

// NewTransaction returns an empty transaction.
func NewTransaction() *Transaction {
	return &Transaction{objects: make(map[string]uint16)}
}

// Gas returns the gas coin argument.
func (t *Transaction) Gas() Argument { return Argument{Kind: ArgGasCoin} }

// Object adds an object input, or returns the existing argument when the
// same object was already referenced.
func (t *Transaction) Object(id string) Argument {
	key := objectKey(id)
	if idx, ok := t.objects[key]; ok {
		return Argument{Kind: ArgInput, Index: idx, object: true}
	}
	idx := uint16(len(t.Inputs))
	t.Inputs = append(t.Inputs, Input{ObjectID: key})
	t.objects[key] = idx
	return Argument{Kind: ArgInput, Index: idx, object: true}
}

func objectKey(id string) string {
	if norm, err := sui.NormalizeAddress(id); err == nil {
		return norm
	}
	return strings.TrimSpace(id)
}

func (t *Transaction) pure(b []byte, typ string) Argument {
	idx := uint16(len(t.Inputs))
	t.Inputs = append(t.Inputs, Input{Pure: b, PureType: typ})
	return Argument{Kind: ArgInput, Index: idx}
}

// U64 adds a pure u64 input.
func (t *Transaction) U64(v uint64) Argument { return t.pure(encodeU64(v), "u64") }

// Bool adds a pure bool input.
func (t *Transaction) Bool(v bool) Argument { return t.pure(encodeBool(v), "bool") }

// Bytes adds a pure vector<u8> input. A nil slice encodes as an empty
// vector.
func (t *Transaction) Bytes(b []byte) Argument { return t.pure(encodeBytes(b), "vector<u8>") }

// SplitGas splits amount off the gas coin and returns the new coin.
func (t *Transaction) SplitGas(amount uint64) Argument {
	amt := t.U64(amount)
	idx := uint16(len(t.Commands))
	t.Commands = append(t.Commands, Command{SplitCoins: &SplitCoins{
		Coin:    t.Gas(),
		Amounts: []Argument{amt},
	}})
	return Argument{Kind: ArgNestedResult, Index: idx, Sub: 0}
}

// MoveCall appends a call to pkg::module::function.
func (t *Transaction) MoveCall(pkg, module, function string, typeArgs []string, args ...Argument) Argument {
	idx := uint16(len(t.Commands))
	t.Commands = append(t.Commands, Command{MoveCall: &MoveCall{
		Package:       pkg,
		Module:        module,
		Function:      function,
		TypeArguments: typeArgs,
		Arguments:     args,
	}})
	return Argument{Kind: ArgResult, Index: idx}
}

// Call returns the last MoveCall of t, or nil.
func (t *Transaction) Call() *MoveCall {
	for i := len(t.Commands) - 1; i >= 0; i-- {
		if t.Commands[i].MoveCall != nil {
			return t.Commands[i].MoveCall
		}
	}
	return nil
}

type gasData struct {
	Budget  *string `json:"budget"`
	Price   *string `json:"price"`
	Owner   *string `json:"owner"`
	Payment any     `json:"payment"`
}

type walletJSON struct {
	Version    int       `json:"version"`
	Sender     *string   `json:"sender"`
	Expiration any       `json:"expiration"`
	GasData    gasData   `json:"gasData"`
	Inputs     []Input   `json:"inputs"`
	Commands   []Command `json:"commands"`
}

// MarshalJSON renders t in the wallet's serialized transaction format
// (version 2). Unset gas fields are left for the wallet to fill.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	w := walletJSON{
		Version:  2,
		Inputs:   t.Inputs,
		Commands: t.Commands,
	}
	if t.Sender != "" {
		s := t.Sender
		w.Sender = &s
	}
	if w.Inputs == nil {
		w.Inputs = []Input{}
	}
	if w.Commands == nil {
		w.Commands = []Command{}
	}
	return json.Marshal(w)
}
