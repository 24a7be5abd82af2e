package descriptor

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// Function is a descriptor function name.
type Function uint8

const (
	FuncPK Function = iota
	FuncPKH
	FuncWPKH
	FuncSH
	FuncWSH
	FuncCombo
	FuncMulti
	FuncSortedMulti
	FuncAddr
	FuncRaw
)

var functionNames = map[Function]string{
	FuncPK:          "pk",
	FuncPKH:         "pkh",
	FuncWPKH:        "wpkh",
	FuncSH:          "sh",
	FuncWSH:         "wsh",
	FuncCombo:       "combo",
	FuncMulti:       "multi",
	FuncSortedMulti: "sortedmulti",
	FuncAddr:        "addr",
	FuncRaw:         "raw",
}

var functionsByName = func() map[string]Function {
	m := make(map[string]Function, len(functionNames))
	for f, name := range functionNames {
		m[name] = f
	}
	return m
}()

func (f Function) String() string {
	if s, ok := functionNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Function(%d)", f)
}

// Node is a parsed descriptor function. The set of implementations is
// closed: PKNode, PKHNode, WPKHNode, SHNode, WSHNode, ComboNode, MultiNode,
// AddrNode and RawNode.
type Node interface {
	// Function returns the descriptor function the node was parsed from.
	Function() Function

	// Range returns the source span of the whole function call.
	Range() Range

	// String re-serializes the node.
	String() string

	node()
}

type nodeRange struct {
	rng Range
}

func (n nodeRange) Range() Range { return n.rng }

// PKNode is pk(KEY).
type PKNode struct {
	nodeRange
	Key *KeyExpression
}

// PKHNode is pkh(KEY).
type PKHNode struct {
	nodeRange
	Key *KeyExpression
}

// WPKHNode is wpkh(KEY).
type WPKHNode struct {
	nodeRange
	Key *KeyExpression
}

// ComboNode is combo(KEY).
type ComboNode struct {
	nodeRange
	Key *KeyExpression
}

// SHNode is sh(SCRIPT).
type SHNode struct {
	nodeRange
	Child Node
}

// WSHNode is wsh(SCRIPT).
type WSHNode struct {
	nodeRange
	Child Node
}

// MultiNode is multi(k, KEY, ...) or, when Sorted is set,
// sortedmulti(k, KEY, ...). Keys keep their declaration order.
type MultiNode struct {
	nodeRange
	Threshold int
	Keys      []*KeyExpression
	Sorted    bool
}

// AddrNode is addr(ADDRESS).
type AddrNode struct {
	nodeRange
	Address btcutil.Address
	text    string
}

// RawNode is raw(HEX).
type RawNode struct {
	nodeRange
	Script []byte
}

func (*PKNode) Function() Function    { return FuncPK }
func (*PKHNode) Function() Function   { return FuncPKH }
func (*WPKHNode) Function() Function  { return FuncWPKH }
func (*ComboNode) Function() Function { return FuncCombo }
func (*SHNode) Function() Function    { return FuncSH }
func (*WSHNode) Function() Function   { return FuncWSH }
func (*AddrNode) Function() Function  { return FuncAddr }
func (*RawNode) Function() Function   { return FuncRaw }

func (n *MultiNode) Function() Function {
	if n.Sorted {
		return FuncSortedMulti
	}
	return FuncMulti
}

func (*PKNode) node()    {}
func (*PKHNode) node()   {}
func (*WPKHNode) node()  {}
func (*ComboNode) node() {}
func (*SHNode) node()    {}
func (*WSHNode) node()   {}
func (*MultiNode) node() {}
func (*AddrNode) node()  {}
func (*RawNode) node()   {}

func call(f Function, args ...string) string {
	return f.String() + "(" + strings.Join(args, ",") + ")"
}

func (n *PKNode) String() string    { return call(FuncPK, n.Key.String()) }
func (n *PKHNode) String() string   { return call(FuncPKH, n.Key.String()) }
func (n *WPKHNode) String() string  { return call(FuncWPKH, n.Key.String()) }
func (n *ComboNode) String() string { return call(FuncCombo, n.Key.String()) }
func (n *SHNode) String() string    { return call(FuncSH, n.Child.String()) }
func (n *WSHNode) String() string   { return call(FuncWSH, n.Child.String()) }
func (n *AddrNode) String() string  { return call(FuncAddr, n.text) }
func (n *RawNode) String() string   { return call(FuncRaw, hex.EncodeToString(n.Script)) }

func (n *MultiNode) String() string {
	args := make([]string, 0, len(n.Keys)+1)
	args = append(args, fmt.Sprintf("%d", n.Threshold))
	for _, k := range n.Keys {
		args = append(args, k.String())
	}
	return call(n.Function(), args...)
}

// Keys returns every key expression reachable from n in declaration order.
func Keys(n Node) []*KeyExpression {
	switch n := n.(type) {
	case *PKNode:
		return []*KeyExpression{n.Key}
	case *PKHNode:
		return []*KeyExpression{n.Key}
	case *WPKHNode:
		return []*KeyExpression{n.Key}
	case *ComboNode:
		return []*KeyExpression{n.Key}
	case *SHNode:
		return Keys(n.Child)
	case *WSHNode:
		return Keys(n.Child)
	case *MultiNode:
		return append([]*KeyExpression(nil), n.Keys...)
	}
	return nil
}

// requiresAddressIndex reports whether any reachable key ends in a wildcard.
func requiresAddressIndex(n Node) bool {
	for _, k := range Keys(n) {
		if k.IsRange() {
			return true
		}
	}
	return false
}

// requiresChain reports whether any reachable key has a multipath step.
func requiresChain(n Node) bool {
	for _, k := range Keys(n) {
		if k.IsMultipath() {
			return true
		}
	}
	return false
}
