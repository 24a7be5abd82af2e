package netparams

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
)

// Params couples the chain parameters of a network with the default ports
// of its RPC endpoints.
type Params struct {
	*chaincfg.Params
	RPCClientPort string
	RPCServerPort string
}

var MainNetParams = Params{
	Params:        &chaincfg.MainNetParams,
	RPCClientPort: "8334",
	RPCServerPort: "8332",
}

var TestNetParams = Params{
	Params:        &chaincfg.TestNet3Params,
	RPCClientPort: "18334",
	RPCServerPort: "18332",
}

var RegressionNetParams = Params{
	Params:        &chaincfg.RegressionNetParams,
	RPCClientPort: "18334",
	RPCServerPort: "18332",
}

var SigNetParams = Params{
	Params:        &chaincfg.SigNetParams,
	RPCClientPort: "38334",
	RPCServerPort: "38332",
}

var SimNetParams = Params{
	Params:        &chaincfg.SimNetParams,
	RPCClientPort: "18556",
	RPCServerPort: "18554",
}

// All lists every supported network.
var All = []*Params{
	&MainNetParams,
	&TestNetParams,
	&RegressionNetParams,
	&SigNetParams,
	&SimNetParams,
}

// DirName returns the directory name used for per-network data. Testnet3
// uses "testnet" so data directories stay stable across testnet versions.
func (p *Params) DirName() string {
	if p.Net == wire.TestNet3 {
		return "testnet"
	}
	return p.Name
}

// ByName returns the network with the given chaincfg or directory name.
func ByName(name string) (*Params, error) {
	name = strings.ToLower(name)
	for _, p := range All {
		if p.Name == name || p.DirName() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown network %q", name)
}

// ChainParams returns the chain parameters of every supported network.
func ChainParams() []*chaincfg.Params {
	params := make([]*chaincfg.Params, len(All))
	for i, p := range All {
		params[i] = p.Params
	}
	return params
}
