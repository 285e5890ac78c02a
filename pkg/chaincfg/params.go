// Package chaincfg defines the parameters of the Zcash networks whose
// payloads this module decodes: network magic, default port, genesis block
// hash, transparent address prefixes and network upgrade activations.
package chaincfg

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Upgrade identifies a Zcash network upgrade.
type Upgrade uint8

// Network upgrades in activation order.
const (
	UpgradeSprout Upgrade = iota
	UpgradeOverwinter
	UpgradeSapling
	UpgradeBlossom
	UpgradeHeartwood
	UpgradeCanopy
	UpgradeNU5
	UpgradeNU6
)

var upgradeNames = map[Upgrade]string{
	UpgradeSprout:     "Sprout",
	UpgradeOverwinter: "Overwinter",
	UpgradeSapling:    "Sapling",
	UpgradeBlossom:    "Blossom",
	UpgradeHeartwood:  "Heartwood",
	UpgradeCanopy:     "Canopy",
	UpgradeNU5:        "NU5",
	UpgradeNU6:        "NU6",
}

// String returns the name of the upgrade.
func (u Upgrade) String() string {
	if name, ok := upgradeNames[u]; ok {
		return name
	}
	return fmt.Sprintf("Upgrade(%d)", uint8(u))
}

// Consensus branch ids, as committed to by v5 transactions and signature
// hashes. Sprout has no branch id.
var branchIDs = map[Upgrade]uint32{
	UpgradeOverwinter: 0x5ba81b19,
	UpgradeSapling:    0x76b809bb,
	UpgradeBlossom:    0x2bb40e60,
	UpgradeHeartwood:  0xf5b9230b,
	UpgradeCanopy:     0xe9ff75a6,
	UpgradeNU5:        0xc2d6d0b4,
	UpgradeNU6:        0xc8e71055,
}

// BranchID returns the consensus branch id of the upgrade, or zero for
// Sprout.
func (u Upgrade) BranchID() uint32 {
	return branchIDs[u]
}

// Activation is the height at which an upgrade activates on a network.
type Activation struct {
	Upgrade Upgrade
	Height  uint32
}

// Params defines a Zcash network by its parameters.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net is the message start string in wire order.
	Net [4]byte

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// DNSSeeds defines a list of DNS seeds for the network.
	DNSSeeds []string

	// GenesisHash is the hash of the first block of the chain.
	GenesisHash *chainhash.Hash

	// Two-byte prefixes of base58check transparent addresses.
	PubKeyHashAddrID [2]byte
	ScriptHashAddrID [2]byte

	// Activations lists the upgrades after Sprout, sorted by height.
	Activations []Activation
}

// newHashFromStr converts the passed big-endian hex string into a
// chainhash.Hash. It only differs from the one available in chainhash in
// that it panics on an error since it will only (and must only) be called
// with hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *chainhash.Hash {
	hash, err := chainhash.NewHashFromStr(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// MainNetParams defines the network parameters for the main Zcash network.
var MainNetParams = Params{
	Name:        "mainnet",
	Net:         [4]byte{0x24, 0xe9, 0x27, 0x64},
	DefaultPort: "8233",
	DNSSeeds: []string{
		"dnsseed.z.cash",
		"dnsseed.str4d.xyz",
		"mainnet.seeder.zfnd.org",
		"mainnet.is.yolo.money",
	},
	GenesisHash: newHashFromStr("00040fe8ec8471911baa1db1266ea15dd06b4a8a5c453883c000b031973dce08"),

	PubKeyHashAddrID: [2]byte{0x1c, 0xb8}, // starts with t1
	ScriptHashAddrID: [2]byte{0x1c, 0xbd}, // starts with t3

	Activations: []Activation{
		{UpgradeOverwinter, 347500},
		{UpgradeSapling, 419200},
		{UpgradeBlossom, 653600},
		{UpgradeHeartwood, 903000},
		{UpgradeCanopy, 1046400},
		{UpgradeNU5, 1687104},
		{UpgradeNU6, 2726400},
	},
}

// TestNetParams defines the network parameters for the Zcash test network.
var TestNetParams = Params{
	Name:        "testnet",
	Net:         [4]byte{0xfa, 0x1a, 0xf9, 0xbf},
	DefaultPort: "18233",
	DNSSeeds: []string{
		"dnsseed.testnet.z.cash",
		"testnet.seeder.zfnd.org",
		"testnet.is.yolo.money",
	},
	GenesisHash: newHashFromStr("05a60a92d99d85997cce3b87616c089f6124d7342af37106edc76126334a2c38"),

	PubKeyHashAddrID: [2]byte{0x1d, 0x25}, // starts with tm
	ScriptHashAddrID: [2]byte{0x1c, 0xba}, // starts with t2

	Activations: []Activation{
		{UpgradeOverwinter, 207500},
		{UpgradeSapling, 280000},
		{UpgradeBlossom, 584000},
		{UpgradeHeartwood, 903800},
		{UpgradeCanopy, 1028500},
		{UpgradeNU5, 1842420},
		{UpgradeNU6, 2976000},
	},
}

var (
	// ErrDuplicatedNet describes an error where the parameters for a Zcash
	// network could not be set due to the network already being a standard
	// network or previously-registered into this package.
	ErrDuplicatedNet = errors.New("duplicated Zcash network")

	// ErrUnknownNet is returned by ParamsForName for names that are not
	// registered.
	ErrUnknownNet = errors.New("unknown Zcash network")
)

var registeredNets = make(map[[4]byte]*Params)

// Register registers the network parameters for a Zcash network. This may
// error with ErrDuplicatedNet if the network is already registered.
//
// Activations are sorted by height as part of registration.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicatedNet
	}
	sort.SliceStable(params.Activations, func(i, j int) bool {
		return params.Activations[i].Height < params.Activations[j].Height
	})
	registeredNets[params.Net] = params
	return nil
}

// mustRegister performs the same function as Register except it panics if
// there is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

func init() {
	mustRegister(&MainNetParams)
	mustRegister(&TestNetParams)
}

// ParamsForName returns the registered network called name. Matching is case
// insensitive, and "main"/"test" are accepted as short forms.
func ParamsForName(name string) (*Params, error) {
	name = strings.ToLower(name)
	for _, p := range registeredNets {
		if p.Name == name || p.Name == name+"net" {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownNet, name)
}

// ParamsForNet returns the registered network with the given message start.
func ParamsForNet(net [4]byte) (*Params, bool) {
	p, ok := registeredNets[net]
	return p, ok
}

// UpgradeAt returns the most recent upgrade active at height.
func (p *Params) UpgradeAt(height uint32) Upgrade {
	active := UpgradeSprout
	for _, a := range p.Activations {
		if height < a.Height {
			break
		}
		active = a.Upgrade
	}
	return active
}

// ActivationHeight returns the height at which u activates, and false if the
// network does not schedule it.
func (p *Params) ActivationHeight(u Upgrade) (uint32, bool) {
	if u == UpgradeSprout {
		return 0, true
	}
	for _, a := range p.Activations {
		if a.Upgrade == u {
			return a.Height, true
		}
	}
	return 0, false
}

// IsActive reports whether u is active at height.
func (p *Params) IsActive(u Upgrade, height uint32) bool {
	h, ok := p.ActivationHeight(u)
	return ok && height >= h
}

// UpgradeForBranchID maps a consensus branch id back to its upgrade.
func UpgradeForBranchID(id uint32) (Upgrade, bool) {
	for u, b := range branchIDs {
		if b == id {
			return u, true
		}
	}
	return UpgradeSprout, false
}
