package walletrpc

// Chain names accepted by requests that select a multipath element.
const (
	ChainExternal = "external"
	ChainInternal = "internal"
)

// Combo selector names accepted by requests that derive addresses.
const (
	ComboPK     = "pk"
	ComboPKH    = "pkh"
	ComboWPKH   = "wpkh"
	ComboSHWPKH = "sh_wpkh"
)

type ChecksumRequest struct {
	Descriptor string `json:"descriptor"`
}

type ChecksumResponse struct {
	Checksum   string `json:"checksum"`
	Descriptor string `json:"descriptor"`
}

type AnalyzeRequest struct {
	Descriptor string `json:"descriptor"`
}

type AnalyzeResponse struct {
	Canonical            string   `json:"canonical"`
	Checksum             string   `json:"checksum"`
	IsCombo              bool     `json:"is_combo"`
	RequiresAddressIndex bool     `json:"requires_address_index"`
	RequiresChain        bool     `json:"requires_chain"`
	BaseKey              string   `json:"base_key,omitempty"`
	Fingerprints         []string `json:"fingerprints,omitempty"`
}

type DeriveAddressesRequest struct {
	Descriptor string `json:"descriptor"`
	Network    string `json:"network,omitempty"`
	Chain      string `json:"chain,omitempty"`
	Combo      string `json:"combo,omitempty"`
	From       uint32 `json:"from"`
	Count      uint32 `json:"count"`
}

// IndexedAddress is an address and the index it was derived at.
type IndexedAddress struct {
	Index   uint32 `json:"index"`
	Address string `json:"address"`
}

type DeriveAddressesResponse struct {
	Addresses []IndexedAddress `json:"addresses"`
}

type CreateWalletRequest struct {
	// Mnemonic restores the wallet from BIP-39 words. When empty and
	// WatchingOnly is false a new seed is generated.
	Mnemonic           string `json:"mnemonic,omitempty"`
	MnemonicPassphrase string `json:"mnemonic_passphrase,omitempty"`
	Passphrase         []byte `json:"passphrase,omitempty"`
	WatchingOnly       bool   `json:"watching_only,omitempty"`
}

type CreateWalletResponse struct {
	// Mnemonic is set only when the server generated the seed.
	Mnemonic string `json:"mnemonic,omitempty"`
}

type OpenWalletRequest struct{}

type OpenWalletResponse struct{}

type WalletExistsRequest struct{}

type WalletExistsResponse struct {
	Exists bool `json:"exists"`
}

type CloseWalletRequest struct{}

type CloseWalletResponse struct{}

type ImportDescriptorRequest struct {
	Descriptor string `json:"descriptor"`
	Name       string `json:"name"`
	Note       string `json:"note,omitempty"`
}

type ImportDescriptorResponse struct {
	Canonical string `json:"canonical"`
}

type ListDescriptorsRequest struct{}

// WalletDescriptor is a stored descriptor with its metadata.
type WalletDescriptor struct {
	Name       string `json:"name"`
	Note       string `json:"note,omitempty"`
	Descriptor string `json:"descriptor"`
}

type ListDescriptorsResponse struct {
	Descriptors []WalletDescriptor `json:"descriptors"`
}

type NextAddressesRequest struct {
	Name  string `json:"name"`
	Chain string `json:"chain,omitempty"`
	Combo string `json:"combo,omitempty"`
	Count uint32 `json:"count"`
}

type NextAddressesResponse struct {
	Addresses []string `json:"addresses"`
}

type UnlockWalletRequest struct {
	Passphrase []byte `json:"passphrase"`
}

type UnlockWalletResponse struct{}

type LockWalletRequest struct{}

type LockWalletResponse struct{}
