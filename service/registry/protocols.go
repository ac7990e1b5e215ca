package registry

// ProtocolKind distinguishes the broad venue categories the classifier
// chain keys off of.
type ProtocolKind string

const (
	ProtocolKindDEX     ProtocolKind = "dex"
	ProtocolKindBridge  ProtocolKind = "bridge"
	ProtocolKindStake   ProtocolKind = "stake"
	ProtocolKindNFT     ProtocolKind = "nft"
	ProtocolKindAirdrop ProtocolKind = "airdrop"
)

// ProtocolInfo identifies a known on-chain program/venue.
type ProtocolInfo struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind ProtocolKind `json:"kind"`
}

// IsDEX reports whether the protocol is a DEX/AMM venue.
func (p *ProtocolInfo) IsDEX() bool {
	return p != nil && p.Kind == ProtocolKindDEX
}

// IsStake reports whether the protocol is a staking venue.
func (p *ProtocolInfo) IsStake() bool {
	return p != nil && p.Kind == ProtocolKindStake
}

// IsAirdrop reports whether the protocol is an airdrop distributor.
func (p *ProtocolInfo) IsAirdrop() bool {
	return p != nil && p.Kind == ProtocolKindAirdrop
}

// Well-known program IDs that are not protocols themselves but show up in
// most transactions.
const (
	SystemProgramID    = "11111111111111111111111111111111"
	TokenProgramID     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022ProgramID = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"
	StakeProgramID     = "Stake11111111111111111111111111111111111111"
)

// Detector maps program IDs present in a transaction to a known protocol
// descriptor. Purely a lookup; no learning or heuristic scoring.
type Detector struct {
	byProgram    map[string]ProtocolInfo
	facilitators map[string]string // program id -> facilitator name
}

// NewDetector builds a detector from explicit program and facilitator maps.
func NewDetector(programs map[string]ProtocolInfo, facilitators map[string]string) *Detector {
	return &Detector{byProgram: programs, facilitators: facilitators}
}

// DefaultDetector returns a detector seeded with well-known mainnet programs.
func DefaultDetector() *Detector {
	programs := map[string]ProtocolInfo{
		// DEX / AMM
		"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4":  {ID: "jupiter", Name: "Jupiter", Kind: ProtocolKindDEX},
		"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": {ID: "raydium", Name: "Raydium", Kind: ProtocolKindDEX},
		"CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK": {ID: "raydium_clmm", Name: "Raydium CLMM", Kind: ProtocolKindDEX},
		"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc":  {ID: "orca", Name: "Orca Whirlpool", Kind: ProtocolKindDEX},
		"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo":  {ID: "meteora", Name: "Meteora DLMM", Kind: ProtocolKindDEX},
		"6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P":  {ID: "pumpfun", Name: "Pump.fun", Kind: ProtocolKindDEX},

		// Staking
		StakeProgramID: {ID: "native_stake", Name: "Solana Staking", Kind: ProtocolKindStake},
		"MarBmsSgKXdrN1egZf5sqe1TMai9K1rChYNDJgjq7aD": {ID: "marinade", Name: "Marinade Finance", Kind: ProtocolKindStake},

		// Bridges
		"wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb": {ID: "wormhole", Name: "Wormhole", Kind: ProtocolKindBridge},

		// NFT
		"metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s": {ID: "metaplex", Name: "Metaplex", Kind: ProtocolKindNFT},
		"cndy3Z4yapSmi4SnGrCoMyCNk4JD8WzCcx3kFDy7qvd": {ID: "candy_machine", Name: "Candy Machine", Kind: ProtocolKindNFT},

		// Airdrop distributors
		"meRjbQXFNf5En86FXT2YPz1dQzLj4Yb3xK8u1MVgqpb": {ID: "merkle_distributor", Name: "Merkle Distributor", Kind: ProtocolKindAirdrop},
	}
	facilitators := map[string]string{
		// Merkle-distributor style airdrop claim programs.
		"meRjbQXFNf5En86FXT2YPz1dQzLj4Yb3xK8u1MVgqpb": "merkle_distributor",
	}
	return NewDetector(programs, facilitators)
}

// Detect returns the first known protocol among the given program IDs, or nil
// when none match. The program ID ordering of the transaction is preserved,
// which keeps detection deterministic for identical inputs.
func (d *Detector) Detect(programIDs []string) *ProtocolInfo {
	for _, id := range programIDs {
		if p, ok := d.byProgram[id]; ok {
			return &p
		}
	}
	return nil
}

// Facilitator returns the name of a known airdrop facilitator program among
// the given account keys, if any.
func (d *Detector) Facilitator(accountKeys []string) (string, bool) {
	for _, key := range accountKeys {
		if name, ok := d.facilitators[key]; ok {
			return name, true
		}
	}
	return "", false
}
