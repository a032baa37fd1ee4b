package domain

const (
	// Blockchain constants
	EVM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"

	// MULTICALL3_ADDRESS is the canonical Multicall3 deployment, identical on
	// every supported chain
	MULTICALL3_ADDRESS = "0xcA11bde05977b3631167028862bE2a173976CA11"
)
