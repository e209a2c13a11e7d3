package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable keys recognized by FromEnv.
const (
	EnvContractAddr  = "AGRISHIELD_CONTRACT_ADDRESS"
	EnvEndpoints     = "AGRISHIELD_RPC_ENDPOINTS" // comma-separated
	EnvPrivateKey    = "AGRISHIELD_PRIVATE_KEY"
	EnvWalletRPCAddr = "AGRISHIELD_WALLET_RPC"
	EnvChainID       = "AGRISHIELD_CHAIN_ID"
	EnvMaxScanID     = "AGRISHIELD_MAX_SCAN_POLICY_ID"
	EnvDebug         = "AGRISHIELD_DEBUG"
)

// FromEnv builds a Config from environment variables, optionally loading the
// given dotenv files first (missing files are ignored). The returned config is
// not validated; call Validate before use.
func FromEnv(dotenvFiles ...string) *Config {
	for _, f := range dotenvFiles {
		// Ignore missing files so a plain environment still works.
		_ = godotenv.Load(f)
	}

	c := &Config{
		ContractAddr:  strings.TrimSpace(os.Getenv(EnvContractAddr)),
		PrivateKey:    strings.TrimSpace(os.Getenv(EnvPrivateKey)),
		WalletRPCAddr: strings.TrimSpace(os.Getenv(EnvWalletRPCAddr)),
	}

	if raw := os.Getenv(EnvEndpoints); raw != "" {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				c.Endpoints = append(c.Endpoints, u)
			}
		}
	}

	if id := strings.TrimSpace(os.Getenv(EnvChainID)); id != "" {
		c.Network = Network{ChainID: id, Name: "custom"}
		if id == Sepolia.ChainID {
			c.Network = Sepolia
		}
		if id == Main.ChainID {
			c.Network = Main
		}
	}

	if raw := strings.TrimSpace(os.Getenv(EnvMaxScanID)); raw != "" {
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			c.MaxScanPolicyID = n
		}
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv(EnvDebug))) {
	case "1", "true", "yes", "on":
		c.Debug = true
	}

	return c
}
