// Command agrishield-cli is a terminal client for the AgriShield crop
// insurance contract: pool statistics, policy discovery, policy creation,
// pool investment and live event watching.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agrishield/agrishield-sdk-go/pkg/config"
	"github.com/agrishield/agrishield-sdk-go/pkg/sdk"
)

var (
	flagEnvFile  string
	flagContract string
	flagRPC      string
	flagKey      string
	flagChainID  string
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "agrishield-cli",
	Short: "AgriShield crop insurance client",
	Long: `agrishield-cli talks to the AgriShield crop insurance contract.

Configuration is read from the environment (optionally a .env file) and can
be overridden per invocation with flags:

  AGRISHIELD_CONTRACT_ADDRESS   contract address (required)
  AGRISHIELD_RPC_ENDPOINTS     comma-separated fallback RPC endpoints
  AGRISHIELD_PRIVATE_KEY       hex private key; omit for read-only access
  AGRISHIELD_CHAIN_ID          target chain id (default Sepolia)`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagEnvFile, "env-file", "", "load environment from this .env file")
	pf.StringVar(&flagContract, "contract", "", "AgriShield contract address")
	pf.StringVar(&flagRPC, "rpc", "", "comma-separated RPC endpoints")
	pf.StringVar(&flagKey, "key", "", "hex private key enabling write operations")
	pf.StringVar(&flagChainID, "chain-id", "", "target chain id")
	pf.BoolVar(&flagDebug, "debug", false, "verbose logging")

	rootCmd.AddCommand(
		statsCmd,
		policiesCmd,
		policyCmd,
		balanceCmd,
		ownerCmd,
		infoCmd,
		createPolicyCmd,
		investCmd,
		claimRewardsCmd,
		watchCmd,
	)
}

// loadConfig merges env configuration with command-line overrides.
func loadConfig() *config.Config {
	var files []string
	if flagEnvFile != "" {
		files = append(files, flagEnvFile)
	}
	cfg := config.FromEnv(files...)
	if flagContract != "" {
		cfg.ContractAddr = flagContract
	}
	if flagRPC != "" {
		cfg.Endpoints = strings.Split(flagRPC, ",")
		cfg.WalletRPCAddr = ""
	}
	if flagKey != "" {
		cfg.PrivateKey = flagKey
	}
	if flagChainID != "" {
		cfg.Network = config.Network{ChainID: flagChainID, Name: "custom"}
	}
	if flagDebug {
		cfg.Debug = true
	}
	return cfg
}

// withSDK builds the client, connects, runs fn and releases everything.
func withSDK(ctx context.Context, fn func(client sdk.AgriShieldSDK) error) error {
	client := sdk.NewSDK(loadConfig())
	defer client.Close()

	if _, err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return fn(client)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
