package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/agrishield/agrishield-sdk-go/pkg/blockchain"
	"github.com/agrishield/agrishield-sdk-go/pkg/model"
	"github.com/agrishield/agrishield-sdk-go/pkg/sdk"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pool statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			res, err := client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if !res.IsLive() {
				fmt.Fprintln(os.Stderr, "warning: chain read failed, showing demonstration data")
			}
			return printJSON(res)
		})
	},
}

var policiesCmd = &cobra.Command{
	Use:   "policies [address]",
	Short: "List the policies owned by an address",
	Long: `List the policies owned by an address. Without an argument the
configured wallet account is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var farmer common.Address
		if len(args) == 1 {
			if !common.IsHexAddress(args[0]) {
				return fmt.Errorf("invalid address %q", args[0])
			}
			farmer = common.HexToAddress(args[0])
		}
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			records, err := client.UserPolicies(cmd.Context(), farmer)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no policies found")
				return nil
			}
			for _, rec := range records {
				printPolicy(rec)
			}
			return nil
		})
	},
}

var policyCmd = &cobra.Command{
	Use:   "policy <id>",
	Short: "Show one policy by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, ok := new(big.Int).SetString(args[0], 10)
		if !ok {
			return fmt.Errorf("invalid policy id %q", args[0])
		}
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			rec, err := client.PolicyDetail(cmd.Context(), id)
			if err != nil {
				return err
			}
			printPolicy(rec)
			return nil
		})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet account balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			wei, err := client.Balance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("%s ETH (%s wei)\n", blockchain.FormatEther(wei), wei)
			return nil
		})
	},
}

var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Show the contract owner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			owner, err := client.Owner(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(owner.Hex())
			return nil
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show connection details",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			return printJSON(client.ConnectionInfo())
		})
	},
}

var createPolicyLocation string

func init() {
	createPolicyCmd.Flags().StringVar(&createPolicyLocation, "location", "", "farm location recorded with the policy")
}

var createPolicyCmd = &cobra.Command{
	Use:   "create-policy <crop> <coverage-eth>",
	Short: "Create an insurance policy",
	Long: `Create an insurance policy for the given crop and coverage amount.
The premium is 5% of the coverage and is attached to the transaction
automatically.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		crop := args[0]
		coverage, err := blockchain.EthToWei(args[1])
		if err != nil {
			return fmt.Errorf("invalid coverage amount %q: %w", args[1], err)
		}
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			var tx interface {
				Hash() common.Hash
			}
			var txErr error
			if createPolicyLocation != "" {
				tx, txErr = client.CreatePolicyWithLocation(cmd.Context(), crop, coverage, createPolicyLocation)
			} else {
				tx, txErr = client.CreatePolicy(cmd.Context(), crop, coverage)
			}
			if txErr != nil {
				return txErr
			}
			fmt.Printf("submitted: %s\n", tx.Hash().Hex())
			fmt.Printf("premium: %s ETH\n", blockchain.FormatEther(model.PremiumFor(coverage)))
			return nil
		})
	},
}

var investCmd = &cobra.Command{
	Use:   "invest <amount-eth>",
	Short: "Invest in the insurance capital pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := blockchain.EthToWei(args[0])
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			tx, err := client.InvestInPool(cmd.Context(), amount)
			if err != nil {
				return err
			}
			fmt.Printf("submitted: %s\n", tx.Hash().Hex())
			receipt, err := client.WaitMined(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Printf("mined in block %d\n", receipt.BlockNumber)
			return nil
		})
	},
}

var claimRewardsCmd = &cobra.Command{
	Use:   "claim-rewards",
	Short: "Claim accumulated investor rewards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			tx, err := client.ClaimInvestorRewards(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("submitted: %s\n", tx.Hash().Hex())
			receipt, err := client.WaitMined(cmd.Context(), tx)
			if err != nil {
				return err
			}
			fmt.Printf("mined in block %d\n", receipt.BlockNumber)
			return nil
		})
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch contract events until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSDK(cmd.Context(), func(client sdk.AgriShieldSDK) error {
			if !client.SubscribeUpdates(func() {
				fmt.Println("contract state changed")
			}) {
				return fmt.Errorf("event watching needs a writable session over a websocket endpoint")
			}
			defer client.UnsubscribeUpdates()

			fmt.Println("watching, ctrl-c to stop")
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-cmd.Context().Done():
			}
			return nil
		})
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func printPolicy(rec model.PolicyRecord) {
	fmt.Printf("policy #%s  %-8s  %s\n", rec.PolicyID, rec.Status, rec.CropType)
	if rec.Partial {
		fmt.Printf("  location: %s (partial record, numbers unavailable)\n", rec.Location)
		return
	}
	fmt.Printf("  coverage: %s ETH  premium: %s ETH\n",
		blockchain.FormatEther(rec.CoverageAmount), blockchain.FormatEther(rec.Premium))
	if rec.Location != "" {
		fmt.Printf("  location: %s\n", rec.Location)
	}
	fmt.Printf("  window:   %s .. %s\n",
		rec.StartTime.Format("2006-01-02"), rec.EndTime.Format("2006-01-02"))
	if rec.Claimed {
		fmt.Printf("  claimed:  %s ETH\n", blockchain.FormatEther(rec.ClaimAmount))
	}
	if !rec.OwnerVerified {
		fmt.Println("  ownership unverified")
	}
}
