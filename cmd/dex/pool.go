package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/SupremaLex/DummyDEX/internal/arith"
)

func newPoolCmd() *cobra.Command {
	poolCmd := &cobra.Command{
		Use:   "pool",
		Short: "Operate the simulated pool",
	}
	addSimulationFlags(poolCmd.PersistentFlags())

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create the pool from two initial amounts",
		RunE:  runPoolInit,
	}
	initCmd.Flags().String("from", "", "caller providing the liquidity")
	initCmd.Flags().String("pool", "", "pool account holding the reserves")
	initCmd.Flags().String("asset-a", "", "first asset")
	initCmd.Flags().String("amount-a", "", "amount of the first asset")
	initCmd.Flags().String("asset-b", "", "second asset")
	initCmd.Flags().String("amount-b", "", "amount of the second asset")

	buyCmd := &cobra.Command{
		Use:   "buy",
		Short: "Swap an input asset for the other pool asset",
		RunE:  runPoolBuy,
	}
	buyCmd.Flags().String("from", "", "caller")
	buyCmd.Flags().String("asset-in", "", "asset sold to the pool")
	buyCmd.Flags().String("amount", "", "amount sold")

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Add liquidity",
		RunE:  runPoolDeposit,
	}
	depositCmd.Flags().String("from", "", "caller")
	depositCmd.Flags().String("asset-in", "", "asset the amount is given in")
	depositCmd.Flags().String("amount", "", "deposit amount")
	depositCmd.Flags().Bool("single", false, "deposit only asset-in, swapping part of it")

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Remove liquidity",
		RunE:  runPoolWithdraw,
	}
	withdrawCmd.Flags().String("from", "", "caller")
	withdrawCmd.Flags().Uint32("percent", 0, "percentage of the caller's shares (1-100)")
	withdrawCmd.Flags().String("asset", "", "take the whole withdrawal in this asset")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print pool state",
		RunE:  runPoolShow,
	}

	poolCmd.AddCommand(initCmd, buyCmd, depositCmd, withdrawCmd, showCmd)
	return poolCmd
}

func runPoolInit(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	poolAccount, err := addressFlag(cmd, "pool")
	if err != nil {
		return err
	}
	assetA, err := addressFlag(cmd, "asset-a")
	if err != nil {
		return err
	}
	assetB, err := addressFlag(cmd, "asset-b")
	if err != nil {
		return err
	}
	amountAText, _ := cmd.Flags().GetString("amount-a")
	amountBText, _ := cmd.Flags().GetString("amount-b")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		amountA, err := sim.amount(ctx, assetA, amountAText)
		if err != nil {
			return err
		}
		amountB, err := sim.amount(ctx, assetB, amountBText)
		if err != nil {
			return err
		}
		if err := sim.pool.Init(ctx, caller, poolAccount, assetA, amountA, assetB, amountB); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pool %s shares %s\n", poolAccount.Hex(), arith.String(sim.pool.TotalShares()))
		return nil
	})
}

func runPoolBuy(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	assetIn, err := addressFlag(cmd, "asset-in")
	if err != nil {
		return err
	}
	amountText, _ := cmd.Flags().GetString("amount")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		amount, err := sim.amount(ctx, assetIn, amountText)
		if err != nil {
			return err
		}
		assetOut, err := otherAsset(sim, assetIn)
		if err != nil {
			return err
		}
		out, err := sim.pool.BuyToken(ctx, caller, assetIn, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "bought %s of %s\n", sim.format(ctx, assetOut, out), assetOut.Hex())
		return nil
	})
}

func runPoolDeposit(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	assetIn, err := addressFlag(cmd, "asset-in")
	if err != nil {
		return err
	}
	amountText, _ := cmd.Flags().GetString("amount")
	single, _ := cmd.Flags().GetBool("single")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		amount, err := sim.amount(ctx, assetIn, amountText)
		if err != nil {
			return err
		}
		deposit := sim.pool.Deposit
		if single {
			deposit = sim.pool.DepositSingleToken
		}
		shares, err := deposit(ctx, caller, assetIn, amount)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "minted %s shares\n", arith.String(shares))
		return nil
	})
}

func runPoolWithdraw(cmd *cobra.Command, _ []string) error {
	caller, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	percent, _ := cmd.Flags().GetUint32("percent")
	assetText, _ := cmd.Flags().GetString("asset")

	var assetOut common.Address
	if assetText != "" {
		if assetOut, err = parseAddress("asset", assetText); err != nil {
			return err
		}
	}

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		if assetText != "" {
			out, err := sim.pool.WithdrawSingleToken(ctx, caller, assetOut, percent)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s of %s\n", sim.format(ctx, assetOut, out), assetOut.Hex())
			return nil
		}

		w, err := sim.pool.Withdraw(ctx, caller, percent)
		if err != nil {
			return err
		}
		assetA, assetB, err := sim.pool.TokenIDs()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "withdrew %s of %s and %s of %s, burned %s shares\n",
			sim.format(ctx, assetA, w.AmountA), assetA.Hex(),
			sim.format(ctx, assetB, w.AmountB), assetB.Hex(),
			arith.String(w.Shares))
		return nil
	})
}

type providerView struct {
	Account common.Address `json:"account"`
	Shares  string         `json:"shares"`
	Share   string         `json:"share"`
}

type poolView struct {
	Address       common.Address `json:"address"`
	AssetA        common.Address `json:"asset_a"`
	AssetB        common.Address `json:"asset_b"`
	ReserveA      string         `json:"reserve_a"`
	ReserveB      string         `json:"reserve_b"`
	TotalShares   string         `json:"total_shares"`
	TotalReward   string         `json:"total_reward,omitempty"`
	LiquidityMode string         `json:"liquidity_mode"`
	Providers     []providerView `json:"providers"`
}

func runPoolShow(cmd *cobra.Command, _ []string) error {
	return inspect(cmd, func(ctx context.Context, sim *simulation) error {
		address, err := sim.pool.Address()
		if err != nil {
			return err
		}
		assetA, assetB, err := sim.pool.TokenIDs()
		if err != nil {
			return err
		}
		reserveA, reserveB, err := sim.pool.Reserves(ctx)
		if err != nil {
			return err
		}

		view := poolView{
			Address:       address,
			AssetA:        assetA,
			AssetB:        assetB,
			ReserveA:      sim.format(ctx, assetA, reserveA),
			ReserveB:      sim.format(ctx, assetB, reserveB),
			TotalShares:   arith.String(sim.pool.TotalShares()),
			LiquidityMode: sim.cfg.LiquidityMode.String(),
		}
		// The reward is only defined while reserves cover the minted shares.
		if reward, err := sim.pool.TotalReward(ctx); err == nil {
			view.TotalReward = arith.String(reward)
		}
		for _, account := range sim.pool.Providers() {
			view.Providers = append(view.Providers, providerView{
				Account: account,
				Shares:  arith.String(sim.pool.LiquidityOf(account)),
				Share:   sim.pool.PoolShare(account).String(),
			})
		}

		out, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	})
}

func otherAsset(sim *simulation, asset common.Address) (common.Address, error) {
	assetA, assetB, err := sim.pool.TokenIDs()
	if err != nil {
		return common.Address{}, err
	}
	if asset == assetA {
		return assetB, nil
	}
	return assetA, nil
}
