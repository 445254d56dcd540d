package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/SupremaLex/DummyDEX/internal/arith"
	"github.com/SupremaLex/DummyDEX/internal/units"
)

func newTokenCmd() *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Manage simulated tokens",
	}
	addSimulationFlags(tokenCmd.PersistentFlags())

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a token and mint its whole supply to an account",
		RunE:  runTokenInit,
	}
	initCmd.Flags().String("from", "", "owner receiving the supply")
	initCmd.Flags().String("asset", "", "token address")
	initCmd.Flags().String("supply", "", "total supply in token units")

	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Increase the allowance of a spender",
		RunE:  runTokenApprove,
	}
	approveCmd.Flags().String("from", "", "token owner")
	approveCmd.Flags().String("asset", "", "token address")
	approveCmd.Flags().String("spender", "", "spender address")
	approveCmd.Flags().String("amount", "", "allowance increase in token units")

	transferCmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer tokens between accounts",
		RunE:  runTokenTransfer,
	}
	transferCmd.Flags().String("from", "", "sender")
	transferCmd.Flags().String("asset", "", "token address")
	transferCmd.Flags().String("to", "", "recipient")
	transferCmd.Flags().String("amount", "", "amount in token units")

	balanceCmd := &cobra.Command{
		Use:   "balance",
		Short: "Show the balance of an account",
		RunE:  runTokenBalance,
	}
	balanceCmd.Flags().String("asset", "", "token address")
	balanceCmd.Flags().String("account", "", "account address")

	tokenCmd.AddCommand(initCmd, approveCmd, transferCmd, balanceCmd)
	return tokenCmd
}

func runTokenInit(cmd *cobra.Command, _ []string) error {
	owner, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	asset, err := addressFlag(cmd, "asset")
	if err != nil {
		return err
	}
	supplyText, _ := cmd.Flags().GetString("supply")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		supply, err := units.ParseAmount(supplyText, sim.cfg.Decimals)
		if err != nil {
			return fmt.Errorf("parse supply: %w", err)
		}
		if err := sim.ledger.Init(ctx, owner, asset, supply, sim.cfg.Decimals); err != nil {
			return err
		}
		sim.logger.Info("token initialized",
			zap.String("asset", asset.Hex()),
			zap.String("owner", owner.Hex()),
			zap.String("supply", arith.String(supply)),
			zap.Uint8("decimals", sim.cfg.Decimals),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "token %s supply %s\n", asset.Hex(), sim.format(ctx, asset, supply))
		return nil
	})
}

func runTokenApprove(cmd *cobra.Command, _ []string) error {
	owner, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	asset, err := addressFlag(cmd, "asset")
	if err != nil {
		return err
	}
	spender, err := addressFlag(cmd, "spender")
	if err != nil {
		return err
	}
	amountText, _ := cmd.Flags().GetString("amount")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		amount, err := sim.amount(ctx, asset, amountText)
		if err != nil {
			return err
		}
		if err := sim.ledger.Approve(ctx, asset, owner, spender, amount); err != nil {
			return err
		}
		allowance, err := sim.ledger.Allowance(ctx, asset, owner, spender)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "allowance %s\n", sim.format(ctx, asset, allowance))
		return nil
	})
}

func runTokenTransfer(cmd *cobra.Command, _ []string) error {
	from, err := addressFlag(cmd, "from")
	if err != nil {
		return err
	}
	asset, err := addressFlag(cmd, "asset")
	if err != nil {
		return err
	}
	to, err := addressFlag(cmd, "to")
	if err != nil {
		return err
	}
	amountText, _ := cmd.Flags().GetString("amount")

	return mutate(cmd, func(ctx context.Context, sim *simulation) error {
		amount, err := sim.amount(ctx, asset, amountText)
		if err != nil {
			return err
		}
		if err := sim.ledger.Transfer(ctx, asset, from, to, amount); err != nil {
			return err
		}
		balance, err := sim.ledger.BalanceOf(ctx, asset, from)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sender balance %s\n", sim.format(ctx, asset, balance))
		return nil
	})
}

func runTokenBalance(cmd *cobra.Command, _ []string) error {
	asset, err := addressFlag(cmd, "asset")
	if err != nil {
		return err
	}
	account, err := addressFlag(cmd, "account")
	if err != nil {
		return err
	}

	return inspect(cmd, func(ctx context.Context, sim *simulation) error {
		balance, err := sim.ledger.BalanceOf(ctx, asset, account)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", sim.format(ctx, asset, balance))
		return nil
	})
}
