package cmd

import (
	"helium-ledger/internal/service"
	"helium-ledger/pkg/address"
	"helium-ledger/pkg/wallet/types"

	"github.com/spf13/cobra"
)

var payCmd = &cobra.Command{
	Use:   "pay <address> <amount>",
	Short: "支付 (金额单位为 HNT, 最多 8 位小数)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		payee, err := address.Parse(args[0])
		if err != nil {
			return err
		}
		amount, err := types.ParseAmount(args[1])
		if err != nil {
			return err
		}
		out, err := newSigner(cmd).Pay(cmd.Context(), service.PayRequest{Payee: payee, Amount: amount})
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(payCmd)
}
