package cmd

import (
	"os"

	"helium-ledger/internal/service"
	"helium-ledger/pkg/address"
	"helium-ledger/pkg/wallet/types"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var validatorCmd = &cobra.Command{
	Use:   "validator",
	Short: "验证人质押相关操作",
}

var stakeCmd = &cobra.Command{
	Use:   "stake <validator> <stake>",
	Short: "质押验证人",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		validator, err := address.Parse(args[0])
		if err != nil {
			return err
		}
		stake, err := types.ParseAmount(args[1])
		if err != nil {
			return err
		}
		out, err := newSigner(cmd).StakeValidator(cmd.Context(), service.StakeRequest{Validator: validator, Stake: stake})
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

var (
	unstakeAmount types.Amount
	unstakeFee    uint64
)

var unstakeCmd = &cobra.Command{
	Use:   "unstake <validator>",
	Short: "解除验证人质押",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		validator, err := address.Parse(args[0])
		if err != nil {
			return err
		}
		height, _ := cmd.Flags().GetUint64("stake-release-height")
		req := service.UnstakeRequest{Validator: validator, StakeReleaseHeight: height}
		if cmd.Flags().Changed("stake-amount") {
			req.StakeAmount = &unstakeAmount
		}
		if cmd.Flags().Changed("fee") {
			req.Fee = &unstakeFee
		}
		out, err := newSigner(cmd).UnstakeValidator(cmd.Context(), req)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "质押转移 (需要新旧 owner 双方签名)",
}

var transferFlags struct {
	oldAddress, newAddress string
	oldOwner, newOwner     string
	payment, stakeAmount   types.Amount
}

var transferCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "发起质押转移",
	Long: `签名质押转移。当前账户同时是新旧 owner 时直接提交,
否则输出信封, 由对方通过 'validator transfer accept' 补签并提交。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			req service.TransferRequest
			err error
		)
		if req.OldAddress, err = address.Parse(transferFlags.oldAddress); err != nil {
			return err
		}
		if req.NewAddress, err = address.Parse(transferFlags.newAddress); err != nil {
			return err
		}
		if transferFlags.oldOwner != "" {
			a, err := address.Parse(transferFlags.oldOwner)
			if err != nil {
				return err
			}
			req.OldOwner = &a
		}
		if transferFlags.newOwner != "" {
			a, err := address.Parse(transferFlags.newOwner)
			if err != nil {
				return err
			}
			req.NewOwner = &a
		}
		req.Payment = transferFlags.payment
		if cmd.Flags().Changed("stake-amount") {
			req.StakeAmount = &transferFlags.stakeAmount
		}

		out, err := newSigner(cmd).CreateTransfer(cmd.Context(), req)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

var transferAcceptCmd = &cobra.Command{
	Use:   "accept [envelope]",
	Short: "补签并提交对方发来的质押转移",
	Long:  `信封可以作为参数传入, 也可以从标准输入读取。`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var envelope string
		if len(args) == 1 {
			envelope = args[0]
		} else {
			tty := term.IsTerminal(int(os.Stdin.Fd()))
			var err error
			if envelope, err = readEnvelope(cmd.InOrStdin(), cmd.ErrOrStderr(), tty); err != nil {
				return err
			}
		}
		out, err := newSigner(cmd).AcceptTransfer(cmd.Context(), envelope)
		if err != nil {
			return err
		}
		printOutcome(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validatorCmd)
	validatorCmd.AddCommand(stakeCmd, unstakeCmd, transferCmd)
	transferCmd.AddCommand(transferCreateCmd, transferAcceptCmd)

	unstakeCmd.Flags().Var(&unstakeAmount, "stake-amount", "解除的质押数量 (默认查询验证人当前质押)")
	unstakeCmd.Flags().Uint64("stake-release-height", 0, "质押释放高度")
	unstakeCmd.Flags().Uint64Var(&unstakeFee, "fee", 0, "手动指定手续费 (DC), 不指定时按链上参数计算")
	_ = unstakeCmd.MarkFlagRequired("stake-release-height")

	f := transferCreateCmd.Flags()
	f.StringVar(&transferFlags.oldAddress, "old-address", "", "原验证人地址")
	f.StringVar(&transferFlags.newAddress, "new-address", "", "新验证人地址")
	f.StringVar(&transferFlags.oldOwner, "old-owner", "", "原 owner (默认当前账户)")
	f.StringVar(&transferFlags.newOwner, "new-owner", "", "新 owner (默认当前账户)")
	f.Var(&transferFlags.payment, "payment", "新 owner 支付给原 owner 的金额")
	f.Var(&transferFlags.stakeAmount, "stake-amount", "转移的质押数量 (默认查询验证人当前质押)")
	_ = transferCreateCmd.MarkFlagRequired("old-address")
	_ = transferCreateCmd.MarkFlagRequired("new-address")
}
