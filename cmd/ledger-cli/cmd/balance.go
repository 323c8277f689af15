package cmd

import (
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询账户余额",
	Long: `读取当前账户地址 (设备同时显示地址) 并查询余额。
--scan 列出 0 到当前账户的所有账户, 设备不显示地址。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		scan, _ := cmd.Flags().GetBool("scan")
		rows, err := newSigner(cmd).Balance(cmd.Context(), scan)
		if err != nil {
			return err
		}
		printBalances(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().Bool("scan", false, "列出 0..当前账户的所有账户")
}
