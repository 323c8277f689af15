package cmd

import (
	"fmt"
	"os"

	"helium-ledger/internal/service"
	"helium-ledger/pkg/config"
	"helium-ledger/pkg/errno"
	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/ledger"
	"helium-ledger/pkg/logger"
	"helium-ledger/pkg/wallet/types"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd 代表基础命令，没有子命令时直接调用
var rootCmd = &cobra.Command{
	Use:   "ledger-cli",
	Short: "Helium Ledger 硬件钱包命令行工具",
	Long: `通过 Ledger 设备上的 Helium 应用签名并提交交易。
支持支付、验证人质押 / 解除质押，以及双方共同签名的质押转移。`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return err
		}
		logger.Init(config.Global.App.Env, config.Global.App.Verbose)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute 将所有子命令添加到根命令并设置标志
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		code, msg := errno.Decode(err)
		fmt.Fprintf(os.Stderr, "Error: %s (code %d)\n", msg, code)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "配置文件 (默认搜索 ./config.yaml, ./config/, $HOME/.helium-ledger/)")
	flags.Uint8P("account", "a", 0, "Ledger 账户序号")
	flags.Bool("emulator", false, "连接 Speculos 模拟器而不是 USB 设备")
	flags.String("emulator-addr", ledger.DefaultEmulatorAddr, "模拟器 APDU 地址")
	flags.BoolP("verbose", "v", false, "输出调试日志")

	_ = viper.BindPFlag("ledger.account", flags.Lookup("account"))
	_ = viper.BindPFlag("ledger.emulator", flags.Lookup("emulator"))
	_ = viper.BindPFlag("ledger.emulator_addr", flags.Lookup("emulator-addr"))
	_ = viper.BindPFlag("app.verbose", flags.Lookup("verbose"))
}

func newTransport() ledger.Transport {
	if config.Global.Ledger.Emulator {
		return ledger.NewTCPTransport(config.Global.Ledger.EmulatorAddr)
	}
	return ledger.NewHIDTransport(config.Global.Ledger.HIDIndex)
}

func newAPIs() service.APIFactory {
	return service.HTTPAPIs(heliumapi.URLs{
		MainNet: config.Global.API.MainNetURL,
		TestNet: config.Global.API.TestNetURL,
	}, config.Global.API.Timeout)
}

// newSigner builds the signer for CLI use: the proposal is printed before every device
// prompt.
func newSigner(cmd *cobra.Command) *service.Signer {
	return newSignerWith(cmd, newAPIs())
}

func newSignerWith(cmd *cobra.Command, apis service.APIFactory) *service.Signer {
	out := cmd.OutOrStdout()
	return service.NewSigner(newTransport(), apis, service.Options{
		Account:       config.Global.Ledger.Account,
		DeviceTimeout: config.Global.Ledger.Timeout,
		OnProposal: func(txn types.Txn) {
			printProposal(out, txn)
		},
	})
}
