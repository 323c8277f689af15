package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/ledger"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Ledger LedgerConfig `mapstructure:"ledger"`
	API    APIConfig    `mapstructure:"api"`
	Server ServerConfig `mapstructure:"server"`
}

type AppConfig struct {
	Env     string `mapstructure:"env"`
	Verbose bool   `mapstructure:"verbose"`
}

type LedgerConfig struct {
	Account      uint8         `mapstructure:"account"`
	Emulator     bool          `mapstructure:"emulator"`      // 使用 Speculos 模拟器 (TCP) 代替 USB 设备
	EmulatorAddr string        `mapstructure:"emulator_addr"` // 模拟器 APDU 端口
	HIDIndex     int           `mapstructure:"hid_index"`     // 多台设备时选择第几台
	Timeout      time.Duration `mapstructure:"timeout"`       // 单次设备交互上限, 0 表示不限制
}

type APIConfig struct {
	MainNetURL string        `mapstructure:"mainnet_url"`
	TestNetURL string        `mapstructure:"testnet_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	// FeeCacheTTL 缓存链上手续费参数的时间 (仅 serve 模式), 0 表示不缓存
	FeeCacheTTL time.Duration `mapstructure:"fee_cache_ttl"`
}

type ServerConfig struct {
	HttpPort string `mapstructure:"http_port"`
}

var Global Config

// Init loads config.yaml (or cfgFile when given), environment variables such as
// LEDGER_ACCOUNT, and any flags bound beforehand with viper.BindPFlag.
func Init(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".helium-ledger"))
		}
	}

	// 环境变量设置
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// 未找到配置文件时使用默认值和环境变量; 显式指定的文件必须存在
		if !errors.As(err, &notFound) || cfgFile != "" {
			return fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("config: unable to decode: %w", err)
	}
	Global = cfg
	return nil
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.verbose", false)

	viper.SetDefault("ledger.account", 0)
	viper.SetDefault("ledger.emulator", false)
	viper.SetDefault("ledger.emulator_addr", ledger.DefaultEmulatorAddr)
	viper.SetDefault("ledger.hid_index", 0)
	viper.SetDefault("ledger.timeout", time.Duration(0))

	viper.SetDefault("api.mainnet_url", heliumapi.DefaultMainNetURL)
	viper.SetDefault("api.testnet_url", heliumapi.DefaultTestNetURL)
	viper.SetDefault("api.timeout", heliumapi.DefaultTimeout)
	viper.SetDefault("api.fee_cache_ttl", time.Duration(0))

	viper.SetDefault("server.http_port", "8080")
}
