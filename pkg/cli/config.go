package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/yorozuya-cybersecurity/hipaa-audit/internal/audit"
)

const (
	keyDebug             = "debug"
	keyNavigationTimeout = "browser.navigation_timeout"
	keySettleWait        = "browser.settle_wait"
	keyUserAgent         = "browser.user_agent"
	keyHeadless          = "browser.headless"
	keyNoSandbox         = "browser.no_sandbox"
	keyChromePath        = "browser.chrome_path"
)

// loadConfig reads hipaa-audit.yaml from the working directory or
// $HOME/.config/hipaa-audit. A missing file is not an error.
func loadConfig() (*viper.Viper, error) {
	def := audit.DefaultConfig()

	v := viper.New()
	v.SetDefault(keyDebug, false)
	v.SetDefault(keyNavigationTimeout, def.NavigationTimeout)
	v.SetDefault(keySettleWait, def.SettleWait)
	v.SetDefault(keyUserAgent, def.UserAgent)
	v.SetDefault(keyHeadless, def.Browser.Headless)
	v.SetDefault(keyNoSandbox, def.Browser.NoSandbox)
	v.SetDefault(keyChromePath, "")

	v.SetConfigName("hipaa-audit")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(filepath.Join("$HOME", ".config", "hipaa-audit"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

func auditConfig(v *viper.Viper) audit.Config {
	cfg := audit.DefaultConfig()
	if d := v.GetDuration(keyNavigationTimeout); d > 0 {
		cfg.NavigationTimeout = d
	}
	if d := v.GetDuration(keySettleWait); d >= 0 {
		cfg.SettleWait = d
	}
	cfg.UserAgent = v.GetString(keyUserAgent)
	cfg.Browser.Headless = v.GetBool(keyHeadless)
	cfg.Browser.NoSandbox = v.GetBool(keyNoSandbox)
	cfg.Browser.ExecPath = v.GetString(keyChromePath)
	return cfg
}
