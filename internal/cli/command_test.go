package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type recordingRunner struct {
	calls []string
	err   error
}

func (r *recordingRunner) record(call string) error {
	r.calls = append(r.calls, call)
	return r.err
}

func (r *recordingRunner) Serve(_ context.Context, addr string) error {
	return r.record("serve " + addr)
}

func (r *recordingRunner) Translate(_ context.Context, text, from, to string) error {
	return r.record("translate " + text + " " + from + "->" + to)
}

func (r *recordingRunner) Detect(_ context.Context, text string) error {
	return r.record("detect " + text)
}

func (r *recordingRunner) Check(context.Context) error {
	return r.record("check")
}

func (r *recordingRunner) ListModels(context.Context) error {
	return r.record("list-models")
}

func (r *recordingRunner) DetectPending(context.Context) error {
	return r.record("detect-pending")
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)

	cmd := CreateRootCommand(NewFlags(), &recordingRunner{})

	if cmd.Use != "posttranslate" {
		t.Errorf("Expected Use to be 'posttranslate', got %s", cmd.Use)
	}

	if !strings.Contains(cmd.Short, "Machine translation") {
		t.Errorf("Expected Short description to mention machine translation, got %s", cmd.Short)
	}

	for _, name := range []string{"config", "provider", "locale", "verbose"} {
		t.Run("flag_"+name, func(t *testing.T) {
			var flag *pflag.Flag = cmd.PersistentFlags().Lookup(name)
			if flag == nil {
				t.Errorf("Expected persistent flag %s to exist", name)
			}
		})
	}

	for _, name := range []string{"serve", "translate", "detect", "check", "list-models", "detect-pending"} {
		t.Run("command_"+name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			if err != nil || sub == cmd {
				t.Errorf("Expected subcommand %s to exist", name)
			}
		})
	}
}

func TestSubcommandsDispatch(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"serve default addr", []string{"serve"}, "serve :8080"},
		{"serve custom addr", []string{"serve", "--addr", ":9090"}, "serve :9090"},
		{"translate default locale", []string{"translate", "Guten Tag"}, "translate Guten Tag ->en"},
		{"translate with locale and source", []string{"translate", "Guten Tag", "--locale", "fr", "--from", "de"}, "translate Guten Tag de->fr"},
		{"detect", []string{"detect", "Bonjour"}, "detect Bonjour"},
		{"check", []string{"check"}, "check"},
		{"list models", []string{"list-models"}, "list-models"},
		{"detect pending", []string{"detect-pending"}, "detect-pending"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			runner := &recordingRunner{}
			cmd := CreateRootCommand(NewFlags(), runner)
			cmd.SetArgs(tt.args)

			if err := cmd.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(runner.calls) != 1 || runner.calls[0] != tt.expected {
				t.Errorf("Expected call %q, got %v", tt.expected, runner.calls)
			}
		})
	}
}

func TestSubcommandArgs(t *testing.T) {
	resetViper(t)

	runner := &recordingRunner{}
	cmd := CreateRootCommand(NewFlags(), runner)
	cmd.SetArgs([]string{"translate"})
	cmd.SetErr(&strings.Builder{})

	if err := cmd.Execute(); err == nil {
		t.Error("Expected error for translate without text")
	}
	if len(runner.calls) != 0 {
		t.Errorf("Runner should not be called, got %v", runner.calls)
	}
}

func TestRunnerErrorPropagates(t *testing.T) {
	resetViper(t)

	runner := &recordingRunner{err: errors.New("boom")}
	cmd := CreateRootCommand(NewFlags(), runner)
	cmd.SetArgs([]string{"check"})
	cmd.SetErr(&strings.Builder{})

	if err := cmd.Execute(); err == nil || err.Error() != "boom" {
		t.Errorf("Expected runner error, got %v", err)
	}
}

func TestSetupFlags(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	setupFlags(cmd, NewFlags())

	providerFlag := cmd.PersistentFlags().Lookup("provider")
	if providerFlag == nil {
		t.Fatal("provider flag not found")
	}
	if providerFlag.DefValue != "Microsoft" {
		t.Errorf("Expected default provider to be Microsoft, got %s", providerFlag.DefValue)
	}

	localeFlag := cmd.PersistentFlags().Lookup("locale")
	if localeFlag == nil {
		t.Fatal("locale flag not found")
	}
	if localeFlag.Shorthand != "l" {
		t.Errorf("Expected locale shorthand l, got %s", localeFlag.Shorthand)
	}
}

func TestBindFlagsToViper(t *testing.T) {
	resetViper(t)

	cmd := &cobra.Command{}
	setupFlags(cmd, NewFlags())

	cmd.PersistentFlags().Set("provider", "Google")
	cmd.PersistentFlags().Set("locale", "de")
	cmd.PersistentFlags().Set("verbose", "true")

	if viper.GetString("translator.provider") != "Google" {
		t.Errorf("Expected translator.provider to be Google, got %s", viper.GetString("translator.provider"))
	}
	if viper.GetString("translator.default_locale") != "de" {
		t.Errorf("Expected translator.default_locale to be de, got %s", viper.GetString("translator.default_locale"))
	}
	if !viper.GetBool("translator.verbose_logs") {
		t.Error("Expected translator.verbose_logs to be true")
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(t *testing.T) string
		check     func(t *testing.T)
	}{
		{
			name: "with config file",
			setupFunc: func(t *testing.T) string {
				cfgPath := filepath.Join(t.TempDir(), "test-config.yaml")
				content := `translator:
  enabled: true
  provider: Yandex
yandex:
  api_key: test-key`
				if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
				return cfgPath
			},
			check: func(t *testing.T) {
				if viper.GetString("translator.provider") != "Yandex" {
					t.Errorf("Expected provider Yandex, got %s", viper.GetString("translator.provider"))
				}
				if viper.GetString("yandex.api_key") != "test-key" {
					t.Errorf("Expected yandex.api_key test-key, got %s", viper.GetString("yandex.api_key"))
				}
			},
		},
		{
			name: "without config file",
			setupFunc: func(t *testing.T) string {
				return ""
			},
			check: func(t *testing.T) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			InitConfig(tt.setupFunc(t))
			tt.check(t)

			t.Setenv("POSTTRANSLATE_TEST_VAR", "test-value")
			if viper.GetString("test_var") != "test-value" {
				t.Error("Environment variable not properly loaded")
			}

			t.Setenv("POSTTRANSLATE_TRANSLATOR_DETECT_BATCH_SIZE", "7")
			if viper.GetInt("translator.detect_batch_size") != 7 {
				t.Errorf("Expected nested key from environment, got %d", viper.GetInt("translator.detect_batch_size"))
			}
		})
	}
}
