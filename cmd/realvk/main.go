// Command realvk drives the renderer in a GLFW window and reports the GPUs
// Vulkan can see.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/andewx/realvk"
	"github.com/andewx/realvk/internal/logx"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

type options struct {
	config  string
	verbose bool
	noColor bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "realvk:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "realvk",
		Short:         "Minimal real-time Vulkan renderer",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "TOML or YAML configuration file")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored log levels")
	root.AddCommand(newRunCmd(opts), newDevicesCmd(opts))
	return root
}

// setup loads the configuration and installs the logger.
func (o *options) setup() (*realvk.Config, error) {
	cfg := realvk.DefaultConfig()
	if o.config != "" {
		loaded, err := realvk.LoadConfig(o.config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(logx.NewHandler(os.Stderr, &logx.Options{
		Level:   level,
		NoColor: o.noColor,
	}))
	slog.SetDefault(logger)
	realvk.SetLogger(logger)
	return cfg, nil
}

// openWindow initializes GLFW and opens a window without a client API.
func openWindow(cfg *realvk.Config, visible bool) (*glfw.Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "glfw init")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.Wrap(realvk.ErrInitFailed, "glfw reports no Vulkan loader")
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	if !visible {
		glfw.WindowHint(glfw.Visible, glfw.False)
	}
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "create window")
	}
	return window, nil
}
