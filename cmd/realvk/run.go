package main

import (
	"log/slog"

	"github.com/andewx/realvk"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRunCmd(opts *options) *cobra.Command {
	var frames uint64
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and render until it is closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			return run(cfg, frames)
		},
	}
	cmd.Flags().Uint64VarP(&frames, "frames", "n", 0, "stop after this many frames, 0 renders until the window closes")
	return cmd
}

func run(cfg *realvk.Config, maxFrames uint64) error {
	window, err := openWindow(cfg, true)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	r, err := realvk.NewRenderer(cfg)
	if err != nil {
		return err
	}
	defer r.Destroy()
	if err := r.Setup(window, realvk.DefaultTriangle()); err != nil {
		return errors.Wrapf(err, "setup stopped at %s", r.Phase())
	}

	camera := realvk.DefaultCamera()
	extent := r.Swapchain().Extent()
	shaderID := cfg.Pipelines[0].Shader
	var angle float32
	for !window.ShouldClose() {
		glfw.PollEvents()

		mvp := camera.MVP(extent.Width, extent.Height, angle)
		if err := r.WriteUniform(shaderID, 0, realvk.MatrixBytes(mvp)); err != nil && !errors.Is(err, realvk.ErrUnknownShader) {
			return err
		}
		angle = realvk.Spin(angle, 0.01)

		err := r.DrawFrame()
		switch {
		case errors.Is(err, realvk.ErrSwapchainSuboptimal):
			slog.Debug("swapchain suboptimal", "frame", r.Frames().FramesDrawn())
		case errors.Is(err, realvk.ErrSwapchainOutOfDate):
			slog.Warn("swapchain out of date, stopping", "frame", r.Frames().FramesDrawn())
			return nil
		case realvk.IsFatal(err):
			slog.Error("fatal frame error", "error", err)
			return err
		case err != nil:
			return err
		}
		if maxFrames > 0 && r.Frames().FramesDrawn() >= maxFrames {
			break
		}
	}
	slog.Info("frame loop done", "frames", r.Frames().FramesDrawn())
	return nil
}
