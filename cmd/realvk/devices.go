package main

import (
	"fmt"
	"os"

	"github.com/andewx/realvk"
	gu "github.com/docker/go-units"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	vk "github.com/vulkan-go/vulkan"
	"github.com/xlab/tablewriter"
)

func newDevicesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List physical devices and their queue families and memory heaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.setup()
			if err != nil {
				return err
			}
			return devices(cfg)
		},
	}
}

func devices(cfg *realvk.Config) error {
	window, err := openWindow(cfg, false)
	if err != nil {
		return err
	}
	defer glfw.Terminate()
	defer window.Destroy()

	instance, err := realvk.NewInstance(cfg, window.GetRequiredInstanceExtensions()...)
	if err != nil {
		return err
	}
	defer instance.Destroy()
	surface, err := instance.CreateSurface(window)
	if err != nil {
		return err
	}
	defer surface.Destroy()

	infos, err := instance.Devices(surface)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "\n"+deviceTable(infos))
	return nil
}

func deviceTable(infos []*realvk.DeviceInfo) string {
	table := tablewriter.CreateTable()
	table.UTF8Box()
	table.AddTitle("VULKAN PHYSICAL DEVICES")
	for i, info := range infos {
		if i > 0 {
			table.AddSeparator()
		}
		table.AddRow("Device", fmt.Sprintf("%d: %s", i, info.Name))
		table.AddRow("Type", info.TypeName())
		table.AddRow("Vendor / Device ID", fmt.Sprintf("%x / %x", info.VendorID, info.DeviceID))
		table.AddRow("API Version", vk.Version(info.APIVersion).String())
		table.AddRow("Driver Version", vk.Version(info.DriverVersion).String())
		table.AddRow("Geometry Shader", info.GeometryShader)
		table.AddRow("Tessellation Shader", info.TessellationShader)
		for _, f := range info.QueueFamilies {
			table.AddRow(fmt.Sprintf("Queue Family %d", f.Index),
				fmt.Sprintf("queues=%d graphics=%v present=%v", f.QueueCount, f.Graphics(), f.Present))
		}
		for j, h := range info.MemoryHeaps {
			kind := "host"
			if h.DeviceLocal {
				kind = "device local"
			}
			table.AddRow(fmt.Sprintf("Memory Heap %d", j), fmt.Sprintf("%s (%s)", gu.BytesSize(float64(h.Size)), kind))
		}
	}
	return table.Render()
}
