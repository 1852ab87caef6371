package realvk

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

func createDebugCallback(instance vk.Instance) (vk.DebugReportCallback, error) {
	var callback vk.DebugReportCallback
	ret := vk.CreateDebugReportCallback(instance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: dbgCallbackFunc,
	}, nil, &callback)
	if err := newError(ret); err != nil {
		return vk.NullDebugReportCallback, errors.Wrap(err, "create debug report callback")
	}
	Logger().Info("vulkan: debug report callback enabled")
	return callback, nil
}

// debugReportLevel maps report flags onto a log level, most severe first.
func debugReportLevel(flags vk.DebugReportFlags) slog.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return slog.LevelError
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0,
		flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		return slog.LevelWarn
	case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	performance := flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0
	Logger().Log(context.Background(), debugReportLevel(flags), "vulkan: "+pMessage,
		"layer", pLayerPrefix,
		"code", messageCode,
		"performance", performance)
	return vk.Bool32(vk.False)
}
