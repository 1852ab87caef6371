package realvk

import (
	"os"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// checkShaderCode rejects code that is not whole SPIR-V words.
func checkShaderCode(code []byte) error {
	if len(code) == 0 || len(code)%4 != 0 {
		return errors.Wrapf(ErrInvalidShaderCode, "got %d bytes", len(code))
	}
	return nil
}

// LoadShaderModule creates a module from SPIR-V bytes.
func LoadShaderModule(device vk.Device, code []byte) (vk.ShaderModule, error) {
	if err := checkShaderCode(code); err != nil {
		return vk.NullShaderModule, err
	}
	var module vk.ShaderModule
	ret := vk.CreateShaderModule(device, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    sliceUint32(code),
	}, nil, &module)
	if err := newError(ret); err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "create shader module")
	}
	return module, nil
}

// LoadShaderFile reads a compiled SPIR-V file and creates a module from it.
func LoadShaderFile(device vk.Device, path string) (vk.ShaderModule, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return vk.NullShaderModule, errors.Wrap(err, "read shader")
	}
	module, err := LoadShaderModule(device, code)
	if err != nil {
		return vk.NullShaderModule, errors.Wrapf(err, "shader %s", path)
	}
	return module, nil
}
