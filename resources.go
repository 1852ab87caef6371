package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// ShaderResources is the descriptor state registered under one id: a set
// layout per AddDescriptorLayout call, the sets allocated for them and the
// pipeline layout built from them.
type ShaderResources struct {
	ID             string
	Bindings       [][]Binding
	Layouts        []vk.DescriptorSetLayout
	Sets           []vk.DescriptorSet
	PipelineLayout vk.PipelineLayout
}

// Pipeline is a graphics pipeline and the modules it was built from.
type Pipeline struct {
	ID      string
	Shader  string
	Handle  vk.Pipeline
	Layout  vk.PipelineLayout
	modules []vk.ShaderModule
}

// ResourceManager owns descriptor state, pipelines and buffers for one
// device. Everything it creates is released by Destroy.
type ResourceManager struct {
	device        *Device
	pool          vk.DescriptorPool
	maxSets       int
	allocatedSets int

	shaders   map[string]*ShaderResources
	pipelines map[string]*Pipeline
	buffers   []*Buffer
}

func newResourceManager(device *Device, maxSets int) *ResourceManager {
	return &ResourceManager{
		device:    device,
		maxSets:   maxSets,
		shaders:   make(map[string]*ShaderResources),
		pipelines: make(map[string]*Pipeline),
	}
}

// NewResourceManager creates the shared descriptor pool sized for maxSets
// sets.
func NewResourceManager(device *Device, maxSets int) (*ResourceManager, error) {
	if maxSets < 1 {
		return nil, errors.Errorf("vulkan: max sets must be positive, got %d", maxSets)
	}
	pool, err := newDescriptorPool(device.handle, uint32(maxSets))
	if err != nil {
		return nil, setupFailed(err, "resource manager")
	}
	rm := newResourceManager(device, maxSets)
	rm.pool = pool
	return rm, nil
}

func (rm *ResourceManager) vkDevice() vk.Device {
	if rm.device == nil {
		return nil
	}
	return rm.device.handle
}

func (rm *ResourceManager) lookupShader(id string) (*ShaderResources, error) {
	rec, ok := rm.shaders[id]
	if !ok {
		Logger().Warn("vulkan: unknown shader resources id", "id", id)
		return nil, errors.Wrapf(ErrUnknownShader, "id %q", id)
	}
	return rec, nil
}

// CreateShaderResources registers an empty record under id. A previous
// record with the same id is released first, together with every pipeline
// built on its layout.
func (rm *ResourceManager) CreateShaderResources(id string) {
	if old, ok := rm.shaders[id]; ok {
		for pid, p := range rm.pipelines {
			if p.Shader != id {
				continue
			}
			Logger().Warn("vulkan: pipeline dropped with its shader resources", "pipeline", pid, "shader", id)
			rm.releasePipeline(p)
			delete(rm.pipelines, pid)
		}
		rm.releaseShader(old)
	}
	rm.shaders[id] = &ShaderResources{ID: id}
}

// ShaderResources returns the record registered under id.
func (rm *ResourceManager) ShaderResources(id string) (*ShaderResources, error) {
	return rm.lookupShader(id)
}

func (rm *ResourceManager) releaseShader(rec *ShaderResources) {
	dev := rm.vkDevice()
	if rec.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(dev, rec.PipelineLayout, nil)
		rec.PipelineLayout = vk.NullPipelineLayout
	}
	if len(rec.Sets) > 0 {
		vk.FreeDescriptorSets(dev, rm.pool, uint32(len(rec.Sets)), &rec.Sets[0])
		rm.allocatedSets -= len(rec.Sets)
		rec.Sets = nil
	}
	for _, layout := range rec.Layouts {
		vk.DestroyDescriptorSetLayout(dev, layout, nil)
	}
	rec.Layouts = nil
	rec.Bindings = nil
}

// AddDescriptorLayout creates a set layout from bindings and appends it to
// the record.
func (rm *ResourceManager) AddDescriptorLayout(id string, bindings []Binding) error {
	rec, err := rm.lookupShader(id)
	if err != nil {
		return err
	}
	layout, err := createDescriptorSetLayout(rm.vkDevice(), bindings)
	if err != nil {
		return errors.Wrapf(err, "shader %q", id)
	}
	rec.Layouts = append(rec.Layouts, layout)
	rec.Bindings = append(rec.Bindings, bindings)
	return nil
}

// AllocateDescriptorSets allocates one set for each layout of the record
// from the shared pool.
func (rm *ResourceManager) AllocateDescriptorSets(id string) error {
	rec, err := rm.lookupShader(id)
	if err != nil {
		return err
	}
	if len(rec.Sets) > 0 {
		return errors.Errorf("shader %q already has descriptor sets", id)
	}
	if rm.allocatedSets+len(rec.Layouts) > rm.maxSets {
		return errors.Wrapf(ErrPoolExhausted, "shader %q needs %d sets, %d of %d in use",
			id, len(rec.Layouts), rm.allocatedSets, rm.maxSets)
	}
	sets, err := allocateDescriptorSets(rm.vkDevice(), rm.pool, rec.Layouts)
	if err != nil {
		return errors.Wrapf(err, "shader %q", id)
	}
	rec.Sets = sets
	rm.allocatedSets += len(sets)
	return nil
}

// CreatePipelineLayout builds a pipeline layout from the record's set
// layouts. The manager owns it.
func (rm *ResourceManager) CreatePipelineLayout(id string) (vk.PipelineLayout, error) {
	rec, err := rm.lookupShader(id)
	if err != nil {
		return vk.NullPipelineLayout, err
	}
	var layout vk.PipelineLayout
	ret := vk.CreatePipelineLayout(rm.vkDevice(), &vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(rec.Layouts)),
		PSetLayouts:    rec.Layouts,
	}, nil, &layout)
	if err := newError(ret); err != nil {
		return vk.NullPipelineLayout, setupFailed(err, "create pipeline layout for "+id)
	}
	if rec.PipelineLayout != vk.NullPipelineLayout {
		vk.DestroyPipelineLayout(rm.vkDevice(), rec.PipelineLayout, nil)
	}
	rec.PipelineLayout = layout
	return layout, nil
}

// CreateGraphicsPipeline loads the configured stages and builds a pipeline
// registered under pipelineID, replacing any earlier one.
func (rm *ResourceManager) CreateGraphicsPipeline(pipelineID string, rp *RenderPass, layout vk.PipelineLayout, cfg PipelineConfig, extent vk.Extent2D) (err error) {
	vertexLayout, err := VertexLayoutByName(cfg.VertexLayout)
	if err != nil {
		return errors.Wrapf(err, "pipeline %q", pipelineID)
	}
	if len(cfg.Stages) == 0 {
		return errors.Errorf("pipeline %q has no stages", pipelineID)
	}

	builder := NewPipelineBuilder(vertexLayout, extent, rp.depth)
	var modules []vk.ShaderModule
	defer func() {
		if err != nil {
			for _, m := range modules {
				vk.DestroyShaderModule(rm.vkDevice(), m, nil)
			}
		}
	}()
	for _, st := range cfg.Stages {
		stage, err := ParseShaderStage(st.Stage)
		if err != nil {
			return errors.Wrapf(err, "pipeline %q", pipelineID)
		}
		module, err := LoadShaderFile(rm.vkDevice(), st.Path)
		if err != nil {
			return errors.Wrapf(err, "pipeline %q", pipelineID)
		}
		modules = append(modules, module)
		builder.AddStage(stage, module, st.EntryPoint)
	}

	handle, err := builder.Build(rm.vkDevice(), rp.handle, layout)
	if err != nil {
		return setupFailed(err, "create pipeline "+pipelineID)
	}
	if old, ok := rm.pipelines[pipelineID]; ok {
		rm.releasePipeline(old)
	}
	rm.pipelines[pipelineID] = &Pipeline{
		ID:      pipelineID,
		Shader:  cfg.Shader,
		Handle:  handle,
		Layout:  layout,
		modules: modules,
	}
	Logger().Info("vulkan: pipeline created", "id", pipelineID, "stages", len(modules), "layout", vertexLayout.Name)
	return nil
}

// Pipeline returns the pipeline registered under id.
func (rm *ResourceManager) Pipeline(id string) (*Pipeline, error) {
	p, ok := rm.pipelines[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownPipeline, "id %q", id)
	}
	return p, nil
}

func (rm *ResourceManager) releasePipeline(p *Pipeline) {
	if p.Handle != vk.NullPipeline {
		vk.DestroyPipeline(rm.vkDevice(), p.Handle, nil)
		p.Handle = vk.NullPipeline
	}
	for _, m := range p.modules {
		vk.DestroyShaderModule(rm.vkDevice(), m, nil)
	}
	p.modules = nil
}

// AllocateVertexBuffer uploads data into a host-visible, host-coherent
// vertex buffer.
func (rm *ResourceManager) AllocateVertexBuffer(data VertexData) (*Buffer, error) {
	buf, err := rm.allocate(vertexBufferSize(data), vk.BufferUsageVertexBufferBit, data.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "vertex buffer")
	}
	buf.Count = uint32(data.Len())
	return buf, nil
}

// AllocateIndexBuffer uploads 32-bit indices.
func (rm *ResourceManager) AllocateIndexBuffer(indices []uint32) (*Buffer, error) {
	buf, err := rm.allocate(vk.DeviceSize(len(indices)*4), vk.BufferUsageIndexBufferBit, indexBytes(indices))
	if err != nil {
		return nil, errors.Wrap(err, "index buffer")
	}
	buf.Count = uint32(len(indices))
	return buf, nil
}

// AllocateUniformBuffer creates an empty uniform buffer of size bytes; fill
// it with Write.
func (rm *ResourceManager) AllocateUniformBuffer(size int) (*Buffer, error) {
	buf, err := rm.allocate(vk.DeviceSize(size), vk.BufferUsageUniformBufferBit, nil)
	if err != nil {
		return nil, errors.Wrap(err, "uniform buffer")
	}
	return buf, nil
}

func (rm *ResourceManager) allocate(size vk.DeviceSize, usage vk.BufferUsageFlagBits, data []byte) (*Buffer, error) {
	buf, err := createBuffer(rm.device, size, usage, hostVisibleCoherent)
	if err != nil {
		return nil, err
	}
	if err := buf.Write(data); err != nil {
		buf.Destroy()
		return nil, err
	}
	rm.buffers = append(rm.buffers, buf)
	return buf, nil
}

// WriteUniformDescriptor points binding of the id's set-th descriptor set
// at buf.
func (rm *ResourceManager) WriteUniformDescriptor(id string, set int, binding uint32, buf *Buffer) error {
	rec, err := rm.lookupShader(id)
	if err != nil {
		return err
	}
	if set < 0 || set >= len(rec.Sets) {
		return errors.Errorf("shader %q has no descriptor set %d", id, set)
	}
	vk.UpdateDescriptorSets(rm.vkDevice(), 1, []vk.WriteDescriptorSet{uniformWrite(rec.Sets[set], binding, buf)}, 0, nil)
	return nil
}

// Destroy releases pipelines, pipeline layouts, shader modules, descriptor
// sets and pool, set layouts and buffers, in that order.
func (rm *ResourceManager) Destroy() {
	dev := rm.vkDevice()
	for _, p := range rm.pipelines {
		if p.Handle != vk.NullPipeline {
			vk.DestroyPipeline(dev, p.Handle, nil)
			p.Handle = vk.NullPipeline
		}
	}
	for _, rec := range rm.shaders {
		if rec.PipelineLayout != vk.NullPipelineLayout {
			vk.DestroyPipelineLayout(dev, rec.PipelineLayout, nil)
			rec.PipelineLayout = vk.NullPipelineLayout
		}
	}
	for _, p := range rm.pipelines {
		for _, m := range p.modules {
			vk.DestroyShaderModule(dev, m, nil)
		}
		p.modules = nil
	}
	rm.pipelines = make(map[string]*Pipeline)

	for _, rec := range rm.shaders {
		if len(rec.Sets) > 0 {
			vk.FreeDescriptorSets(dev, rm.pool, uint32(len(rec.Sets)), &rec.Sets[0])
			rec.Sets = nil
		}
	}
	rm.allocatedSets = 0
	if rm.pool != vk.DescriptorPool(vk.NullHandle) {
		vk.DestroyDescriptorPool(dev, rm.pool, nil)
		rm.pool = vk.DescriptorPool(vk.NullHandle)
	}
	for _, rec := range rm.shaders {
		for _, layout := range rec.Layouts {
			vk.DestroyDescriptorSetLayout(dev, layout, nil)
		}
		rec.Layouts = nil
	}
	rm.shaders = make(map[string]*ShaderResources)

	for _, buf := range rm.buffers {
		buf.Destroy()
	}
	rm.buffers = nil
}
