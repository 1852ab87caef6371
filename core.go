package realvk

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Phase is how far a Renderer has been built. Each phase needs the one
// before it.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseDeviceReady
	PhaseSurfaceBound
	PhaseSwapchainReady
	PhaseRenderPassReady
	PhaseResourcesReady
	PhaseFrameLoopReady
)

var phaseNames = [...]string{
	PhaseUninitialized:   "uninitialized",
	PhaseDeviceReady:     "device ready",
	PhaseSurfaceBound:    "surface bound",
	PhaseSwapchainReady:  "swapchain ready",
	PhaseRenderPassReady: "render pass ready",
	PhaseResourcesReady:  "resources ready",
	PhaseFrameLoopReady:  "frame loop ready",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Geometry is the mesh drawn every frame. Indices are optional.
type Geometry struct {
	Vertices VertexData
	Indices  []uint32
}

// DefaultTriangle is a single RGB triangle, clockwise in Vulkan clip space.
func DefaultTriangle() Geometry {
	return Geometry{
		Vertices: Vertices{
			{Position: [3]float32{0.0, -0.5, 0.0}, Color: [3]float32{1, 0, 0}},
			{Position: [3]float32{0.5, 0.5, 0.0}, Color: [3]float32{0, 1, 0}},
			{Position: [3]float32{-0.5, 0.5, 0.0}, Color: [3]float32{0, 0, 1}},
		},
	}
}

type uniformKey struct {
	shader  string
	binding uint32
}

// Renderer owns every GPU object of one window and builds them in order.
type Renderer struct {
	cfg   *Config
	phase Phase

	instance     *Instance
	surface      *Surface
	device       *Device
	presentation *Presentation
	swapchain    *Swapchain
	renderPass   *RenderPass
	resources    *ResourceManager
	frames       *FrameSynchronizer
	commands     *CommandRecorder

	uniforms map[uniformKey]*Buffer
	draw     DrawCall
}

// NewRenderer validates cfg. No GPU object is created until Setup.
func NewRenderer(cfg *Config) (*Renderer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{
		cfg:      cfg,
		uniforms: make(map[uniformKey]*Buffer),
	}, nil
}

func (r *Renderer) Phase() Phase {
	return r.phase
}

func (r *Renderer) Device() *Device {
	return r.device
}

func (r *Renderer) Swapchain() *Swapchain {
	return r.swapchain
}

func (r *Renderer) Resources() *ResourceManager {
	return r.resources
}

func (r *Renderer) Frames() *FrameSynchronizer {
	return r.frames
}

func (r *Renderer) expect(want Phase, step string) error {
	if r.phase != want {
		return errors.Wrapf(ErrWrongPhase, "%s needs %s, renderer is %s", step, want, r.phase)
	}
	return nil
}

// Setup runs every phase in order and leaves the renderer ready to draw
// geom.
func (r *Renderer) Setup(w Window, geom Geometry) error {
	steps := []func() error{
		func() error { return r.InitDevice(w) },
		r.BindSurface,
		r.CreateSwapchain,
		r.CreateRenderPass,
		func() error { return r.CreateResources(geom) },
		r.CreateFrameLoop,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	dim := r.swapchain.Dimensions()
	Logger().Info("vulkan: renderer ready",
		"width", dim.Width,
		"height", dim.Height,
		"format", dim.Format,
		"frames_in_flight", r.cfg.Swapchain.FramesInFlight,
		"images", r.swapchain.ImageCount())
	return nil
}

// InitDevice creates the instance and window surface, selects a GPU that
// can present to it and creates the logical device.
func (r *Renderer) InitDevice(w Window) error {
	if err := r.expect(PhaseUninitialized, "device init"); err != nil {
		return err
	}
	instance, err := NewInstance(r.cfg, w.GetRequiredInstanceExtensions()...)
	if err != nil {
		return err
	}
	surface, err := instance.CreateSurface(w)
	if err != nil {
		instance.Destroy()
		return setupFailed(err, "bind window surface")
	}
	gpu, err := instance.SelectPhysicalDevice(surface)
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return err
	}
	device, err := gpu.CreateLogicalDevice()
	if err != nil {
		surface.Destroy()
		instance.Destroy()
		return err
	}
	r.instance, r.surface, r.device = instance, surface, device
	r.phase = PhaseDeviceReady
	return nil
}

// BindSurface negotiates format, present mode and extent for the surface.
// The extent follows the window's framebuffer size in pixels.
func (r *Renderer) BindSurface() error {
	if err := r.expect(PhaseDeviceReady, "surface binding"); err != nil {
		return err
	}
	p, err := r.device.NegotiatePresentation(r.surface)
	if err != nil {
		return setupFailed(err, "negotiate presentation")
	}
	r.presentation = p
	r.phase = PhaseSurfaceBound
	return nil
}

func (r *Renderer) CreateSwapchain() error {
	if err := r.expect(PhaseSurfaceBound, "swapchain creation"); err != nil {
		return err
	}
	sc, err := r.device.CreateSwapchain(r.surface, r.presentation)
	if err != nil {
		return setupFailed(err, "swapchain")
	}
	r.swapchain = sc
	r.phase = PhaseSwapchainReady
	return nil
}

// CreateRenderPass builds the render pass and a framebuffer per swapchain
// image.
func (r *Renderer) CreateRenderPass() error {
	if err := r.expect(PhaseSwapchainReady, "render pass creation"); err != nil {
		return err
	}
	rp, err := r.device.CreateRenderPass(r.swapchain.Format().Format, r.cfg.Swapchain.Depth)
	if err != nil {
		return setupFailed(err, "render pass")
	}
	if err := r.swapchain.CreateFramebuffers(rp); err != nil {
		rp.Destroy()
		return setupFailed(err, "render pass")
	}
	r.renderPass = rp
	r.phase = PhaseRenderPassReady
	return nil
}

// CreateResources registers every configured shader and pipeline, uploads
// geom and allocates a uniform buffer per uniform binding. The first
// configured pipeline draws geom.
func (r *Renderer) CreateResources(geom Geometry) error {
	if err := r.expect(PhaseRenderPassReady, "resource creation"); err != nil {
		return err
	}
	if geom.Vertices == nil || geom.Vertices.Len() == 0 {
		return errors.New("vulkan: geometry has no vertices")
	}
	rm, err := NewResourceManager(r.device, r.cfg.Resources.MaxSets)
	if err != nil {
		return setupFailed(err, "resources")
	}
	if err := r.buildResources(rm, geom); err != nil {
		r.uniforms = make(map[uniformKey]*Buffer)
		rm.Destroy()
		return setupFailed(err, "resources")
	}
	r.resources = rm
	r.phase = PhaseResourcesReady
	return nil
}

func (r *Renderer) buildResources(rm *ResourceManager, geom Geometry) error {
	for _, sc := range r.cfg.Shaders {
		rm.CreateShaderResources(sc.ID)
		if len(sc.Bindings) > 0 {
			bindings := make([]Binding, 0, len(sc.Bindings))
			for _, bc := range sc.Bindings {
				b, err := bc.Parse()
				if err != nil {
					return errors.Wrapf(err, "shader %q", sc.ID)
				}
				bindings = append(bindings, b)
			}
			if err := rm.AddDescriptorLayout(sc.ID, bindings); err != nil {
				return err
			}
			if err := rm.AllocateDescriptorSets(sc.ID); err != nil {
				return err
			}
			for _, b := range bindings {
				if b.Type != vk.DescriptorTypeUniformBuffer {
					continue
				}
				buf, err := rm.AllocateUniformBuffer(MVPBytes)
				if err != nil {
					return err
				}
				if err := rm.WriteUniformDescriptor(sc.ID, 0, b.Binding, buf); err != nil {
					return err
				}
				r.uniforms[uniformKey{sc.ID, b.Binding}] = buf
			}
		}
		if _, err := rm.CreatePipelineLayout(sc.ID); err != nil {
			return err
		}
	}

	extent := r.swapchain.Extent()
	for _, pc := range r.cfg.Pipelines {
		rec, err := rm.ShaderResources(pc.Shader)
		if err != nil {
			return errors.Wrapf(err, "pipeline %q", pc.ID)
		}
		if err := rm.CreateGraphicsPipeline(pc.ID, r.renderPass, rec.PipelineLayout, pc, extent); err != nil {
			return err
		}
	}
	if len(r.cfg.Pipelines) == 0 {
		return errors.New("vulkan: no pipeline configured")
	}

	first := r.cfg.Pipelines[0]
	layout, err := VertexLayoutByName(first.VertexLayout)
	if err != nil {
		return err
	}
	if got := geom.Vertices.Layout(); got.Name != layout.Name {
		return errors.Errorf("vulkan: pipeline %q expects %s vertices, geometry is %s", first.ID, layout.Name, got.Name)
	}
	pipeline, err := rm.Pipeline(first.ID)
	if err != nil {
		return err
	}
	shader, err := rm.ShaderResources(first.Shader)
	if err != nil {
		return err
	}
	vertices, err := rm.AllocateVertexBuffer(geom.Vertices)
	if err != nil {
		return err
	}
	var indices *Buffer
	if len(geom.Indices) > 0 {
		if indices, err = rm.AllocateIndexBuffer(geom.Indices); err != nil {
			return err
		}
	}
	r.draw = DrawCall{
		Pipeline:   pipeline,
		Shader:     shader,
		Vertex:     vertices,
		Index:      indices,
		ClearColor: r.cfg.ClearColor,
	}
	return nil
}

// CreateFrameLoop creates the command buffers and the frame
// synchronization objects.
func (r *Renderer) CreateFrameLoop() error {
	if err := r.expect(PhaseResourcesReady, "frame loop creation"); err != nil {
		return err
	}
	commands, err := NewCommandRecorder(r.device, r.swapchain, r.renderPass)
	if err != nil {
		return setupFailed(err, "frame loop")
	}
	frames, err := NewFrameSynchronizer(r.device, r.swapchain, r.cfg.Swapchain.FramesInFlight)
	if err != nil {
		commands.Destroy()
		return setupFailed(err, "frame loop")
	}
	r.commands, r.frames = commands, frames
	r.phase = PhaseFrameLoopReady
	return nil
}

// WriteUniform copies data into the uniform buffer bound at binding of the
// shader's first descriptor set.
func (r *Renderer) WriteUniform(shaderID string, binding uint32, data []byte) error {
	buf, ok := r.uniforms[uniformKey{shaderID, binding}]
	if !ok {
		return errors.Wrapf(ErrUnknownShader, "no uniform buffer for %q binding %d", shaderID, binding)
	}
	return buf.Write(data)
}

// DrawFrame renders and presents one frame of the configured geometry.
func (r *Renderer) DrawFrame() error {
	if err := r.expect(PhaseFrameLoopReady, "draw"); err != nil {
		return err
	}
	return r.frames.DrawFrame(func(imageIndex uint32) (vk.CommandBuffer, error) {
		return r.commands.Record(imageIndex, r.draw)
	})
}

// Destroy waits for the device to go idle and releases everything in
// reverse creation order. It is safe on a partially built renderer.
func (r *Renderer) Destroy() {
	if r.device != nil {
		if err := r.device.WaitIdle(); err != nil {
			Logger().Error("vulkan: device wait idle failed", "error", err)
		}
	}
	if r.frames != nil {
		r.frames.Destroy()
		r.frames = nil
	}
	if r.commands != nil {
		r.commands.Destroy()
		r.commands = nil
	}
	if r.resources != nil {
		r.resources.Destroy()
		r.resources = nil
	}
	r.uniforms = make(map[uniformKey]*Buffer)
	r.draw = DrawCall{}
	if r.swapchain != nil {
		r.swapchain.Destroy()
		r.swapchain = nil
	}
	if r.renderPass != nil {
		r.renderPass.Destroy()
		r.renderPass = nil
	}
	if r.device != nil {
		r.device.Destroy()
		r.device = nil
	}
	if r.surface != nil {
		r.surface.Destroy()
		r.surface = nil
	}
	if r.instance != nil {
		r.instance.Destroy()
		r.instance = nil
	}
	r.presentation = nil
	r.phase = PhaseUninitialized
}
