package resources

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/spaghettifunk/keyframe/engine/assets/loaders"
	"github.com/spaghettifunk/keyframe/engine/core"
)

type ResourceManagerConfig struct {
	ModelsDir     string
	TexturesDir   string
	ShadersDir    string
	AnimationsDir string
	/** @brief The maximum number of textures the texture descriptor pool can hold. */
	MaxTextures uint32
}

// ResourceManager loads textures, meshes, models, animations and shaders once
// per name and owns their GPU lifetime. Loads run before the frame loop or
// after a device wait-idle, never while frames are in flight.
type ResourceManager struct {
	config *ResourceManagerConfig
	gpu    GPU

	textures   *Cache[*Texture]
	meshes     *Cache[*Mesh]
	models     *Cache[*Model]
	animations *Cache[*Animation]
	shaders    *Cache[*Shader]

	texturePool   bool
	meshPool      bool
	meshPoolCount int
}

func NewResourceManager(config *ResourceManagerConfig, gpu GPU) (*ResourceManager, error) {
	if config.MaxTextures == 0 {
		err := fmt.Errorf("func NewResourceManager - config.MaxTextures must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &ResourceManager{
		config:     config,
		gpu:        gpu,
		textures:   NewCache[*Texture](),
		meshes:     NewCache[*Mesh](),
		models:     NewCache[*Model](),
		animations: NewCache[*Animation](),
		shaders:    NewCache[*Shader](),
	}, nil
}

// Initialize creates the texture descriptor pool.
func (rm *ResourceManager) Initialize() error {
	if err := rm.gpu.CreateTextureDescriptorPool(rm.config.MaxTextures); err != nil {
		core.LogError(err.Error())
		return err
	}
	rm.texturePool = true
	return nil
}

// CreateTexture loads <textures>/<name> and uploads it with a full mip chain.
func (rm *ResourceManager) CreateTexture(name string) (uint64, error) {
	id := core.HashName(name)
	if _, ok := rm.textures.Get(id); ok {
		return id, nil
	}
	img, err := loaders.LoadTexture(filepath.Join(rm.config.TexturesDir, name))
	if err != nil {
		return 0, fmt.Errorf("texture %s: %w", name, err)
	}
	return rm.uploadTexture(id, name, img)
}

// CreateTextureFromImage uploads an already decoded image under name.
func (rm *ResourceManager) CreateTextureFromImage(name string, img image.Image) (uint64, error) {
	id := core.HashName(name)
	if _, ok := rm.textures.Get(id); ok {
		return id, nil
	}
	return rm.uploadTexture(id, name, loaders.ToRGBA(img))
}

func (rm *ResourceManager) uploadTexture(id uint64, name string, img *image.RGBA) (uint64, error) {
	if uint32(rm.textures.Len()) >= rm.config.MaxTextures {
		return 0, fmt.Errorf("texture %s: the limit of %d textures is reached", name, rm.config.MaxTextures)
	}

	w, h := uint32(img.Rect.Dx()), uint32(img.Rect.Dy())
	levels := MipLevels(w, h)
	if err := rm.gpu.UploadTexture(id, img, levels); err != nil {
		return 0, fmt.Errorf("texture %s: %w", name, err)
	}
	if rm.texturePool {
		if err := rm.gpu.AllocateTextureDescriptor(id); err != nil {
			rm.gpu.DestroyTexture(id)
			return 0, fmt.Errorf("texture %s descriptor: %w", name, err)
		}
	}
	rm.textures.Put(id, &Texture{
		ID:        id,
		Name:      name,
		Width:     w,
		Height:    h,
		MipLevels: levels,
	})
	core.LogDebug("texture '%s' loaded (%dx%d, %d levels)", name, w, h, levels)
	return id, nil
}

// CreateModel loads <models>/<uri> under name. It returns 0 when the file
// cannot be decoded or uploaded; the error is logged.
func (rm *ResourceManager) CreateModel(uri, name string) uint64 {
	id := core.HashName(name)
	if _, ok := rm.models.Get(id); ok {
		return id
	}
	md, err := loaders.LoadModel(filepath.Join(rm.config.ModelsDir, uri), rm.config.TexturesDir)
	if err != nil {
		core.LogError("failed to load model '%s': %s", name, err)
		return 0
	}
	id, err = rm.CreateModelFromData(name, md)
	if err != nil {
		core.LogError("failed to create model '%s': %s", name, err)
		if errors.Is(err, core.ErrUnsupportedBlitFormat) {
			core.LogFatal(err.Error())
		}
		return 0
	}
	return id
}

// CreateModelFromData uploads a decoded model under name.
func (rm *ResourceManager) CreateModelFromData(name string, md *loaders.ModelData) (uint64, error) {
	id := core.HashName(name)
	if _, ok := rm.models.Get(id); ok {
		return id, nil
	}

	images := make([]uint64, len(md.Images))
	for i, img := range md.Images {
		var (
			tid uint64
			err error
		)
		if img.Image != nil {
			tid, err = rm.CreateTextureFromImage(img.Name, img.Image)
		} else {
			tid, err = rm.CreateTexture(filepath.Base(img.Path))
		}
		if err != nil {
			if errors.Is(err, core.ErrUnsupportedBlitFormat) {
				return 0, err
			}
			core.LogWarn("model '%s' image '%s' is not available, drawing untextured: %s", name, img.Name, err)
			continue
		}
		images[i] = tid
	}

	model := &Model{
		ID:    id,
		Name:  name,
		Nodes: make([]Node, len(md.Nodes)),
		Roots: append([]int(nil), md.Roots...),
	}
	for i, nd := range md.Nodes {
		model.Nodes[i] = Node{
			Name:      nd.Name,
			Parent:    nd.Parent,
			Children:  append([]int(nil), nd.Children...),
			Transform: nd.Transform,
			Matrix:    nd.Matrix,
			Skin:      nd.Skin,
		}
	}

	keys := make(map[string]bool, len(md.Nodes))
	for i, nd := range md.Nodes {
		if nd.Mesh < 0 || nd.Mesh >= len(md.Meshes) {
			continue
		}
		nodeName := nd.Name
		if nodeName == "" {
			nodeName = fmt.Sprintf("node%d", i)
		}
		meshID := core.HashName(name + ":" + meshKey(keys, nodeName, i))
		if _, ok := rm.meshes.Get(meshID); !ok {
			data := md.Meshes[nd.Mesh]
			if err := rm.gpu.UploadMesh(meshID, data.Vertices, data.Indices); err != nil {
				return 0, fmt.Errorf("mesh %s of node %s: %w", data.Name, nodeName, err)
			}
			mesh := &Mesh{
				ID:          meshID,
				Name:        nodeName,
				VertexCount: uint32(len(data.Vertices)),
				IndexCount:  uint32(len(data.Indices)),
			}
			if data.Image >= 0 && data.Image < len(images) {
				mesh.Texture = images[data.Image]
			}
			rm.meshes.Put(meshID, mesh)
		}
		model.Nodes[i].Mesh = meshID
	}

	for _, s := range md.Skins {
		if len(s.Joints) > MaxJoints {
			core.LogWarn("skin '%s' of model '%s' has %d joints, only %d are animated", s.Name, name, len(s.Joints), MaxJoints)
		}
		model.Skins = append(model.Skins, Skin{
			Name:        s.Name,
			Skeleton:    s.Skeleton,
			Joints:      append([]int(nil), s.Joints...),
			InverseBind: append(s.InverseBind[:0:0], s.InverseBind...),
		})
	}

	for i := range md.Animations {
		a := &md.Animations[i]
		aid := core.HashName(name + ":" + a.Name)
		rm.animations.Put(aid, newAnimation(aid, a.Name, a))
		model.Animations = append(model.Animations, aid)
	}

	// Static pose until an animation player takes over.
	for i := range model.Nodes {
		if model.Nodes[i].Mesh != 0 {
			rm.gpu.WriteMeshUniform(model.Nodes[i].Mesh, &MeshUniform{Matrix: model.WorldMatrix(i)})
		}
	}

	rm.models.Put(id, model)
	core.LogDebug("model '%s' loaded (%d nodes, %d skins, %d clips)", name, len(model.Nodes), len(model.Skins), len(model.Animations))
	return id, nil
}

// meshKey returns the node name, or the name qualified by the node index
// when an earlier node of the model already used it. glTF does not require
// unique node names.
func meshKey(used map[string]bool, nodeName string, index int) string {
	key := nodeName
	if used[key] {
		key = fmt.Sprintf("%s#%d", nodeName, index)
	}
	for used[key] {
		key += "#"
	}
	used[key] = true
	return key
}

// LoadModel loads a model while frames may be in flight: it waits for the
// device, creates the model and resizes the mesh descriptor pool to cover
// the new meshes. It returns 0 on failure.
func (rm *ResourceManager) LoadModel(uri, name string) uint64 {
	if err := rm.gpu.WaitIdle(); err != nil {
		core.LogError(err.Error())
		return 0
	}
	id := rm.CreateModel(uri, name)
	if id == 0 {
		return 0
	}
	if err := rm.RebuildMeshDescriptors(); err != nil {
		core.LogError("model '%s' mesh descriptors: %s", name, err)
		return 0
	}
	return id
}

// LoadAnimation loads the first clip of <animations>/<uri> under name. It
// returns 0 when the file cannot be decoded; the error is logged.
func (rm *ResourceManager) LoadAnimation(uri, name string) uint64 {
	id := core.HashName(name)
	if _, ok := rm.animations.Get(id); ok {
		return id
	}
	data, err := loaders.LoadAnimation(filepath.Join(rm.config.AnimationsDir, uri))
	if err != nil {
		core.LogError("failed to load animation '%s': %s", name, err)
		return 0
	}
	rm.animations.Put(id, newAnimation(id, name, data))
	return id
}

func newAnimation(id uint64, name string, data *loaders.AnimationData) *Animation {
	for i, s := range data.Samplers {
		if s.Interpolation != loaders.InterpolationLinear {
			core.LogWarn("animation '%s' sampler %d uses %s interpolation, sampling linearly", name, i, s.Interpolation)
		}
	}
	return &Animation{
		ID:       id,
		Name:     name,
		Samplers: data.Samplers,
		Channels: data.Channels,
		Start:    data.Start,
		End:      data.End,
	}
}

// CreateShader loads <shaders>/<name>.vert.spv and .frag.spv.
func (rm *ResourceManager) CreateShader(name string) (uint64, error) {
	id := core.HashName(name)
	if _, ok := rm.shaders.Get(id); ok {
		return id, nil
	}
	if err := rm.loadShader(id, name); err != nil {
		return 0, err
	}
	rm.shaders.Put(id, &Shader{ID: id, Name: name})
	return id, nil
}

// ReloadShader reads the stages of a loaded shader again and hands them to the
// GPU, which rebuilds the pipeline. The handle stays the same.
func (rm *ResourceManager) ReloadShader(name string) error {
	id := core.HashName(name)
	if _, ok := rm.shaders.Get(id); !ok {
		return fmt.Errorf("shader %s: %w", name, core.ErrAssetNotFound)
	}
	return rm.loadShader(id, name)
}

func (rm *ResourceManager) loadShader(id uint64, name string) error {
	data, err := loaders.LoadShader(rm.config.ShadersDir, name)
	if err != nil {
		return err
	}
	return rm.gpu.CreateShader(id, data.Vertex, data.Fragment)
}

// CleanupDescriptors destroys the texture descriptor pool ahead of a swapchain rebuild.
func (rm *ResourceManager) CleanupDescriptors() {
	if rm.texturePool {
		rm.gpu.DestroyTextureDescriptorPool()
		rm.texturePool = false
	}
}

// RecreateDescriptors creates a new texture pool and a set for every loaded texture.
func (rm *ResourceManager) RecreateDescriptors() error {
	if err := rm.Initialize(); err != nil {
		return err
	}
	return rm.textures.Each(func(id uint64, t *Texture) error {
		if err := rm.gpu.AllocateTextureDescriptor(id); err != nil {
			return fmt.Errorf("texture %s descriptor: %w", t.Name, err)
		}
		return nil
	})
}

// RebuildMeshDescriptors sizes the mesh pool to the current mesh count and
// allocates a set per mesh. Nothing happens when the count is unchanged.
func (rm *ResourceManager) RebuildMeshDescriptors() error {
	count := rm.meshes.Len()
	if rm.meshPool && count == rm.meshPoolCount {
		return nil
	}
	if rm.meshPool {
		rm.gpu.DestroyMeshDescriptorPool()
		rm.meshPool = false
	}
	rm.meshPoolCount = count
	if count == 0 {
		return nil
	}
	if err := rm.gpu.CreateMeshDescriptorPool(uint32(count)); err != nil {
		core.LogError(err.Error())
		return err
	}
	rm.meshPool = true
	return rm.meshes.Each(func(id uint64, m *Mesh) error {
		if err := rm.gpu.AllocateMeshDescriptor(id); err != nil {
			return fmt.Errorf("mesh %s descriptor: %w", m.Name, err)
		}
		return nil
	})
}

func (rm *ResourceManager) Texture(id uint64) (*Texture, bool) {
	return rm.textures.Get(id)
}

func (rm *ResourceManager) Mesh(id uint64) (*Mesh, bool) {
	return rm.meshes.Get(id)
}

func (rm *ResourceManager) Model(id uint64) (*Model, bool) {
	return rm.models.Get(id)
}

func (rm *ResourceManager) Animation(id uint64) (*Animation, bool) {
	return rm.animations.Get(id)
}

func (rm *ResourceManager) Shader(id uint64) (*Shader, bool) {
	return rm.shaders.Get(id)
}

// Models returns every loaded model in load order.
func (rm *ResourceManager) Models() []*Model {
	return rm.models.Values()
}

// Shutdown waits for the device and releases every GPU resource.
func (rm *ResourceManager) Shutdown() error {
	if err := rm.gpu.WaitIdle(); err != nil {
		return err
	}
	for _, m := range rm.meshes.Values() {
		rm.gpu.DestroyMesh(m.ID)
	}
	for _, t := range rm.textures.Values() {
		rm.gpu.DestroyTexture(t.ID)
	}
	for _, s := range rm.shaders.Values() {
		rm.gpu.DestroyShader(s.ID)
	}
	if rm.meshPool {
		rm.gpu.DestroyMeshDescriptorPool()
		rm.meshPool = false
	}
	rm.meshPoolCount = 0
	rm.CleanupDescriptors()

	rm.meshes.Clear()
	rm.textures.Clear()
	rm.shaders.Clear()
	rm.animations.Clear()
	rm.models.Clear()
	return nil
}
