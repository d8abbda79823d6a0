package scheduler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/avatarskin/atlas"
	"github.com/vkngwrapper/avatarskin/config"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/memutils"
	"github.com/vkngwrapper/avatarskin/ringpool"
	"golang.org/x/exp/slog"
)

const (
	CombinedAtlasName = "Combined Morph Targets"
	OutputAtlasName   = "Skinner Output"
)

// ContextOptions contains the settings used to create a Context
type ContextOptions struct {
	Device gpu.Device
	Config config.Configuration
	// Synchronized causes the ring buffer pool to lock an internal mutex around every call
	Synchronized bool
}

// Context owns the resources shared by every GPU skinned mesh: the ring buffer pool, the controller that
// dispatches skinning work, and the combined morph target and skinner output atlases.
type Context struct {
	logger *slog.Logger
	device gpu.Device
	config config.Configuration

	pool          *ringpool.Pool
	controller    *Controller
	combinedAtlas *atlas.Atlas
	outputAtlas   *atlas.Atlas

	renderables *swiss.Map[*Renderable, struct{}]
	frames      int
}

// NewContext enforces and validates the configuration, falls back to formats the device supports,
// then creates the shared skinning resources
func NewContext(logger *slog.Logger, options ContextOptions) (*Context, error) {
	if options.Device == nil {
		return nil, errors.New("cannot create a skinning context without a device")
	}

	cfg := options.Config
	changes := cfg.Enforce()
	if support, ok := options.Device.(gpu.FormatSupport); ok {
		changes = append(changes, cfg.ResolveSupported(support.SupportsFormat)...)
	}
	for _, change := range changes {
		logger.LogAttrs(context.Background(), slog.LevelWarn, change)
	}

	err := cfg.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "invalid skinning configuration")
	}

	pool, err := ringpool.New(logger, options.Device, ringpool.CreateOptions{
		NumBuffers:   cfg.Pool.NumBuffers,
		BufferSize:   cfg.Pool.BufferSize,
		MaxJoints:    cfg.Pool.MaxJoints,
		MaxWeights:   cfg.Pool.MaxWeights,
		Synchronized: options.Synchronized,
	})
	if err != nil {
		return nil, err
	}

	combined, err := atlas.New(logger, options.Device, atlas.CreateOptions{
		Name:         CombinedAtlasName,
		Width:        cfg.Atlas.Width,
		Height:       cfg.Atlas.Height,
		Format:       cfg.Precision.Combined.Format(),
		InitialDepth: cfg.Atlas.InitialDepth,
		MaxDepth:     cfg.Atlas.MaxDepth,
	})
	if err != nil {
		pool.Destroy()
		return nil, err
	}

	output, err := atlas.New(logger, options.Device, atlas.CreateOptions{
		Name:         OutputAtlasName,
		Width:        cfg.Atlas.Width,
		Height:       cfg.Atlas.Height,
		Format:       cfg.Precision.Output.Format(),
		InitialDepth: cfg.Atlas.InitialDepth,
		MaxDepth:     cfg.Atlas.MaxDepth,
		RenderTarget: true,
	})
	if err != nil {
		combined.Destroy()
		pool.Destroy()
		return nil, err
	}

	return &Context{
		logger:        logger,
		device:        options.Device,
		config:        cfg,
		pool:          pool,
		controller:    NewController(logger, pool),
		combinedAtlas: combined,
		outputAtlas:   output,
		renderables:   swiss.NewMap[*Renderable, struct{}](MaxSkinnedAvatarsPerFrame),
	}, nil
}

// Config returns the configuration after enforcement and format fallback
func (c *Context) Config() config.Configuration { return c.config }

func (c *Context) Device() gpu.Device          { return c.device }
func (c *Context) Pool() *ringpool.Pool        { return c.pool }
func (c *Context) Controller() *Controller     { return c.controller }
func (c *Context) CombinedAtlas() *atlas.Atlas { return c.combinedAtlas }
func (c *Context) OutputAtlas() *atlas.Atlas   { return c.outputAtlas }
func (c *Context) RenderableCount() int        { return c.renderables.Count() }
func (c *Context) FramesCompleted() int        { return c.frames }

func (c *Context) register(r *Renderable) {
	c.renderables.Put(r, struct{}{})
	if c.renderables.Count() > MaxGpuSkinnedAvatars {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "more GPU skinned meshes than supported",
			slog.Int("renderables", c.renderables.Count()),
			slog.Int("supported", MaxGpuSkinnedAvatars),
		)
	}
}

func (c *Context) unregister(r *Renderable) {
	c.renderables.Delete(r)
}

// Frame runs one process frame: it maps the ring buffers, dispatches every queued combiner, skinner and
// animator, then commits the ring buffers. Animators request their ring buffer entries from Dispatch.
func (c *Context) Frame() error {
	err := c.controller.StartFrame()
	if err != nil {
		return err
	}

	c.controller.Update()

	err = c.controller.EndFrame()
	if err != nil {
		return err
	}

	c.frames++
	return nil
}

// Validate checks the invariants of the pool and both atlases
func (c *Context) Validate() error {
	return errors.CombineErrors(
		c.pool.Validate(),
		errors.CombineErrors(c.combinedAtlas.Validate(), c.outputAtlas.Validate()),
	)
}

// CalculateStatistics sums the statistics of both atlases
func (c *Context) CalculateStatistics(stats *memutils.DetailedStatistics) {
	stats.Clear()
	c.combinedAtlas.AddDetailedStatistics(stats)
	c.outputAtlas.AddDetailedStatistics(stats)
}

// BuildStatsString returns a JSON document describing the shared resources. When detailed is true, every
// atlas block is listed.
func (c *Context) BuildStatsString(detailed bool) string {
	writer := jwriter.NewWriter()
	obj := writer.Object()

	obj.Name("Frames").Int(c.frames)
	obj.Name("Renderables").Int(c.renderables.Count())

	controllerObj := obj.Name("Controller").Object()
	c.controller.PrintDetailedMap(&controllerObj)
	controllerObj.End()

	c.pool.PrintDetailedMap(obj.Name("Pool"))

	if detailed {
		c.combinedAtlas.PrintDetailedMap(obj.Name("CombinedAtlas"))
		c.outputAtlas.PrintDetailedMap(obj.Name("OutputAtlas"))
	} else {
		var stats memutils.Statistics
		stats.Clear()
		c.combinedAtlas.AddStatistics(&stats)
		c.outputAtlas.AddStatistics(&stats)

		statsObj := obj.Name("Atlases").Object()
		stats.PrintJson(&statsObj)
		statsObj.End()
	}

	obj.End()
	return string(writer.Bytes())
}

// Destroy releases the shared resources. Renderables still registered are reported and forgotten.
func (c *Context) Destroy() {
	if c.renderables.Count() > 0 {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "skinning context destroyed with live renderables",
			slog.Int("renderables", c.renderables.Count()),
		)
		c.renderables.Clear()
	}

	c.outputAtlas.Destroy()
	c.combinedAtlas.Destroy()
	c.pool.Destroy()
}
