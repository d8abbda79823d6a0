package ringpool

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/avatarskin/gpu"
	"github.com/vkngwrapper/avatarskin/internal/utils"
	"github.com/vkngwrapper/avatarskin/memutils"
	"golang.org/x/exp/slog"
)

const (
	// DefaultBufferSize is the number of entries of each kind that can be handed out per frame: the
	// maximum number of active avatars with a few spare
	DefaultBufferSize = 36
	// DefaultNumBuffers is the number of frames that can be in flight at once. Three is enough for most VR
	// runtimes; the extra generation covers editor and desktop frame pacing.
	DefaultNumBuffers = 4
	// DefaultMaxJoints is the number of joints reserved per avatar. Joint indices are 8-bit in the mesh data,
	// so this can never exceed 254.
	DefaultMaxJoints = 160
	// DefaultMaxWeights is the number of morph target weights reserved per avatar
	DefaultMaxWeights = 128
)

// CreateOptions contains optional settings when creating a Pool. Zero fields take their default value.
type CreateOptions struct {
	// NumBuffers is the number of generations the buffers are divided into. It must be at least as large
	// as the number of frames the GPU may still be reading when the CPU begins a new one.
	NumBuffers int
	// BufferSize is the number of joint entries and weight entries available in each generation
	BufferSize int
	MaxJoints  int
	MaxWeights int
	// Synchronized causes the Pool to lock an internal mutex around every call
	Synchronized bool
}

func (o CreateOptions) withDefaults() CreateOptions {
	if o.NumBuffers == 0 {
		o.NumBuffers = DefaultNumBuffers
	}
	if o.BufferSize == 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.MaxJoints == 0 {
		o.MaxJoints = DefaultMaxJoints
	}
	if o.MaxWeights == 0 {
		o.MaxWeights = DefaultMaxWeights
	}
	return o
}

// Pool hands out per-avatar windows of two large GPU buffers, one holding joint matrices and one holding
// morph target weights. Each buffer is divided into NumBuffers generations; one generation is written per
// frame and the generations are used round robin so the CPU never writes memory the GPU is still reading.
type Pool struct {
	logger *slog.Logger
	device gpu.Device
	mutex  utils.OptionalMutex

	numBuffers int
	bufferSize int
	maxJoints  int
	maxWeights int

	joints  gpu.Buffer
	weights gpu.Buffer

	generation     int
	inFrame        bool
	jointData      []byte
	weightData     []byte
	jointsWritten  int
	weightsWritten int

	framesCommitted int
	peakJoints      int
	peakWeights     int
}

// New creates a Pool and both of its buffers
func New(logger *slog.Logger, device gpu.Device, options CreateOptions) (*Pool, error) {
	options = options.withDefaults()

	err := memutils.CheckPositive(options.BufferSize, "BufferSize")
	if err != nil {
		return nil, err
	}
	err = memutils.CheckPositive(options.MaxJoints, "MaxJoints")
	if err != nil {
		return nil, err
	}
	err = memutils.CheckPositive(options.MaxWeights, "MaxWeights")
	if err != nil {
		return nil, err
	}
	if options.NumBuffers < 2 {
		return nil, errors.Newf("a ring buffer pool needs at least 2 generations, but NumBuffers is %d", options.NumBuffers)
	}

	pool := &Pool{
		logger: logger,
		device: device,
		mutex: utils.OptionalMutex{
			UseMutex: options.Synchronized,
		},
		numBuffers: options.NumBuffers,
		bufferSize: options.BufferSize,
		maxJoints:  options.MaxJoints,
		maxWeights: options.MaxWeights,
	}

	pool.joints, err = device.CreateBuffer(gpu.BufferCreateInfo{
		Name:   "GPU Skinning Joint Buffer",
		Size:   pool.numBuffers * pool.jointBytesPerGeneration(),
		Stride: JointDataSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the joints buffer")
	}

	pool.weights, err = device.CreateBuffer(gpu.BufferCreateInfo{
		Name:   "GPU Skinning Weight Buffer",
		Size:   pool.numBuffers * pool.weightBytesPerGeneration(),
		Stride: WeightSize,
	})
	if err != nil {
		device.DestroyBuffer(pool.joints)
		return nil, errors.Wrap(err, "failed to create the weights buffer")
	}

	return pool, nil
}

func (p *Pool) jointsPerGeneration() int {
	return p.bufferSize * p.maxJoints
}

func (p *Pool) weightsPerGeneration() int {
	return p.bufferSize * p.maxWeights
}

func (p *Pool) jointBytesPerGeneration() int {
	return p.jointsPerGeneration() * JointDataSize
}

func (p *Pool) weightBytesPerGeneration() int {
	return p.weightsPerGeneration() * WeightSize
}

func (p *Pool) NumBuffers() int { return p.numBuffers }
func (p *Pool) BufferSize() int { return p.bufferSize }
func (p *Pool) MaxJoints() int  { return p.maxJoints }
func (p *Pool) MaxWeights() int { return p.maxWeights }

// JointsBuffer returns the buffer shaders read JointData from
func (p *Pool) JointsBuffer() gpu.Buffer { return p.joints }

// WeightsBuffer returns the buffer shaders read morph target weights from
func (p *Pool) WeightsBuffer() gpu.Buffer { return p.weights }

// CurrentGeneration returns the generation that the next (or current) frame writes to
func (p *Pool) CurrentGeneration() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.generation
}

// InFrame returns true between StartFrame and EndFrame
func (p *Pool) InFrame() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.inFrame
}

// StartFrame maps the current generation of both buffers for writing and resets the entry counters.
// Calling StartFrame again before EndFrame panics.
func (p *Pool) StartFrame() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.inFrame {
		panic("ringpool: StartFrame called twice without EndFrame")
	}

	var err error
	p.jointData, err = p.device.BeginWrite(p.joints, p.generation*p.jointBytesPerGeneration(), p.jointBytesPerGeneration())
	if err != nil {
		return errors.Wrapf(err, "failed to map generation %d of the joints buffer", p.generation)
	}

	p.weightData, err = p.device.BeginWrite(p.weights, p.generation*p.weightBytesPerGeneration(), p.weightBytesPerGeneration())
	if err != nil {
		_ = p.device.EndWrite(p.joints, 0)
		p.jointData = nil
		return errors.Wrapf(err, "failed to map generation %d of the weights buffer", p.generation)
	}

	p.jointsWritten = 0
	p.weightsWritten = 0
	p.inFrame = true
	return nil
}

// GetNextEntryJoints hands out room for MaxJoints joints in the current generation. It panics when called
// outside of a frame or when BufferSize entries have already been handed out this frame.
func (p *Pool) GetNextEntryJoints() JointEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.inFrame {
		panic("ringpool: GetNextEntryJoints called outside of a frame")
	}
	if p.jointsWritten >= p.bufferSize {
		panic(fmt.Sprintf("ringpool: too many joint entries requested this frame (BufferSize is %d)", p.bufferSize))
	}

	entryBytes := p.maxJoints * JointDataSize
	start := p.jointsWritten * entryBytes
	entry := JointEntry{
		Data:        p.jointData[start : start+entryBytes : start+entryBytes],
		JointOffset: p.generation*p.jointsPerGeneration() + p.jointsWritten*p.maxJoints,
	}

	p.jointsWritten++
	return entry
}

// GetNextEntryWeights hands out room for numMorphTargets weights in the current generation. It panics
// when called outside of a frame, when numMorphTargets is larger than MaxWeights, or when BufferSize
// entries have already been handed out this frame.
func (p *Pool) GetNextEntryWeights(numMorphTargets int) WeightEntry {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.inFrame {
		panic("ringpool: GetNextEntryWeights called outside of a frame")
	}
	if numMorphTargets < 0 || numMorphTargets > p.maxWeights {
		panic(fmt.Sprintf("ringpool: %d morph targets requested but MaxWeights is %d", numMorphTargets, p.maxWeights))
	}
	if p.weightsWritten >= p.bufferSize {
		panic(fmt.Sprintf("ringpool: too many weight entries requested this frame (BufferSize is %d)", p.bufferSize))
	}

	entryBytes := p.maxWeights * WeightSize
	start := p.weightsWritten * entryBytes
	entry := WeightEntry{
		Data:   p.weightData[start : start+numMorphTargets*WeightSize : start+numMorphTargets*WeightSize],
		Offset: p.generation*p.weightsPerGeneration() + p.weightsWritten*p.maxWeights,
		Count:  numMorphTargets,
	}

	p.weightsWritten++
	return entry
}

// EndFrame publishes the entries handed out this frame and moves on to the next generation. Only whole
// entries that were requested are committed, not the full generation.
func (p *Pool) EndFrame() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.inFrame {
		panic("ringpool: EndFrame called without StartFrame")
	}

	jointBytes := p.jointsWritten * p.maxJoints * JointDataSize
	weightBytes := p.weightsWritten * p.maxWeights * WeightSize

	jointErr := p.device.EndWrite(p.joints, jointBytes)
	weightErr := p.device.EndWrite(p.weights, weightBytes)

	if p.jointsWritten > p.peakJoints {
		p.peakJoints = p.jointsWritten
	}
	if p.weightsWritten > p.peakWeights {
		p.peakWeights = p.weightsWritten
	}

	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "Pool::EndFrame",
		slog.Int("generation", p.generation),
		slog.Int("jointEntries", p.jointsWritten),
		slog.Int("weightEntries", p.weightsWritten),
	)

	p.jointData = nil
	p.weightData = nil
	p.inFrame = false
	p.generation = (p.generation + 1) % p.numBuffers
	p.framesCommitted++

	err := errors.CombineErrors(jointErr, weightErr)
	if err != nil {
		return errors.Wrap(err, "failed to commit ring buffer frame")
	}

	memutils.DebugValidate(p)
	return nil
}

func (p *Pool) AddStatistics(stats *memutils.Statistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stats.BlockCount += p.numBuffers
	stats.BlockUnits += p.joints.Size() + p.weights.Size()
	stats.AllocationCount += p.jointsWritten + p.weightsWritten
	stats.AllocationUnits += p.jointsWritten*p.maxJoints*JointDataSize + p.weightsWritten*p.maxWeights*WeightSize
}

// PrintDetailedMap writes the pool's layout and usage as a JSON object
func (p *Pool) PrintDetailedMap(writer *jwriter.Writer) {
	var stats memutils.Statistics
	p.AddStatistics(&stats)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	obj := writer.Object()
	defer obj.End()

	obj.Name("NumBuffers").Int(p.numBuffers)
	obj.Name("BufferSize").Int(p.bufferSize)
	obj.Name("MaxJoints").Int(p.maxJoints)
	obj.Name("MaxWeights").Int(p.maxWeights)
	obj.Name("CurrentGeneration").Int(p.generation)
	obj.Name("InFrame").Bool(p.inFrame)
	obj.Name("FramesCommitted").Int(p.framesCommitted)
	obj.Name("PeakJointEntries").Int(p.peakJoints)
	obj.Name("PeakWeightEntries").Int(p.peakWeights)
	stats.PrintJson(&obj)
}

func (p *Pool) Validate() error {
	if p.generation < 0 || p.generation >= p.numBuffers {
		return errors.Newf("current generation %d is outside of [0, %d)", p.generation, p.numBuffers)
	}
	if p.jointsWritten > p.bufferSize || p.weightsWritten > p.bufferSize {
		return errors.Newf("%d joint and %d weight entries were handed out but BufferSize is %d",
			p.jointsWritten, p.weightsWritten, p.bufferSize)
	}
	if !p.inFrame && (p.jointData != nil || p.weightData != nil) {
		return errors.New("buffer memory is still mapped outside of a frame")
	}
	return nil
}

// Destroy releases both buffers. A frame that is still open is abandoned without being committed.
func (p *Pool) Destroy() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.inFrame {
		p.logger.LogAttrs(context.Background(), slog.LevelWarn, "ring buffer pool destroyed during a frame",
			slog.Int("generation", p.generation))
		_ = p.device.EndWrite(p.joints, 0)
		_ = p.device.EndWrite(p.weights, 0)
		p.inFrame = false
		p.jointData = nil
		p.weightData = nil
	}

	p.device.DestroyBuffer(p.joints)
	p.device.DestroyBuffer(p.weights)
}
