package scheduler

import (
	"context"
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/avatarskin/ringpool"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
)

const (
	// MaxSkinnedAvatarsPerFrame is the number of avatars expected to be animated in one frame
	MaxSkinnedAvatarsPerFrame = 32
	// MaxGpuSkinnedAvatars is the number of avatars that can be GPU skinned at once
	MaxGpuSkinnedAvatars = MaxSkinnedAvatarsPerFrame * 8
)

// Controller collects the GPU work requested during a frame and dispatches it in dependency order:
// morph target combiners, then skinners, then animators.
type Controller struct {
	logger *slog.Logger
	pool   *ringpool.Pool

	combiners []MorphTargetCombiner
	skinners  []Skinner
	animators []Animator

	updates             int
	dispatchedAnimators int
	peakAnimators       int
}

func NewController(logger *slog.Logger, pool *ringpool.Pool) *Controller {
	return &Controller{
		logger:    logger,
		pool:      pool,
		combiners: make([]MorphTargetCombiner, 0, MaxSkinnedAvatarsPerFrame),
		skinners:  make([]Skinner, 0, MaxSkinnedAvatarsPerFrame),
		animators: make([]Animator, 0, MaxSkinnedAvatarsPerFrame),
	}
}

func (c *Controller) Pool() *ringpool.Pool { return c.pool }

func addActive[T comparable](list []T, element T, kind string) []T {
	var zero T
	if element == zero {
		panic(fmt.Sprintf("scheduler: attempted to add a nil %s", kind))
	}
	if slices.Contains(list, element) {
		return list
	}
	return append(list, element)
}

// AddActiveCombiner queues a morph target combiner for the next Update. A combiner that is already queued
// stays queued once. Adding nil panics.
func (c *Controller) AddActiveCombiner(combiner MorphTargetCombiner) {
	c.combiners = addActive(c.combiners, combiner, "morph target combiner")
}

// AddActiveSkinner queues a skinner for the next Update. A skinner that is already queued stays queued once.
func (c *Controller) AddActiveSkinner(skinner Skinner) {
	c.skinners = addActive(c.skinners, skinner, "skinner")
}

// AddActiveAnimator queues an animator for the next Update. Meshes may run several animation frames
// between two Updates, so an animator that is already queued stays queued once and dispatches with the
// write destination it was given last.
func (c *Controller) AddActiveAnimator(animator Animator) {
	c.animators = addActive(c.animators, animator, "animator")
}

// PendingCombiners returns the number of combiners queued for the next Update
func (c *Controller) PendingCombiners() int { return len(c.combiners) }

// PendingSkinners returns the number of skinners queued for the next Update
func (c *Controller) PendingSkinners() int { return len(c.skinners) }

// PendingAnimators returns the number of animators queued for the next Update
func (c *Controller) PendingAnimators() int { return len(c.animators) }

// Update dispatches everything queued since the last Update and clears the queues. It must be called
// between StartFrame and EndFrame so animators can request ring buffer entries.
func (c *Controller) Update() {
	if len(c.animators) > MaxSkinnedAvatarsPerFrame {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "more animators active than expected in one frame",
			slog.Int("animators", len(c.animators)),
			slog.Int("expected", MaxSkinnedAvatarsPerFrame),
		)
	}

	if len(c.combiners) > 0 {
		for _, combiner := range c.combiners {
			combiner.CombineMorphTargets()
		}
		clear(c.combiners)
		c.combiners = c.combiners[:0]
	}

	if len(c.skinners) > 0 {
		for _, skinner := range c.skinners {
			skinner.UpdateOutputTexture()
		}
		clear(c.skinners)
		c.skinners = c.skinners[:0]
	}

	if len(c.animators) > 0 {
		for _, animator := range c.animators {
			animator.Dispatch()
		}
		c.dispatchedAnimators += len(c.animators)
		if len(c.animators) > c.peakAnimators {
			c.peakAnimators = len(c.animators)
		}
		clear(c.animators)
		c.animators = c.animators[:0]
	}

	c.updates++
}

// StartFrame begins a ring buffer frame
func (c *Controller) StartFrame() error {
	return c.pool.StartFrame()
}

// EndFrame commits the ring buffer frame
func (c *Controller) EndFrame() error {
	return c.pool.EndFrame()
}

// GetNextEntryJoints hands out joint matrix space in the current ring buffer generation
func (c *Controller) GetNextEntryJoints() ringpool.JointEntry {
	return c.pool.GetNextEntryJoints()
}

// GetNextEntryWeights hands out morph target weight space in the current ring buffer generation
func (c *Controller) GetNextEntryWeights(numMorphTargets int) ringpool.WeightEntry {
	return c.pool.GetNextEntryWeights(numMorphTargets)
}

func (c *Controller) PrintDetailedMap(json *jwriter.ObjectState) {
	json.Name("Updates").Int(c.updates)
	json.Name("DispatchedAnimators").Int(c.dispatchedAnimators)
	json.Name("PeakAnimators").Int(c.peakAnimators)
	json.Name("PendingCombiners").Int(len(c.combiners))
	json.Name("PendingSkinners").Int(len(c.skinners))
	json.Name("PendingAnimators").Int(len(c.animators))
}
