// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package patch

import (
	"fmt"

	"github.com/petar-djukic/hashedit/internal/diffview"
	"github.com/petar-djukic/hashedit/internal/engine"
	"github.com/petar-djukic/hashedit/internal/fuzzy"
	"github.com/petar-djukic/hashedit/internal/hashline"
	"github.com/petar-djukic/hashedit/internal/textnorm"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// New validates the config and returns a ready-to-use Patcher.
func New(cfg Config) (Patcher, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	fz := fuzzy.DefaultConfig()
	if cfg.FuzzyAccept != 0 {
		fz.Accept = cfg.FuzzyAccept
	}
	if cfg.FuzzyFallback != 0 {
		fz.Fallback = cfg.FuzzyFallback
	}
	if cfg.FuzzyDominant != 0 {
		fz.Dominant = cfg.FuzzyDominant
	}
	if cfg.FuzzyMargin != 0 {
		fz.Margin = cfg.FuzzyMargin
	}

	return &patcherAdapter{
		engine:      engine.New(engine.Config{Fuzzy: fz, ReformatWarnRatio: cfg.ReformatWarnRatio}),
		diffContext: cfg.DiffContext,
	}, nil
}

// patcherAdapter adapts internal/engine to the public Patcher interface.
type patcherAdapter struct {
	engine      *engine.Engine
	diffContext int
}

func (p *patcherAdapter) Apply(text string, ops []types.RawOp) (*types.ApplyResult, error) {
	return p.engine.Apply(text, ops)
}

func (p *patcherAdapter) ApplyEdits(text string, ops []types.EditOp) (*types.ApplyResult, error) {
	return p.engine.Apply(text, engine.FromEditOps(ops))
}

func (p *patcherAdapter) Tag(text string) string {
	lines, _ := textnorm.Split(text)
	return hashline.Format(lines, 1) + "\n"
}

func (p *patcherAdapter) Diff(oldText, newText string) *Diff {
	r := diffview.Render(oldText, newText, diffview.Config{Context: p.diffContext})
	return &Diff{Text: r.Text, Changed: r.Changed, FirstChangedLine: r.FirstChangedLine}
}

// validateConfig rejects thresholds outside (0, 1] and orderings that
// would make the fuzzy tiers contradict each other.
func validateConfig(cfg Config) error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be within (0, 1], got %v", name, v)
		}
		return nil
	}
	if err := check("FuzzyAccept", cfg.FuzzyAccept); err != nil {
		return err
	}
	if err := check("FuzzyFallback", cfg.FuzzyFallback); err != nil {
		return err
	}
	if err := check("FuzzyDominant", cfg.FuzzyDominant); err != nil {
		return err
	}
	if err := check("FuzzyMargin", cfg.FuzzyMargin); err != nil {
		return err
	}
	if cfg.FuzzyAccept != 0 && cfg.FuzzyFallback != 0 && cfg.FuzzyFallback > cfg.FuzzyAccept {
		return fmt.Errorf("FuzzyFallback %v exceeds FuzzyAccept %v", cfg.FuzzyFallback, cfg.FuzzyAccept)
	}
	if cfg.FuzzyAccept != 0 && cfg.FuzzyDominant != 0 && cfg.FuzzyDominant < cfg.FuzzyAccept {
		return fmt.Errorf("FuzzyDominant %v is below FuzzyAccept %v", cfg.FuzzyDominant, cfg.FuzzyAccept)
	}
	if cfg.ReformatWarnRatio < 0 {
		return fmt.Errorf("ReformatWarnRatio must not be negative, got %v", cfg.ReformatWarnRatio)
	}
	if cfg.DiffContext < 0 {
		return fmt.Errorf("DiffContext must not be negative, got %v", cfg.DiffContext)
	}
	return nil
}
