package workflow

import (
	"time"

	"github.com/chefdigital/chef/internal/services/photo"
	"github.com/chefdigital/chef/internal/services/recipe"
)

// State is one snapshot of a session's generation. Snapshots are values: each
// transition builds a new one and readers never see a half-applied change.
type State struct {
	Query      string         `json:"query,omitempty"`
	Request    uint64         `json:"request"`
	TextPhase  Phase          `json:"textPhase"`
	ImagePhase Phase          `json:"imagePhase"`
	Recipe     *recipe.Recipe `json:"recipe,omitempty"`
	Image      photo.Encoded  `json:"image,omitempty"`
	Error      string         `json:"error,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Loading is the combined "still cooking" signal: true from the moment a request
// starts until its image stage settles or its text stage fails.
func (s State) Loading() bool {
	return s.TextPhase == PhaseLoading || s.ImagePhase == PhaseLoading
}

// Terminal reports whether the request behind s has finished.
func (s State) Terminal() bool {
	switch s.TextPhase {
	case PhaseFailed:
		return true
	case PhaseDone:
		return s.ImagePhase.Settled()
	}
	return false
}

// HasRecipe reports whether a finished recipe is available for display or export.
func (s State) HasRecipe() bool {
	return s.TextPhase == PhaseDone && s.Recipe != nil
}

func loading(query string, request uint64, at time.Time) State {
	return State{
		Query:      query,
		Request:    request,
		TextPhase:  PhaseLoading,
		ImagePhase: PhaseLoading,
		UpdatedAt:  at,
	}
}

func (s State) withRecipe(r *recipe.Recipe, at time.Time) State {
	s.TextPhase = PhaseDone
	s.Recipe = r
	s.UpdatedAt = at
	return s
}

func (s State) withTextFailure(message string, at time.Time) State {
	s.TextPhase = PhaseFailed
	s.ImagePhase = PhaseFailed
	s.Recipe = nil
	s.Image = ""
	s.Error = message
	s.UpdatedAt = at
	return s
}

func (s State) withImage(result ImageResult, at time.Time) State {
	if result.OK() {
		s.ImagePhase = PhaseDone
		s.Image = result.Image
	} else {
		s.ImagePhase = PhaseFailed
		s.Image = ""
	}
	s.UpdatedAt = at
	return s
}

// ImageResult is the outcome of the image stage. Exactly one of Image or Err is set.
type ImageResult struct {
	Image photo.Encoded
	Err   error
}

func (r ImageResult) OK() bool {
	return r.Err == nil && !r.Image.IsZero()
}
