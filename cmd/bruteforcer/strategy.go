package main

import (
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/rockpaperscissors/game/engine"
)

// strategies maps a strategy name to a constructor. Each attempt gets its
// own instance.
var strategies = map[string]func(seed uint64) engine.ChoiceSource{
	"random": func(seed uint64) engine.ChoiceSource {
		return engine.NewSeededRandomSource(seed)
	},
	"cycle": func(uint64) engine.ChoiceSource {
		return engine.NewSequenceSource(engine.Rock, engine.Paper, engine.Scissors)
	},
	"rock": func(uint64) engine.ChoiceSource {
		return engine.NewSequenceSource(engine.Rock)
	},
	"paper": func(uint64) engine.ChoiceSource {
		return engine.NewSequenceSource(engine.Paper)
	},
	"scissors": func(uint64) engine.ChoiceSource {
		return engine.NewSequenceSource(engine.Scissors)
	},
}

func strategyNames() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newStrategy(name string, seed uint64) (engine.ChoiceSource, error) {
	newSource, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (want one of %v)", name, strategyNames())
	}
	return newSource(seed), nil
}
