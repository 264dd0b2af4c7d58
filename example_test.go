package dering_test

import (
	"fmt"

	"github.com/deepteams/dering"
)

func ExampleApply() {
	f := dering.NewFrame(8, 8, 8, dering.Subsampling420)
	mi := dering.NewModeInfoGrid(8, 8)
	for i := range mi.Units {
		mi.Units[i] = dering.ModeInfo{Skip: true, DeringGain: 1}
	}

	stats, err := dering.Apply(f, mi, 16, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("superblocks: %d, all skip: %d, filtered: %d\n", stats.Superblocks, stats.AllSkip, stats.Filtered)
	// Output:
	// superblocks: 1, all skip: 1, filtered: 0
}

func ExampleApply_parallel() {
	f := dering.NewFrame(32, 32, 10, dering.Subsampling420)
	mi := dering.NewModeInfoGrid(32, 32)
	for i := range mi.Units {
		mi.Units[i].DeringGain = 2
	}

	opts := dering.DefaultOptions()
	opts.Workers = 4
	stats, err := dering.Apply(f, mi, 24, opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("filtered %d of %d superblocks in %d plane passes\n", stats.Filtered, stats.Superblocks, stats.PlanePasses)
	// Output:
	// filtered 16 of 16 superblocks in 48 plane passes
}

func ExampleLevelFromIndex() {
	for gi := 0; gi < dering.RefinementLevels; gi++ {
		fmt.Println(dering.LevelFromIndex(16, gi))
	}
	// Output:
	// 0
	// 11
	// 16
	// 22
}
